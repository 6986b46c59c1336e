package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

// DefaultMaxTokens bounds one oracle reply when a role config does not
// override it.
const DefaultMaxTokens = 300

// DefaultPrompts holds the seed system prompt per role. The assistant talks
// to producers in Spanish, so the prompts are Spanish too.
var DefaultPrompts = map[domain.Role]string{
	domain.RoleFormulario: "Eres un asistente agrónomo por WhatsApp. Pregunta natural y breve. " +
		"Extrae datos para completar el formulario, una bitácora diaria, y el avance de tareas. " +
		"Devuelve SOLO JSON válido con las claves: " +
		"role, respuesta_chat, acciones{actualizar_formulario,alerta,bitacora,actualizar_tarea}, " +
		"estado{formulario_completo,confianza}.",
	domain.RoleConsulta: "Responde usando SOLO la información del contexto. " +
		"Si falta información, pide una sola aclaración. " +
		"Devuelve SOLO JSON válido con las claves: " +
		"role, respuesta_chat, acciones{actualizar_formulario,alerta,bitacora}, " +
		"estado{formulario_completo,confianza}.",
	domain.RoleIntervencion: "Analiza persistencia o riesgo con el historial. " +
		"Si amerita, genera alerta. " +
		"Devuelve SOLO JSON válido con las claves: " +
		"role, respuesta_chat, acciones{actualizar_formulario,alerta,bitacora}, " +
		"estado{formulario_completo,confianza}.",
}

var roleDescriptions = map[domain.Role]string{
	domain.RoleFormulario:   "Recolección de datos del formulario de intake",
	domain.RoleConsulta:     "Consultas sobre el contexto del productor",
	domain.RoleIntervencion: "Detección de persistencia o riesgo",
}

// EnsureDefaultConfigs seeds an agent config per role when none exists.
// Existing rows are left alone so admin edits to prompts survive restarts.
func EnsureDefaultConfigs(ctx context.Context, configs repository.AgentConfigRepo) error {
	for role, prompt := range DefaultPrompts {
		_, err := configs.GetByRole(ctx, role)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		cfg := &domain.AgentConfig{
			ID:          uuid.New().String(),
			Role:        role,
			Enabled:     true,
			Description: roleDescriptions[role],
			Prompt:      prompt,
			MaxTokens:   DefaultMaxTokens,
		}
		if err := configs.Upsert(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}
