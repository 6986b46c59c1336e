package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/oracle"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/service"
)

// Guard errors. Handlers map them to authorization failures.
var (
	ErrNotAllowed       = errors.New("producer not authorized")
	ErrProducerInactive = errors.New("producer inactive")
	ErrAgentDisabled    = errors.New("agent disabled")
	ErrRoleDisabled     = errors.New("role disabled for producer")
	ErrInvalidRole      = errors.New("invalid role")
)

// TurnInput is one inbound producer message. Role may be empty, in which
// case the producer's assigned role (or formulario) handles the turn.
type TurnInput struct {
	Phone   string
	Role    string
	Message string
}

// TurnResult is the full outcome of one conversation turn.
type TurnResult struct {
	Producer *domain.Producer
	Snapshot *Snapshot
	Output   *ModelOutput
	Actions  *service.ActionResult
}

// Runner executes conversation turns: resolve the producer, build the
// context snapshot, consult the oracle, and apply the requested actions.
// Turns for the same phone are serialized.
type Runner struct {
	producers service.ProducerService
	forms     service.FormService
	actions   service.ActionService
	messages  repository.MessageRepo
	configs   repository.AgentConfigRepo
	builder   *ContextBuilder
	oracle    oracle.Client

	turns *keyedMutex
}

func NewRunner(
	producers service.ProducerService,
	forms service.FormService,
	actions service.ActionService,
	messages repository.MessageRepo,
	configs repository.AgentConfigRepo,
	builder *ContextBuilder,
	client oracle.Client,
) *Runner {
	return &Runner{
		producers: producers,
		forms:     forms,
		actions:   actions,
		messages:  messages,
		configs:   configs,
		builder:   builder,
		oracle:    client,
		turns:     newKeyedMutex(),
	}
}

func (r *Runner) HandleTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if in.Phone == "" {
		return nil, service.NewValidationError("phone", "must not be empty")
	}

	unlock := r.turns.Lock(in.Phone)
	defer unlock()

	producer, err := r.producers.GetOrCreateByPhone(ctx, in.Phone)
	if err != nil {
		return nil, err
	}

	role, err := resolveRole(in.Role, producer)
	if err != nil {
		return nil, err
	}

	// The inbound message is recorded before authorization so admins can
	// see what unapproved producers are writing.
	if err := r.recordMessage(ctx, producer.ID, domain.DirectionUser, in.Message, "received"); err != nil {
		return nil, err
	}

	if err := checkGuards(producer, role); err != nil {
		return nil, err
	}

	cfg, err := r.agentConfig(ctx, role)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrAgentDisabled, role)
	}

	form, err := r.forms.GetOrCreateOpen(ctx, producer.ID)
	if err != nil {
		return nil, err
	}

	snap, err := r.builder.Build(ctx, role, producer, form, in.Message)
	if err != nil {
		return nil, err
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	resp, err := r.oracle.Generate(ctx, oracle.GenerateRequest{
		Role:         string(role),
		SystemPrompt: cfg.Prompt,
		UserPrompt:   string(snapJSON),
		MaxTokens:    cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	output, err := oracle.ExtractJSON[ModelOutput](resp.Text, nil)
	if err != nil {
		return nil, err
	}

	actions, err := r.actions.Apply(ctx, producer, output.ToBundle())
	if err != nil {
		return nil, err
	}

	if err := r.recordMessage(ctx, producer.ID, domain.DirectionAssistant, output.ChatReply, "sent"); err != nil {
		return nil, err
	}

	return &TurnResult{
		Producer: producer,
		Snapshot: snap,
		Output:   output,
		Actions:  actions,
	}, nil
}

func resolveRole(raw string, producer *domain.Producer) (domain.Role, error) {
	if raw == "" {
		if producer.AssignedRole != nil {
			return *producer.AssignedRole, nil
		}
		return domain.RoleFormulario, nil
	}
	role := domain.Role(raw)
	if !domain.ValidRoles[role] {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, raw)
	}
	return role, nil
}

func checkGuards(producer *domain.Producer, role domain.Role) error {
	if !producer.Allowed {
		return ErrNotAllowed
	}
	if producer.Status != domain.ProducerActive {
		return ErrProducerInactive
	}
	switch role {
	case domain.RoleFormulario:
		if !producer.EnableFormulario {
			return fmt.Errorf("%w: formulario", ErrRoleDisabled)
		}
	case domain.RoleConsulta:
		if !producer.EnableConsulta {
			return fmt.Errorf("%w: consulta", ErrRoleDisabled)
		}
	case domain.RoleIntervencion:
		if !producer.EnableIntervencion {
			return fmt.Errorf("%w: intervencion", ErrRoleDisabled)
		}
	}
	return nil
}

// agentConfig loads the stored role config, falling back to the built-in
// defaults when seeding has not run.
func (r *Runner) agentConfig(ctx context.Context, role domain.Role) (*domain.AgentConfig, error) {
	cfg, err := r.configs.GetByRole(ctx, role)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &domain.AgentConfig{
		Role:      role,
		Enabled:   true,
		Prompt:    DefaultPrompts[role],
		MaxTokens: DefaultMaxTokens,
	}, nil
}

func (r *Runner) recordMessage(ctx context.Context, producerID string, dir domain.MessageDirection, content, status string) error {
	return r.messages.Create(ctx, &domain.Message{
		ID:         uuid.New().String(),
		ProducerID: producerID,
		Direction:  dir,
		Content:    content,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	})
}
