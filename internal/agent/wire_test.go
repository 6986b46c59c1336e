package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/oracle"
)

func TestModelOutputParsesSpanishKeys(t *testing.T) {
	raw := `{
		"role": "formulario",
		"respuesta_chat": "Gracias, anotado.",
		"acciones": {
			"actualizar_formulario": {"cultivo": "maiz", "foto_recibida": true},
			"alerta": {"nivel": "alto", "motivo": "plaga", "accion_recomendada": "fumigar"},
			"bitacora": {"fecha": "2024-06-10", "notas": "hojas amarillas", "metricas": {"humedad": 40}},
			"actualizar_tarea": {"task_id": "t1", "status": "EN_PROGRESO", "avance": 30}
		},
		"estado": {"formulario_completo": false, "confianza": 0.8}
	}`

	out, err := oracle.ExtractJSON[ModelOutput](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "formulario", out.Role)
	assert.Equal(t, "Gracias, anotado.", out.ChatReply)

	bundle := out.ToBundle()
	require.NotNil(t, bundle.FormUpdate)
	require.NotNil(t, bundle.FormUpdate.Crop)
	assert.Equal(t, "maiz", *bundle.FormUpdate.Crop)
	require.NotNil(t, bundle.FormUpdate.PhotoReceived)
	assert.True(t, *bundle.FormUpdate.PhotoReceived)
	assert.Nil(t, bundle.FormUpdate.Symptom)
	assert.False(t, bundle.CloseForm)

	require.NotNil(t, bundle.Alert)
	assert.Equal(t, "alto", bundle.Alert.Level)
	assert.Equal(t, "plaga", bundle.Alert.Reason)
	assert.Equal(t, "fumigar", bundle.Alert.Action)
	// The outbound alert message is the chat reply.
	assert.Equal(t, "Gracias, anotado.", bundle.Alert.Message)

	require.NotNil(t, bundle.Log)
	assert.Equal(t, "2024-06-10", bundle.Log.LogDate)
	assert.Equal(t, "hojas amarillas", bundle.Log.Notes)
	assert.Equal(t, float64(40), bundle.Log.Metrics["humedad"])

	require.NotNil(t, bundle.TaskUpdate)
	assert.Equal(t, "t1", bundle.TaskUpdate.TaskID)
	assert.Equal(t, "EN_PROGRESO", bundle.TaskUpdate.Status)
	require.NotNil(t, bundle.TaskUpdate.ProgressPct)
	assert.Equal(t, 30, *bundle.TaskUpdate.ProgressPct)
}

func TestModelOutputEmptyActions(t *testing.T) {
	out, err := oracle.ExtractJSON[ModelOutput](`{"role":"consulta","respuesta_chat":"hola","acciones":{}}`, nil)
	require.NoError(t, err)

	bundle := out.ToBundle()
	assert.Nil(t, bundle.FormUpdate)
	assert.Nil(t, bundle.Alert)
	assert.Nil(t, bundle.Log)
	assert.Nil(t, bundle.TaskUpdate)
	assert.False(t, bundle.CloseForm)
}

func TestModelOutputDefaultsAlertFields(t *testing.T) {
	out, err := oracle.ExtractJSON[ModelOutput](`{"respuesta_chat":"ojo","acciones":{"alerta":{}}}`, nil)
	require.NoError(t, err)

	bundle := out.ToBundle()
	require.NotNil(t, bundle.Alert)
	assert.Equal(t, "sin motivo", bundle.Alert.Reason)
	assert.Equal(t, "sin accion", bundle.Alert.Action)
}

func TestModelOutputFormCompleteClosesForm(t *testing.T) {
	raw := `{"respuesta_chat":"listo","acciones":{},"estado":{"formulario_completo":true,"confianza":0.9}}`
	out, err := oracle.ExtractJSON[ModelOutput](raw, nil)
	require.NoError(t, err)

	bundle := out.ToBundle()
	assert.True(t, bundle.CloseForm)
	assert.Nil(t, bundle.FormUpdate)
}

func TestModelOutputEmptyFormUpdateIgnored(t *testing.T) {
	raw := `{"respuesta_chat":"x","acciones":{"actualizar_formulario":{}}}`
	out, err := oracle.ExtractJSON[ModelOutput](raw, nil)
	require.NoError(t, err)
	assert.Nil(t, out.ToBundle().FormUpdate)
}
