package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avaldivia/cosecha/internal/agent"
	"github.com/avaldivia/cosecha/internal/oracle"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/service"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses: guard failures are 403,
// validation failures 400, missing records 404, and oracle trouble 502/504.
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, agent.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, agent.ErrNotAllowed),
		errors.Is(err, agent.ErrProducerInactive),
		errors.Is(err, agent.ErrAgentDisabled),
		errors.Is(err, agent.ErrRoleDisabled):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, oracle.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, oracle.ErrUnavailable),
		errors.Is(err, oracle.ErrInvalidOutput),
		errors.Is(err, oracle.ErrRetryExhausted):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return service.NewValidationError("body", "invalid JSON")
	}
	return nil
}
