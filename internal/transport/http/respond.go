package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pychallenge-service/internal/domain"
)

type errorPayload struct {
	Message string                    `json:"message"`
	Fields  []*domain.ValidationError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	payload := errorPayload{Message: err.Error()}
	var fieldErrs domain.ValidationErrors
	if errors.As(err, &fieldErrs) {
		payload.Fields = fieldErrs
	}
	writeJSON(w, statusFor(err), payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrChallengeNotFound), errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrNotSubmitted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorage):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
