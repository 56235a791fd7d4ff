package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps the riskhunt error taxonomy onto HTTP statuses.
// Anything unclassified is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, riskhunt.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, riskhunt.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, riskhunt.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// readBody decodes the request body, reporting decode failures as
// validation errors. Zone payloads surface their own ErrValidation.
func readBody(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil {
		if errors.Is(err, riskhunt.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: invalid request body", riskhunt.ErrValidation)
	}
	return nil
}
