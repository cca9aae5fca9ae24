package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bookdesk/internal/apperr"
	"github.com/starford/bookdesk/internal/remote"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error" validate:"required"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps a core error to a status code and body.
func writeError(w http.ResponseWriter, err error) {
	var (
		me *apperr.MutationError
		fe *apperr.FetchError
	)
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{
			Error:  apperr.ErrValidation.Error(),
			Fields: fieldErrors(err),
		})
	case errors.As(err, &me) && errors.Is(err, remote.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("book not found"))
	case errors.As(err, &me):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func fieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for field, e := range verrs {
		if e != nil {
			out[field] = e.Error()
		}
	}
	return out
}
