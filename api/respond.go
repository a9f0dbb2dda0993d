package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/garnizeh/mentorhub/internal/mentorship"
	"github.com/garnizeh/mentorhub/internal/schema"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, errorResponse{Error: msg}, status)
}

// writeServiceError maps workflow errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mentorship.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, mentorship.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, mentorship.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody validates the request body against the named schema and decodes
// it into dst. It writes the error response itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, schemas *schema.Loader, name string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	if schemas != nil {
		if err := schemas.Validate(r.Context(), name, body); err != nil {
			var ve *schema.ValidationError
			if errors.As(err, &ve) {
				writeError(w, http.StatusBadRequest, ve.Error())
				return false
			}
			if errors.Is(err, schema.ErrUnknownSchema) {
				logger.Error("schema missing", slog.String("schema", name))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return false
			}
			writeError(w, http.StatusBadRequest, "invalid request")
			return false
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
