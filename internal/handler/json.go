package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/msomdec/result-processing/internal/domain"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Response messages shared by several handlers.
const (
	msgForbiddenAccess    = "forbidden access!"
	msgUnauthorizedAccess = "unauthorized access"
	msgInternal           = "internal server error"
	msgInvalidJSON        = "request body must be a JSON object"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps a service error onto a response. Unexpected errors
// are logged under op and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, msgUnauthorizedAccess)
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, msgForbiddenAccess)
	default:
		slog.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// readObject decodes the request body as a JSON object. Numbers keep their
// textual form. An empty body decodes to an empty object.
func readObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if obj == nil {
		return map[string]any{}, nil
	}
	return obj, nil
}
