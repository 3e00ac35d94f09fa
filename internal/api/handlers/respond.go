package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/pipeline"
)

// ErrorWriter renders errors as {"error": msg}. Multi-stage failures also
// carry "stage". In legacy mode every error is sent with status 200.
type ErrorWriter struct {
	Legacy bool
}

func (ew ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	body := map[string]string{"error": clientMessage(err, kind)}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		body["stage"] = string(se.Stage)
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"kind", kind.String(),
		"status", status,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	}
	if se != nil {
		attrs = append(attrs, "stage", se.Stage)
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request failed", attrs...)
	}

	if ew.Legacy {
		status = http.StatusOK
	}
	writeJSON(w, status, body)
}

// clientMessage hides unclassified internals behind a generic message.
func clientMessage(err error, kind apperr.Kind) string {
	var ae *apperr.Error
	if kind == apperr.KindInternal && !errors.As(err, &ae) {
		return "Internal server error."
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.Wrap(apperr.KindInvalidInput, "api.decode", err, "Invalid request body.")
	}
	return nil
}
