package helpers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/halcyonlabs/halcyon/internal/apperr"
)

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message       string `json:"message"`
	Code          string `json:"code"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// RespondJSON writes data as JSON with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// RespondError maps the error onto its status and envelope. Server-side
// kinds log the full cause and report to Sentry; the client only ever sees
// the kind code, a generic message and the request id.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	reqID := middleware.GetReqID(r.Context())

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"error", err, "kind", kind, "method", r.Method, "path", r.URL.Path, "req_id", reqID)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	}

	RespondJSON(w, status, errorEnvelope{Error: errorBody{
		Message:       apperr.MessageOf(err),
		Code:          string(kind),
		CorrelationID: reqID,
	}})
}
