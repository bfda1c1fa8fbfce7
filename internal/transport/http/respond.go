package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/requestcontext"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto the wire envelope. Internal causes are
// logged with the request ID but never leaked to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	message := dErrors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", requestcontext.RequestID(r.Context())),
			slog.String("error", err.Error()))
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: string(code), Message: message})
}
