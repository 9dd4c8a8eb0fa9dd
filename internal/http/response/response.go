package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MessageBody acknowledges operations that return no resource.
type MessageBody struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.WarnContext(r.Context(), "response encode failed", "path", r.URL.Path, "error", err)
	}
}

func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, MessageBody{Message: message})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	JSON(w, r, status, ErrorBody{Message: message, Code: code, Details: details})
}

func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
