package request

import (
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/helpdesk/pkg/logging"
)

// NotFoundHandler returns a handler that returns a 404 response.
func NotFoundHandler(l *slog.Logger) http.HandlerFunc {
	return statusHandler(l, http.StatusNotFound, "Not found")
}

// MethodNotAllowedHandler returns a handler that returns a 405 response.
func MethodNotAllowedHandler(l *slog.Logger) http.HandlerFunc {
	return statusHandler(l, http.StatusMethodNotAllowed, "Method not allowed")
}

func statusHandler(l *slog.Logger, status int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := Encode(w, status, NewMessage(msg)); err != nil {
			l.Error("Error encoding response",
				slog.String(logging.KeyError, err.Error()),
				slog.String("path", r.URL.Path),
			)
		}
	}
}
