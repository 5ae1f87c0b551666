package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
)

// Recovery is the outermost guard: it turns a handler panic into the
// standard internal-error response instead of tearing down the server.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					appErr := apperrors.Internal(fmt.Errorf("panic: %v", rec))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(appErr.Status)
					if err := json.NewEncoder(w).Encode(map[string]string{
						"code":    appErr.Code,
						"message": appErr.Message,
					}); err != nil {
						l.Error("failed to encode response", slog.String("error", err.Error()))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
