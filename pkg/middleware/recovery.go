package middleware

import (
	"net/http"
	"runtime/debug"

	"gather/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic recovered",
						"request_id", RequestIDFromContext(r.Context()),
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSONError is used where the pkg/http helpers would create an import
// cycle or where the body must be a fixed literal.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
