package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "wellnest/pkg/errors"
	apphttp "wellnest/pkg/http"
	"wellnest/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						"request_id", requestIDFrom(r),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)

					appErr := apperrors.Internal("internal server error", nil)
					if werr := apphttp.WriteError(w, appErr); werr != nil {
						log.Error("failed to write error response", "error", werr)
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
