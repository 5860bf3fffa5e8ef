package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "wellnest/pkg/errors"
	apphttp "wellnest/pkg/http"
	"wellnest/pkg/logger"
)

type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (tw *timeoutWriter) WriteHeader(statusCode int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.written {
		return
	}
	tw.written = true
	tw.ResponseWriter.WriteHeader(statusCode)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.written = true
	return tw.ResponseWriter.Write(b)
}

func (tw *timeoutWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.written {
		return false
	}
	tw.timedOut = true
	return true
}

func Timeout(timeout time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			tw := &timeoutWriter{ResponseWriter: w}

			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if tw.markTimedOut() {
					log.Warn("request timed out",
						"request_id", requestIDFrom(r),
						"method", r.Method,
						"path", r.URL.Path,
						"timeout", timeout.String(),
					)
					appErr := apperrors.New(apperrors.CodeInternal, "request timed out", http.StatusGatewayTimeout)
					if werr := apphttp.WriteError(w, appErr); werr != nil {
						log.Error("failed to write timeout response", "error", werr)
					}
				}
				<-done
			}
		})
	}
}
