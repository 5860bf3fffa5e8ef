package middleware

import (
	"mime"
	"net/http"

	apperrors "wellnest/pkg/errors"
	apphttp "wellnest/pkg/http"
)

// RequireJSON rejects mutating requests whose Content-Type is not
// application/json. GET, HEAD and bodiless requests pass through.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		contentType := r.Header.Get("Content-Type")
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			appErr := apperrors.New(
				apperrors.CodeInvalidInput,
				"Content-Type must be application/json",
				http.StatusUnsupportedMediaType,
			)
			apphttp.WriteError(w, appErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}
