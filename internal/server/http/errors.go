package http

import (
	"errors"
	"net/http"

	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
	"github.com/vaultbox/vaultbox/pkg/slogx"
)

// writeError maps a service failure onto the wire. Typed API errors carry
// their own status and stable code; anything else is an unexpected fault that
// gets logged in full and surfaced as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		httpx.WriteJSON(w, apiErr.Status, passsdk.ErrorResponse{
			Error:  apiErr.Code,
			Status: apiErr.Status,
		})
		return
	}

	slogx.FromContext(r.Context()).Error("unexpected server fault", "err", err)
	httpx.WriteJSON(w, http.StatusInternalServerError, passsdk.ErrorResponse{
		Error:  "Internal-Error",
		Status: http.StatusInternalServerError,
	})
}

// RecoverMiddleware converts handler panics into the generic 500 so no fault
// propagates past the HTTP boundary.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slogx.FromContext(r.Context()).Error("handler panic", "panic", rec)
				httpx.WriteJSON(w, http.StatusInternalServerError, passsdk.ErrorResponse{
					Error:  "Internal-Error",
					Status: http.StatusInternalServerError,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
