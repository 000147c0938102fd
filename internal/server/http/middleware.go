package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/ratex"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// sessionFrom returns the authenticated session placed by AuthnMiddleware.
func sessionFrom(ctx context.Context) (domain.SessionToken, bool) {
	t, ok := ctx.Value(ctxKeySession).(domain.SessionToken)
	return t, ok
}

// AuthnMiddleware resolves the bearer token and requires it to be confirmed.
// Unconfirmed tokens exist only between login and the second factor and may
// not touch any protected endpoint.
func AuthnMiddleware(tokens *service.TokenService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, r, domain.ErrInvalidToken)
				return
			}

			session, err := tokens.Resolve(r.Context(), raw, httpx.ClientIP(r))
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !session.Confirmed {
				writeError(w, r, domain.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitByOwner admits authenticated requests through the gate keyed by
// the session owner. Runs after AuthnMiddleware.
func RateLimitByOwner(gate *ratex.Gate) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := sessionFrom(r.Context())
			if !ok {
				writeError(w, r, domain.ErrInvalidToken)
				return
			}
			if !gate.Consume(session.Owner.String()) {
				writeError(w, r, domain.ErrRateLimit)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
