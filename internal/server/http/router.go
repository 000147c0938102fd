package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/ratex"
	"github.com/vaultbox/vaultbox/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService      *service.TokenService
	AuthService       *service.AuthService
	CipherService     *service.CipherService
	CollectionService *service.CollectionService
	UserService       *service.UserService
	TwoFactorService  *service.TwoFactorService

	// VaultGate admits authenticated vault traffic per owner.
	VaultGate *ratex.Gate
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		VaultGate:    ratex.NewGate(ratex.VaultConfig),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		RecoverMiddleware,
	}

	return r
}

// ServeHTTP applies the global middleware chain around the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerCiphers()
	r.registerCollections()
	r.registerUser()
	r.registerSystem()
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// The services gate these themselves by IP/email before any validation,
	// so no rate-limit middleware here.
	r.Mux.HandleFunc("POST /api/auth/register", h.HandleRegister)
	r.Mux.HandleFunc("GET /api/auth/preLogin", h.HandlePreLogin)
	r.Mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	r.Mux.HandleFunc("POST /api/auth/2fa", h.HandleTwoFactor)
	r.Mux.HandleFunc("GET /api/auth/passwordHint", h.HandlePasswordHint)
	r.Mux.HandleFunc("GET /api/auth/verifyEmail", h.HandleVerifyEmail)
	r.Mux.HandleFunc("GET /api/auth/resendVerificationEmail", h.HandleResendVerification)
}

func (r *Router) registerCiphers() {
	h := &CipherHandler{CipherService: r.CipherService}

	r.Mux.Handle("PUT /api/cipher", r.secured(h.HandleSave))
	r.Mux.Handle("GET /api/cipher", r.secured(h.HandleList))
	r.Mux.Handle("GET /api/cipher/sync", r.secured(h.HandleSync))
	r.Mux.Handle("GET /api/cipher/icon", http.HandlerFunc(h.HandleIcon))
	r.Mux.Handle("GET /api/cipher/{id}", r.secured(h.HandleGet))
	r.Mux.Handle("DELETE /api/cipher/{id}", r.secured(h.HandleDelete))
}

func (r *Router) registerCollections() {
	h := &CollectionHandler{CollectionService: r.CollectionService}

	r.Mux.Handle("PUT /api/collection", r.secured(h.HandleSave))
	r.Mux.Handle("GET /api/collection", r.secured(h.HandleList))
	r.Mux.Handle("GET /api/collection/{id}", r.secured(h.HandleGet))
	r.Mux.Handle("DELETE /api/collection/{id}", r.secured(h.HandleDelete))
}

func (r *Router) registerUser() {
	h := &UserHandler{
		UserService:      r.UserService,
		TwoFactorService: r.TwoFactorService,
	}

	r.Mux.Handle("PATCH /api/user/password", r.secured(h.HandleChangePassword))
	r.Mux.Handle("POST /api/user/setup/2fa", r.secured(h.HandleSetupTwoFactor))
	r.Mux.Handle("DELETE /api/user/delete", r.secured(h.HandleDeleteAccount))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}

// secured wraps a handler with confirmed-token authentication and the
// per-owner vault rate limit.
func (r *Router) secured(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		AuthnMiddleware(r.TokenService),
		RateLimitByOwner(r.VaultGate),
	)
}
