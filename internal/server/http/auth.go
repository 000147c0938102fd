package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req passsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	if err := h.AuthService.Register(r.Context(), httpx.ClientIP(r), req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *AuthHandler) HandlePreLogin(w http.ResponseWriter, r *http.Request) {
	resp, err := h.AuthService.PreLogin(r.Context(), httpx.ClientIP(r), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req passsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	resp, err := h.AuthService.Login(r.Context(), httpx.ClientIP(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleTwoFactor completes a 2FA login. The unconfirmed token travels in the
// body, not the Authorization header, so this endpoint sits outside the
// authentication middleware.
func (h *AuthHandler) HandleTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req passsdk.TwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	if err := h.AuthService.ConfirmTwoFactor(r.Context(), httpx.ClientIP(r), req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) HandlePasswordHint(w http.ResponseWriter, r *http.Request) {
	err := h.AuthService.RequestPasswordHint(r.Context(), httpx.ClientIP(r), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user"))
	if err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	if err := h.AuthService.VerifyEmail(r.Context(), userID, r.URL.Query().Get("code")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	err := h.AuthService.ResendVerificationEmail(r.Context(), httpx.ClientIP(r), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
