package http

import (
	"encoding/json"
	"net/http"

	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/pkg/httpx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

type UserHandler struct {
	UserService      *service.UserService
	TwoFactorService *service.TwoFactorService
}

func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	var req passsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), session.Owner, req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) HandleSetupTwoFactor(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	var req passsdk.SetupTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	recoveryCode, err := h.TwoFactorService.Setup(r.Context(), session.Owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, passsdk.SetupTwoFactorResponse{RecoveryCode: recoveryCode})
}

func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeError(w, r, domain.ErrInvalidToken)
		return
	}

	var req passsdk.DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.ErrInvalidBody)
		return
	}

	if err := h.UserService.DeleteAccount(r.Context(), session.Owner, req); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
