package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

// totpOpts matches the parameters the client apps generate codes with.
// Skew 2 tolerates up to a minute of clock drift either way.
var totpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      2,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// VerifyTOTP reports whether code is a currently valid TOTP code for secret.
// Shared between 2FA enrolment and the login confirmation step.
func VerifyTOTP(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totpOpts)
	return err == nil && ok
}

// TwoFactorService handles TOTP enrolment.
type TwoFactorService struct {
	Store    store.Store
	Identity *keyx.ServerIdentity
}

// Setup enrols the account into TOTP two-factor. The caller proves account
// ownership with a fresh shared-secret proof and proves possession of the
// secret by presenting one valid code for it. The recovery code is returned
// exactly once and cannot be retrieved again.
func (s *TwoFactorService) Setup(ctx context.Context, requester uuid.UUID, req passsdk.SetupTwoFactorRequest) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, requester)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}

	if !s.Identity.ValidateProof(user.PublicKey, req.SharedKey) {
		return "", domain.ErrInvalidSharedSecret
	}

	if req.Secret == "" || !VerifyTOTP(req.Secret, req.Code) {
		return "", domain.ErrInvalidTwoFactor
	}

	recoveryCode := uuid.NewString()
	if err := s.Store.Users().EnableTwoFactor(ctx, requester, req.Secret, recoveryCode); err != nil {
		return "", err
	}

	return recoveryCode, nil
}
