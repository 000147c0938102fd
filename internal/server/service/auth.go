package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	mailer "github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/cryptox"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
	"github.com/vaultbox/vaultbox/pkg/ratex"
	"github.com/vaultbox/vaultbox/pkg/slogx"
)

// VerificationCodeTTL bounds how long an email verification link stays valid.
const VerificationCodeTTL = 24 * time.Hour

// AuthService implements registration, the pre-login parameter probe, the
// shared-secret login and the 2FA confirmation step.
type AuthService struct {
	Store    store.Store
	Identity *keyx.ServerIdentity
	Tokens   *TokenService
	Mailer   mailer.Mailer

	// StrictGate admits authentication attempts, EmailGate admits operations
	// that produce outbound mail.
	StrictGate *ratex.Gate
	EmailGate  *ratex.Gate

	// RequireVerification blocks login until the email is verified.
	RequireVerification bool
}

// Register creates a new account. The submitted shared secret is validated
// against the submitted public key, which proves the client actually derived
// a keypair rather than uploading an arbitrary key it cannot use.
func (s *AuthService) Register(ctx context.Context, ip string, req passsdk.RegisterRequest) error {
	if !s.StrictGate.Consume(ip) {
		return domain.ErrRateLimit
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.ErrInvalidBody
	}

	params := domain.Argon2Params{
		Parallelism: req.Parallelism,
		MemoryKiB:   req.Memory,
		Iterations:  req.Iterations,
	}
	if !params.Valid() {
		return domain.ErrInvalidBody
	}

	if !domain.ValidHexLen(req.PublicKey, keyx.KeySize) {
		return domain.ErrInvalidBody
	}
	if !s.Identity.ValidateProof(req.PublicKey, req.SharedKey) {
		return domain.ErrInvalidSharedSecret
	}

	now := time.Now().UTC()
	code, err := cryptox.GenerateHex(cryptox.TokenSize128)
	if err != nil {
		return err
	}
	expiry := now.Add(VerificationCodeTTL)

	user := domain.User{
		ID:                             uuid.New(),
		Email:                          email,
		EmailVerificationCode:          &code,
		EmailVerificationCodeExpiresAt: &expiry,
		Argon2Params:                   params,
		PublicKey:                      req.PublicKey,
		PasswordHint:                   req.PasswordHint,
		Created:                        now,
		LastPasswordChange:             now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.ErrDuplicated
		}
		return err
	}

	s.dispatchMail(ctx, "verification", func(ctx context.Context) error {
		return s.Mailer.SendVerification(ctx, email, user.ID, code)
	})

	return nil
}

// PreLogin returns the key-derivation parameters and the server's ephemeral
// public key. An empty or unknown email gets the bootstrap defaults, so the
// response never reveals whether an account exists.
func (s *AuthService) PreLogin(ctx context.Context, ip, email string) (passsdk.PreLoginResponse, error) {
	if !s.StrictGate.Consume(ip) {
		return passsdk.PreLoginResponse{}, domain.ErrRateLimit
	}

	params := domain.DefaultArgon2Params()

	if email != "" {
		if normalized, err := normalizeEmail(email); err == nil {
			user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
			switch {
			case err == nil:
				params = user.Argon2Params
			case errors.Is(err, store.ErrNotFound):
				// defaults
			default:
				return passsdk.PreLoginResponse{}, err
			}
		}
	}

	return passsdk.PreLoginResponse{
		Parallelism:     params.Parallelism,
		Memory:          params.MemoryKiB,
		Iterations:      params.Iterations,
		ServerPublicKey: s.Identity.PublicKeyHex(),
	}, nil
}

// Login validates the shared-secret proof against the account's registered
// public key and issues a session token. Accounts with two-factor enabled get
// an unconfirmed token that authorizes nothing but ConfirmTwoFactor.
func (s *AuthService) Login(ctx context.Context, ip string, req passsdk.LoginRequest) (passsdk.LoginResponse, error) {
	if !s.StrictGate.Consume(ip) || !s.StrictGate.Consume(strings.ToLower(req.Email)) {
		return passsdk.LoginResponse{}, domain.ErrRateLimit
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return passsdk.LoginResponse{}, domain.ErrUserNotFound
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return passsdk.LoginResponse{}, domain.ErrUserNotFound
		}
		return passsdk.LoginResponse{}, err
	}

	if s.RequireVerification && !user.EmailVerified {
		return passsdk.LoginResponse{}, domain.ErrEmailNotVerified
	}

	if !s.Identity.ValidateProof(user.PublicKey, req.SharedKey) {
		return passsdk.LoginResponse{}, domain.ErrInvalidSharedSecret
	}

	confirmed := !user.TwoFactorEnabled
	token, err := s.Tokens.Issue(ctx, user.ID, ip, confirmed)
	if err != nil {
		return passsdk.LoginResponse{}, err
	}

	if confirmed {
		s.dispatchMail(ctx, "login notification", func(ctx context.Context) error {
			return s.Mailer.SendLoginNotification(ctx, user.Email, ip)
		})
	}

	return passsdk.LoginResponse{
		UserID:    user.ID,
		Token:     token.Token,
		Confirmed: confirmed,
	}, nil
}

// ConfirmTwoFactor completes a login on a 2FA-enabled account. Accepts a
// currently valid TOTP code or the static recovery code. The recovery code
// stays valid after use; losing the authenticator must not lock the account
// out after a single recovery.
func (s *AuthService) ConfirmTwoFactor(ctx context.Context, ip string, req passsdk.TwoFactorRequest) error {
	if !s.StrictGate.Consume(ip) || !s.StrictGate.Consume(req.Token) {
		return domain.ErrRateLimit
	}

	token, err := s.Tokens.Resolve(ctx, req.Token, ip)
	if err != nil {
		return err
	}
	if token.Confirmed {
		return nil
	}

	user, err := s.Store.Users().GetUserByID(ctx, token.Owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}

	if user.TwoFactorEnabled {
		validTOTP := user.TwoFactorSecret != nil && VerifyTOTP(*user.TwoFactorSecret, req.Code)
		validRecovery := user.TwoFactorRecoveryCode != nil && req.Code == *user.TwoFactorRecoveryCode
		if !validTOTP && !validRecovery {
			return domain.ErrInvalidTwoFactor
		}
	}

	if err := s.Tokens.Confirm(ctx, token.Token); err != nil {
		return err
	}

	s.dispatchMail(ctx, "login notification", func(ctx context.Context) error {
		return s.Mailer.SendLoginNotification(ctx, user.Email, ip)
	})

	return nil
}

// RequestPasswordHint mails the stored hint to the account's address. Mail
// transport failures are logged, not surfaced; the response must not tell the
// caller whether a message went out.
func (s *AuthService) RequestPasswordHint(ctx context.Context, ip, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return domain.ErrUserNotFound
	}

	if !s.EmailGate.Consume(ip) || !s.EmailGate.Consume(normalized) {
		return domain.ErrRateLimit
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	hint := "No password hint was set for this account."
	if user.PasswordHint != nil && *user.PasswordHint != "" {
		hint = *user.PasswordHint
	}

	s.dispatchMail(ctx, "password hint", func(ctx context.Context) error {
		return s.Mailer.SendPasswordHint(ctx, user.Email, hint)
	})

	return nil
}

// ResendVerificationEmail re-sends the verification link. Idempotent: an
// already verified account is a silent success.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, ip, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return domain.ErrUserNotFound
	}

	if !s.EmailGate.Consume(ip) || !s.EmailGate.Consume(normalized) {
		return domain.ErrRateLimit
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.EmailVerified || user.EmailVerificationCode == nil {
		return nil
	}

	code := *user.EmailVerificationCode
	s.dispatchMail(ctx, "verification", func(ctx context.Context) error {
		return s.Mailer.SendVerification(ctx, user.Email, user.ID, code)
	})

	return nil
}

// VerifyEmail consumes a verification link. Idempotent when the account is
// already verified.
func (s *AuthService) VerifyEmail(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.EmailVerified {
		return nil
	}

	if user.EmailVerificationCode == nil || code == "" || code != *user.EmailVerificationCode {
		return domain.ErrEmailInvalidCode
	}
	if user.EmailVerificationCodeExpiresAt != nil && time.Now().UTC().After(*user.EmailVerificationCodeExpiresAt) {
		return domain.ErrEmailInvalidCode
	}

	return s.Store.Users().MarkEmailVerified(ctx, userID)
}

// dispatchMail fires the send on its own goroutine so responses never wait on
// the mail relay. The request context may already be cancelled by the time
// the send runs, so the goroutine gets a fresh one.
func (s *AuthService) dispatchMail(ctx context.Context, kind string, send func(context.Context) error) {
	l := slogx.FromContext(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			l.Error("mail dispatch failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()))
		}
	}()
}

// normalizeEmail lowercases and validates the address shape.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.ErrInvalidBody
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidBody
	}
	return email, nil
}
