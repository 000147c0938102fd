package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

// UserService handles the account-level operations: password rotation and
// account deletion.
type UserService struct {
	Store    store.Store
	Identity *keyx.ServerIdentity
}

// ChangePassword atomically rotates the account's key material and every
// cipher's protected data. The submission must re-encrypt the complete owned
// vault; an owned cipher missing from the submission would become permanently
// unreadable under the new key, so the whole operation is refused.
//
// The snapshot of owned ids, the batch re-key and the key material update run
// in one write transaction. SQLite's single writer serializes the transaction
// against concurrent same-owner inserts, so no cipher can slip in between the
// snapshot and the commit.
func (s *UserService) ChangePassword(ctx context.Context, requester uuid.UUID, req passsdk.ChangePasswordRequest) error {
	params := domain.Argon2Params{
		Parallelism: req.Parallelism,
		MemoryKiB:   req.Memory,
		Iterations:  req.Iterations,
	}
	if !params.Valid() {
		return domain.ErrInvalidBody
	}
	if !domain.ValidHexLen(req.NewPublicKey, keyx.KeySize) {
		return domain.ErrInvalidBody
	}
	if !s.Identity.ValidateProof(req.NewPublicKey, req.NewSharedKey) {
		return domain.ErrInvalidSharedSecret
	}

	submitted := make(map[uuid.UUID]string, len(req.Ciphers))
	for _, c := range req.Ciphers {
		if !domain.ValidHex(c.Data) {
			return domain.ErrInvalidCipher
		}
		submitted[c.ID] = c.Data
	}
	if len(submitted) != len(req.Ciphers) {
		return domain.ErrInvalidBody
	}

	now := time.Now().UTC()

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, requester)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}

		if !s.Identity.ValidateProof(user.PublicKey, req.OldSharedKey) {
			return domain.ErrInvalidSharedSecret
		}

		owned, err := tx.Ciphers().ListIDsByOwner(ctx, requester)
		if err != nil {
			return err
		}

		ownedSet := make(map[uuid.UUID]struct{}, len(owned))
		for _, id := range owned {
			if _, ok := submitted[id]; !ok {
				return domain.ErrInvalidBody
			}
			ownedSet[id] = struct{}{}
		}
		for id := range submitted {
			if _, ok := ownedSet[id]; !ok {
				return domain.ErrCipherNotFound
			}
		}

		for _, id := range owned {
			if err := tx.Ciphers().UpdateProtectedData(ctx, requester, id, submitted[id], now); err != nil {
				return err
			}
		}

		return tx.Users().UpdateAuthMaterial(ctx, requester, params, req.NewPublicKey, req.NewPasswordHint, now)
	})
}

// DeleteAccount removes the account and everything it owns. Requires a fresh
// ownership proof, plus a valid second factor when 2FA is enabled.
func (s *UserService) DeleteAccount(ctx context.Context, requester uuid.UUID, req passsdk.DeleteAccountRequest) error {
	user, err := s.Store.Users().GetUserByID(ctx, requester)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if !s.Identity.ValidateProof(user.PublicKey, req.SharedKey) {
		return domain.ErrInvalidSharedSecret
	}

	if user.TwoFactorEnabled {
		validTOTP := user.TwoFactorSecret != nil && VerifyTOTP(*user.TwoFactorSecret, req.Code)
		validRecovery := user.TwoFactorRecoveryCode != nil && req.Code != "" && req.Code == *user.TwoFactorRecoveryCode
		if !validTOTP && !validRecovery {
			return domain.ErrInvalidTwoFactor
		}
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().DeleteAllByOwner(ctx, requester); err != nil {
			return err
		}
		if err := tx.Ciphers().DeleteAllByOwner(ctx, requester); err != nil {
			return err
		}
		if err := tx.Collections().DeleteAllByOwner(ctx, requester); err != nil {
			return err
		}
		return tx.Users().DeleteUser(ctx, requester)
	})
}
