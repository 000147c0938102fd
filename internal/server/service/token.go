package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/cryptox"
)

// TouchInterval is how stale a token's lastUsed may get before a resolve
// refreshes it. Touching on every request would turn each read into a write.
const TouchInterval = 5 * time.Minute

// TokenService issues and resolves opaque session tokens. The token string is
// the database key; possession is the whole proof.
type TokenService struct {
	Store store.Store
}

// Issue mints a fresh token for owner. Confirmed starts false when the account
// still owes a second factor.
func (s *TokenService) Issue(ctx context.Context, owner uuid.UUID, ip string, confirmed bool) (domain.SessionToken, error) {
	raw, err := cryptox.GenerateSessionToken()
	if err != nil {
		return domain.SessionToken{}, err
	}

	now := time.Now().UTC()
	t := domain.SessionToken{
		Token:     raw,
		Owner:     owner,
		Confirmed: confirmed,
		LastIP:    ip,
		Created:   now,
		LastUsed:  now,
	}

	if err := s.Store.Tokens().CreateToken(ctx, t); err != nil {
		return domain.SessionToken{}, err
	}
	return t, nil
}

// Resolve authenticates a bearer token string. Tokens minted before the
// account's last password change are dead: rotating the password is the
// documented way to revoke every stolen session. LastUsed/lastIp are refreshed
// when the caller's IP changed or the last touch is older than TouchInterval.
//
// Every failure collapses to ErrInvalidToken so callers cannot probe which
// part of the check failed.
func (s *TokenService) Resolve(ctx context.Context, token, ip string) (domain.SessionToken, error) {
	t, err := s.Store.Tokens().GetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionToken{}, domain.ErrInvalidToken
		}
		return domain.SessionToken{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, t.Owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionToken{}, domain.ErrInvalidToken
		}
		return domain.SessionToken{}, err
	}

	if t.Created.Before(user.LastPasswordChange) {
		return domain.SessionToken{}, domain.ErrInvalidToken
	}

	now := time.Now().UTC()
	if ip != t.LastIP || now.Sub(t.LastUsed) >= TouchInterval {
		if err := s.Store.Tokens().TouchToken(ctx, t.Token, ip, now); err != nil {
			return domain.SessionToken{}, err
		}
		t.LastIP = ip
		t.LastUsed = now
	}

	return t, nil
}

// Confirm flips the token's confirmed flag after a successful second factor.
func (s *TokenService) Confirm(ctx context.Context, token string) error {
	err := s.Store.Tokens().ConfirmToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrInvalidToken
	}
	return err
}

// RevokeAll deletes every session of an account.
func (s *TokenService) RevokeAll(ctx context.Context, owner uuid.UUID) error {
	return s.Store.Tokens().DeleteAllByOwner(ctx, owner)
}
