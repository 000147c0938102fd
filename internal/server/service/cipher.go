package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

// DefaultMaxCiphersPerOwner caps vault size per account.
const DefaultMaxCiphersPerOwner = 1000

// CipherService is the encrypted vault. Every operation is owner-scoped; the
// service never inspects protected data beyond checking the hex encoding.
type CipherService struct {
	Store store.Store

	// MaxPerOwner caps the vault size. Zero means DefaultMaxCiphersPerOwner.
	MaxPerOwner int64
}

func (s *CipherService) maxPerOwner() int64 {
	if s.MaxPerOwner > 0 {
		return s.MaxPerOwner
	}
	return DefaultMaxCiphersPerOwner
}

// Save inserts a new cipher or updates one in place. The vault size limit
// applies only to inserts; an account at the cap can still update what it has.
func (s *CipherService) Save(ctx context.Context, requester uuid.UUID, req passsdk.CipherRequest) (domain.EncryptedCipher, error) {
	if req.Owner != requester {
		return domain.EncryptedCipher{}, domain.ErrInvalidCipher
	}
	if !domain.CipherType(req.Type).Valid() {
		return domain.EncryptedCipher{}, domain.ErrInvalidCipher
	}
	if !domain.ValidHex(req.ProtectedData) {
		return domain.EncryptedCipher{}, domain.ErrInvalidCipher
	}

	now := time.Now().UTC()

	c := domain.EncryptedCipher{
		ID:            req.ID,
		Owner:         requester,
		Type:          domain.CipherType(req.Type),
		ProtectedData: req.ProtectedData,
		Collection:    req.Collection,
		Favorite:      req.Favorite,
		RePrompt:      req.RePrompt,
		Version:       req.Version,
		Created:       now,
		LastModified:  now,
	}
	if c.Version < 1 {
		c.Version = 1
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	updating := false
	existing, err := s.Store.Ciphers().GetCipher(ctx, requester, c.ID)
	switch {
	case err == nil:
		updating = true
		c.Created = existing.Created
	case errors.Is(err, store.ErrNotFound):
		count, err := s.Store.Ciphers().CountByOwner(ctx, requester)
		if err != nil {
			return domain.EncryptedCipher{}, err
		}
		if count >= s.maxPerOwner() {
			return domain.EncryptedCipher{}, domain.ErrInvalidCipher
		}
	default:
		return domain.EncryptedCipher{}, err
	}

	if err := s.Store.Ciphers().UpsertCipher(ctx, c); err != nil {
		if !updating && errors.Is(err, store.ErrNotFound) {
			// The id exists under another owner, so the conflict guard refused
			// the row. Mint a fresh id and insert again; the response must be
			// indistinguishable from any other insert.
			c.ID = uuid.New()
			if err := s.Store.Ciphers().UpsertCipher(ctx, c); err != nil {
				return domain.EncryptedCipher{}, err
			}
			return c, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			return domain.EncryptedCipher{}, domain.ErrInvalidCipher
		}
		return domain.EncryptedCipher{}, err
	}

	return c, nil
}

// Get fetches one cipher. Absence and foreign ownership are the same error.
func (s *CipherService) Get(ctx context.Context, requester, id uuid.UUID) (domain.EncryptedCipher, error) {
	c, err := s.Store.Ciphers().GetCipher(ctx, requester, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.EncryptedCipher{}, domain.ErrCipherNotFound
	}
	return c, err
}

// List returns every cipher the requester owns.
func (s *CipherService) List(ctx context.Context, requester uuid.UUID) ([]domain.EncryptedCipher, error) {
	return s.Store.Ciphers().ListByOwner(ctx, requester)
}

// Sync is the dual-channel incremental sync: IDs always holds every owned
// cipher id so clients detect deletions by diffing, Ciphers holds only the
// entries modified strictly after since.
func (s *CipherService) Sync(ctx context.Context, requester uuid.UUID, since time.Time) ([]uuid.UUID, []domain.EncryptedCipher, error) {
	ids, err := s.Store.Ciphers().ListIDsByOwner(ctx, requester)
	if err != nil {
		return nil, nil, err
	}

	changed, err := s.Store.Ciphers().ListModifiedSince(ctx, requester, since)
	if err != nil {
		return nil, nil, err
	}

	return ids, changed, nil
}

// Delete removes one cipher the requester owns.
func (s *CipherService) Delete(ctx context.Context, requester, id uuid.UUID) error {
	err := s.Store.Ciphers().DeleteCipher(ctx, requester, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrCipherNotFound
	}
	return err
}
