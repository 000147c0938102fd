package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

// CollectionService manages owner-scoped cipher groupings.
type CollectionService struct {
	Store store.Store
}

// Save creates or renames a collection.
func (s *CollectionService) Save(ctx context.Context, requester uuid.UUID, req passsdk.CollectionRequest) (domain.Collection, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > domain.MaxCollectionNameLength {
		return domain.Collection{}, domain.ErrInvalidCollection
	}

	now := time.Now().UTC()
	c := domain.Collection{
		ID:           req.ID,
		Owner:        requester,
		Name:         name,
		Created:      now,
		LastModified: now,
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	existing, err := s.Store.Collections().GetCollection(ctx, requester, c.ID)
	switch {
	case err == nil:
		c.Created = existing.Created
	case errors.Is(err, store.ErrNotFound):
		// insert
	default:
		return domain.Collection{}, err
	}

	if err := s.Store.Collections().UpsertCollection(ctx, c); err != nil {
		return domain.Collection{}, err
	}

	return c, nil
}

// Get fetches one collection. Absence and foreign ownership are the same error.
func (s *CollectionService) Get(ctx context.Context, requester, id uuid.UUID) (domain.Collection, error) {
	c, err := s.Store.Collections().GetCollection(ctx, requester, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Collection{}, domain.ErrCollectionNotFound
	}
	return c, err
}

// List returns every collection the requester owns.
func (s *CollectionService) List(ctx context.Context, requester uuid.UUID) ([]domain.Collection, error) {
	return s.Store.Collections().ListByOwner(ctx, requester)
}

// Delete removes one collection. Ciphers keep their collection reference;
// clients treat a dangling reference as uncategorised.
func (s *CollectionService) Delete(ctx context.Context, requester, id uuid.UUID) error {
	err := s.Store.Collections().DeleteCollection(ctx, requester, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ErrCollectionNotFound
	}
	return err
}
