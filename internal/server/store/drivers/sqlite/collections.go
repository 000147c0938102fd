package sqlite

import (
	"context"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
)

type collectionsRepo struct {
	q querier
}

func (r *collectionsRepo) UpsertCollection(ctx context.Context, c domain.Collection) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO collections (id, owner, name, created, last_modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id, owner) DO UPDATE SET
			name = excluded.name,
			last_modified = excluded.last_modified`,
		c.ID.String(), c.Owner.String(), c.Name, encodeTime(c.Created), encodeTime(c.LastModified))
	return err
}

func (r *collectionsRepo) GetCollection(ctx context.Context, owner, id uuid.UUID) (domain.Collection, error) {
	var (
		c        domain.Collection
		rawID    string
		rawOwner string
		created  int64
		modified int64
	)

	err := r.q.QueryRowContext(ctx, `
		SELECT id, owner, name, created, last_modified
		FROM collections WHERE id = ? AND owner = ?`,
		id.String(), owner.String()).
		Scan(&rawID, &rawOwner, &c.Name, &created, &modified)
	if err != nil {
		return domain.Collection{}, mapNotFound(err)
	}

	c.Created = decodeTime(created)
	c.LastModified = decodeTime(modified)

	if c.ID, err = uuid.Parse(rawID); err != nil {
		return domain.Collection{}, err
	}
	if c.Owner, err = uuid.Parse(rawOwner); err != nil {
		return domain.Collection{}, err
	}

	return c, nil
}

func (r *collectionsRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Collection, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, owner, name, created, last_modified
		FROM collections WHERE owner = ? ORDER BY created`, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Collection, 0)
	for rows.Next() {
		var (
			c        domain.Collection
			rawID    string
			rawOwner string
			created  int64
			modified int64
		)
		if err := rows.Scan(&rawID, &rawOwner, &c.Name, &created, &modified); err != nil {
			return nil, err
		}
		c.Created = decodeTime(created)
		c.LastModified = decodeTime(modified)
		if c.ID, err = uuid.Parse(rawID); err != nil {
			return nil, err
		}
		if c.Owner, err = uuid.Parse(rawOwner); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *collectionsRepo) DeleteCollection(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM collections WHERE id = ? AND owner = ?`,
		id.String(), owner.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *collectionsRepo) DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM collections WHERE owner = ?`, owner.String())
	return err
}
