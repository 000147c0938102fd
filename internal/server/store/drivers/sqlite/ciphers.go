package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
)

type ciphersRepo struct {
	q querier
}

const cipherColumns = `id, owner, type, protected_data, collection_id,
	favorite, re_prompt, version, created, last_modified`

func (r *ciphersRepo) UpsertCipher(ctx context.Context, c domain.EncryptedCipher) error {
	var collection sql.NullString
	if c.Collection != nil {
		collection = sql.NullString{String: c.Collection.String(), Valid: true}
	}

	// The owner guard on the conflict branch makes a colliding foreign id a
	// silent no-op at this layer; the service rejects it before we get here.
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO ciphers (
			id, owner, type, protected_data, collection_id,
			favorite, re_prompt, version, created, last_modified
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			type = excluded.type,
			protected_data = excluded.protected_data,
			collection_id = excluded.collection_id,
			favorite = excluded.favorite,
			re_prompt = excluded.re_prompt,
			version = excluded.version,
			last_modified = excluded.last_modified
		WHERE ciphers.owner = excluded.owner`,
		c.ID.String(), c.Owner.String(), int(c.Type), c.ProtectedData, collection,
		c.Favorite, c.RePrompt, c.Version, encodeTime(c.Created), encodeTime(c.LastModified))
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *ciphersRepo) GetCipher(ctx context.Context, owner, id uuid.UUID) (domain.EncryptedCipher, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+cipherColumns+` FROM ciphers WHERE id = ? AND owner = ?`,
		id.String(), owner.String())
	return scanCipher(row)
}

func (r *ciphersRepo) ExistsCipher(ctx context.Context, owner, id uuid.UUID) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ciphers WHERE id = ? AND owner = ?`,
		id.String(), owner.String()).Scan(&n)
	return n > 0, err
}

func (r *ciphersRepo) CountByOwner(ctx context.Context, owner uuid.UUID) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ciphers WHERE owner = ?`, owner.String()).Scan(&n)
	return n, err
}

func (r *ciphersRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.EncryptedCipher, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+cipherColumns+` FROM ciphers WHERE owner = ? ORDER BY created`,
		owner.String())
	if err != nil {
		return nil, err
	}
	return collectCiphers(rows)
}

func (r *ciphersRepo) ListIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id FROM ciphers WHERE owner = ? ORDER BY created`, owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ciphersRepo) ListModifiedSince(ctx context.Context, owner uuid.UUID, since time.Time) ([]domain.EncryptedCipher, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+cipherColumns+` FROM ciphers
		WHERE owner = ? AND last_modified > ?
		ORDER BY last_modified`, owner.String(), encodeTime(since))
	if err != nil {
		return nil, err
	}
	return collectCiphers(rows)
}

func (r *ciphersRepo) UpdateProtectedData(ctx context.Context, owner, id uuid.UUID, data string, modifiedAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE ciphers SET protected_data = ?, last_modified = ?
		WHERE id = ? AND owner = ?`,
		data, encodeTime(modifiedAt), id.String(), owner.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *ciphersRepo) DeleteCipher(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM ciphers WHERE id = ? AND owner = ?`,
		id.String(), owner.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *ciphersRepo) DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM ciphers WHERE owner = ?`, owner.String())
	return err
}

func scanCipher(row *sql.Row) (domain.EncryptedCipher, error) {
	var (
		c          domain.EncryptedCipher
		rawID      string
		rawOwner   string
		rawType    int
		collection sql.NullString
		created    int64
		modified   int64
	)

	err := row.Scan(&rawID, &rawOwner, &rawType, &c.ProtectedData, &collection,
		&c.Favorite, &c.RePrompt, &c.Version, &created, &modified)
	if err != nil {
		return domain.EncryptedCipher{}, mapNotFound(err)
	}

	c.Created = decodeTime(created)
	c.LastModified = decodeTime(modified)

	return fillCipher(c, rawID, rawOwner, rawType, collection)
}

func collectCiphers(rows *sql.Rows) ([]domain.EncryptedCipher, error) {
	defer rows.Close()

	out := make([]domain.EncryptedCipher, 0)
	for rows.Next() {
		var (
			c          domain.EncryptedCipher
			rawID      string
			rawOwner   string
			rawType    int
			collection sql.NullString
			created    int64
			modified   int64
		)

		err := rows.Scan(&rawID, &rawOwner, &rawType, &c.ProtectedData, &collection,
			&c.Favorite, &c.RePrompt, &c.Version, &created, &modified)
		if err != nil {
			return nil, err
		}

		c.Created = decodeTime(created)
		c.LastModified = decodeTime(modified)

		c, err = fillCipher(c, rawID, rawOwner, rawType, collection)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func fillCipher(c domain.EncryptedCipher, rawID, rawOwner string, rawType int, collection sql.NullString) (domain.EncryptedCipher, error) {
	var err error

	c.ID, err = uuid.Parse(rawID)
	if err != nil {
		return domain.EncryptedCipher{}, err
	}
	c.Owner, err = uuid.Parse(rawOwner)
	if err != nil {
		return domain.EncryptedCipher{}, err
	}
	c.Type = domain.CipherType(rawType)

	if collection.Valid {
		id, err := uuid.Parse(collection.String)
		if err != nil {
			return domain.EncryptedCipher{}, err
		}
		c.Collection = &id
	}

	return c, nil
}
