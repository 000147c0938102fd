package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
)

type tokensRepo struct {
	q querier
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.SessionToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tokens (token, owner, confirmed, last_ip, created, last_used)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Token, t.Owner.String(), t.Confirmed, t.LastIP,
		encodeTime(t.Created), encodeTime(t.LastUsed))
	return mapConstraint(err)
}

func (r *tokensRepo) GetToken(ctx context.Context, token string) (domain.SessionToken, error) {
	var (
		t        domain.SessionToken
		rawOwner string
		created  int64
		lastUsed int64
	)

	err := r.q.QueryRowContext(ctx, `
		SELECT token, owner, confirmed, last_ip, created, last_used
		FROM tokens WHERE token = ?`, token).
		Scan(&t.Token, &rawOwner, &t.Confirmed, &t.LastIP, &created, &lastUsed)
	if err != nil {
		return domain.SessionToken{}, mapNotFound(err)
	}

	t.Created = decodeTime(created)
	t.LastUsed = decodeTime(lastUsed)

	t.Owner, err = uuid.Parse(rawOwner)
	if err != nil {
		return domain.SessionToken{}, err
	}

	return t, nil
}

func (r *tokensRepo) ConfirmToken(ctx context.Context, token string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tokens SET confirmed = 1 WHERE token = ?`, token)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *tokensRepo) TouchToken(ctx context.Context, token string, ip string, usedAt time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tokens SET last_ip = ?, last_used = ? WHERE token = ?`,
		ip, encodeTime(usedAt), token)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *tokensRepo) DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM tokens WHERE owner = ?`, owner.String())
	return err
}

func (r *tokensRepo) DeleteUnusedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM tokens WHERE last_used < ?`, encodeTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
