package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, email_verified, email_verification_code,
	email_verification_code_expires_at, parallelism, memory, iterations,
	public_key, password_hint, two_factor_enabled, two_factor_secret,
	two_factor_recovery_code, created, last_password_change`

func (r *usersRepo) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	var expires sql.NullInt64
	if u.EmailVerificationCodeExpiresAt != nil {
		expires = sql.NullInt64{Int64: encodeTime(*u.EmailVerificationCodeExpiresAt), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (
			id, email, email_verified, email_verification_code,
			email_verification_code_expires_at, parallelism, memory, iterations,
			public_key, password_hint, two_factor_enabled, two_factor_secret,
			two_factor_recovery_code, created, last_password_change
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.EmailVerified,
		mapOptionalString(u.EmailVerificationCode), expires,
		u.Argon2Params.Parallelism, u.Argon2Params.MemoryKiB, u.Argon2Params.Iterations,
		u.PublicKey, mapOptionalString(u.PasswordHint),
		u.TwoFactorEnabled, mapOptionalString(u.TwoFactorSecret),
		mapOptionalString(u.TwoFactorRecoveryCode),
		encodeTime(u.Created), encodeTime(u.LastPasswordChange),
	)
	return mapConstraint(err)
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET email_verified = 1,
		    email_verification_code = NULL,
		    email_verification_code_expires_at = NULL
		WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) UpdateAuthMaterial(ctx context.Context, id uuid.UUID, params domain.Argon2Params, publicKey string, passwordHint *string, changedAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET parallelism = ?, memory = ?, iterations = ?,
		    public_key = ?, password_hint = ?, last_password_change = ?
		WHERE id = ?`,
		params.Parallelism, params.MemoryKiB, params.Iterations,
		publicKey, mapOptionalString(passwordHint), encodeTime(changedAt), id.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, id uuid.UUID, secret, recoveryCode string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET two_factor_enabled = 1,
		    two_factor_secret = ?,
		    two_factor_recovery_code = ?
		WHERE id = ?`, secret, recoveryCode, id.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM users WHERE email_verified = 0 AND created < ?`, encodeTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u       domain.User
		rawID   string
		code    sql.NullString
		expires sql.NullInt64
		hint    sql.NullString
		secret  sql.NullString
		recCode sql.NullString
		created int64
		changed int64
	)

	err := row.Scan(
		&rawID, &u.Email, &u.EmailVerified, &code, &expires,
		&u.Argon2Params.Parallelism, &u.Argon2Params.MemoryKiB, &u.Argon2Params.Iterations,
		&u.PublicKey, &hint, &u.TwoFactorEnabled, &secret, &recCode,
		&created, &changed,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Created = decodeTime(created)
	u.LastPasswordChange = decodeTime(changed)

	u.ID, err = uuid.Parse(rawID)
	if err != nil {
		return domain.User{}, err
	}

	u.EmailVerificationCode = mapNullString(code)
	if expires.Valid {
		t := decodeTime(expires.Int64)
		u.EmailVerificationCodeExpiresAt = &t
	}
	u.PasswordHint = mapNullString(hint)
	u.TwoFactorSecret = mapNullString(secret)
	u.TwoFactorRecoveryCode = mapNullString(recCode)

	return u, nil
}
