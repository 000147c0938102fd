package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vaultbox/vaultbox/internal/server/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement it. Sub-repositories keep the surface tidy and let transactional
// code reuse the same methods through Tx.
type Store interface {
	Users() Users
	Tokens() Tokens
	Ciphers() Ciphers
	Collections() Collections

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// only way multi-step operations (password rotation, account deletion)
	// touch the database.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Commit/Rollback are handled by WithTx.
type Tx interface {
	Users() Users
	Tokens() Tokens
	Ciphers() Ciphers
	Collections() Collections
}

type Users interface {
	// GetUserByID returns an account by id.
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetUserByEmail looks up an account by its case-folded email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new account. Returns ErrAlreadyExists when the
	// email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkEmailVerified sets emailVerified and clears the verification code.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error

	// UpdateAuthMaterial replaces the key-derivation parameters, public key,
	// password hint and lastPasswordChange in one statement. Only the
	// password rotation path calls this.
	UpdateAuthMaterial(ctx context.Context, id uuid.UUID, params domain.Argon2Params, publicKey string, passwordHint *string, changedAt time.Time) error

	// EnableTwoFactor stores the TOTP secret and recovery code.
	EnableTwoFactor(ctx context.Context, id uuid.UUID, secret, recoveryCode string) error

	// DeleteUser removes the account row. Cascades are the caller's problem;
	// account deletion runs inside a transaction that clears owned records
	// first.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// DeleteUnverifiedBefore purges accounts that never verified their email
	// and were created before the cutoff. Returns the number removed.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Tokens interface {
	// CreateToken stores a freshly issued session token.
	CreateToken(ctx context.Context, t domain.SessionToken) error

	// GetToken looks a token up by its exact string.
	GetToken(ctx context.Context, token string) (domain.SessionToken, error)

	// ConfirmToken flips confirmed after a successful second factor.
	ConfirmToken(ctx context.Context, token string) error

	// TouchToken refreshes lastUsed and lastIp.
	TouchToken(ctx context.Context, token string, ip string, usedAt time.Time) error

	// DeleteAllByOwner revokes every session of an account.
	DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error

	// DeleteUnusedBefore purges tokens idle since before the cutoff.
	// Returns the number removed.
	DeleteUnusedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Ciphers interface {
	// UpsertCipher inserts the cipher or, when the id already exists for the
	// same owner, replaces its mutable fields and bumps lastModified.
	UpsertCipher(ctx context.Context, c domain.EncryptedCipher) error

	// GetCipher fetches one cipher scoped by owner. Absence and foreign
	// ownership are indistinguishable: both return ErrNotFound.
	GetCipher(ctx context.Context, owner, id uuid.UUID) (domain.EncryptedCipher, error)

	// ExistsCipher reports whether the owner already has a cipher with id.
	ExistsCipher(ctx context.Context, owner, id uuid.UUID) (bool, error)

	// CountByOwner returns the number of ciphers the owner holds.
	CountByOwner(ctx context.Context, owner uuid.UUID) (int64, error)

	// ListByOwner returns every cipher of the owner.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.EncryptedCipher, error)

	// ListIDsByOwner returns every cipher id of the owner.
	ListIDsByOwner(ctx context.Context, owner uuid.UUID) ([]uuid.UUID, error)

	// ListModifiedSince returns the owner's ciphers with lastModified
	// strictly after since. Backed by the last-modified index.
	ListModifiedSince(ctx context.Context, owner uuid.UUID, since time.Time) ([]domain.EncryptedCipher, error)

	// UpdateProtectedData replaces one cipher's payload during password
	// rotation and bumps lastModified.
	UpdateProtectedData(ctx context.Context, owner, id uuid.UUID, data string, modifiedAt time.Time) error

	// DeleteCipher removes one cipher scoped by owner.
	DeleteCipher(ctx context.Context, owner, id uuid.UUID) error

	// DeleteAllByOwner removes every cipher of an account.
	DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error
}

type Collections interface {
	// UpsertCollection inserts or renames an owner's collection.
	UpsertCollection(ctx context.Context, c domain.Collection) error

	// GetCollection fetches one collection scoped by owner.
	GetCollection(ctx context.Context, owner, id uuid.UUID) (domain.Collection, error)

	// ListByOwner returns every collection of the owner.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Collection, error)

	// DeleteCollection removes one collection scoped by owner.
	DeleteCollection(ctx context.Context, owner, id uuid.UUID) error

	// DeleteAllByOwner removes every collection of an account.
	DeleteAllByOwner(ctx context.Context, owner uuid.UUID) error
}
