package domain

import (
	"time"

	"github.com/google/uuid"
)

// Argon2 cost floors and bootstrap defaults. The memory floor follows the
// OWASP minimum for Argon2id (19 MiB). Clients re-derive their private key
// with these parameters, so the server must never hand out weaker ones.
const (
	Argon2MinParallelism = 1
	Argon2MinMemoryKiB   = 19 * 1024
	Argon2MinIterations  = 1

	Argon2DefaultParallelism = 3
	Argon2DefaultMemoryKiB   = 64 * 1024
	Argon2DefaultIterations  = 4
)

// Argon2Params are the per-user Argon2id cost parameters the client must use
// to re-derive its private key from the master password.
type Argon2Params struct {
	Parallelism int `json:"parallelism"`
	MemoryKiB   int `json:"memory"`
	Iterations  int `json:"iterations"`
}

// DefaultArgon2Params returns the bootstrap parameters handed out when the
// pre-login probe carries no (or an unknown) email, so parameter variance
// never leaks account existence.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Parallelism: Argon2DefaultParallelism,
		MemoryKiB:   Argon2DefaultMemoryKiB,
		Iterations:  Argon2DefaultIterations,
	}
}

// Valid reports whether the parameters meet the server-enforced cost floors.
func (p Argon2Params) Valid() bool {
	return p.Parallelism >= Argon2MinParallelism &&
		p.MemoryKiB >= Argon2MinMemoryKiB &&
		p.Iterations >= Argon2MinIterations
}

// User is an account record. PublicKey is the X25519 public key derived from
// the user's password hash; the matching private key never reaches the server.
type User struct {
	ID            uuid.UUID
	Email         string // stored lowercase, unique
	EmailVerified bool

	EmailVerificationCode          *string
	EmailVerificationCodeExpiresAt *time.Time

	Argon2Params Argon2Params
	PublicKey    string // hex-encoded X25519 public key
	PasswordHint *string

	TwoFactorEnabled      bool
	TwoFactorSecret       *string
	TwoFactorRecoveryCode *string

	Created            time.Time
	LastPasswordChange time.Time
}
