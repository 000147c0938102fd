package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken is an opaque bearer credential. The token string itself is the
// database key; there is nothing to verify cryptographically, possession is
// the whole proof.
//
// Confirmed is false exactly while the owning account has two-factor enabled
// and the second factor has not yet been presented for this token. An
// unconfirmed token authorizes nothing but the 2FA confirmation call.
type SessionToken struct {
	Token     string
	Owner     uuid.UUID
	Confirmed bool
	LastIP    string
	Created   time.Time
	LastUsed  time.Time
}
