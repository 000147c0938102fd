package domain

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// CipherType tags the encrypted payload variant. The server never decrypts
// protected data; the tag only tells clients which schema the plaintext holds.
type CipherType int

const (
	CipherTypeLogin CipherType = iota
	CipherTypeSecureNote
	CipherTypeCard
)

// Valid reports whether the tag names a known payload variant.
func (t CipherType) Valid() bool {
	return t >= CipherTypeLogin && t <= CipherTypeCard
}

// EncryptedCipher is one opaque vault entry. ProtectedData is AES-GCM
// ciphertext produced client-side and is validated only for well-formed hex
// encoding. Owner is immutable after creation.
type EncryptedCipher struct {
	ID            uuid.UUID  `json:"id"`
	Owner         uuid.UUID  `json:"owner"`
	Type          CipherType `json:"type"`
	ProtectedData string     `json:"protectedData"`
	Collection    *uuid.UUID `json:"collection,omitempty"`
	Favorite      bool       `json:"favorite"`
	RePrompt      bool       `json:"rePrompt"`
	Version       int        `json:"version"`
	Created       time.Time  `json:"created"`
	LastModified  time.Time  `json:"lastModified"`
}

// ValidHex reports whether s is non-empty, even-length hex. Used to reject
// malformed protected data and key material before it reaches storage.
func ValidHex(s string) bool {
	if s == "" {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ValidHexLen is ValidHex with an exact decoded byte length requirement,
// e.g. 32 for X25519 keys and shared secrets.
func ValidHexLen(s string, n int) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == n
}
