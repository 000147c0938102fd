package passsdk

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest creates a new account. SharedKey is the X25519 shared
// secret computed against the server's ephemeral public key; it proves the
// client holds the private key matching PublicKey without revealing it.
type RegisterRequest struct {
	Email        string  `json:"email"`
	PasswordHint *string `json:"passwordHint,omitempty"`
	SharedKey    string  `json:"sharedKey"`
	PublicKey    string  `json:"publicKey"`

	// Argon2id parameters used to derive the key from the master password.
	Parallelism int `json:"parallelism"`
	Memory      int `json:"memory"`
	Iterations  int `json:"iterations"`
}

// PreLoginResponse tells the client how to derive its keys before logging in.
type PreLoginResponse struct {
	Parallelism     int    `json:"parallelism"`
	Memory          int    `json:"memory"`
	Iterations      int    `json:"iterations"`
	ServerPublicKey string `json:"serverPublicKey"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	SharedKey string `json:"sharedKey"`
}

// LoginResponse carries the opaque bearer token. Confirmed is false when the
// account has two-factor enabled; the token then authorizes nothing but the
// 2FA confirmation call.
type LoginResponse struct {
	UserID    uuid.UUID `json:"userId"`
	Token     string    `json:"token"`
	Confirmed bool      `json:"confirmed"`
}

type TwoFactorRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// CipherRequest inserts or updates one encrypted vault entry.
type CipherRequest struct {
	ID            uuid.UUID  `json:"id"`
	Owner         uuid.UUID  `json:"owner"`
	Type          int        `json:"type"`
	ProtectedData string     `json:"protectedData"`
	Collection    *uuid.UUID `json:"collection,omitempty"`
	Favorite      bool       `json:"favorite"`
	RePrompt      bool       `json:"rePrompt"`
	Version       int        `json:"version"`
}

type CipherResponse struct {
	ID            uuid.UUID  `json:"id"`
	Owner         uuid.UUID  `json:"owner"`
	Type          int        `json:"type"`
	ProtectedData string     `json:"protectedData"`
	Collection    *uuid.UUID `json:"collection,omitempty"`
	Favorite      bool       `json:"favorite"`
	RePrompt      bool       `json:"rePrompt"`
	Version       int        `json:"version"`
	Created       time.Time  `json:"created"`
	LastModified  time.Time  `json:"lastModified"`
}

type CipherIDResponse struct {
	ID uuid.UUID `json:"id"`
}

// SyncResponse is the dual-channel incremental sync result: IDs always lists
// every owned cipher (deletions are inferred by absence), Ciphers holds only
// the entries modified after the requested timestamp.
type SyncResponse struct {
	IDs     []uuid.UUID      `json:"ids"`
	Ciphers []CipherResponse `json:"ciphers"`
}

type CollectionRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CollectionResponse struct {
	ID           uuid.UUID `json:"id"`
	Owner        uuid.UUID `json:"owner"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}

type CollectionIDResponse struct {
	ID uuid.UUID `json:"id"`
}

// ChangePasswordCipherData is one re-encrypted vault entry submitted with a
// password rotation. The submission must cover every cipher the account owns.
type ChangePasswordCipherData struct {
	ID   uuid.UUID `json:"id"`
	Data string    `json:"data"`
}

type ChangePasswordRequest struct {
	OldSharedKey    string  `json:"oldSharedKey"`
	NewPublicKey    string  `json:"newPublicKey"`
	NewSharedKey    string  `json:"newSharedKey"`
	NewPasswordHint *string `json:"newPasswordHint,omitempty"`

	Parallelism int `json:"parallelism"`
	Memory      int `json:"memory"`
	Iterations  int `json:"iterations"`

	Ciphers []ChangePasswordCipherData `json:"ciphers"`
}

type SetupTwoFactorRequest struct {
	SharedKey string `json:"sharedKey"`
	Secret    string `json:"secret"`
	Code      string `json:"code"`
}

// SetupTwoFactorResponse returns the recovery code exactly once; it cannot be
// retrieved again.
type SetupTwoFactorResponse struct {
	RecoveryCode string `json:"recoveryCode"`
}

type DeleteAccountRequest struct {
	SharedKey string `json:"sharedKey"`
	Code      string `json:"code,omitempty"`
}
