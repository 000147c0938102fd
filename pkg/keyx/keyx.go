// Package keyx implements the X25519 shared-secret handshake used as the
// zero-knowledge login proof. A client who can present the shared secret for
// its registered public key has, by construction, derived the same private
// key that produced the public key at registration time. No password or key
// material ever crosses the wire.
package keyx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the X25519 key and shared-secret length in bytes.
const KeySize = 32

var ErrInvalidKey = errors.New("keyx: invalid key")

// ServerIdentity is the process-wide ephemeral keypair. It is generated once
// at startup and never persisted; restarting the process invalidates every
// in-flight proof, which is fine because a proof only lives for the span of
// one request. Read-only after construction, safe for concurrent use.
type ServerIdentity struct {
	privateKey []byte
	PublicKey  []byte
}

// GenerateIdentity creates a fresh ephemeral X25519 keypair.
func GenerateIdentity() (*ServerIdentity, error) {
	priv := make([]byte, KeySize)
	if _, err := rand.Read(priv); err != nil {
		return nil, fmt.Errorf("keyx: generate private key: %w", err)
	}

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("keyx: derive public key: %w", err)
	}

	return &ServerIdentity{privateKey: priv, PublicKey: pub}, nil
}

// PublicKeyHex returns the server public key in the wire encoding clients
// receive from pre-login.
func (id *ServerIdentity) PublicKeyHex() string {
	return hex.EncodeToString(id.PublicKey)
}

// ComputeSharedSecret runs scalar multiplication of our private key with the
// peer's public key. Symmetric: both sides derive the same 32 bytes.
func ComputeSharedSecret(privateKey, peerPublicKey []byte) ([]byte, error) {
	if len(privateKey) != KeySize || len(peerPublicKey) != KeySize {
		return nil, ErrInvalidKey
	}
	secret, err := curve25519.X25519(privateKey, peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("keyx: compute shared secret: %w", err)
	}
	return secret, nil
}

// ValidateProof recomputes the shared secret from the server private key and
// the claimed public key, and compares it in constant time against the secret
// the client sent. Both inputs are hex strings. Any malformed input fails the
// proof; the caller never learns why.
func (id *ServerIdentity) ValidateProof(claimedPublicKeyHex, claimedSecretHex string) bool {
	peerPub, err := hex.DecodeString(claimedPublicKeyHex)
	if err != nil || len(peerPub) != KeySize {
		return false
	}
	claimed, err := hex.DecodeString(claimedSecretHex)
	if err != nil || len(claimed) != KeySize {
		return false
	}

	expected, err := ComputeSharedSecret(id.privateKey, peerPub)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(expected, claimed) == 1
}
