package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Sizes of random material in bytes before encoding.
const (
	// TokenSize128 provides 128 bits of entropy. Verification codes.
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy. Session tokens (recommended).
	TokenSize256 = 32
)

// GenerateHex creates a cryptographically secure random value of size bytes,
// returned as lowercase hex. Returns an error only if the system random
// source fails.
func GenerateHex(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: read random: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// GenerateSessionToken mints an opaque bearer token string. The "vb_" prefix
// makes leaked tokens easy to recognise in logs and secret scanners; the rest
// is 256 bits of hex-encoded entropy. The token is stored verbatim as the
// session's database key and is never derivable from anything the client
// chose.
func GenerateSessionToken() (string, error) {
	raw, err := GenerateHex(TokenSize256)
	if err != nil {
		return "", err
	}
	return "vb_" + raw, nil
}
