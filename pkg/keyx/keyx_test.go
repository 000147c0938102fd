package keyx

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/curve25519"
)

func clientKeypair(t *testing.T) (priv, pub []byte) {
	t.Helper()

	id, err := GenerateIdentity()
	require.NoError(t, err)
	return id.privateKey, id.PublicKey
}

func TestSharedSecretSymmetry(t *testing.T) {
	t.Parallel()

	server, err := GenerateIdentity()
	require.NoError(t, err)

	clientPriv, clientPub := clientKeypair(t)

	fromServer, err := ComputeSharedSecret(server.privateKey, clientPub)
	require.NoError(t, err)

	fromClient, err := ComputeSharedSecret(clientPriv, server.PublicKey)
	require.NoError(t, err)

	require.Equal(t, fromServer, fromClient)
}

func TestValidateProof(t *testing.T) {
	t.Parallel()

	server, err := GenerateIdentity()
	require.NoError(t, err)

	clientPriv, clientPub := clientKeypair(t)

	secret, err := curve25519.X25519(clientPriv, server.PublicKey)
	require.NoError(t, err)

	t.Run("accepts a correct proof", func(t *testing.T) {
		ok := server.ValidateProof(hex.EncodeToString(clientPub), hex.EncodeToString(secret))
		require.True(t, ok)
	})

	t.Run("rejects a tampered secret", func(t *testing.T) {
		bad := make([]byte, len(secret))
		copy(bad, secret)
		bad[0] ^= 0xff

		ok := server.ValidateProof(hex.EncodeToString(clientPub), hex.EncodeToString(bad))
		require.False(t, ok)
	})

	t.Run("rejects a proof bound to another public key", func(t *testing.T) {
		_, otherPub := clientKeypair(t)

		ok := server.ValidateProof(hex.EncodeToString(otherPub), hex.EncodeToString(secret))
		require.False(t, ok)
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		require.False(t, server.ValidateProof("not-hex", hex.EncodeToString(secret)))
		require.False(t, server.ValidateProof(hex.EncodeToString(clientPub), "zz"))
		require.False(t, server.ValidateProof("", ""))
	})

	t.Run("rejects wrong-length keys", func(t *testing.T) {
		short := hex.EncodeToString(clientPub[:16])
		require.False(t, server.ValidateProof(short, hex.EncodeToString(secret)))
	})
}

func TestComputeSharedSecretRejectsBadSizes(t *testing.T) {
	t.Parallel()

	_, err := ComputeSharedSecret(make([]byte, 16), make([]byte, KeySize))
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = ComputeSharedSecret(make([]byte, KeySize), nil)
	require.ErrorIs(t, err, ErrInvalidKey)
}
