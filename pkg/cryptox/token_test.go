package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateHex(t *testing.T) {
	t.Parallel()

	t.Run("produces valid hex of the requested size", func(t *testing.T) {
		s, err := GenerateHex(TokenSize128)
		require.NoError(t, err)

		b, err := hex.DecodeString(s)
		require.NoError(t, err)
		require.Len(t, b, TokenSize128)
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateHex(0)
		require.Error(t, err)

		_, err = GenerateHex(-1)
		require.Error(t, err)
	})

	t.Run("values do not repeat", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 64 {
			s, err := GenerateHex(TokenSize128)
			require.NoError(t, err)
			_, dup := seen[s]
			require.False(t, dup)
			seen[s] = struct{}{}
		}
	})
}

func TestGenerateSessionToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateSessionToken()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(tok, "vb_"))

	b, err := hex.DecodeString(strings.TrimPrefix(tok, "vb_"))
	require.NoError(t, err)
	require.Len(t, b, TokenSize256)
}
