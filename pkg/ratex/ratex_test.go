package ratex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateConsume(t *testing.T) {
	t.Parallel()

	t.Run("admits up to burst then rejects", func(t *testing.T) {
		g := NewGate(Config{RequestsPerWindow: 3, Window: time.Minute, Burst: 3})

		for i := 0; i < 3; i++ {
			require.True(t, g.Consume("203.0.113.7"))
		}
		require.False(t, g.Consume("203.0.113.7"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		g := NewGate(Config{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

		require.True(t, g.Consume("alice@example.com"))
		require.False(t, g.Consume("alice@example.com"))
		require.True(t, g.Consume("bob@example.com"))
	})

	t.Run("empty key always admits", func(t *testing.T) {
		g := NewGate(Config{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})

		require.True(t, g.Consume(""))
		require.True(t, g.Consume(""))
	})

	t.Run("disabled gate admits everything", func(t *testing.T) {
		g := Disabled()
		for i := 0; i < 100; i++ {
			require.True(t, g.Consume("k"))
		}
	})
}

func TestGateConcurrentFirstUse(t *testing.T) {
	t.Parallel()

	// Two concurrent first requests for the same key must share one bucket:
	// with burst 1 exactly one of them may be admitted.
	for i := 0; i < 50; i++ {
		g := NewGate(Config{RequestsPerWindow: 1, Window: time.Hour, Burst: 1})

		var wg sync.WaitGroup
		results := make([]bool, 2)
		for j := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[j] = g.Consume("same-key")
			}()
		}
		wg.Wait()

		admitted := 0
		for _, ok := range results {
			if ok {
				admitted++
			}
		}
		require.Equal(t, 1, admitted)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RATELIMIT_TESTPROFILE_REQUESTS", "7")
	t.Setenv("RATELIMIT_TESTPROFILE_WINDOW_SEC", "30")
	t.Setenv("RATELIMIT_TESTPROFILE_BURST", "9")

	cfg := FromEnv("TESTPROFILE", Config{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})
	require.Equal(t, 7, cfg.RequestsPerWindow)
	require.Equal(t, 30*time.Second, cfg.Window)
	require.Equal(t, 9, cfg.Burst)
}
