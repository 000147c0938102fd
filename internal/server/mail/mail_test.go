package mail

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestVerificationLinkCarriesUserAndCode(t *testing.T) {
	user := uuid.New()

	link := VerificationLink("https://vault.example.com/", user, "abc123")
	require.Equal(t, "https://vault.example.com/api/auth/verifyEmail?user="+user.String()+"&code=abc123", link)

	// Codes are server-minted hex today, but the link must stay safe if that
	// ever changes.
	escaped := VerificationLink("https://vault.example.com", user, "a&b=c")
	require.Equal(t, "https://vault.example.com/api/auth/verifyEmail?user="+user.String()+"&code=a%26b%3Dc", escaped)
}

func TestMemoryMailerRecordsVerification(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMailer()
	user := uuid.New()

	require.NoError(t, m.SendVerification(ctx, "alice@example.com", user, "c0de"))
	require.NoError(t, m.SendPasswordHint(ctx, "alice@example.com", "hint"))

	msgs := m.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, Message{To: "alice@example.com", Kind: "verification", User: user, Payload: "c0de"}, msgs[0])

	last, ok := m.Last("alice@example.com")
	require.True(t, ok)
	require.Equal(t, "hint", last.Kind)
}
