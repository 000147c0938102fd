package server_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

func TestFullAccountAndVaultFlow(t *testing.T) {
	ctx := context.Background()
	srv := startServer(t, false)
	keys := newClientKeys(t)

	pre, err := srv.Client.PreLogin(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, pre.ServerPublicKey)

	require.NoError(t, srv.Client.Register(ctx, registerRequest(t, keys, pre.ServerPublicKey, "alice@example.com")))

	session, login, err := srv.Client.Login(ctx, passsdk.LoginRequest{
		Email:     "alice@example.com",
		SharedKey: keys.proofFor(t, pre.ServerPublicKey),
	})
	require.NoError(t, err)
	require.True(t, login.Confirmed)

	// Vault round trip.
	saved, err := session.SaveCipher(ctx, passsdk.CipherRequest{
		Owner:         login.UserID,
		Type:          0,
		ProtectedData: "deadbeef",
	})
	require.NoError(t, err)

	got, err := session.GetCipher(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", got.ProtectedData)

	list, err := session.ListCiphers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	sync, err := session.Sync(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sync.IDs, 1)
	require.Len(t, sync.Ciphers, 1)

	// Collections.
	col, err := session.SaveCollection(ctx, passsdk.CollectionRequest{Name: "Work"})
	require.NoError(t, err)

	cols, err := session.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	require.Equal(t, col.ID, cols[0].ID)

	require.NoError(t, session.DeleteCipher(ctx, saved.ID))
	require.NoError(t, session.DeleteCollection(ctx, col.ID))
}

func TestLoginRejectsWrongProof(t *testing.T) {
	ctx := context.Background()
	srv := startServer(t, false)
	keys := newClientKeys(t)

	pre, err := srv.Client.PreLogin(ctx, "")
	require.NoError(t, err)

	require.NoError(t, srv.Client.Register(ctx, registerRequest(t, keys, pre.ServerPublicKey, "bob@example.com")))

	intruder := newClientKeys(t)
	_, _, err = srv.Client.Login(ctx, passsdk.LoginRequest{
		Email:     "bob@example.com",
		SharedKey: intruder.proofFor(t, pre.ServerPublicKey),
	})
	require.ErrorIs(t, err, passsdk.ErrInvalidSharedSecret)
}

func TestProtectedEndpointsRejectBadTokens(t *testing.T) {
	srv := startServer(t, false)

	unknown := "vb_" + strings.Repeat("ab", 32)
	for _, token := range []string{"", "vb_deadbeef", "Bearer", unknown} {
		req, err := http.NewRequest(http.MethodGet, srv.Client.BaseURL+"/api/cipher", nil)
		require.NoError(t, err)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := srv.Client.HTTPClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestVerificationRequiredFlow(t *testing.T) {
	ctx := context.Background()
	srv := startServer(t, true)
	keys := newClientKeys(t)

	pre, err := srv.Client.PreLogin(ctx, "")
	require.NoError(t, err)

	require.NoError(t, srv.Client.Register(ctx, registerRequest(t, keys, pre.ServerPublicKey, "carol@example.com")))

	login := passsdk.LoginRequest{
		Email:     "carol@example.com",
		SharedKey: keys.proofFor(t, pre.ServerPublicKey),
	}

	_, _, err = srv.Client.Login(ctx, login)
	require.ErrorIs(t, err, passsdk.ErrEmailNotVerified)

	// The verification mail is dispatched asynchronously.
	var msg mail.Message
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok = srv.Mailer.Last("carol@example.com")
		return ok && msg.Kind == "verification"
	}, 2*time.Second, 10*time.Millisecond)

	user, err := srv.Store.Users().GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, msg.User)

	// Open exactly the link the outbound mail carries.
	verify := mail.VerificationLink(srv.Client.BaseURL, msg.User, msg.Payload)
	resp, err := srv.Client.HTTPClient.Get(verify)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, loginResp, err := srv.Client.Login(ctx, login)
	require.NoError(t, err)
	require.True(t, loginResp.Confirmed)
}
