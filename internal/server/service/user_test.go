package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
)

type rotationFixture struct {
	auth    *AuthService
	users   *UserService
	ciphers *CipherService
	client  *testClient
	user    domain.User
}

func newRotationFixture(t *testing.T) *rotationFixture {
	t.Helper()

	st := newTestStore(t)
	identity := newIdentity(t)
	auth := newAuthService(st, identity, mail.NewMemoryMailer(), false)

	client := newTestClient(t)
	user := registerUser(t, auth, client, "alice@example.com")

	return &rotationFixture{
		auth:    auth,
		users:   &UserService{Store: st, Identity: identity},
		ciphers: &CipherService{Store: st},
		client:  client,
		user:    user,
	}
}

func (f *rotationFixture) changeRequest(t *testing.T, next *testClient, ciphers []passsdk.ChangePasswordCipherData) passsdk.ChangePasswordRequest {
	t.Helper()

	return passsdk.ChangePasswordRequest{
		OldSharedKey: f.client.proof(t, f.auth.Identity),
		NewPublicKey: next.publicKeyHex(),
		NewSharedKey: next.proof(t, f.auth.Identity),
		Parallelism:  domain.Argon2DefaultParallelism,
		Memory:       domain.Argon2DefaultMemoryKiB,
		Iterations:   domain.Argon2DefaultIterations,
		Ciphers:      ciphers,
	}
}

func TestChangePasswordRotatesEverything(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)

	first := saveCipher(t, f.ciphers, f.user.ID, "aaaa")
	second := saveCipher(t, f.ciphers, f.user.ID, "bbbb")

	token, err := f.auth.Tokens.Issue(ctx, f.user.ID, testIP, true)
	require.NoError(t, err)

	// The millisecond clock must advance past the token's creation stamp.
	time.Sleep(5 * time.Millisecond)

	next := newTestClient(t)
	req := f.changeRequest(t, next, []passsdk.ChangePasswordCipherData{
		{ID: first, Data: "1111"},
		{ID: second, Data: "2222"},
	})
	hint := "new hint"
	req.NewPasswordHint = &hint
	req.Iterations = 9

	require.NoError(t, f.users.ChangePassword(ctx, f.user.ID, req))

	user, err := f.users.Store.Users().GetUserByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, next.publicKeyHex(), user.PublicKey)
	require.Equal(t, 9, user.Argon2Params.Iterations)
	require.Equal(t, "new hint", *user.PasswordHint)

	c, err := f.ciphers.Get(ctx, f.user.ID, first)
	require.NoError(t, err)
	require.Equal(t, "1111", c.ProtectedData)

	// Sessions issued under the old password are dead.
	_, err = f.auth.Tokens.Resolve(ctx, token.Token, testIP)
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	// And the new key logs in.
	resp, err := f.auth.Login(ctx, testIP, passsdk.LoginRequest{
		Email:     "alice@example.com",
		SharedKey: next.proof(t, f.auth.Identity),
	})
	require.NoError(t, err)
	require.True(t, resp.Confirmed)
}

func TestChangePasswordRejectsIncompleteCoverage(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)

	first := saveCipher(t, f.ciphers, f.user.ID, "aaaa")
	second := saveCipher(t, f.ciphers, f.user.ID, "bbbb")

	next := newTestClient(t)
	req := f.changeRequest(t, next, []passsdk.ChangePasswordCipherData{
		{ID: first, Data: "1111"},
		// second is missing: it would become unreadable under the new key.
	})

	require.ErrorIs(t, f.users.ChangePassword(ctx, f.user.ID, req), domain.ErrInvalidBody)

	// All-or-nothing: no partial state change is visible.
	user, err := f.users.Store.Users().GetUserByID(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, f.client.publicKeyHex(), user.PublicKey)

	c, err := f.ciphers.Get(ctx, f.user.ID, first)
	require.NoError(t, err)
	require.Equal(t, "aaaa", c.ProtectedData)

	c, err = f.ciphers.Get(ctx, f.user.ID, second)
	require.NoError(t, err)
	require.Equal(t, "bbbb", c.ProtectedData)
}

func TestChangePasswordRejectsForeignCipherIDs(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)

	owned := saveCipher(t, f.ciphers, f.user.ID, "aaaa")

	next := newTestClient(t)
	req := f.changeRequest(t, next, []passsdk.ChangePasswordCipherData{
		{ID: owned, Data: "1111"},
		{ID: uuid.New(), Data: "2222"},
	})

	require.ErrorIs(t, f.users.ChangePassword(ctx, f.user.ID, req), domain.ErrCipherNotFound)
}

func TestChangePasswordRejectsBadProofs(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)
	next := newTestClient(t)

	t.Run("wrong old proof", func(t *testing.T) {
		req := f.changeRequest(t, next, nil)
		req.OldSharedKey = next.proof(t, f.auth.Identity)
		require.ErrorIs(t, f.users.ChangePassword(ctx, f.user.ID, req), domain.ErrInvalidSharedSecret)
	})

	t.Run("new proof for a different key", func(t *testing.T) {
		req := f.changeRequest(t, next, nil)
		req.NewSharedKey = f.client.proof(t, f.auth.Identity)
		require.ErrorIs(t, f.users.ChangePassword(ctx, f.user.ID, req), domain.ErrInvalidSharedSecret)
	})

	t.Run("weak argon2 params", func(t *testing.T) {
		req := f.changeRequest(t, next, nil)
		req.Memory = 16
		require.ErrorIs(t, f.users.ChangePassword(ctx, f.user.ID, req), domain.ErrInvalidBody)
	})
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)
	collections := &CollectionService{Store: f.users.Store}

	cipherID := saveCipher(t, f.ciphers, f.user.ID, "aaaa")
	_, err := collections.Save(ctx, f.user.ID, passsdk.CollectionRequest{Name: "Work"})
	require.NoError(t, err)

	token, err := f.auth.Tokens.Issue(ctx, f.user.ID, testIP, true)
	require.NoError(t, err)

	require.NoError(t, f.users.DeleteAccount(ctx, f.user.ID, passsdk.DeleteAccountRequest{
		SharedKey: f.client.proof(t, f.auth.Identity),
	}))

	_, err = f.users.Store.Users().GetUserByID(ctx, f.user.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.ciphers.Get(ctx, f.user.ID, cipherID)
	require.ErrorIs(t, err, domain.ErrCipherNotFound)

	_, err = f.auth.Tokens.Resolve(ctx, token.Token, testIP)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestDeleteAccountRequiresProof(t *testing.T) {
	ctx := context.Background()
	f := newRotationFixture(t)
	intruder := newTestClient(t)

	err := f.users.DeleteAccount(ctx, f.user.ID, passsdk.DeleteAccountRequest{
		SharedKey: intruder.proof(t, f.auth.Identity),
	})
	require.ErrorIs(t, err, domain.ErrInvalidSharedSecret)

	_, err = f.users.Store.Users().GetUserByID(ctx, f.user.ID)
	require.NoError(t, err)
}
