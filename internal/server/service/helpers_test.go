package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vaultbox/vaultbox/internal/server/domain"
	"github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/internal/server/store/drivers/sqlite"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
	"github.com/vaultbox/vaultbox/pkg/ratex"

	"golang.org/x/crypto/curve25519"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newIdentity(t *testing.T) *keyx.ServerIdentity {
	t.Helper()

	identity, err := keyx.GenerateIdentity()
	require.NoError(t, err)
	return identity
}

// testClient simulates a password-manager client: it holds a keypair derived
// (in production) from the master password and computes shared-secret proofs
// against the server's ephemeral public key.
type testClient struct {
	priv []byte
	pub  []byte
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	priv := make([]byte, keyx.KeySize)
	_, err := rand.Read(priv)
	require.NoError(t, err)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	require.NoError(t, err)

	return &testClient{priv: priv, pub: pub}
}

func (c *testClient) publicKeyHex() string {
	return hex.EncodeToString(c.pub)
}

func (c *testClient) proof(t *testing.T, identity *keyx.ServerIdentity) string {
	t.Helper()

	shared, err := keyx.ComputeSharedSecret(c.priv, identity.PublicKey)
	require.NoError(t, err)
	return hex.EncodeToString(shared)
}

func newAuthService(st store.Store, identity *keyx.ServerIdentity, mailer *mail.MemoryMailer, requireVerification bool) *AuthService {
	return &AuthService{
		Store:               st,
		Identity:            identity,
		Tokens:              &TokenService{Store: st},
		Mailer:              mailer,
		StrictGate:          ratex.Disabled(),
		EmailGate:           ratex.Disabled(),
		RequireVerification: requireVerification,
	}
}

func registerRequest(t *testing.T, c *testClient, identity *keyx.ServerIdentity, email string) passsdk.RegisterRequest {
	t.Helper()

	return passsdk.RegisterRequest{
		Email:       email,
		SharedKey:   c.proof(t, identity),
		PublicKey:   c.publicKeyHex(),
		Parallelism: domain.Argon2DefaultParallelism,
		Memory:      domain.Argon2DefaultMemoryKiB,
		Iterations:  domain.Argon2DefaultIterations,
	}
}

// registerUser registers an account and returns it, bypassing the
// email-verification policy of whichever AuthService the test uses.
func registerUser(t *testing.T, svc *AuthService, c *testClient, email string) domain.User {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "198.51.100.1", registerRequest(t, c, svc.Identity, email)))

	user, err := svc.Store.Users().GetUserByEmail(ctx, email)
	require.NoError(t, err)
	return user
}

// saveCipher inserts one cipher for owner and returns its id.
func saveCipher(t *testing.T, svc *CipherService, owner uuid.UUID, data string) uuid.UUID {
	t.Helper()

	c, err := svc.Save(context.Background(), owner, passsdk.CipherRequest{
		Owner:         owner,
		Type:          int(domain.CipherTypeLogin),
		ProtectedData: data,
	})
	require.NoError(t, err)
	return c.ID
}
