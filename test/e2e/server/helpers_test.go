package server_test

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	httpapi "github.com/vaultbox/vaultbox/internal/server/http"
	"github.com/vaultbox/vaultbox/internal/server/mail"
	"github.com/vaultbox/vaultbox/internal/server/service"
	"github.com/vaultbox/vaultbox/internal/server/store"
	"github.com/vaultbox/vaultbox/internal/server/store/drivers/sqlite"
	"github.com/vaultbox/vaultbox/pkg/keyx"
	"github.com/vaultbox/vaultbox/pkg/passsdk"
	"github.com/vaultbox/vaultbox/pkg/ratex"

	"golang.org/x/crypto/curve25519"
)

/*
 * End-to-end tests run the full HTTP surface in-process: an httptest server
 * in front of the real router, services and an in-memory SQLite store. Only
 * the mail relay is replaced, with the recording in-memory mailer.
 */

type testServer struct {
	Client *passsdk.Client
	Mailer *mail.MemoryMailer
	Store  store.Store
}

func startServer(t *testing.T, requireVerification bool) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	identity, err := keyx.GenerateIdentity()
	require.NoError(t, err)

	mailer := mail.NewMemoryMailer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens := &service.TokenService{Store: st}

	router := httpapi.NewRouter("test", st, logger)
	router.TokenService = tokens
	router.AuthService = &service.AuthService{
		Store:               st,
		Identity:            identity,
		Tokens:              tokens,
		Mailer:              mailer,
		StrictGate:          ratex.Disabled(),
		EmailGate:           ratex.Disabled(),
		RequireVerification: requireVerification,
	}
	router.CipherService = &service.CipherService{Store: st}
	router.CollectionService = &service.CollectionService{Store: st}
	router.UserService = &service.UserService{Store: st, Identity: identity}
	router.TwoFactorService = &service.TwoFactorService{Store: st, Identity: identity}
	router.VaultGate = ratex.Disabled()
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		Client: passsdk.NewClient(srv.URL),
		Mailer: mailer,
		Store:  st,
	}
}

// clientKeys simulates the password-derived X25519 keypair a real client
// holds. Proofs are computed against the server public key from pre-login.
type clientKeys struct {
	priv []byte
	pub  []byte
}

func newClientKeys(t *testing.T) *clientKeys {
	t.Helper()

	priv := make([]byte, keyx.KeySize)
	_, err := rand.Read(priv)
	require.NoError(t, err)

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	require.NoError(t, err)

	return &clientKeys{priv: priv, pub: pub}
}

func (c *clientKeys) publicKeyHex() string {
	return hex.EncodeToString(c.pub)
}

func (c *clientKeys) proofFor(t *testing.T, serverPublicKeyHex string) string {
	t.Helper()

	serverPub, err := hex.DecodeString(serverPublicKeyHex)
	require.NoError(t, err)

	shared, err := curve25519.X25519(c.priv, serverPub)
	require.NoError(t, err)
	return hex.EncodeToString(shared)
}

func registerRequest(t *testing.T, keys *clientKeys, serverPublicKeyHex, email string) passsdk.RegisterRequest {
	t.Helper()

	return passsdk.RegisterRequest{
		Email:       email,
		SharedKey:   keys.proofFor(t, serverPublicKeyHex),
		PublicKey:   keys.publicKeyHex(),
		Parallelism: 3,
		Memory:      64 * 1024,
		Iterations:  4,
	}
}
