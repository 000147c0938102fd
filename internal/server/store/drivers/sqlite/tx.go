package sqlite

import (
	"database/sql"

	"github.com/vaultbox/vaultbox/internal/server/store"
)

// txStore exposes the repositories over one open transaction. Lifecycle
// (commit/rollback) stays with Store.WithTx.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users             { return &usersRepo{q: t.tx} }
func (t *txStore) Tokens() store.Tokens           { return &tokensRepo{q: t.tx} }
func (t *txStore) Ciphers() store.Ciphers         { return &ciphersRepo{q: t.tx} }
func (t *txStore) Collections() store.Collections { return &collectionsRepo{q: t.tx} }
