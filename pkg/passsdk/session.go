package passsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Session is an authenticated API handle bound to one bearer token.
type Session struct {
	client *Client

	Token  string
	UserID uuid.UUID
}

// SaveCipher inserts or updates an encrypted vault entry.
func (s *Session) SaveCipher(ctx context.Context, req CipherRequest) (*CipherIDResponse, error) {
	var out CipherIDResponse
	if err := s.client.doAuth(ctx, http.MethodPut, "/api/cipher", s.Token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCiphers fetches every cipher the account owns.
func (s *Session) ListCiphers(ctx context.Context) ([]CipherResponse, error) {
	var out []CipherResponse
	if err := s.client.doAuth(ctx, http.MethodGet, "/api/cipher", s.Token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sync returns all owned cipher ids plus the entries modified after lastSync
// (unix seconds). Clients detect server-side deletions by diffing IDs against
// their local set.
func (s *Session) Sync(ctx context.Context, lastSync int64) (*SyncResponse, error) {
	var out SyncResponse
	path := "/api/cipher/sync?lastSync=" + strconv.FormatInt(lastSync, 10)
	if err := s.client.doAuth(ctx, http.MethodGet, path, s.Token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCipher fetches one owned cipher.
func (s *Session) GetCipher(ctx context.Context, id uuid.UUID) (*CipherResponse, error) {
	var out CipherResponse
	if err := s.client.doAuth(ctx, http.MethodGet, "/api/cipher/"+id.String(), s.Token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCipher removes one owned cipher.
func (s *Session) DeleteCipher(ctx context.Context, id uuid.UUID) error {
	return s.client.doAuth(ctx, http.MethodDelete, "/api/cipher/"+id.String(), s.Token, nil, nil)
}

// SaveCollection creates or renames a collection.
func (s *Session) SaveCollection(ctx context.Context, req CollectionRequest) (*CollectionIDResponse, error) {
	var out CollectionIDResponse
	if err := s.client.doAuth(ctx, http.MethodPut, "/api/collection", s.Token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections fetches every collection the account owns.
func (s *Session) ListCollections(ctx context.Context) ([]CollectionResponse, error) {
	var out []CollectionResponse
	if err := s.client.doAuth(ctx, http.MethodGet, "/api/collection", s.Token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCollection fetches one owned collection.
func (s *Session) GetCollection(ctx context.Context, id uuid.UUID) (*CollectionResponse, error) {
	var out CollectionResponse
	if err := s.client.doAuth(ctx, http.MethodGet, "/api/collection/"+id.String(), s.Token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCollection removes one owned collection.
func (s *Session) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	return s.client.doAuth(ctx, http.MethodDelete, "/api/collection/"+id.String(), s.Token, nil, nil)
}

// ChangePassword atomically rotates the account's authentication material and
// replaces every owned cipher's payload with its re-encryption. The request
// must cover the full owned cipher set or the server rejects it outright.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.client.doAuth(ctx, http.MethodPatch, "/api/user/password", s.Token, req, nil)
}

// SetupTwoFactor enables TOTP on the account and returns the one-time-visible
// recovery code.
func (s *Session) SetupTwoFactor(ctx context.Context, req SetupTwoFactorRequest) (*SetupTwoFactorResponse, error) {
	var out SetupTwoFactorResponse
	if err := s.client.doAuth(ctx, http.MethodPost, "/api/user/setup/2fa", s.Token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the account and everything it owns.
func (s *Session) DeleteAccount(ctx context.Context, req DeleteAccountRequest) error {
	return s.client.doAuth(ctx, http.MethodDelete, "/api/user/delete", s.Token, req, nil)
}

// IconURL returns the server-proxied website icon endpoint for a domain.
func (s *Session) IconURL(domain string) string {
	return s.client.BaseURL + "/api/cipher/icon?domain=" + url.QueryEscape(domain)
}
