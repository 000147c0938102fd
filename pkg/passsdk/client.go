package passsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the unauthenticated part of the vaultbox API and creates
// authenticated Sessions from a login.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client with a sane default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", req, nil)
}

// PreLogin fetches the key-derivation parameters and the server's ephemeral
// public key. An empty email yields the default bootstrap parameters.
func (c *Client) PreLogin(ctx context.Context, email string) (*PreLoginResponse, error) {
	var out PreLoginResponse
	path := "/api/auth/preLogin?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login performs the shared-secret handshake and returns an authenticated
// Session. When the response reports Confirmed=false the session still needs
// ConfirmTwoFactor before any vault operation will be accepted.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, *LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, nil, err
	}

	return &Session{client: c, Token: out.Token, UserID: out.UserID}, &out, nil
}

// ConfirmTwoFactor presents a TOTP or recovery code for an unconfirmed token.
func (c *Client) ConfirmTwoFactor(ctx context.Context, req TwoFactorRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/2fa", req, nil)
}

// RequestPasswordHint asks the server to mail the stored password hint.
func (c *Client) RequestPasswordHint(ctx context.Context, email string) error {
	path := "/api/auth/passwordHint?email=" + url.QueryEscape(email)
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	return c.doAuth(ctx, method, path, "", in, out)
}

func (c *Client) doAuth(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("passsdk: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("passsdk: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("passsdk: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			return &APIError{Code: "Unexpected", StatusCode: resp.StatusCode}
		}
		return &APIError{Code: apiErr.Error, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("passsdk: decode response: %w", err)
		}
	}
	return nil
}
