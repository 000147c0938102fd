// Package mail sends transactional email. The server only ever sends three
// kinds of message: address verification, password hints and new-login
// notifications. Delivery is best-effort; callers decide whether a failure is
// fatal for the request.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Mailer abstracts the outbound mail channel so services can be tested with
// the in-memory implementation.
type Mailer interface {
	// SendVerification delivers the email verification link for the account.
	SendVerification(ctx context.Context, to string, user uuid.UUID, code string) error

	// SendPasswordHint delivers the stored password hint.
	SendPasswordHint(ctx context.Context, to, hint string) error

	// SendLoginNotification tells the account owner a new session was opened
	// from ip.
	SendLoginNotification(ctx context.Context, to, ip string) error
}

// VerificationLink builds the link a verification mail carries. The verify
// endpoint needs both the account id and the code, so the link must carry
// both.
func VerificationLink(baseURL string, user uuid.UUID, code string) string {
	return fmt.Sprintf("%s/api/auth/verifyEmail?user=%s&code=%s",
		strings.TrimRight(baseURL, "/"), user, url.QueryEscape(code))
}
