package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// SMTPConfig carries the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// BaseURL prefixes the verification link, e.g. "https://vault.example.com".
	BaseURL string
}

// SMTPMailer delivers mail over a plain SMTP relay using net/smtp.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to string, user uuid.UUID, code string) error {
	link := VerificationLink(m.cfg.BaseURL, user, code)
	body := "Welcome!\r\n\r\nVerify your email address by opening the link below:\r\n\r\n" + link + "\r\n"
	return m.send(ctx, to, "Verify your email address", body)
}

func (m *SMTPMailer) SendPasswordHint(ctx context.Context, to, hint string) error {
	body := "Your password hint is:\r\n\r\n" + hint + "\r\n"
	return m.send(ctx, to, "Your password hint", body)
}

func (m *SMTPMailer) SendLoginNotification(ctx context.Context, to, ip string) error {
	body := "A new session was just opened on your account from " + ip + ".\r\n" +
		"If this was not you, change your password immediately.\r\n"
	return m.send(ctx, to, "New login to your account", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}
