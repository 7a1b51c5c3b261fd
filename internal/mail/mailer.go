// Package mail sends transactional email for account confirmation and
// password resets.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"photoshare/internal/config"
	"photoshare/internal/middleware"
)

// Mailer sends account email. Implementations must be safe for concurrent use.
type Mailer interface {
	SendConfirmation(to, token string) error
	SendReset(to, token string) error
}

// SMTPMailer delivers mail over plain SMTP with optional auth.
type SMTPMailer struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	baseURL string
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a mailer from config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		host:    cfg.SMTPHost,
		port:    cfg.SMTPPort,
		user:    cfg.SMTPUser,
		pass:    cfg.SMTPPassword,
		from:    cfg.MailFrom,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		send:    smtp.SendMail,
	}
}

// SendConfirmation emails a signed confirmation link to the new user.
func (m *SMTPMailer) SendConfirmation(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirm/%s", m.baseURL, token)
	body := fmt.Sprintf("Welcome! Confirm your email address by opening this link:\r\n\r\n%s\r\n", link)
	if err := m.deliver(to, "Confirm your account", body); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}
	return nil
}

// SendReset emails a signed password reset link.
func (m *SMTPMailer) SendReset(to, token string) error {
	link := fmt.Sprintf("%s/api/auth/reset_password/%s", m.baseURL, token)
	body := fmt.Sprintf("A password reset was requested for your account. "+
		"Open this link to choose a new password:\r\n\r\n%s\r\n\r\n"+
		"If you did not request this, you can ignore this mail.\r\n", link)
	if err := m.deliver(to, "Reset your password", body); err != nil {
		return fmt.Errorf("failed to send reset mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) deliver(to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := m.host + ":" + m.port
	return m.send(addr, auth, m.from, []string{to}, []byte(b.String()))
}

// NoopMailer logs instead of sending. Used when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) SendConfirmation(to, token string) error {
	middleware.Logger.Info("mail disabled, skipping confirmation email",
		slog.String("to", to),
		slog.String("token", token),
	)
	return nil
}

func (NoopMailer) SendReset(to, token string) error {
	middleware.Logger.Info("mail disabled, skipping reset email",
		slog.String("to", to),
		slog.String("token", token),
	)
	return nil
}

// New selects the SMTP mailer when a host is configured, otherwise a noop.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return NoopMailer{}
	}
	return NewSMTPMailer(cfg)
}
