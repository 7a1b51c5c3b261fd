package mail

import (
	"net/smtp"
	"testing"

	"photoshare/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_SendConfirmation(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	m := NewSMTPMailer(&config.Config{
		SMTPHost: "mail.example.com",
		SMTPPort: "587",
		MailFrom: "no-reply@photoshare.local",
		BaseURL:  "https://photoshare.example.com/",
	})
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	require.NoError(t, m.SendConfirmation("alice@example.com", "tok-123"))

	assert.Equal(t, "mail.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@photoshare.local", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "https://photoshare.example.com/api/auth/confirm/tok-123")
}

func TestSMTPMailer_SendReset(t *testing.T) {
	var gotMsg []byte

	m := NewSMTPMailer(&config.Config{
		SMTPHost: "mail.example.com",
		SMTPPort: "587",
		MailFrom: "no-reply@photoshare.local",
		BaseURL:  "https://photoshare.example.com",
	})
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	require.NoError(t, m.SendReset("alice@example.com", "tok-456"))

	assert.Contains(t, string(gotMsg), "Subject: Reset your password")
	assert.Contains(t, string(gotMsg), "https://photoshare.example.com/api/auth/reset_password/tok-456")
}

func TestNew_FallsBackToNoop(t *testing.T) {
	m := New(&config.Config{})
	_, ok := m.(NoopMailer)
	assert.True(t, ok)
	assert.NoError(t, m.SendConfirmation("x@example.com", "tok"))
}
