package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer dispatches confirmation codes. Signup treats a send failure as
// best-effort: the created user state stays intact and the failure is logged.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, email, username, code string) error
}

// SMTPMailer sends over a plain SMTP endpoint.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{addr: addr, from: from}
	if username != "" {
		host, _, _ := strings.Cut(addr, ":")
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your confirmation code\r\n\r\n"+
		"Hello %s,\r\n\r\nYour confirmation code: %s\r\n", m.from, email, username, code)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

// LogMailer writes codes to the log instead of sending mail. Used in
// development when no SMTP endpoint is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	m.logger.Info("confirmation code issued",
		"email", email,
		"username", username,
		"code", code,
	)
	return nil
}
