// Package mail implements the outbound mailer on SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"inkwell/config"
)

// SMTPMailer sends plain-text mail through a single SMTP relay. When
// no relay is configured the mailer logs and succeeds, mirroring the
// search layer's "absent dependency is a disabled feature" contract.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if !m.cfg.Enabled() {
		m.logger.Info("mail delivery disabled, dropping message",
			"recipient", recipient,
			"subject", subject,
		)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.logger.Info("mail sent", "recipient", recipient, "subject", subject)
	return nil
}
