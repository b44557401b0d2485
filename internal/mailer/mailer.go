// Package mailer delivers transactional email (welcome messages and password
// reset links) over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"strive-backend-go/internal/core"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer implements core.Mailer on top of net/smtp.
type SMTPMailer struct {
	cfg    Config
	send   SendFunc
	logger *zap.Logger
}

var _ core.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer returns a mailer for cfg. Authentication is skipped when no
// username is configured.
func NewSMTPMailer(cfg Config, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, logger: logger}, nil
}

// WithSendFunc replaces the transport, mainly for tests.
func (m *SMTPMailer) WithSendFunc(fn SendFunc) *SMTPMailer {
	m.send = fn
	return m
}

func (m *SMTPMailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

// Send delivers a single message to recipient.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := BuildMessage(m.cfg.From, recipient, subject, body)
	if err := m.send(m.addr(), auth, m.cfg.From, []string{recipient}, msg); err != nil {
		m.logger.Error("Failed to send email", zap.String("to", recipient), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}
	m.logger.Info("Email sent", zap.String("to", recipient), zap.String("subject", subject))
	return nil
}

// BuildMessage renders an RFC 5322 message. HTML bodies are detected from
// <html> or <p> tags.
func BuildMessage(from, to, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	// Header injection guard.
	subject = strings.NewReplacer("\r", "", "\n", " ").Replace(subject)

	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, contentType, body))
}
