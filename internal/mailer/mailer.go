// Package mailer renders and delivers transactional email over SMTP.  SMTP
// credentials come from the settings resolver on every send.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/iliyamo/travel-agency-booking/internal/settings"
)

var (
	ErrDisabled      = errors.New("email sending disabled")
	ErrNotConfigured = errors.New("smtp not configured")
)

// Message is a rendered email.
type Message struct {
	Kind    string `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTPSender sends through the relay configured in settings.
type SMTPSender struct {
	settings *settings.Resolver
	timeout  time.Duration
}

func NewSMTPSender(s *settings.Resolver) *SMTPSender {
	return &SMTPSender{settings: s, timeout: 15 * time.Second}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	cfg := s.settings.SMTP(ctx)
	if !cfg.Enabled {
		return ErrDisabled
	}
	if !cfg.Usable() {
		return ErrNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.FromName, cfg.Email); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return fmt.Errorf("to address %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Email),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(s.timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
