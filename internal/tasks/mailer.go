package tasks

import (
	"fmt"

	"github.com/tilapp/til/internal/config"
	"gopkg.in/mail.v2"
)

// Mailer delivers a single HTML e-mail
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends e-mails through an SMTP server
type SMTPMailer struct {
	from   string
	dialer *mail.Dialer
}

// NewSMTPMailer creates a mailer from SMTP settings
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.From,
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// buildMessage assembles the message sent by Send
func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return msg
}

// Send sends an e-mail using gopkg.in/mail.v2
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if err := m.dialer.DialAndSend(m.buildMessage(to, subject, htmlBody)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
