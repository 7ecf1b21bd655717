// Package mailer delivers the platform's transactional email. Delivery is
// best effort everywhere it is used; callers log failures and move on.
package mailer

import (
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/felicity-connect/backend/internal/config"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// New picks the implementation from config. "console" logs instead of
// sending, which is what development and CI run with.
func New(conf *config.MailerConfig) Mailer {
	if conf == nil || conf.Mode != "smtp" {
		var from string
		if conf != nil {
			from = conf.From
		}

		return &ConsoleMailer{from: from}
	}

	return &SMTPMailer{conf: conf}
}

type ConsoleMailer struct {
	from string
}

func (m *ConsoleMailer) Send(to, subject, body string) error {
	zap.L().Info("mail (console mode)",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))

	return nil
}

type SMTPMailer struct {
	conf *config.MailerConfig
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := m.conf.SMTPHost + ":" + m.conf.SMTPPort

	var auth smtp.Auth
	if m.conf.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.conf.SMTPUser, m.conf.SMTPPassword, m.conf.SMTPHost)
	}

	msg := []byte("From: " + m.conf.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(addr, auth, m.conf.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp.SendMail -> %w", err)
	}

	return nil
}
