// Package notify delivers verification and password-reset links. Two
// implementations are provided: SMTP for real deployments and Log for
// development setups without a mail relay.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// SMTP sends links as plain-text mail through a single relay. Safe for
// concurrent use; net/smtp opens one connection per send.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth

	// sendMail is swapped out in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP configures an SMTP notifier. addr is host:port of the relay; auth
// may be nil for an open relay.
func NewSMTP(addr, from string, auth smtp.Auth) *SMTP {
	return &SMTP{addr: addr, from: from, auth: auth, sendMail: smtp.SendMail}
}

func (s *SMTP) SendVerification(_ context.Context, email, url string) error {
	return s.send(email, "Confirm your email address",
		"Follow this link to confirm your email address:\r\n\r\n"+url+"\r\n")
}

func (s *SMTP) SendPasswordReset(_ context.Context, email, url string) error {
	return s.send(email, "Reset your password",
		"Follow this link to choose a new password:\r\n\r\n"+url+"\r\n"+
			"\r\nIf you did not request this, you can ignore this mail.\r\n")
}

func (s *SMTP) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := s.sendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %v failed: %w", to, err)
	}
	return nil
}

// Log writes links to the log instead of sending mail.
type Log struct {
	log zerolog.Logger
}

// NewLog builds a log-only notifier.
func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) SendVerification(_ context.Context, email, url string) error {
	l.log.Info().Str("email", email).Str("url", url).Msg("verification link")
	return nil
}

func (l *Log) SendPasswordReset(_ context.Context, email, url string) error {
	l.log.Info().Str("email", email).Str("url", url).Msg("password reset link")
	return nil
}
