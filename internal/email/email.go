// Package email sends the two templated messages Oprish needs
// (verification, password reset) over SMTP, grounded on the original
// implementation's email.rs preset shape but using net/smtp since the
// example pack carries no async SMTP client. A nil relay configuration
// means email is disabled instance-wide; routes that need it then
// return apierror.Misdirectedf rather than silently no-op (§7).
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/eludris-go/eludris/internal/apierror"
	"github.com/eludris-go/eludris/internal/config"
)

// Sender delivers the account-lifecycle emails Oprish triggers.
type Sender interface {
	SendVerification(ctx context.Context, to, code string) error
	SendPasswordReset(ctx context.Context, to, code string) error
}

// FormatCode groups a numeric code into 3-digit chunks separated by a
// space ("123456" -> "123 456"), matching the original implementation's
// chars().chunks(3) formatting exactly.
func FormatCode(code string) string {
	var chunks []string
	for len(code) > 3 {
		chunks = append(chunks, code[:3])
		code = code[3:]
	}
	if code != "" {
		chunks = append(chunks, code)
	}
	return strings.Join(chunks, " ")
}

// SMTPSender is the concrete net/smtp-backed Sender. An SMTPSender with
// a nil cfg always returns Misdirectedf, matching an instance configured
// with no `email:` block.
type SMTPSender struct {
	cfg *config.EmailConfig
}

// New builds a Sender over cfg. cfg may be nil, disabling email.
func New(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, code string) error {
	if s.cfg == nil {
		return apierror.Misdirectedf("this instance has no email relay configured")
	}
	formatted := FormatCode(code)
	subject := strings.ReplaceAll(s.cfg.Subjects.Verify, "${CODE}", formatted)
	if subject == "" {
		subject = "Verify your Eludris account"
	}
	body := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p>", formatted)
	return s.send(to, subject, body)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, code string) error {
	if s.cfg == nil {
		return apierror.Misdirectedf("this instance has no email relay configured")
	}
	formatted := FormatCode(code)
	subject := strings.ReplaceAll(s.cfg.Subjects.PasswordReset, "${CODE}", formatted)
	if subject == "" {
		subject = "Reset your Eludris password"
	}
	body := fmt.Sprintf("<p>Your password reset code is <strong>%s</strong>.</p>", formatted)
	return s.send(to, subject, body)
}

func (s *SMTPSender) send(to, subject, htmlBody string) error {
	msg := strings.Builder{}
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.cfg.Name, s.cfg.Address))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if s.cfg.Credentials != nil {
		host, _, _ := strings.Cut(s.cfg.Relay, ":")
		auth = smtp.PlainAuth("", s.cfg.Credentials.Username, s.cfg.Credentials.Password, host)
	}

	if err := smtp.SendMail(s.cfg.Relay, auth, s.cfg.Address, []string{to}, []byte(msg.String())); err != nil {
		return apierror.Internal("could not send email", err)
	}
	return nil
}

// NoopSender discards every send, used when email is intentionally
// disabled but callers still need a non-nil Sender (tests, dev mode
// without MISDIRECTED noise).
type NoopSender struct{}

func (NoopSender) SendVerification(ctx context.Context, to, code string) error  { return nil }
func (NoopSender) SendPasswordReset(ctx context.Context, to, code string) error { return nil }
