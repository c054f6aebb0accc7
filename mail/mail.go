// Package mail delivers one-time codes over SMTP, plus a log-only
// sender for development. Delivery is bounded by the caller's context
// deadline and the dialer's own timeout so a stalled SMTP server cannot
// hang a request.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/halcyondev/authgate"
)

// SMTPConfig holds the dialer settings for [SMTPSender].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string

	// DialTimeout bounds connection setup. Zero means 10 seconds.
	DialTimeout time.Duration
}

// SMTPSender sends codes as plain-text email through an SMTP relay.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPSender builds an SMTPSender from cfg.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("mail: smtp host and port are required")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your verification code"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPSender{cfg: cfg, dialer: dialer}, nil
}

// SendCode delivers code to email. The send runs in its own goroutine
// so the context deadline caps the wall time even though gomail's dial
// and send calls do not take a context.
func (s *SMTPSender) SendCode(ctx context.Context, email string, purpose authgate.CodePurpose, code string, ttl time.Duration) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", s.cfg.Subject)
	msg.SetBody("text/plain", codeBody(purpose, code, ttl))

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	timeout := time.NewTimer(s.cfg.DialTimeout)
	defer timeout.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: send to %s: %w", email, err)
		}
		return nil
	case <-timeout.C:
		return fmt.Errorf("mail: send to %s: dial timeout after %s", email, s.cfg.DialTimeout)
	case <-ctx.Done():
		return fmt.Errorf("mail: send to %s: %w", email, ctx.Err())
	}
}

func codeBody(purpose authgate.CodePurpose, code string, ttl time.Duration) string {
	action := "verify your email address"
	if purpose == authgate.PurposePasswordReset {
		action = "reset your password"
	}
	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf(
		"Your code to %s is %s. It expires in %d minutes. "+
			"If you did not request this, ignore this message.",
		action, code, minutes)
}

// LogSender writes codes to a structured log instead of sending mail.
// Development and test use only.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender returns a LogSender writing through logger.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{log: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email string, purpose authgate.CodePurpose, code string, ttl time.Duration) error {
	s.log.InfoContext(ctx, "verification code issued",
		"email", email,
		"purpose", purpose.String(),
		"code", code,
		"ttl", ttl.String(),
	)
	return nil
}
