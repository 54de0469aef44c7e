// Package mail sends transactional email over SMTP.
//
// When SMTP credentials are not configured the mailer logs the message
// instead of sending it and reports success, so local development works
// without a mail server: the reset token shows up in the server log.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Config holds SMTP settings. Username and Password empty means
// development mode (log instead of send).
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string // prepended to reset links
}

// Mailer sends the site's transactional mail.
type Mailer struct {
	config Config
	logger *slog.Logger
}

func NewMailer(config Config, logger *slog.Logger) *Mailer {
	return &Mailer{config: config, logger: logger}
}

// SendPasswordReset emails a reset link carrying the token.
func (m *Mailer) SendPasswordReset(toEmail, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", m.config.BaseURL, token)

	if m.config.Username == "" || m.config.Password == "" {
		m.logger.Warn("SMTP not configured, password reset not sent",
			slog.String("email", toEmail),
			slog.String("resetURL", resetURL),
		)
		return nil
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Reset your password\r\n"+
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"A password reset was requested for your account.\r\n\r\n"+
		"Open this link to choose a new password:\r\n%s\r\n\r\n"+
		"The link expires in one hour. If you did not request this, ignore this email.\r\n",
		m.config.From, toEmail, resetURL)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{toEmail}, []byte(body)); err != nil {
		return fmt.Errorf("mail: sending password reset to %s: %w", toEmail, err)
	}

	m.logger.Info("password reset email sent", slog.String("email", toEmail))
	return nil
}
