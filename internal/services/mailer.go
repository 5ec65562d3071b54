package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/newsflow/backend/internal/config"
	"github.com/newsflow/backend/internal/models"
)

// Mailer delivers account notifications. Sends are best-effort: callers log
// failures and never fail the triggering request on them.
type Mailer interface {
	SendAccountApproved(user *models.User) error
}

type SMTPMailer struct {
	cfg         config.SMTPConfig
	frontendURL string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.SMTPConfig, frontendURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, frontendURL: frontendURL}
}

func (m *SMTPMailer) SendAccountApproved(user *models.User) error {
	if m.cfg.Host == "" {
		return errors.New("smtp not configured")
	}

	loginURL := strings.TrimRight(m.frontendURL, "/") + "/login"
	subject := "Your Account Has Been Approved"
	body := fmt.Sprintf(
		"<h2>Welcome to NewsFlow DAM!</h2>"+
			"<p>Hello %s,</p>"+
			"<p>Your account has been approved. You can now log in:</p>"+
			"<a href=%q>Login Now</a>",
		user.Name, loginURL,
	)

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + user.Email,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	return smtp.SendMail(addr, auth, m.cfg.From, []string{user.Email}, []byte(msg))
}
