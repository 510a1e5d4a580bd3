package services

import (
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"

	"studiopulse_go/config"
)

// Mailer sends transactional email through Resend. When no API key is
// configured (local development), sends are logged and skipped.
type Mailer struct {
	client *resend.Client
	from   string
}

func NewMailer() *Mailer {
	m := &Mailer{from: config.AppConfig.MailFrom}
	if config.AppConfig.ResendAPIKey != "" {
		m.client = resend.NewClient(config.AppConfig.ResendAPIKey)
	}
	return m
}

// SendInvitation emails a staff invitation link built from the invite token.
func (m *Mailer) SendInvitation(email, fullName, orgName, token string) error {
	link := fmt.Sprintf("%s?token=%s", config.AppConfig.InviteBaseURL, token)

	if m.client == nil {
		logrus.WithFields(logrus.Fields{
			"email": email,
			"link":  link,
		}).Info("Resend not configured; invitation not sent")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email},
		Subject: fmt.Sprintf("Invitación a %s en StudioPulse", orgName),
		Html: fmt.Sprintf(
			"<p>Hola %s,</p><p>Has sido invitado a unirte a <strong>%s</strong> en StudioPulse.</p>"+
				"<p><a href=%q>Aceptar invitación</a></p>"+
				"<p>Este enlace expira en 7 días.</p>",
			fullName, orgName, link),
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"email":      email,
		"message_id": sent.Id,
	}).Info("Invitation email sent")
	return nil
}
