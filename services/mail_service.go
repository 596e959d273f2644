package services

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/maintenix/maintenix-api/config"
)

// MailInterface defines the interface for outbound email
type MailInterface interface {
	Send(toEmail, subject, plainBody, htmlBody string) error
}

// MailService sends email through the SendGrid API
type MailService struct {
	apiKey string
	from   string
}

var mailServiceInstance MailInterface

// InitMailService initializes the mail service from configuration
func InitMailService() (MailInterface, error) {
	cfg := config.GetConfig()
	if cfg.SendGridAPIKey == "" || cfg.SendGridFrom == "" {
		return nil, fmt.Errorf("SendGrid is not configured (missing SENDGRID_API_KEY or SENDGRID_FROM)")
	}

	mailServiceInstance = &MailService{
		apiKey: cfg.SendGridAPIKey,
		from:   cfg.SendGridFrom,
	}
	return mailServiceInstance, nil
}

// GetMailService returns the initialized mail service instance
func GetMailService() MailInterface {
	return mailServiceInstance
}

// SetMailService sets the mail service instance (primarily for testing)
func SetMailService(service MailInterface) {
	mailServiceInstance = service
}

// Send delivers one email. Any SendGrid failure surfaces as ErrDelivery;
// callers only need success or failure, not delivery mechanics.
func (s *MailService) Send(toEmail, subject, plainBody, htmlBody string) error {
	from := sgmail.NewEmail("Maintenix", s.from)
	to := sgmail.NewEmail("", toEmail)
	message := sgmail.NewSingleEmail(from, subject, to, plainBody, htmlBody)

	client := sendgrid.NewSendClient(s.apiKey)
	resp, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: SendGrid returned status %d", ErrDelivery, resp.StatusCode)
	}

	log.Printf("SendGrid accepted mail to %s (status %d)", toEmail, resp.StatusCode)
	return nil
}

// PasswordResetBodies renders the plain and HTML bodies of a password
// recovery mail
func PasswordResetBodies(username, link string) (plain string, html string) {
	plain = fmt.Sprintf(`Hola %s,

Se solicitó restablecer la contraseña de tu cuenta. Haz clic en el enlace a continuación para crear una nueva contraseña.
El enlace expira en 1 hora.

%s

Si no solicitaste este cambio, ignora este correo.

Saludos,
Admin - Sistema de Mantenimiento
`, username, link)

	html = fmt.Sprintf(`<p>Hola <b>%s</b>,</p>
<p>Se solicitó restablecer la contraseña de tu cuenta. Haz clic en el siguiente enlace para crear una nueva contraseña (expira en 1 hora):</p>
<p><a href="%s">%s</a></p>
<p>Si no solicitaste este cambio, ignora este correo.</p>
<p>Saludos,<br>Admin - Sistema de Mantenimiento</p>
`, username, link, link)

	return plain, html
}
