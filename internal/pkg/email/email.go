package email

import (
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendChatNotification(toEmail, toName, title, content, conversationID string) error
	SendWelcomeEmail(toEmail, toName string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	BaseURL   string // Base URL for portal links in email bodies
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendChatNotification sends a chat notification email. When SMTP credentials
// are not configured the email is logged instead of sent, so notification
// delivery degrades without failing the pipeline.
func (s *EmailServiceImpl) SendChatNotification(toEmail, toName, title, content, conversationID string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("title", title).
			Msg("SMTP credentials not configured - chat notification email not sent")
		return nil
	}

	conversationURL := fmt.Sprintf("%s/portal/conversations/%s", s.config.BaseURL, conversationID)

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">%s</h2>
				<p>Olá %s,</p>
				<p>%s</p>
				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #1a3c6e; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Abrir conversa</a>
				</div>
				<p style="color: #888; font-size: 12px;">Você recebeu este email porque as notificações por email estão ativadas nas suas preferências.</p>
			</div>
		</body>
		</html>`,
		title, toName, content, conversationURL)

	return s.send(toEmail, title, body)
}

// SendWelcomeEmail sends the portal welcome email to a newly registered actor.
func (s *EmailServiceImpl) SendWelcomeEmail(toEmail, toName string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Msg("SMTP credentials not configured - welcome email not sent")
		return nil
	}

	subject := "Bem-vindo ao portal"
	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Bem-vindo, %s!</h2>
				<p>Sua conta no portal foi criada. Acesse <a href="%s">%s</a> para conversar com a equipe.</p>
			</div>
		</body>
		</html>`,
		toName, s.config.BaseURL, s.config.BaseURL)

	return s.send(toEmail, subject, body)
}

// send delivers an HTML email over SMTP.
func (s *EmailServiceImpl) send(toEmail, subject, htmlBody string) error {
	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	from := s.config.FromEmail
	if from == "" {
		from = s.config.Username
	}

	headers := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n",
		s.config.FromName, from, toEmail, subject)

	msg := []byte(headers + htmlBody)

	if err := smtp.SendMail(addr, auth, from, []string{toEmail}, msg); err != nil {
		s.logger.Error().
			Err(err).
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug().
		Str("toEmail", toEmail).
		Str("subject", subject).
		Msg("Email sent")

	return nil
}
