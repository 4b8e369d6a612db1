package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/attend/internal/config"
)

// Service sends transactional mail through Resend. When disabled it logs the
// would-be send and reports success, so development environments need no API
// key.
type Service struct {
	config config.EmailConfig
	client *resend.Client
	logger zerolog.Logger
}

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	svc := &Service{
		config: cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

type reminderData struct {
	UserName  string
	EventName string
	StartTime string
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body>
  <p>Hi {{.UserName}},</p>
  <p>This is a reminder that <strong>{{.EventName}}</strong> starts at {{.StartTime}}.</p>
  <p>See you there!</p>
</body>
</html>
`))

// SendEventReminder notifies an attendee about an upcoming event.
func (s *Service) SendEventReminder(ctx context.Context, to, userName, eventName string, startTime time.Time) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("event", eventName).
			Time("start_time", startTime).
			Msg("email service disabled, skipping reminder")
		return nil
	}

	data := reminderData{
		UserName:  userName,
		EventName: eventName,
		StartTime: startTime.UTC().Format("Monday, January 2 2006 at 15:04 MST"),
	}
	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render reminder template: %w", err)
	}

	subject := fmt.Sprintf("Reminder: %s starts soon", eventName)
	return s.send(ctx, to, subject, body.String())
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Msg("email sent")
	return nil
}

// validateEmailAddress rejects malformed addresses and header injection
// attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
