// Package email sends appointment notifications. Sending is best-effort:
// the booking flow never fails because a notification could not go out.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/gomail.v2"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/circuitbreaker"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, detail *model.AppointmentDetail) error
	SendCancellation(ctx context.Context, to string, detail *model.AppointmentDetail) error
}

// SMTPConfig is read from SMTP_* environment variables.
type SMTPConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"noreply@clinic.local"`
}

func LoadSMTPConfig() (SMTPConfig, error) {
	var cfg SMTPConfig
	if err := envconfig.Process("SMTP", &cfg); err != nil {
		return SMTPConfig{}, fmt.Errorf("failed to load smtp config: %w", err)
	}
	return cfg, nil
}

type smtpService struct {
	dialer  *gomail.Dialer
	from    string
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewService returns the SMTP sender, or a logging no-op when no SMTP
// host is configured. Sends run behind a circuit breaker so a dead
// relay fails fast instead of stalling request handlers.
func NewService(cfg SMTPConfig, log *logger.Logger) Service {
	if cfg.Host == "" {
		return &noopService{logger: log}
	}
	return &smtpService{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		breaker: circuitbreaker.New(circuitbreaker.Settings{MaxFailures: 5, Cooldown: time.Minute}),
		logger:  log,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, detail *model.AppointmentDetail) error {
	subject := "Appointment confirmed"
	body := fmt.Sprintf(
		"Your appointment on %s between %s and %s is confirmed.",
		detail.Date.Format("2006-01-02"), detail.StartTime, detail.EndTime,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendCancellation(ctx context.Context, to string, detail *model.AppointmentDetail) error {
	subject := "Appointment cancelled"
	body := fmt.Sprintf(
		"Your appointment on %s between %s and %s has been cancelled.",
		detail.Date.Format("2006-01-02"), detail.StartTime, detail.EndTime,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		s.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// noopService logs instead of sending. Used in development and tests.
type noopService struct {
	logger *logger.Logger
}

func (s *noopService) SendBookingConfirmation(ctx context.Context, to string, detail *model.AppointmentDetail) error {
	s.logger.Info("email disabled, skipping booking confirmation", "to", to)
	return nil
}

func (s *noopService) SendCancellation(ctx context.Context, to string, detail *model.AppointmentDetail) error {
	s.logger.Info("email disabled, skipping cancellation notice", "to", to)
	return nil
}
