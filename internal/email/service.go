package email

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/medagenda/clinic-api/internal/config"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendAppointmentReminder(ctx context.Context, to, patientName, doctorName string, date time.Time) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,<br><br>Your account is ready. Create or join a clinic to get started.", name)
	return s.send(to, "Welcome to MedAgenda", body)
}

func (s *smtpService) SendAppointmentReminder(ctx context.Context, to, patientName, doctorName string, date time.Time) error {
	body := fmt.Sprintf(
		"Hi %s,<br><br>This is a reminder of your appointment with Dr. %s on %s.",
		patientName, doctorName, date.Format("Monday, 02 Jan 2006 at 15:04"),
	)
	return s.send(to, "Appointment reminder", body)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
