package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"patisserie/internal/config"
)

// EmailService is the notification gateway: a fire-and-forget send with a
// success/failure signal. Delivery failures never roll back OTP state.
type EmailService interface {
	SendOTPEmail(to, code string, ttl time.Duration) error
}

type emailService struct {
	from   string
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) EmailService {
	return &emailService{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (e *emailService) SendOTPEmail(to, code string, ttl time.Duration) error {
	m := gomail.NewMessage()

	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your OTP Code")
	m.SetBody("text/html", fmt.Sprintf(
		"<h1>Your OTP Code</h1>"+
			"<p>Your one-time password is: <strong>%s</strong></p>"+
			"<p>This code will expire in %d minutes.</p>",
		code, int(ttl.Minutes())))

	return e.dialer.DialAndSend(m)
}
