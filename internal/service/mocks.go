package service

import "log/slog"

// MockEmailService logs instead of sending. Stands in until a real
// provider is wired up.
type MockEmailService struct{}

func (MockEmailService) SendEmail(to, subject, body string) error {
	slog.Info("Email sent",
		slog.String("to", to),
		slog.String("subject", subject))
	return nil
}

// MockSMSService logs instead of sending.
type MockSMSService struct{}

func (MockSMSService) SendSMS(to, message string) error {
	slog.Info("SMS sent", slog.String("to", to))
	return nil
}
