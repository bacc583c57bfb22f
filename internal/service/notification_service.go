package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type NotificationType string

const (
	NotificationEmail NotificationType = "email"
	NotificationSMS   NotificationType = "sms"
)

type NotificationMessage struct {
	Type      NotificationType
	Recipient string
	Subject   string
	Message   string
	CreatedAt time.Time
}

type EmailService interface {
	SendEmail(to, subject, body string) error
}

type SMSService interface {
	SendSMS(to, message string) error
}

// NotificationService fans account-lifecycle and loan events out to a small
// worker pool. Enqueueing never blocks the caller; messages are dropped
// with a warning when the queue is full.
type NotificationService struct {
	emailService EmailService
	smsService   SMSService
	messageQueue chan NotificationMessage
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewNotificationService(emailService EmailService, smsService SMSService, workers int, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}

	s := &NotificationService{
		emailService: emailService,
		smsService:   smsService,
		messageQueue: make(chan NotificationMessage, 256),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	return s
}

// Notify enqueues a message without blocking.
func (s *NotificationService) Notify(msg NotificationMessage) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	select {
	case s.messageQueue <- msg:
	default:
		s.logger.Warn("Notification queue full, dropping message",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient))
	}
}

// NotifyAccountCreated tells the owner their account number.
func (s *NotificationService) NotifyAccountCreated(owner string, accountNumber int) {
	s.Notify(NotificationMessage{
		Type:      NotificationEmail,
		Recipient: owner,
		Subject:   "Account opened",
		Message:   fmt.Sprintf("Your new account is ready. Account number: %d", accountNumber),
	})
}

// NotifyLoanPaidOff congratulates the borrower on settling a loan.
func (s *NotificationService) NotifyLoanPaidOff(borrower string, loanID int) {
	s.Notify(NotificationMessage{
		Type:      NotificationEmail,
		Recipient: borrower,
		Subject:   "Loan settled",
		Message:   fmt.Sprintf("Loan %d is fully paid.", loanID),
	})
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()
	for {
		select {
		case msg := <-s.messageQueue:
			s.deliver(msg)
		case <-s.shutdownChan:
			// Drain what is already queued before exiting.
			for {
				select {
				case msg := <-s.messageQueue:
					s.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (s *NotificationService) deliver(msg NotificationMessage) {
	var err error
	switch msg.Type {
	case NotificationEmail:
		err = s.emailService.SendEmail(msg.Recipient, msg.Subject, msg.Message)
	case NotificationSMS:
		err = s.smsService.SendSMS(msg.Recipient, msg.Message)
	default:
		s.logger.Warn("Unknown notification type", slog.String("type", string(msg.Type)))
		return
	}
	if err != nil {
		s.logger.Error("Notification delivery failed",
			slog.String("type", string(msg.Type)),
			slog.String("recipient", msg.Recipient),
			slog.String("error", err.Error()))
	}
}

// Shutdown signals the workers and waits for them to drain the queue, or
// for the context to expire.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
