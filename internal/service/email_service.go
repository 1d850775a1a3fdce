package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService отправляет транзакционные письма.
type EmailService interface {
	SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error
	SendReportConfirmation(ctx context.Context, toEmail, fullName, caseNumber string) error
	SendStatusUpdate(ctx context.Context, toEmail, fullName, caseNumber, status, reason string) error
}

// NoopEmailService используется, когда отправка писем отключена (локальная
// разработка). Коды верификации печатаются в лог вместо отправки.
type NoopEmailService struct{}

func (s *NoopEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	log.Printf("[EmailService] noop send verification code to=%s code=%s", toEmail, code)
	return nil
}

func (s *NoopEmailService) SendReportConfirmation(ctx context.Context, toEmail, fullName, caseNumber string) error {
	log.Printf("[EmailService] noop send report confirmation to=%s case=%s", toEmail, caseNumber)
	return nil
}

func (s *NoopEmailService) SendStatusUpdate(ctx context.Context, toEmail, fullName, caseNumber, status, reason string) error {
	log.Printf("[EmailService] noop send status update to=%s case=%s status=%s", toEmail, caseNumber, status)
	return nil
}

// ResendEmailService отправляет письма через Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your login verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in 15 minutes.", code),
		Html:    fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in 15 minutes.</p>", code),
	}

	return s.send(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) SendReportConfirmation(ctx context.Context, toEmail, fullName, caseNumber string) error {
	if toEmail == "" || caseNumber == "" {
		return fmt.Errorf("toEmail and caseNumber are required")
	}

	greeting := "Hello"
	if fullName != "" {
		greeting = "Hello " + fullName
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your report has been received",
		Text: fmt.Sprintf("%s,\n\nYour report has been received and assigned case number %s. "+
			"You can use it to check the status of your report at any time.", greeting, caseNumber),
		Html: fmt.Sprintf("<p>%s,</p><p>Your report has been received and assigned case number "+
			"<strong>%s</strong>.</p><p>You can use it to check the status of your report at any time.</p>",
			greeting, caseNumber),
	}

	return s.send(ctx, params, "")
}

func (s *ResendEmailService) SendStatusUpdate(ctx context.Context, toEmail, fullName, caseNumber, status, reason string) error {
	if toEmail == "" || caseNumber == "" {
		return fmt.Errorf("toEmail and caseNumber are required")
	}

	greeting := "Hello"
	if fullName != "" {
		greeting = "Hello " + fullName
	}

	text := fmt.Sprintf("%s,\n\nThe status of your report %s has been updated to %s.", greeting, caseNumber, status)
	html := fmt.Sprintf("<p>%s,</p><p>The status of your report <strong>%s</strong> has been updated to <strong>%s</strong>.</p>",
		greeting, caseNumber, status)
	if reason != "" {
		text += fmt.Sprintf("\n\nComment: %s", reason)
		html += fmt.Sprintf("<p>Comment: %s</p>", reason)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Report %s status update", caseNumber),
		Text:    text,
		Html:    html,
	}

	return s.send(ctx, params, "")
}

// send выполняет отправку с ограниченным числом повторов при rate limit
// и временных сетевых ошибках.
func (s *ResendEmailService) send(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
