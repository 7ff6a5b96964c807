package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/BradenHooton/shiftbook/pkg/logger"
)

// LockoutNotifier tells an account owner that their login is temporarily locked.
type LockoutNotifier interface {
	SendLockoutNotice(ctx context.Context, email string, lockedUntil time.Time) error
}

// SESSender is the subset of the SES client used here.
type SESSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   SESSender
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESEmailServiceWithClient(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func NewSESEmailServiceWithClient(client SESSender, fromAddress string, logger *slog.Logger) *AWSSESEmailService {
	return &AWSSESEmailService{
		sesClient:   client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

// SendLockoutNotice emails the owner the time their account unlocks.
func (s *AWSSESEmailService) SendLockoutNotice(ctx context.Context, email string, lockedUntil time.Time) error {
	unlockAt := lockedUntil.UTC().Format("15:04 MST on Jan 2, 2006")

	textBody := fmt.Sprintf(`Sign-in temporarily locked

We blocked sign-in to your Shiftbook account after several incorrect password attempts.

You can try again after %s.

If this was you, no action is needed. If it was not, someone may be guessing your password; consider choosing a stronger one once you are back in.

This is an automated message. Please do not reply to this email.
`, unlockAt)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Sign-in temporarily locked</h2>
  <p>We blocked sign-in to your Shiftbook account after several incorrect password attempts.</p>
  <p>You can try again after <strong>%s</strong>.</p>
  <p>If this was you, no action is needed. If it was not, someone may be guessing your password; consider choosing a stronger one once you are back in.</p>
  <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, unlockAt)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your Shiftbook sign-in is temporarily locked"),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send lockout notice via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("lockout notice sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
