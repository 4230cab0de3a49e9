package services

import (
	"context"
	"fmt"
	"log/slog"

	pkglogger "github.com/BradenHooton/supportportal/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const newPasswordSubject = "Support Portal - New Password"

// SESAPI is the part of the SES client the mailer uses
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends account emails through AWS SES
type SESMailer struct {
	client      SESAPI
	fromAddress string
	logger      *slog.Logger
}

// NewSESMailer loads the default AWS configuration for region and creates a
// mailer
func NewSESMailer(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESMailer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESMailerWithClient(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

// NewSESMailerWithClient creates a mailer around an existing client
func NewSESMailerWithClient(client SESAPI, fromAddress string, logger *slog.Logger) *SESMailer {
	return &SESMailer{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

// SendNewPassword mails a generated password to the account owner
func (m *SESMailer) SendNewPassword(ctx context.Context, email, firstName, password string) error {
	textBody := fmt.Sprintf(`Hello %s,

Your new account password is: %s

Please sign in and change it as soon as possible.

The Support Team
`, firstName, password)

	input := &ses.SendEmailInput{
		Source: aws.String(m.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(newPasswordSubject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send new password email via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	m.logger.Info("new password email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", messageID))
	return nil
}

// LogMailer stands in for SES when email delivery is disabled. The password
// itself is never logged.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendNewPassword records that a password would have been sent
func (m *LogMailer) SendNewPassword(ctx context.Context, email, firstName, password string) error {
	m.logger.Warn("email delivery disabled; new password not sent",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}
