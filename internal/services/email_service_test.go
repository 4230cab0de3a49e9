package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_SendNewPassword(t *testing.T) {
	client := &mockSES{}
	mailer := NewSESMailerWithClient(client, "support@example.com", discardLogger())

	err := mailer.SendNewPassword(context.Background(), "alice@example.com", "Alice", "Xy12Ab34Cd")

	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "support@example.com", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"alice@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, newPasswordSubject, aws.ToString(client.input.Message.Subject.Data))
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "Xy12Ab34Cd")
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "Hello Alice")
}

func TestSESMailer_SendNewPassword_Error(t *testing.T) {
	client := &mockSES{err: errors.New("throttled")}
	mailer := NewSESMailerWithClient(client, "support@example.com", discardLogger())

	err := mailer.SendNewPassword(context.Background(), "alice@example.com", "Alice", "pw")

	assert.Error(t, err)
}

func TestLogMailer_NeverFails(t *testing.T) {
	mailer := NewLogMailer(discardLogger())

	assert.NoError(t, mailer.SendNewPassword(context.Background(), "alice@example.com", "Alice", "pw"))
}
