package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSESSender struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSESSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestAWSSESEmailService_SendLockoutNotice(t *testing.T) {
	sender := &mockSESSender{}
	svc := NewSESEmailServiceWithClient(sender, "noreply@shiftbook.test", discardLogger())
	lockedUntil := time.Date(2026, 6, 1, 8, 10, 0, 0, time.UTC)

	require.NoError(t, svc.SendLockoutNotice(context.Background(), "owner@example.com", lockedUntil))

	require.NotNil(t, sender.input)
	assert.Equal(t, "noreply@shiftbook.test", aws.ToString(sender.input.Source))
	assert.Equal(t, []string{"owner@example.com"}, sender.input.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(sender.input.Message.Body.Text.Data), "08:10 UTC on Jun 1, 2026")
	assert.Contains(t, aws.ToString(sender.input.Message.Body.Html.Data), "08:10 UTC on Jun 1, 2026")
}

func TestAWSSESEmailService_SendLockoutNotice_Error(t *testing.T) {
	sender := &mockSESSender{err: errors.New("throttled")}
	svc := NewSESEmailServiceWithClient(sender, "noreply@shiftbook.test", discardLogger())

	err := svc.SendLockoutNotice(context.Background(), "owner@example.com", time.Now())
	assert.Error(t, err)
}
