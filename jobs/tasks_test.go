package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []SendEmailPayload
	err  error
}

func (s *recordingSender) Send(_ context.Context, payload SendEmailPayload) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, payload)
	return nil
}

func TestSendEmailTaskRoundtrip(t *testing.T) {
	payload := SendEmailPayload{
		To:      "carol@example.com",
		Subject: "Confirm your email",
		Body:    "hello",
	}
	task, err := NewSendEmailTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendEmail, task.Type())

	sender := &recordingSender{}
	handler := NewSendEmailHandler(sender)
	require.NoError(t, handler(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, payload, sender.sent[0])
}

func TestSendEmailHandlerDropsBadPayload(t *testing.T) {
	sender := &recordingSender{}
	handler := NewSendEmailHandler(sender)

	err := handler(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry, "undecodable payloads must not be retried")
	assert.Empty(t, sender.sent)
}

func TestSendEmailHandlerPropagatesDeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	handler := NewSendEmailHandler(sender)

	task, err := NewSendEmailTask(SendEmailPayload{To: "carol@example.com"})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "delivery failures stay retryable")
}
