package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
)

// Sender delivers a prepared email.
type Sender interface {
	Send(ctx context.Context, payload SendEmailPayload) error
}

// SMTPConfig holds the delivery endpoint for outbound mail.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// SMTPSender delivers email over plain SMTP; pair it with a relay such as
// Mailpit in development.
type SMTPSender struct {
	config SMTPConfig
}

// NewSMTPSender constructs an SMTPSender.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config}
}

// Send delivers the payload to its recipient.
func (s *SMTPSender) Send(_ context.Context, payload SendEmailPayload) error {
	addr := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	var msg strings.Builder
	msg.WriteString("From: " + s.config.From + "\r\n")
	msg.WriteString("To: " + payload.To + "\r\n")
	msg.WriteString("Subject: " + payload.Subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(payload.Body)

	if err := smtp.SendMail(addr, nil, s.config.From, []string{payload.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("jobs: smtp send: %w", err)
	}
	return nil
}

// ConfirmationMailer turns registration events into queued confirmation
// emails. It implements the users service Mailer port.
type ConfirmationMailer struct {
	client *Client
}

// NewConfirmationMailer constructs a ConfirmationMailer.
func NewConfirmationMailer(client *Client) *ConfirmationMailer {
	return &ConfirmationMailer{client: client}
}

// EnqueueConfirmation queues the confirmation email for a new account.
func (m *ConfirmationMailer) EnqueueConfirmation(ctx context.Context, email, username, code string) error {
	body := fmt.Sprintf(
		"Hello %s,\n\nconfirm your email by posting to /users/confirm-email/%s\n", username, code)
	_, err := m.client.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      email,
		Subject: "Confirm your email",
		Body:    body,
	})
	return err
}
