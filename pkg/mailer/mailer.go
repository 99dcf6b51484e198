// Package mailer delivers plain-text email over SMTP, to the log, or through
// a message queue for asynchronous delivery.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks if the SMTP configuration is complete.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP host")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP port")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP from address")
	}
	return nil
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends email through an SMTP server.
type SMTPMailer struct {
	from   string
	dialer dialer
}

// NewSMTPMailer creates an SMTPMailer with the given configuration.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send sends a single plain-text email.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// ConsoleMailer writes messages to the log instead of sending them. It is
// used when SMTP is disabled.
type ConsoleMailer struct{}

// Send logs the message.
func (ConsoleMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email (console delivery)")
	return nil
}

// Job is one queued email.
type Job struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher publishes a JSON payload under a routing key.
type Publisher interface {
	PublishJSON(routingKey string, v any) error
}

// QueueMailer enqueues emails for a worker to deliver. Send succeeds once the
// broker has accepted the job.
type QueueMailer struct {
	publisher  Publisher
	routingKey string
}

// NewQueueMailer creates a QueueMailer publishing under routingKey.
func NewQueueMailer(publisher Publisher, routingKey string) *QueueMailer {
	return &QueueMailer{publisher: publisher, routingKey: routingKey}
}

// Send enqueues the message.
func (m *QueueMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.publisher.PublishJSON(m.routingKey, Job{To: to, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("failed to enqueue email to %s: %w", to, err)
	}
	return nil
}

// Sender is anything that can deliver a message synchronously.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// JobHandler returns a queue handler that decodes a Job and delivers it
// through sender. Malformed jobs are dropped so they are not redelivered.
func JobHandler(ctx context.Context, sender Sender) func(body []byte) error {
	return func(body []byte) error {
		var job Job
		if err := json.Unmarshal(body, &job); err != nil || job.To == "" {
			log.Error().Err(err).Str("payload", string(body)).Msg("dropping malformed email job")
			return nil
		}
		return sender.Send(ctx, job.To, job.Subject, job.Body)
	}
}
