package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

type fakePublisher struct {
	key  string
	body any
	err  error
}

func (f *fakePublisher) PublishJSON(routingKey string, v any) error {
	f.key, f.body = routingKey, v
	return f.err
}

type recordingSender struct {
	jobs []Job
	err  error
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.jobs = append(r.jobs, Job{To: to, Subject: subject, Body: body})
	return r.err
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{Host: "smtp.example.com"}.Validate())
	assert.Error(t, Config{Host: "smtp.example.com", Port: 587}.Validate())
	assert.NoError(t, Config{Host: "smtp.example.com", Port: 587, From: "library@example.com"}.Validate())

	_, err := NewSMTPMailer(Config{})
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{from: "library@example.com", dialer: d}

	require.NoError(t, m.Send(context.Background(), "alice@example.com", "Hello", "body"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"library@example.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"Hello"}, d.sent[0].GetHeader("Subject"))

	assert.Error(t, m.Send(context.Background(), " ", "Hello", "body"))

	d.err = errors.New("connection refused")
	assert.ErrorContains(t, m.Send(context.Background(), "alice@example.com", "Hello", "body"), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "alice@example.com", "Hello", "body"), context.Canceled)
}

func TestQueueMailer_Send(t *testing.T) {
	p := &fakePublisher{}
	m := NewQueueMailer(p, "email.send")

	require.NoError(t, m.Send(context.Background(), "bob@example.com", "Code", "Your code is 000123"))
	assert.Equal(t, "email.send", p.key)
	assert.Equal(t, Job{To: "bob@example.com", Subject: "Code", Body: "Your code is 000123"}, p.body)

	p.err = errors.New("channel closed")
	assert.Error(t, m.Send(context.Background(), "bob@example.com", "Code", "x"))
}

func TestJobHandler(t *testing.T) {
	sender := &recordingSender{}
	handle := JobHandler(context.Background(), sender)

	require.NoError(t, handle([]byte(`{"to":"carol@example.com","subject":"Hi","body":"text"}`)))
	assert.Equal(t, []Job{{To: "carol@example.com", Subject: "Hi", Body: "text"}}, sender.jobs)

	assert.NoError(t, handle([]byte(`not json`)))
	assert.Len(t, sender.jobs, 1)

	sender.err = errors.New("smtp down")
	assert.Error(t, handle([]byte(`{"to":"carol@example.com"}`)))
}

func TestConsoleMailer_Send(t *testing.T) {
	assert.NoError(t, ConsoleMailer{}.Send(context.Background(), "dave@example.com", "Hi", "text"))
}
