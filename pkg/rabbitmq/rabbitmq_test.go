package rabbitmq_test

import (
	"errors"
	"testing"

	"elibrary/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

type fakeAcknowledger struct {
	acked   []uint64
	nacked  []uint64
	requeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func TestDispatch_AcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	var got []byte
	rabbitmq.Dispatch(amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, Body: []byte(`{"ok":true}`)}, func(body []byte) error {
		got = body
		return nil
	})

	assert.Equal(t, `{"ok":true}`, string(got))
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestDispatch_RequeuesOnFailure(t *testing.T) {
	ack := &fakeAcknowledger{}
	rabbitmq.Dispatch(amqp.Delivery{Acknowledger: ack, DeliveryTag: 9}, func([]byte) error {
		return errors.New("smtp unavailable")
	})

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestPublish_WithoutChannel(t *testing.T) {
	c := &rabbitmq.Client{}
	assert.Error(t, c.Publish("loan.borrowed", []byte("{}")))
	assert.Error(t, c.PublishJSON("loan.borrowed", map[string]string{"id": "1"}))
	assert.Error(t, c.Consume(rabbitmq.EmailQueue, func([]byte) error { return nil }))
}

func TestHealthy_WithoutConnection(t *testing.T) {
	assert.False(t, (&rabbitmq.Client{}).Healthy())
}
