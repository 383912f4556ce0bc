package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/imgworkshop/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, queue: "imgworkshop_events"}

	event := NewImageGenerated(domain.BranchLastEdit, domain.SizePortrait, 2048, 12)
	require.NoError(t, p.Publish(context.Background(), event))

	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, "imgworkshop_events", ch.key)
	require.Len(t, ch.msgs, 1)

	msg := ch.msgs[0]
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, TypeImageGenerated, msg.Type)
	assert.Equal(t, event.ID, msg.MessageId)
	assert.True(t, event.At.Equal(msg.Timestamp))

	var got ImageGenerated
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, domain.BranchLastEdit, got.Branch)
	assert.Equal(t, domain.SizePortrait, got.Size)
	assert.Equal(t, 2048, got.Bytes)
	assert.Equal(t, 12, got.PromptChars)
	assert.True(t, event.At.Equal(got.At))
}

func TestRabbitMQPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := &RabbitMQPublisher{channel: ch, queue: "q"}

	err := p.Publish(context.Background(), NewImageGenerated(domain.BranchGenerate, domain.SizeSquare, 1, 1))
	assert.ErrorContains(t, err, "failed to publish message: channel closed")
}

func TestRabbitMQPublisher_CloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{channel: ch, queue: "q"}

	assert.NoError(t, p.Close())
	assert.True(t, ch.closed)
}
