package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReceiver() *RabbitMQReceiver {
	return &RabbitMQReceiver{
		tasks: make(chan Task),
		stop:  make(chan struct{}),
	}
}

func TestRabbitMQReceiverForwardsUntilStreamEnds(t *testing.T) {
	r := newTestReceiver()
	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{RoutingKey: PredictionEventsQueue, Body: []byte(`{"predicted_class":"IB"}`)}
	close(deliveries)

	resubscribe := make(chan bool, 1)
	go func() { resubscribe <- r.forward(deliveries) }()

	select {
	case task := <-r.Tasks():
		assert.Equal(t, PredictionEventsQueue, task.Type())
		assert.JSONEq(t, `{"predicted_class":"IB"}`, string(task.Payload()))
	case <-time.After(time.Second):
		t.Fatal("expected a task")
	}

	assert.True(t, <-resubscribe)
}

func TestRabbitMQReceiverStopsOnClose(t *testing.T) {
	r := newTestReceiver()
	deliveries := make(chan amqp.Delivery)

	resubscribe := make(chan bool, 1)
	go func() { resubscribe <- r.forward(deliveries) }()

	r.Close()
	r.Close()

	select {
	case again := <-resubscribe:
		assert.False(t, again)
	case <-time.After(time.Second):
		t.Fatal("forward did not stop after Close")
	}
}

func TestRabbitMQPublisherWithoutChannel(t *testing.T) {
	p := &RabbitMQPublisher{}

	err := p.PublishPredictionEvent(context.Background(), PredictionEventPayload{PredictionId: uuid.New()})
	require.ErrorIs(t, err, errPublisherUnavailable)

	p.Close()
	p.Close()
	assert.True(t, p.closed.Load())
}
