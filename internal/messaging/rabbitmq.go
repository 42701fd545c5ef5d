package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const predictionEventType = "prediction_event"

var errPublisherUnavailable = errors.New("rabbitmq publisher has no open channel")

// eventsChannel is a connection with one channel on which the
// prediction_events queue has been declared.
type eventsChannel struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func (e *eventsChannel) close() error {
	return e.conn.Close()
}

func dialWithRetry(url string) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxConnectRetry; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		slog.Warn("rabbitmq dial failed", "attempt", attempt, "max_attempts", MaxConnectRetry, "error", err)
		time.Sleep(RetryDelay)
	}
	return nil, fmt.Errorf("unable to reach rabbitmq after %d attempts: %w", MaxConnectRetry, lastErr)
}

// openEventsChannel dials url and declares the durable events queue. prefetch
// above zero sets the consumer QoS.
func openEventsChannel(url string, prefetch int) (*eventsChannel, error) {
	conn, err := dialWithRetry(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening rabbitmq channel: %w", err)
	}

	if prefetch > 0 {
		if err := channel.Qos(prefetch, 0, false); err != nil {
			conn.Close()
			return nil, fmt.Errorf("error setting prefetch to %d: %w", prefetch, err)
		}
	}

	if _, err := channel.QueueDeclare(PredictionEventsQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error declaring queue %s: %w", PredictionEventsQueue, err)
	}

	slog.Info("rabbitmq events channel ready", "queue", PredictionEventsQueue)
	return &eventsChannel{conn: conn, channel: channel}, nil
}

// RabbitMQPublisher writes prediction events as persistent JSON messages to
// the default exchange. A dropped channel is re-opened in the background and
// publishes fail fast until it is back.
type RabbitMQPublisher struct {
	url string

	mu      sync.RWMutex
	current *eventsChannel

	closed    atomic.Bool
	closeOnce sync.Once
}

var _ Publisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(rabbitMQURL string) (*RabbitMQPublisher, error) {
	events, err := openEventsChannel(rabbitMQURL, 0)
	if err != nil {
		return nil, err
	}

	p := &RabbitMQPublisher{url: rabbitMQURL, current: events}
	go p.watch(events)
	return p, nil
}

func (p *RabbitMQPublisher) watch(events *eventsChannel) {
	closeErr, ok := <-events.channel.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || p.closed.Load() {
		return
	}

	slog.Warn("rabbitmq publisher channel lost", "error", closeErr)

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	for !p.closed.Load() {
		next, err := openEventsChannel(p.url, 0)
		if err != nil {
			time.Sleep(RetryDelay * 10)
			continue
		}

		p.mu.Lock()
		if p.closed.Load() {
			p.mu.Unlock()
			next.close() //nolint:errcheck
			return
		}
		p.current = next
		p.mu.Unlock()

		slog.Info("rabbitmq publisher reconnected")
		go p.watch(next)
		return
	}
}

func (p *RabbitMQPublisher) PublishPredictionEvent(ctx context.Context, payload PredictionEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error encoding prediction event: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil || p.current.channel.IsClosed() {
		return errPublisherUnavailable
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    payload.PredictionId.String(),
		Type:         predictionEventType,
		Timestamp:    payload.Timestamp,
		Body:         body,
	}
	if err := p.current.channel.PublishWithContext(ctx, "", PredictionEventsQueue, false, false, msg); err != nil {
		return fmt.Errorf("error publishing prediction event %s: %w", payload.PredictionId, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)

		p.mu.Lock()
		defer p.mu.Unlock()

		if p.current == nil {
			return
		}
		if err := p.current.close(); err != nil {
			slog.Error("error closing rabbitmq publisher", "error", err)
		}
		p.current = nil
	})
}

// RabbitMQTask wraps one delivery. The task type is the queue it was routed
// through.
type RabbitMQTask struct {
	d amqp.Delivery
}

func (t *RabbitMQTask) Type() string {
	return t.d.RoutingKey
}

func (t *RabbitMQTask) Payload() []byte {
	return t.d.Body
}

func (t *RabbitMQTask) Ack() error {
	return t.d.Ack(false)
}

// Nack drops the message without requeue so a failing event is not redelivered
// forever.
func (t *RabbitMQTask) Nack() error {
	return t.d.Nack(false, false)
}

func (t *RabbitMQTask) Reject() error {
	return t.d.Reject(false)
}

// RabbitMQReceiver delivers prediction events one at a time (prefetch 1) and
// resubscribes when the channel drops, until Close is called.
type RabbitMQReceiver struct {
	url       string
	tasks     chan Task
	stop      chan struct{}
	closeOnce sync.Once
}

var _ Reciever = (*RabbitMQReceiver)(nil)

func NewRabbitMQReceiver(rabbitMQURL string) (*RabbitMQReceiver, error) {
	r := &RabbitMQReceiver{
		url:   rabbitMQURL,
		tasks: make(chan Task),
		stop:  make(chan struct{}),
	}

	events, deliveries, err := r.subscribe()
	if err != nil {
		return nil, err
	}

	go r.run(events, deliveries)
	return r, nil
}

func (r *RabbitMQReceiver) subscribe() (*eventsChannel, <-chan amqp.Delivery, error) {
	events, err := openEventsChannel(r.url, 1)
	if err != nil {
		return nil, nil, err
	}

	deliveries, err := events.channel.Consume(PredictionEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		events.close() //nolint:errcheck
		return nil, nil, fmt.Errorf("error subscribing to %s: %w", PredictionEventsQueue, err)
	}
	return events, deliveries, nil
}

// run forwards deliveries to the task channel. When the broker closes the
// delivery stream it resubscribes, backing off between failed attempts.
func (r *RabbitMQReceiver) run(events *eventsChannel, deliveries <-chan amqp.Delivery) {
	for {
		if !r.forward(deliveries) {
			if err := events.close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
				slog.Error("error closing rabbitmq receiver", "error", err)
			}
			slog.Info("rabbitmq receiver stopped")
			return
		}

		slog.Warn("rabbitmq delivery stream closed, resubscribing", "queue", PredictionEventsQueue)
		for {
			var err error
			events, deliveries, err = r.subscribe()
			if err == nil {
				break
			}
			slog.Error("error resubscribing to rabbitmq", "error", err)

			select {
			case <-r.stop:
				return
			case <-time.After(RetryDelay * 10):
			}
		}
	}
}

// forward returns false when the receiver was stopped and true when the
// delivery stream ended on its own.
func (r *RabbitMQReceiver) forward(deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-r.stop:
			return false
		case d, ok := <-deliveries:
			if !ok {
				return true
			}
			select {
			case r.tasks <- &RabbitMQTask{d: d}:
			case <-r.stop:
				return false
			}
		}
	}
}

func (r *RabbitMQReceiver) Tasks() <-chan Task {
	return r.tasks
}

func (r *RabbitMQReceiver) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
}
