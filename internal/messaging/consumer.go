package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds a single handler call.
const DefaultHandlerTimeout = 5 * time.Second

// Handler processes a single event.
type Handler[T any] func(ctx context.Context, event *T) error

type consumerConfig struct {
	handlerTimeout time.Duration
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

// WithHandlerTimeout overrides DefaultHandlerTimeout.
func WithHandlerTimeout(timeout time.Duration) ConsumerOption {
	return func(cfg *consumerConfig) {
		if timeout > 0 {
			cfg.handlerTimeout = timeout
		}
	}
}

// ConsumerStats counts message outcomes.
type ConsumerStats struct {
	Handled uint64 // acked after the handler succeeded
	Failed  uint64 // nacked for redelivery
	Dropped uint64 // acked without handling because the payload could not be decoded
}

// Consumer decodes messages from one topic into T and passes them to a handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	cfg        consumerConfig

	handled atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewConsumer creates a consumer of T events on topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{handlerTimeout: DefaultHandlerTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		cfg:        cfg,
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Stats returns a snapshot of the message outcome counters.
func (c *Consumer[T]) Stats() ConsumerStats {
	return ConsumerStats{
		Handled: c.handled.Load(),
		Failed:  c.failed.Load(),
		Dropped: c.dropped.Load(),
	}
}

// Start subscribes to the topic and processes messages in the background until ctx is
// cancelled, Shutdown is called or the subscription closes.
func (c *Consumer[T]) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(runCtx, c.topic)
	if err != nil {
		cancel()
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	c.cancel = cancel

	go c.run(runCtx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Info("subscription closed")

				return
			}

			c.process(ctx, msg)
		}
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	logger := c.logger.With(zap.String("messageId", msg.UUID))

	event, err := decode[T](msg.Payload)
	if err != nil {
		// Redelivery cannot fix a payload that does not decode.
		c.dropped.Add(1)
		logger.Error("dropping undecodable event", zap.Error(err))
		msg.Ack()

		return
	}

	handlerCtx, cancel := context.WithTimeout(ctx, c.cfg.handlerTimeout)
	defer cancel()

	if err := c.handler(handlerCtx, event); err != nil {
		c.failed.Add(1)
		logger.Error("event handler failed", zap.Error(err))
		msg.Nack()

		return
	}

	c.handled.Add(1)
	msg.Ack()
	logger.Debug("event handled")
}

func decode[T any](payload []byte) (*T, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

// Shutdown stops the consumer and waits for the in-flight message to finish. It returns
// at once for a consumer that never started or whose Start failed.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	stats := c.Stats()
	c.logger.Info("consumer stopped",
		zap.Uint64("handled", stats.Handled),
		zap.Uint64("failed", stats.Failed),
		zap.Uint64("dropped", stats.Dropped),
	)

	return nil
}
