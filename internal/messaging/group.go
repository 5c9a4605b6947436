package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer the group can start and stop.
type Runnable interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs consumers that share one subscriber and owns that subscriber.
type ConsumerGroup struct {
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a new consumer group.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Subscriber returns the shared subscriber consumers should be built on.
func (g *ConsumerGroup) Subscriber() message.Subscriber {
	return g.subscriber
}

// Add registers a consumer to the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Topics lists the topics of the registered consumers in registration order.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))
	for _, consumer := range g.consumers {
		topics = append(topics, consumer.Topic())
	}

	return topics
}

// Start starts every consumer. It is all or nothing: on failure the consumers already
// started are stopped again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	started := make([]Runnable, 0, len(g.consumers))

	for _, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			if stopErr := stopAll(started); stopErr != nil {
				g.logger.Warn("rollback after failed start", zap.Error(stopErr))
			}

			return fmt.Errorf("start consumer for %s: %w", consumer.Topic(), err)
		}

		started = append(started, consumer)
	}

	g.logger.Info("consumer group started", zap.Strings("topics", g.Topics()))

	return nil
}

// Shutdown stops every consumer and then closes the subscriber. All errors are returned.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	stopErr := stopAll(g.consumers)

	var closeErr error
	if err := g.subscriber.Close(); err != nil {
		closeErr = fmt.Errorf("close subscriber: %w", err)
	}

	return errors.Join(stopErr, closeErr)
}

// stopAll shuts consumers down in reverse start order.
func stopAll(consumers []Runnable) error {
	var errs []error

	for i := len(consumers) - 1; i >= 0; i-- {
		if err := consumers[i].Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop consumer for %s: %w", consumers[i].Topic(), err))
		}
	}

	return errors.Join(errs...)
}
