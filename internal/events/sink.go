package events

import (
	"context"

	"github.com/serroba/shortlink/internal/messaging"
	"go.uber.org/zap"
)

// LogSink writes consumed events to a structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) LinkCreated(_ context.Context, event *LinkCreated) error {
	s.logger.Info("link created",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("shortUrl", event.ShortURL),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (s *LogSink) LinkResolved(_ context.Context, event *LinkResolved) error {
	s.logger.Info("link resolved",
		zap.String("code", event.Code),
		zap.Time("resolvedAt", event.ResolvedAt),
		zap.String("clientIp", event.ClientIP),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

// RegisterConsumers adds one consumer per topic to group, all writing to sink.
func RegisterConsumers(group *messaging.ConsumerGroup, sink *LogSink, logger *zap.Logger) {
	subscriber := group.Subscriber()

	group.Add(messaging.NewConsumer(subscriber, TopicLinkCreated, sink.LinkCreated, logger))
	group.Add(messaging.NewConsumer(subscriber, TopicLinkResolved, sink.LinkResolved, logger))
}
