// Package event publishes profile lifecycle events to Kafka.
package event

import (
	"context"
	"log/slog"

	"github.com/staffdir/staffdir/pkg/kafka"
	"github.com/staffdir/staffdir/pkg/logger"

	"github.com/staffdir/staffdir/internal/domain"
)

const (
	TopicProfileCreated = "directory.profile.created"
	TopicProfileUpdated = "directory.profile.updated"
	TopicProfileDeleted = "directory.profile.deleted"

	aggregateType = "user_profile"
	source        = "directory"
)

// Publisher emits profile lifecycle events. Publishing is best-effort:
// callers never fail a mutation because an event could not be sent.
type Publisher interface {
	ProfileCreated(ctx context.Context, user domain.User)
	ProfileUpdated(ctx context.Context, user domain.User)
	ProfileDeleted(ctx context.Context, id string)
}

// KafkaPublisher publishes lifecycle events through a Kafka producer.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: log}
}

func (p *KafkaPublisher) ProfileCreated(ctx context.Context, user domain.User) {
	p.publish(ctx, TopicProfileCreated, "profile.created", user.ID, user)
}

func (p *KafkaPublisher) ProfileUpdated(ctx context.Context, user domain.User) {
	p.publish(ctx, TopicProfileUpdated, "profile.updated", user.ID, user)
}

func (p *KafkaPublisher) ProfileDeleted(ctx context.Context, id string) {
	p.publish(ctx, TopicProfileDeleted, "profile.deleted", id, map[string]string{"id": id})
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, eventType, aggregateID string, data any) {
	ev, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "event marshal failed",
			slog.String("event_type", eventType), slog.Any("error", err))
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		ev.WithCorrelationID(cid)
	}
	if err := p.producer.Publish(ctx, topic, ev); err != nil {
		p.logger.WarnContext(ctx, "event publish failed",
			slog.String("topic", topic), slog.Any("error", err))
	}
}

// NopPublisher drops all events. Used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) ProfileCreated(context.Context, domain.User) {}
func (NopPublisher) ProfileUpdated(context.Context, domain.User) {}
func (NopPublisher) ProfileDeleted(context.Context, string) {}
