// Package notifier fans booking and catalog change events out to
// subscribed observers. Delivery is best effort: events are dropped
// rather than ever blocking the request path, and nothing is persisted
// for replay.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Topic is the single stream all events are published to; the event kind
// travels in message metadata.
const Topic = "events"

const (
	MetadataKind = "kind"

	queueSize      = 256
	publishTimeout = 5 * time.Second
)

// Bus implements domain.Notifier on top of a watermill publisher. Publish
// enqueues without blocking; a single background goroutine drains the
// queue, so a slow or unreachable broker never stalls a commit.
type Bus struct {
	pub    message.Publisher
	logger *slog.Logger

	queue chan domain.Event
	done  chan struct{}
	once  sync.Once
}

func NewBus(pub message.Publisher, logger *slog.Logger) *Bus {
	b := &Bus{
		pub:    pub,
		logger: logger,
		queue:  make(chan domain.Event, queueSize),
		done:   make(chan struct{}),
	}

	go b.run()

	return b
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	select {
	case b.queue <- event:
	default:
		// Observers are a live view, not a ledger; dropping is fine.
		b.logger.Warn("event queue full, dropping event", "kind", event.Kind)
	}
}

func (b *Bus) run() {
	defer close(b.done)

	for event := range b.queue {
		payload, err := json.Marshal(event)
		if err != nil {
			b.logger.Error("failed to marshal event", "kind", event.Kind, "error", err)
			continue
		}

		msg := message.NewMessage(uuid.NewString(), payload)
		msg.Metadata.Set(MetadataKind, string(event.Kind))

		err = b.pub.Publish(Topic, msg)
		if err != nil {
			b.logger.Error("failed to publish event", "kind", event.Kind, "error", err)
		}
	}
}

// Close drains queued events and shuts the publisher down.
func (b *Bus) Close() error {
	b.once.Do(func() {
		close(b.queue)
	})

	select {
	case <-b.done:
	case <-time.After(publishTimeout):
	}

	return b.pub.Close()
}

// NewRedisPublisher publishes events onto a redis stream so every
// application instance sees changes made through any of them.
func NewRedisPublisher(client redis.UniversalClient, logger *slog.Logger) (message.Publisher, error) {
	return redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: client,
	}, watermill.NewSlogLogger(logger))
}

// NewRedisSubscriber returns a broadcast subscriber: no consumer group,
// so each observer connection receives every event independently.
func NewRedisSubscriber(client redis.UniversalClient, logger *slog.Logger) (message.Subscriber, error) {
	return redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        client,
		ConsumerGroup: "",
	}, watermill.NewSlogLogger(logger))
}
