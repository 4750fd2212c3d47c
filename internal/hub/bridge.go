package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/queueflow/backend/domain"
)

const relayQueueSize = 256

// Bridge refans lifecycle events between instances over a Redis pub/sub
// channel. Local delivery happens first and never waits on Redis: the relay
// runs through a buffered queue drained by a single worker, so a degraded bus
// only costs remote subscribers their push, which they recover by re-polling.
type Bridge struct {
	hub        *Hub
	client     *redislib.Client
	channel    string
	instanceID string
	logger     *zap.Logger

	relay  chan domain.Event
	pubsub *redislib.PubSub
}

func NewBridge(h *Hub, client *redislib.Client, channel string, logger *zap.Logger) *Bridge {
	if channel == "" {
		channel = "queue.events"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		hub:        h,
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
		relay:      make(chan domain.Event, relayQueueSize),
	}
}

// Publish implements the dispatcher's event sink: local fan-out plus a
// best-effort relay to the other instances. It never blocks — emit runs on
// the mutation path while the department lock is held, so a slow or dead bus
// drops the relay rather than stalling the queue.
func (b *Bridge) Publish(event domain.Event) {
	b.hub.Publish(event)

	event.Origin = b.instanceID
	select {
	case b.relay <- event:
	default:
		b.logger.Warn("relay queue full, event not forwarded",
			zap.String("event_id", event.ID))
	}
}

// Start launches the relay worker and subscribes to the channel, refanning
// remote events into the local hub until the context is cancelled.
func (b *Bridge) Start(ctx context.Context) {
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	go b.forward(ctx)
	go b.receive(ctx)
}

// Stop closes the relay subscription.
func (b *Bridge) Stop() error {
	if b.pubsub == nil {
		return nil
	}
	return b.pubsub.Close()
}

func (b *Bridge) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.relay:
			payload, err := json.Marshal(event)
			if err != nil {
				b.logger.Warn("event encode failed",
					zap.String("event_id", event.ID), zap.Error(err))
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = b.client.Publish(pubCtx, b.channel, payload).Err()
			cancel()
			if err != nil {
				b.logger.Warn("event relay failed",
					zap.String("event_id", event.ID), zap.Error(err))
			}
		}
	}
}

func (b *Bridge) receive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-b.pubsub.Channel():
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("event decode failed", zap.Error(err))
				continue
			}
			if event.Origin == b.instanceID {
				continue
			}
			b.hub.Publish(event)
		}
	}
}
