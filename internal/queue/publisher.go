package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream and returns the id the
	// backend assigned to it.
	Publish(ctx context.Context, stream string, event Event) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log.With().Str("component", "publisher").Logger()}
}

// Publish adds an event to the stream using XADD with an auto-generated id.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		p.log.Error().Err(err).Str("stream", stream).Str("type", event.Type).Msg("xadd failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	p.log.Debug().
		Str("stream", stream).
		Str("type", event.Type).
		Str("msg_id", messageID).
		Dur("duration", time.Since(startTime)).
		Msg("event published")

	return messageID, nil
}

// NatsPublisher mirrors events onto NATS subjects derived from the stream
// name, for consumers outside this service.
type NatsPublisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

func NewNatsPublisher(nc *nats.Conn, log zerolog.Logger) *NatsPublisher {
	return &NatsPublisher{nc: nc, log: log.With().Str("component", "nats_publisher").Logger()}
}

// ConnectNats dials url with reconnects enabled.
func ConnectNats(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("gaman-backend"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, stream string, event Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: event.Subject(stream),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, event.ID)

	if err := p.nc.PublishMsg(msg); err != nil {
		return "", fmt.Errorf("nats publish: %w", err)
	}

	p.log.Debug().Str("subject", msg.Subject).Str("id", event.ID).Msg("event mirrored")
	return event.ID, nil
}

// Fanout publishes to a primary backend and best-effort to mirrors. Only the
// primary's failure is returned.
type Fanout struct {
	primary Publisher
	mirrors []Publisher
	log     zerolog.Logger
}

func NewFanout(log zerolog.Logger, primary Publisher, mirrors ...Publisher) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, log: log}
}

func (f *Fanout) Publish(ctx context.Context, stream string, event Event) (string, error) {
	for _, m := range f.mirrors {
		if _, err := m.Publish(ctx, stream, event); err != nil {
			f.log.Warn().Err(err).Str("type", event.Type).Msg("mirror publish failed")
		}
	}
	return f.primary.Publish(ctx, stream, event)
}

// ErrQueueDisabled is returned by the Discard publisher.
var ErrQueueDisabled = errors.New("queue disabled")

// Discard drops every event. It backs QUEUE_BACKEND=none.
type Discard struct{}

func (Discard) Publish(context.Context, string, Event) (string, error) {
	return "", ErrQueueDisabled
}
