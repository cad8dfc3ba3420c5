package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

const redisEventField = "event"

// RedisEventBus carries events over Redis Streams, one stream per event
// type. Failed or undecodable messages are copied to a "<stream>:dlq"
// stream and acknowledged.
type RedisEventBus struct {
	client    *redis.Client
	prefix    string
	group     string
	factories map[string]func() events.Event
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to cfg.URL and pings it.
func NewWithRedis(cfg *config.Redis, group string, logger *slog.Logger) (*RedisEventBus, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opt)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "paylink"
	}
	if group == "" {
		group = "paylink"
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:    client,
		prefix:    prefix,
		group:     group,
		factories: events.Factories(),
		logger:    logger.With("bus", "redis"),
		ctx:       ctx,
		cancel:    cancel,
	}
	bus.logger.Info("✅ Redis event bus connected", "prefix", prefix, "group", group)
	return bus, nil
}

func (b *RedisEventBus) streamFor(eventType string) string {
	return nameFor(b.prefix+":events", eventType)
}

// Emit appends the event to its type's stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamFor(event.Type()),
		Values: map[string]any{redisEventField: string(raw)},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register creates the consumer group if needed and starts a reader.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	stream := b.streamFor(eventType)
	if err := b.client.XGroupCreateMkStream(b.ctx, stream, b.group, "0").Err(); err != nil &&
		!strings.HasPrefix(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "stream", stream, "error", err)
		return
	}
	host, _ := os.Hostname()
	consumer := fmt.Sprintf("%s-%d", host, time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "stream", stream, "consumer", consumer)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(stream, consumer, handler)
	}()
}

func (b *RedisEventBus) consume(stream, consumer string, handler eventbus.HandlerFunc) {
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if err != nil {
			if b.ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "stream", stream, "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(stream, msg, handler)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(stream string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	defer func() {
		if err := b.client.XAck(b.ctx, stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "msg_id", msg.ID, "error", err)
		}
	}()

	raw, _ := msg.Values[redisEventField].(string)
	evt, err := decodeEnvelope([]byte(raw), b.factories)
	if err != nil {
		b.logger.Error("undecodable message", "stream", stream, "msg_id", msg.ID, "error", err)
		b.pushToDLQ(stream, msg.Values)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "event_type", evt.Type(), "panic", r)
			b.pushToDLQ(stream, msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "event_type", evt.Type(), "error", err)
		b.pushToDLQ(stream, msg.Values)
	}
}

func (b *RedisEventBus) pushToDLQ(stream string, values map[string]any) {
	dlq := stream + ":dlq"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlq)
}

// Close stops the readers and the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
