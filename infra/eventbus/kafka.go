package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/paylink/pkg/config"
	"github.com/amirasaad/paylink/pkg/domain/events"
	"github.com/amirasaad/paylink/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// KafkaEventBus publishes one topic per event type and runs a group
// reader per registered type. Handler failures go to "<topic>.dlq".
type KafkaEventBus struct {
	brokers   []string
	prefix    string
	groupID   string
	writer    *kafka.Writer
	dialer    *kafka.Dialer
	factories map[string]func() events.Event

	handlersMtx sync.RWMutex
	handlers    map[string][]eventbus.HandlerFunc
	readersMtx  sync.Mutex
	readers     map[string]*kafka.Reader

	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka dials the first broker to fail fast on misconfiguration.
func NewWithKafka(cfg *config.Kafka, logger *slog.Logger) (*KafkaEventBus, error) {
	if cfg == nil {
		return nil, fmt.Errorf("kafka event bus: config is required")
	}
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	prefix := strings.TrimSpace(cfg.TopicPrefix)
	if prefix == "" {
		prefix = "paylink"
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "paylink"
	}

	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers: brokers,
		prefix:  prefix,
		groupID: groupID,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			Balancer:               &kafka.Hash{},
		},
		dialer:    dialer,
		factories: events.Factories(),
		handlers:  make(map[string][]eventbus.HandlerFunc),
		readers:   make(map[string]*kafka.Reader),
		logger:    logger.With("bus", "kafka"),
		ctx:       ctx,
		cancel:    cancel,
	}

	conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()

	bus.logger.Info("🚀 Kafka event bus initialized", "brokers", brokers, "group_id", groupID)
	return bus, nil
}

// Emit writes the event keyed by its transaction so one transaction's
// events stay ordered on a partition.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Topic: TopicName(b.prefix, event.Type()),
		Key:   []byte(partitionKey(event)),
		Value: raw,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func partitionKey(event events.Event) string {
	switch e := event.(type) {
	case *events.TransactionCompleted:
		return e.TransactionID.String()
	case *events.TransactionFailed:
		return e.TransactionID.String()
	case *events.PaymentInitiated:
		return e.TransactionID.String()
	case *events.WithdrawalRequested:
		return e.TransactionID.String()
	}
	return event.Type()
}

// Register adds a handler and starts the type's reader once.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.groupID,
		Topic:       TopicName(b.prefix, eventType),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(eventType string, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "event_type", eventType, "error", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := b.process(eventType, msg); err != nil {
			b.logger.Error("kafka message processing failed; will retry", "error", err, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "offset", msg.Offset)
		}
	}
}

// process returns an error only when the message must be redelivered.
func (b *KafkaEventBus) process(eventType string, msg kafka.Message) error {
	evt, err := decodeEnvelope(msg.Value, b.factories)
	if err != nil {
		b.logger.Error("undecodable message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return b.publishToDLQ(eventType, msg.Value)
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
	b.handlersMtx.RUnlock()

	failed := false
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("handler panic recovered", "event_type", eventType, "panic", r)
					failed = true
				}
			}()
			if err := h(b.ctx, evt); err != nil {
				b.logger.Error("handler error", "event_type", eventType, "error", err)
				failed = true
			}
		}()
	}
	if failed {
		return b.publishToDLQ(eventType, msg.Value)
	}
	return nil
}

func (b *KafkaEventBus) publishToDLQ(eventType string, raw []byte) error {
	topic := TopicName(b.prefix, eventType) + ".dlq"
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", topic)
	return nil
}

// Close stops readers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
