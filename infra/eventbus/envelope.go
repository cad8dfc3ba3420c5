package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/amirasaad/paylink/pkg/domain/events"
)

// envelope is the wire form shared by the redis and kafka buses.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: data})
}

// decodeEnvelope rebuilds the concrete event using factories.
func decodeEnvelope(raw []byte, factories map[string]func() events.Event) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := factories[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return evt, nil
}

// nameFor turns "Transaction.Completed" into "<prefix>:transaction:completed".
func nameFor(prefix, eventType string) string {
	parts := strings.Split(eventType, ".")
	if len(parts) == 2 {
		return fmt.Sprintf("%s:%s:%s", prefix, strings.ToLower(parts[0]), strings.ToLower(parts[1]))
	}
	return fmt.Sprintf("%s:%s", prefix, strings.ToLower(eventType))
}

// TopicName maps an event type to its kafka topic, e.g. paylink.transaction.completed.
func TopicName(prefix, eventType string) string {
	return strings.ReplaceAll(nameFor(prefix, eventType), ":", ".")
}
