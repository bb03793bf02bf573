package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"justicerollon/internal/platform/kafka"
	id "justicerollon/pkg/domain"
)

// KafkaPublisher produces audit events to the audit topic. Kafka is the
// source of truth for the trail; the consumer persists events to the store.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// wirePayload is the JSON structure on the audit topic. Typed IDs travel as
// plain strings so system events (nil actor) survive the round trip.
type wirePayload struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
}

func (p *KafkaPublisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if base.Category == "" {
		base.Category = AuditEvent(base.Action).Category()
	}
	wire := wirePayload{
		Category:  string(base.Category),
		Timestamp: base.Timestamp.Format(time.RFC3339Nano),
		Subject:   base.Subject,
		Action:    base.Action,
		Reason:    base.Reason,
		RequestID: base.RequestID,
		Device:    base.Device,
	}
	if !base.ActorID.IsNil() {
		wire.ActorID = base.ActorID.String()
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return p.producer.Produce(ctx, p.topic, []byte(uuid.NewString()), payload)
}

// ConsumerHandler persists consumed audit events. Malformed payloads are
// logged and committed so they do not poison the partition.
type ConsumerHandler struct {
	store  Store
	logger *slog.Logger
}

func NewConsumerHandler(store Store, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{store: store, logger: logger}
}

func (h *ConsumerHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	var wire wirePayload
	if err := json.Unmarshal(msg.Value, &wire); err != nil {
		h.logger.Warn("skipping malformed audit event",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	event := Event{
		Category:  EventCategory(wire.Category),
		Subject:   wire.Subject,
		Action:    wire.Action,
		Reason:    wire.Reason,
		RequestID: wire.RequestID,
		Device:    wire.Device,
	}
	if wire.ActorID != "" {
		actorID, err := id.ParseUserID(wire.ActorID)
		if err != nil {
			h.logger.Warn("skipping audit event with invalid actor id",
				"actor_id", wire.ActorID,
				"error", err,
			)
			return nil
		}
		event.ActorID = actorID
	}
	if wire.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, wire.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := h.store.Append(ctx, event); err != nil {
		return fmt.Errorf("persist audit event: %w", err)
	}
	return nil
}
