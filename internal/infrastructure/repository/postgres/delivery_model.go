package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
)

type deliveryEventModel struct {
	DeliveryID   string         `db:"delivery_id"`
	Kind         string         `db:"kind"`
	Trigger      string         `db:"trigger"`
	Status       string         `db:"status"`
	MessageID    sql.NullInt64  `db:"message_id"`
	Payload      string         `db:"payload"`
	ErrorMessage sql.NullString `db:"error_message"`
	TraceID      sql.NullString `db:"trace_id"`
	SpanID       sql.NullString `db:"span_id"`
	OccurredAt   time.Time      `db:"occurred_at"`
}

func newDeliveryEventModel(event delivery.Event) (deliveryEventModel, error) {
	deliveryID := strings.TrimSpace(event.DeliveryID)
	if deliveryID == "" {
		return deliveryEventModel{}, fmt.Errorf("delivery id is required")
	}

	kind := strings.TrimSpace(event.Kind)
	if kind == "" {
		kind = "unknown"
	}
	trigger := event.Trigger
	if trigger == "" {
		trigger = delivery.TriggerScheduled
	}
	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payload, err := marshalPayload(event.Payload)
	if err != nil {
		return deliveryEventModel{}, fmt.Errorf("marshal delivery payload: %w", err)
	}

	return deliveryEventModel{
		DeliveryID:   deliveryID,
		Kind:         kind,
		Trigger:      string(trigger),
		Status:       string(event.Status),
		MessageID:    sql.NullInt64{Int64: int64(event.MessageID), Valid: event.MessageID > 0},
		Payload:      payload,
		ErrorMessage: optionalString(event.ErrorMessage),
		TraceID:      optionalString(event.TraceID),
		SpanID:       optionalString(event.SpanID),
		OccurredAt:   occurredAt,
	}, nil
}

func (m deliveryEventModel) toDomain() delivery.Event {
	var payload map[string]any
	if raw := strings.TrimSpace(m.Payload); raw != "" && raw != "{}" {
		// A payload that no longer decodes is dropped; the row itself is still useful.
		_ = jsoniter.UnmarshalFromString(raw, &payload)
	}

	return delivery.Event{
		DeliveryID:   m.DeliveryID,
		Kind:         m.Kind,
		Trigger:      delivery.Trigger(m.Trigger),
		Status:       delivery.Status(m.Status),
		MessageID:    int(m.MessageID.Int64),
		Payload:      payload,
		ErrorMessage: m.ErrorMessage.String,
		OccurredAt:   m.OccurredAt.UTC(),
		TraceID:      m.TraceID.String,
		SpanID:       m.SpanID.String,
	}
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	return jsoniter.MarshalToString(payload)
}

func optionalString(value string) sql.NullString {
	trimmed := strings.TrimSpace(value)
	return sql.NullString{String: trimmed, Valid: trimmed != ""}
}
