package delivery

import "time"

type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Event is one audited send attempt. The journal is write-mostly and is
// never read back to rebuild scheduler state.
type Event struct {
	DeliveryID   string         `json:"deliveryId"`
	Kind         string         `json:"kind"`
	Trigger      Trigger        `json:"trigger"`
	Status       Status         `json:"status"`
	MessageID    int            `json:"messageId,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	OccurredAt   time.Time      `json:"occurredAt"`
	TraceID      string         `json:"traceId,omitempty"`
	SpanID       string         `json:"spanId,omitempty"`
}
