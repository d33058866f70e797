package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
)

const (
	insertDeliveryEventQuery = `INSERT INTO delivery_events (
    delivery_id, kind, trigger, status, message_id, payload, error_message, trace_id, span_id, occurred_at
) VALUES (
    :delivery_id, :kind, :trigger, :status, :message_id, CAST(:payload AS JSONB), :error_message, :trace_id, :span_id, :occurred_at
)
ON CONFLICT (delivery_id) DO NOTHING`

	listRecentDeliveryEventsQuery = `SELECT
    delivery_id, kind, trigger, status, message_id, payload::text AS payload, error_message, trace_id, span_id, occurred_at
FROM delivery_events
ORDER BY occurred_at DESC, id DESC
LIMIT $1`
)

// DeliveryRepository journals send attempts in Postgres.
type DeliveryRepository struct {
	db *sqlx.DB
}

var _ delivery.Repository = (*DeliveryRepository)(nil)

func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Record(ctx context.Context, event delivery.Event) error {
	model, err := newDeliveryEventModel(event)
	if err != nil {
		return err
	}

	if _, err := r.db.NamedExecContext(ctx, insertDeliveryEventQuery, model); err != nil {
		return fmt.Errorf("insert delivery event delivery_id=%s status=%s: %w", model.DeliveryID, model.Status, err)
	}
	return nil
}

func (r *DeliveryRepository) ListRecent(ctx context.Context, limit int) ([]delivery.Event, error) {
	if limit <= 0 {
		return []delivery.Event{}, nil
	}

	var rows []deliveryEventModel
	if err := r.db.SelectContext(ctx, &rows, listRecentDeliveryEventsQuery, limit); err != nil {
		return nil, fmt.Errorf("list recent delivery events: %w", err)
	}

	out := make([]delivery.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
