package memory

import (
	"context"
	"strconv"
	"testing"

	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
)

func TestDeliveryRepository_ListRecentNewestFirst(t *testing.T) {
	t.Parallel()

	repo := NewDeliveryRepository(3)
	ctx := context.Background()

	if got, _ := repo.ListRecent(ctx, 10); len(got) != 0 {
		t.Fatalf("expected empty journal, got %d", len(got))
	}

	for i := 1; i <= 5; i++ {
		if err := repo.Record(ctx, delivery.Event{DeliveryID: strconv.Itoa(i)}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].DeliveryID != "5" || got[1].DeliveryID != "4" || got[2].DeliveryID != "3" {
		t.Fatalf("expected 5,4,3 after wrap, got %+v", got)
	}

	got, _ = repo.ListRecent(ctx, 1)
	if len(got) != 1 || got[0].DeliveryID != "5" {
		t.Fatalf("expected newest only, got %+v", got)
	}
}

func TestDeliveryRepository_PayloadIsCopied(t *testing.T) {
	t.Parallel()

	repo := NewDeliveryRepository(2)
	payload := map[string]any{"slot": "morning"}
	_ = repo.Record(context.Background(), delivery.Event{DeliveryID: "a", Payload: payload})
	payload["slot"] = "evening"

	got, _ := repo.ListRecent(context.Background(), 1)
	if got[0].Payload["slot"] != "morning" {
		t.Fatalf("journal must not alias caller payload")
	}
}
