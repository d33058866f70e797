package delivery

import "context"

type Repository interface {
	Record(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
