package content

import (
	"context"

	"github.com/riskibarqy/matchday-tipster/internal/domain/match"
)

// Generator turns match data into posts. Text is never empty on success.
type Generator interface {
	GeneratePredictions(ctx context.Context, matches []match.Match, promoCode string) (Post, error)
	GenerateResults(ctx context.Context, results []match.Result) (Post, error)
	GeneratePromo(ctx context.Context, code, offer string) (Post, error)
	GenerateHype(ctx context.Context, matches []match.Match) (Post, error)
	GenerateBonus(ctx context.Context, text string) (Post, error)
}

// Sender delivers posts to the configured channel.
type Sender interface {
	SendText(ctx context.Context, text string, keyboard Keyboard) (Receipt, error)
	SendPhoto(ctx context.Context, image Image, caption string, keyboard Keyboard) (Receipt, error)
}
