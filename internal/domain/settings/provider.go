package settings

import "context"

// Provider loads the current settings snapshot.
type Provider interface {
	Load(ctx context.Context) (Settings, error)
}
