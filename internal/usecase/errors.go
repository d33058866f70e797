package usecase

import (
	"errors"
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput = crerr.New("invalid input")
	ErrUnauthorized = crerr.New("unauthorized")

	ErrProviderUnavailable = crerr.New("fixture provider unavailable")
	ErrNoDataAvailable     = crerr.New("no data available")
	ErrNoUpcomingMatches   = crerr.Wrap(ErrNoDataAvailable, "no upcoming matches")
	ErrNoResultsAvailable  = crerr.Wrap(ErrNoDataAvailable, "no results available")
	ErrGenerationFailed    = crerr.New("content generation failed")
	ErrDeliveryFailed      = crerr.New("delivery failed")
	ErrConfigInvalid       = crerr.New("settings invalid")
)

const (
	KindProviderUnavailable = "PROVIDER_UNAVAILABLE"
	KindNoDataAvailable     = "NO_DATA_AVAILABLE"
	KindGenerationFailed    = "GENERATION_FAILED"
	KindDeliveryFailed      = "DELIVERY_FAILED"
	KindConfigInvalid       = "CONFIG_INVALID"
	KindInvalidInput        = "INVALID_INPUT"
	KindUnauthorized        = "UNAUTHORIZED"
	KindInternal            = "INTERNAL"
)

// ErrorKind classifies err into one of the Kind* strings.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoDataAvailable):
		return KindNoDataAvailable
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrGenerationFailed):
		return KindGenerationFailed
	case errors.Is(err, ErrDeliveryFailed):
		return KindDeliveryFailed
	case errors.Is(err, ErrConfigInvalid):
		return KindConfigInvalid
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// IsNoData reports whether err only means there was nothing to post.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoDataAvailable)
}

func kindError(kind error, op string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", kind, op)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, cause)
}
