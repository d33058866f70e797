package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-tipster/internal/scheduler"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "matchday-tipster"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  usecase.KindInternal,
					Message: msg,
				},
			},
		},
	})
}

// mapError turns a use-case error into an HTTP status. The reason is the
// error kind so callers can branch on it without parsing messages.
func mapError(ctx context.Context, err error) mappedError {
	_, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	kind := usecase.ErrorKind(err)
	switch {
	case errors.Is(err, scheduler.ErrUnknownTask):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     usecase.KindInvalidInput,
			Status:     "NOT_FOUND",
		}
	case kind == usecase.KindInvalidInput:
		return mappedError{
			HTTPStatus: http.StatusBadRequest,
			Reason:     kind,
			Status:     "INVALID_ARGUMENT",
		}
	case kind == usecase.KindUnauthorized:
		return mappedError{
			HTTPStatus: http.StatusUnauthorized,
			Reason:     kind,
			Status:     "UNAUTHENTICATED",
		}
	case kind == usecase.KindNoDataAvailable:
		return mappedError{
			HTTPStatus: http.StatusUnprocessableEntity,
			Reason:     kind,
			Status:     "FAILED_PRECONDITION",
		}
	case kind == usecase.KindProviderUnavailable:
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     kind,
			Status:     "UNAVAILABLE",
		}
	case kind == usecase.KindDeliveryFailed:
		return mappedError{
			HTTPStatus: http.StatusBadGateway,
			Reason:     kind,
			Status:     "UNAVAILABLE",
		}
	case kind == usecase.KindGenerationFailed:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     kind,
			Status:     "INTERNAL",
		}
	default:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     usecase.KindInternal,
			Status:     "INTERNAL",
		}
	}
}
