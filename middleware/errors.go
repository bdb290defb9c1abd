package middleware

import (
	"errors"
	"net/http"

	"github.com/go-kit/kit/ratelimit"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/reefer/actors"
)

// StatusCode maps an error from the actors, or from the endpoint
// middlewares, to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ratelimit.ErrLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	switch actors.KindOf(err) {
	case actors.VoyageNotFound, actors.ReeferNotFound, actors.RouteNotFound, actors.OrderNotFound:
		return http.StatusNotFound
	case actors.InvalidCall, actors.InvalidOrder, actors.InvalidDate, actors.VoyageIDMissing:
		return http.StatusBadRequest
	case actors.CapacityExceeded, actors.VoyageDeparted, actors.ReeferInTransit:
		return http.StatusConflict
	case actors.InsufficientInventory, actors.NoReplacementAvailable:
		return http.StatusServiceUnavailable
	case actors.Timeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorBody is the JSON document every service answers errors with.
type ErrorBody struct {
	Error string           `json:"error"`
	Kind  actors.ErrorKind `json:"kind,omitempty"`
}

// NewErrorBody describes err for a client. Unclassified errors carry no
// kind.
func NewErrorBody(err error) ErrorBody {
	var f *actors.Failure
	if errors.As(err, &f) && f.Message != "" {
		return ErrorBody{Error: f.Message, Kind: f.Kind}
	}
	b := ErrorBody{Error: err.Error(), Kind: actors.KindOf(err)}
	if b.Kind == actors.Internal {
		b.Kind = ""
	}
	return b
}

// Err turns a decoded error body back into an error. Bodies carrying an
// error kind become *actors.Failure.
func (b ErrorBody) Err() error {
	if b.Kind == "" {
		return errors.New(b.Error)
	}
	return &actors.Failure{Kind: b.Kind, Message: b.Error}
}
