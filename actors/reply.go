package actors

import (
	"context"
	"errors"
	"fmt"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/schedule"
	"github.com/Qalifah/reefer/voyage"
)

// ErrorKind classifies a failed reply.
type ErrorKind string

// Error kinds carried by failed replies.
const (
	CapacityExceeded       ErrorKind = "SHIP_CAPACITY_EXCEEDED"
	InsufficientInventory  ErrorKind = "INSUFFICIENT_INVENTORY"
	NoReplacementAvailable ErrorKind = "NO_REPLACEMENT_AVAILABLE"
	VoyageNotFound         ErrorKind = "VOYAGE_NOT_FOUND"
	RouteNotFound          ErrorKind = "ROUTE_NOT_FOUND"
	Timeout                ErrorKind = "TIMEOUT"
	InvalidCall            ErrorKind = "INVALID_CALL"
	VoyageDeparted         ErrorKind = "VOYAGE_DEPARTED"
	VoyageIDMissing        ErrorKind = "VOYAGE_ID_MISSING"
	InvalidOrder           ErrorKind = "INVALID_ORDER"
	InvalidDate            ErrorKind = "INVALID_DATE"
	ReeferNotFound         ErrorKind = "REEFER_NOT_FOUND"
	ReeferInTransit        ErrorKind = "REEFER_IN_TRANSIT"
	OrderNotFound          ErrorKind = "ORDER_NOT_FOUND"
	Internal               ErrorKind = "INTERNAL"
)

// Status of a reply.
type Status string

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// Reply is the envelope every domain method answers with. Domain failures
// travel inside it instead of as errors.
type Reply struct {
	Status  Status    `json:"status"`
	Error   ErrorKind `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

func success() Reply { return Reply{Status: StatusOK} }

func failed(kind ErrorKind, msg string) Reply {
	return Reply{Status: StatusFailed, Error: kind, Message: msg}
}

// OK reports whether the call succeeded.
func (r Reply) OK() bool { return r.Status == StatusOK }

// Err returns nil for a successful reply and a *Failure otherwise.
func (r Reply) Err() error {
	if r.OK() {
		return nil
	}
	return &Failure{Kind: r.Error, Message: r.Message}
}

// Failure is a failed reply seen as a Go error.
type Failure struct {
	Kind    ErrorKind
	Message string
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// ErrInvalidDate is returned when the clock would move backwards or a date
// range is inverted.
var ErrInvalidDate = errors.New("invalid date")

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{actor.ErrTimeout, Timeout},
	{context.DeadlineExceeded, Timeout},
	{actor.ErrInvalidCall, InvalidCall},
	{voyage.ErrCapacityExceeded, CapacityExceeded},
	{voyage.ErrDeparted, VoyageDeparted},
	{voyage.ErrUnknown, VoyageNotFound},
	{reefer.ErrInsufficientInventory, InsufficientInventory},
	{reefer.ErrNoReplacement, NoReplacementAvailable},
	{reefer.ErrInTransit, ReeferInTransit},
	{reefer.ErrNotFound, ReeferNotFound},
	{schedule.ErrRouteNotFound, RouteNotFound},
	{order.ErrUnknown, OrderNotFound},
	{order.ErrVoyageIDMissing, VoyageIDMissing},
	{order.ErrInvalid, InvalidOrder},
	{ErrInvalidDate, InvalidDate},
}

// failure translates err into a failed reply.
func failure(err error) Reply {
	var f *Failure
	if errors.As(err, &f) {
		return failed(f.Kind, f.Message)
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return failed(k.kind, err.Error())
		}
	}
	return failed(Internal, err.Error())
}

// KindOf classifies err the way a failed reply would.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return failure(err).Error
}
