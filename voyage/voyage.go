// Package voyage models one sailing of a vessel along a route.
package voyage

import (
	"errors"
	"fmt"
	"time"

	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/routing"
)

// ID uniquely identifies a voyage
type ID string

// NewID derives the id of the voyage vessel starts on sail.
func NewID(vessel string, sail time.Time) ID {
	return ID(fmt.Sprintf("%s-%s", vessel, sail.UTC().Format(DateLayout)))
}

// DateLayout is the calendar-day format used in ids and on the wire.
const DateLayout = "2006-01-02"

// Voyage is one sailing of a vessel from origin to destination.
type Voyage struct {
	ID           ID            `json:"id"`
	Route        routing.Route `json:"route"`
	SailDate     time.Time     `json:"sailDate"`
	ArrivalDate  time.Time     `json:"arrivalDate"`
	Position     int           `json:"position"`
	Progress     int           `json:"progress"`
	FreeCapacity int           `json:"freeCapacity"`
	ReeferCount  int           `json:"reeferCount"`
	OrderCount   int           `json:"orderCount"`
	Status       Status        `json:"status"`
}

// New creates an empty voyage of route sailing on sail.
func New(route routing.Route, sail time.Time) *Voyage {
	sail = Midnight(sail)
	return &Voyage{
		ID:           NewID(route.Vessel.Name, sail),
		Route:        route,
		SailDate:     sail,
		ArrivalDate:  AddDays(sail, route.DaysAtSea),
		FreeCapacity: route.Vessel.MaxCapacity,
	}
}

// Vessel returns the name of the ship sailing this voyage.
func (v *Voyage) Vessel() string { return v.Route.Vessel.Name }

// Origin returns the departure port.
func (v *Voyage) Origin() location.Port { return v.Route.OriginPort }

// Destination returns the arrival port.
func (v *Voyage) Destination() location.Port { return v.Route.DestinationPort }

// AtSea reports whether the vessel is between ports on date.
func (v *Voyage) AtSea(date time.Time) bool {
	return !v.SailDate.After(date) && date.Before(v.ArrivalDate)
}

// CanReserve reports why n reefer slots cannot be reserved, if they can't.
func (v *Voyage) CanReserve(n int) error {
	if v.Status >= Departed {
		return ErrDeparted
	}
	if n > v.FreeCapacity {
		return ErrCapacityExceeded
	}
	return nil
}

// Reserve takes n reefer slots on the vessel.
func (v *Voyage) Reserve(n int) error {
	if err := v.CanReserve(n); err != nil {
		return err
	}
	v.FreeCapacity -= n
	v.ReeferCount += n
	v.OrderCount++
	v.Status = Pending
	return nil
}

// StatusAt returns the status the voyage reaches after days at sea.
func (v *Voyage) StatusAt(days int) Status {
	ship := AddDays(v.SailDate, days)
	switch {
	case !ship.Before(v.ArrivalDate):
		return Arrived
	case ship.After(v.SailDate) && v.Status < Departed:
		return Departed
	}
	return v.Status
}

// SetPosition records days at sea and the matching progress percentage.
func (v *Voyage) SetPosition(days int) {
	v.Position = days
	switch {
	case days <= 0:
		v.Progress = 0
	case days >= v.Route.DaysAtSea:
		v.Progress = 100
	default:
		v.Progress = days * 100 / v.Route.DaysAtSea
	}
}

// ErrUnknown is used when a voyage can't be found
var ErrUnknown = errors.New("unknown voyage")

// ErrCapacityExceeded is returned when a vessel has too few free slots.
var ErrCapacityExceeded = errors.New("ship capacity exceeded")

// ErrDeparted is returned for reservations on a voyage that already sailed.
var ErrDeparted = errors.New("voyage already departed")

// Midnight truncates t to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns t moved by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD day or an RFC 3339 instant and truncates
// it to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Midnight(t), nil
}
