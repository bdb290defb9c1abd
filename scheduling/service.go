// Package scheduling exposes the virtual clock and the voyage schedule.
package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/voyage"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// Service is the interface that provides the clock and schedule queries.
type Service interface {
	// NewDay advances the clock to date.
	NewDay(ctx context.Context, date time.Time) (Day, error)

	// NextDay advances the clock by one day.
	NextDay(ctx context.Context) (Day, error)

	// CurrentDate reads the clock.
	CurrentDate(ctx context.Context) (time.Time, error)

	// ActiveVoyages lists the voyages at sea.
	ActiveVoyages(ctx context.Context) ([]*voyage.Voyage, error)

	// MatchingVoyages lists voyages between two ports sailing on or after
	// from.
	MatchingVoyages(ctx context.Context, origin, destination location.Port, from time.Time) ([]*voyage.Voyage, error)

	// VoyagesInRange lists voyages sailing between start and end.
	VoyagesInRange(ctx context.Context, start, end time.Time) ([]*voyage.Voyage, error)

	// LoadVoyage returns the schedule's view of a voyage.
	LoadVoyage(ctx context.Context, id voyage.ID) (voyage.Voyage, error)

	// VoyageState returns a voyage as its own actor holds it, with the
	// orders it carries.
	VoyageState(ctx context.Context, id voyage.ID) (VoyageState, error)
}

// Day is the outcome of moving the clock.
type Day struct {
	Date          time.Time `json:"date"`
	ActiveVoyages int       `json:"activeVoyages"`
	VoyagesAdded  int       `json:"voyagesAdded"`
}

// VoyageState is a voyage and its orders.
type VoyageState struct {
	Voyage voyage.Voyage `json:"voyage"`
	Orders []order.ID    `json:"orders"`
}

type service struct {
	actors *actors.Client
}

// NewService creates a scheduling service sending to the actors behind c.
func NewService(c *actors.Client) Service {
	return &service{actors: c}
}

func dayOf(r actors.NewDayReply) Day {
	return Day{Date: r.Date, ActiveVoyages: r.Active, VoyagesAdded: r.Added}
}

func (s *service) NewDay(ctx context.Context, date time.Time) (Day, error) {
	if date.IsZero() {
		return Day{}, ErrInvalidArgument
	}
	r, err := s.actors.NewDay(ctx, date)
	if err != nil {
		return Day{}, err
	}
	return dayOf(r), nil
}

func (s *service) NextDay(ctx context.Context) (Day, error) {
	r, err := s.actors.NextDay(ctx)
	if err != nil {
		return Day{}, err
	}
	return dayOf(r), nil
}

func (s *service) CurrentDate(ctx context.Context) (time.Time, error) {
	return s.actors.CurrentDate(ctx)
}

func (s *service) ActiveVoyages(ctx context.Context) ([]*voyage.Voyage, error) {
	return s.actors.ActiveSchedule(ctx)
}

func (s *service) MatchingVoyages(ctx context.Context, origin, destination location.Port, from time.Time) ([]*voyage.Voyage, error) {
	if origin == "" || destination == "" {
		return nil, ErrInvalidArgument
	}
	return s.actors.MatchingSchedule(ctx, actors.MatchingQuery{Origin: origin, Destination: destination, From: from})
}

func (s *service) VoyagesInRange(ctx context.Context, start, end time.Time) ([]*voyage.Voyage, error) {
	if start.IsZero() || end.IsZero() {
		return nil, ErrInvalidArgument
	}
	return s.actors.VoyagesInRange(ctx, actors.RangeQuery{Start: start, End: end})
}

func (s *service) LoadVoyage(ctx context.Context, id voyage.ID) (voyage.Voyage, error) {
	if id == "" {
		return voyage.Voyage{}, ErrInvalidArgument
	}
	return s.actors.Voyage(ctx, id)
}

func (s *service) VoyageState(ctx context.Context, id voyage.ID) (VoyageState, error) {
	if id == "" {
		return VoyageState{}, ErrInvalidArgument
	}
	r, err := s.actors.VoyageState(ctx, id)
	if err != nil {
		return VoyageState{}, err
	}
	st := VoyageState{Orders: r.Orders}
	if r.Voyage != nil {
		st.Voyage = *r.Voyage
	}
	if st.Orders == nil {
		st.Orders = []order.ID{}
	}
	return st, nil
}
