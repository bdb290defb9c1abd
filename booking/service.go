// Package booking provides the use-cases of booking refrigerated cargo on
// a voyage and reporting faults on the reefers carrying it.
package booking

import (
	"context"
	"errors"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// Service is the interface that provides booking methods.
type Service interface {
	// BookOrder books a new order onto a voyage, allocating the reefers
	// it needs.
	BookOrder(ctx context.Context, o order.Order) (Booking, error)

	// LoadOrder returns an order together with the reefers it holds.
	LoadOrder(ctx context.Context, id order.ID) (Order, error)

	// OrderAnomaly reports a fault on a reefer carrying the given order.
	OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) error

	// ReeferAnomaly reports a fault on a reefer, whichever order it
	// carries.
	ReeferAnomaly(ctx context.Context, rid reefer.ID) error

	// OrderStats counts live orders per status.
	OrderStats(ctx context.Context) (actors.OrderStats, error)

	// ReeferStats counts the reefer pool per state.
	ReeferStats(ctx context.Context) (reefer.Stats, error)
}

// Booking is the outcome of a successful booking.
type Booking struct {
	Order        order.Order `json:"order"`
	FreeCapacity int         `json:"freeCapacity"`
	ReeferCount  int         `json:"reeferCount"`
}

// Order is a read model of a booked order.
type Order struct {
	order.Order
	Reefers []reefer.ID `json:"reefers"`
}

type service struct {
	actors *actors.Client
}

// NewService creates a booking service sending to the actors behind c.
func NewService(c *actors.Client) Service {
	return &service{actors: c}
}

func (s *service) BookOrder(ctx context.Context, o order.Order) (Booking, error) {
	if o.ProductQty <= 0 {
		return Booking{}, ErrInvalidArgument
	}
	if o.VoyageID == "" {
		return Booking{}, order.ErrVoyageIDMissing
	}
	r, err := s.actors.CreateOrder(ctx, o)
	if err != nil {
		return Booking{}, err
	}
	return Booking{
		Order:        *r.Order,
		FreeCapacity: r.FreeCapacity,
		ReeferCount:  r.ReeferCount,
	}, nil
}

func (s *service) LoadOrder(ctx context.Context, id order.ID) (Order, error) {
	if id == "" {
		return Order{}, ErrInvalidArgument
	}
	o, err := s.actors.Order(ctx, id)
	if err != nil {
		return Order{}, err
	}
	res := Order{Order: o, Reefers: []reefer.ID{}}
	if o.Status == order.Delivered {
		return res, nil
	}
	rids, err := s.actors.OrderReefers(ctx, id)
	if err != nil && actors.KindOf(err) != actors.ReeferNotFound {
		return Order{}, err
	}
	if rids != nil {
		res.Reefers = rids
	}
	return res, nil
}

func (s *service) OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.actors.OrderAnomaly(ctx, id, rid)
}

func (s *service) ReeferAnomaly(ctx context.Context, rid reefer.ID) error {
	return s.actors.ReeferAnomaly(ctx, rid)
}

func (s *service) OrderStats(ctx context.Context) (actors.OrderStats, error) {
	return s.actors.OrderStats(ctx)
}

func (s *service) ReeferStats(ctx context.Context) (reefer.Stats, error) {
	return s.actors.ReeferStats(ctx)
}
