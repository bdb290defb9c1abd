package actors

import (
	"context"
	"time"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/voyage"
)

// Client is the typed entry point into the actors for code running
// outside of them. Failed replies come back as *Failure errors.
type Client struct {
	sys *actor.System
}

// NewClient returns a Client sending to sys.
func NewClient(sys *actor.System) *Client {
	return &Client{sys: sys}
}

func (c *Client) call(ctx context.Context, ref actor.Ref, method string, args interface{}, reply interface{ Err() error }) error {
	if err := c.sys.Call(ctx, ref, method, args, reply); err != nil {
		return err
	}
	return reply.Err()
}

// CreateOrder books o. A missing order id is generated.
func (c *Client) CreateOrder(ctx context.Context, o order.Order) (ReserveReply, error) {
	if o.ID == "" {
		o.ID = order.NextID()
	}
	var r ReserveReply
	err := c.call(ctx, actor.NewRef(OrderType, string(o.ID)), "createOrder", o, &r)
	return r, err
}

// Order returns the persisted state of order id.
func (c *Client) Order(ctx context.Context, id order.ID) (order.Order, error) {
	var r OrderReply
	if err := c.call(ctx, actor.NewRef(OrderType, string(id)), "state", nil, &r); err != nil {
		return order.Order{}, err
	}
	return *r.Order, nil
}

// OrderAnomaly reports a fault on reefer rid carrying order id.
func (c *Client) OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) error {
	var r Reply
	return c.call(ctx, actor.NewRef(OrderType, string(id)), "anomaly", ReeferArgs{ReeferID: rid}, &r)
}

// OrderReefers lists the reefers held by order id.
func (c *Client) OrderReefers(ctx context.Context, id order.ID) ([]reefer.ID, error) {
	var r OrderReefersReply
	if err := c.call(ctx, provisionerRef, "orderReefers", OrderIDArgs{OrderID: id}, &r); err != nil {
		return nil, err
	}
	return r.Reefers, nil
}

// OrderStats counts live orders per status.
func (c *Client) OrderStats(ctx context.Context) (OrderStats, error) {
	var r OrderStatsReply
	if err := c.call(ctx, orderManagerRef, "stats", nil, &r); err != nil {
		return OrderStats{}, err
	}
	return r.OrderStats, nil
}

// ReeferAnomaly reports a fault on reefer id, whichever order it carries.
func (c *Client) ReeferAnomaly(ctx context.Context, id reefer.ID) error {
	var r Reply
	return c.call(ctx, provisionerRef, "reeferAnomaly", ReeferArgs{ReeferID: id}, &r)
}

// ReeferStats counts the pool's reefers per state.
func (c *Client) ReeferStats(ctx context.Context) (reefer.Stats, error) {
	var r ReeferStatsReply
	if err := c.call(ctx, provisionerRef, "getStats", nil, &r); err != nil {
		return reefer.Stats{}, err
	}
	return r.Stats, nil
}

// NewDay advances the virtual clock to date.
func (c *Client) NewDay(ctx context.Context, date time.Time) (NewDayReply, error) {
	var r NewDayReply
	err := c.call(ctx, scheduleManagerRef, "newDay", DateArgs{Date: date}, &r)
	return r, err
}

// NextDay advances the virtual clock by one day.
func (c *Client) NextDay(ctx context.Context) (NewDayReply, error) {
	today, err := c.CurrentDate(ctx)
	if err != nil {
		return NewDayReply{}, err
	}
	return c.NewDay(ctx, voyage.AddDays(today, 1))
}

// CurrentDate reads the virtual clock.
func (c *Client) CurrentDate(ctx context.Context) (time.Time, error) {
	var r DateReply
	if err := c.call(ctx, scheduleManagerRef, "currentDate", nil, &r); err != nil {
		return time.Time{}, err
	}
	return r.Date, nil
}

// ActiveSchedule lists the voyages currently at sea.
func (c *Client) ActiveSchedule(ctx context.Context) ([]*voyage.Voyage, error) {
	var r VoyagesReply
	err := c.call(ctx, scheduleManagerRef, "getActiveSchedule", nil, &r)
	return r.Voyages, err
}

// MatchingSchedule lists voyages from origin to destination sailing on or
// after from.
func (c *Client) MatchingSchedule(ctx context.Context, q MatchingQuery) ([]*voyage.Voyage, error) {
	var r VoyagesReply
	err := c.call(ctx, scheduleManagerRef, "getMatchingSchedule", q, &r)
	return r.Voyages, err
}

// VoyagesInRange lists voyages sailing within [q.Start, q.End].
func (c *Client) VoyagesInRange(ctx context.Context, q RangeQuery) ([]*voyage.Voyage, error) {
	var r VoyagesReply
	err := c.call(ctx, scheduleManagerRef, "getVoyagesInRange", q, &r)
	return r.Voyages, err
}

// Voyage returns the schedule's view of voyage id.
func (c *Client) Voyage(ctx context.Context, id voyage.ID) (voyage.Voyage, error) {
	var r VoyageReply
	if err := c.call(ctx, scheduleManagerRef, "getVoyage", VoyageIDArgs{VoyageID: id}, &r); err != nil {
		return voyage.Voyage{}, err
	}
	return *r.Voyage, nil
}

// VoyageState returns voyage id as its own actor holds it.
func (c *Client) VoyageState(ctx context.Context, id voyage.ID) (VoyageState, error) {
	var r VoyageState
	err := c.call(ctx, actor.NewRef(VoyageType, string(id)), "state", nil, &r)
	return r, err
}
