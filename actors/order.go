package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
)

const (
	orderStatusKey = "orderStatus"
	voyageIDKey    = "voyageId"
	customerIDKey  = "customerId"
	productKey     = "product"
	productQtyKey  = "productQty"
	dateKey        = "date"
	spoiltKey      = "spoilt"
)

// orderActor follows one order from booking to delivery. o is nil while
// the order has no state.
type orderActor struct {
	self *actor.Self
	o    *order.Order
}

func orderType() actor.Type[orderActor] {
	return actor.Type[orderActor]{
		Name:     OrderType,
		New:      func(self *actor.Self) *orderActor { return &orderActor{self: self} },
		Activate: (*orderActor).activate,
		Methods: map[string]actor.Method[orderActor]{
			"createOrder": actor.Handle((*orderActor).createOrder),
			"departed":    actor.Handle((*orderActor).departed),
			"delivered":   actor.Handle((*orderActor).delivered),
			"anomaly":     actor.Handle((*orderActor).anomaly),
			"state":       actor.Handle((*orderActor).state),
		},
	}
}

func (a *orderActor) activate(ctx context.Context) error {
	snap, err := a.self.State().GetAll(ctx)
	if err != nil {
		return err
	}
	o := &order.Order{ID: order.ID(a.self.ID())}
	found, err := snap.Get(orderStatusKey, &o.Status)
	if err != nil || !found {
		return err
	}
	for key, v := range map[string]interface{}{
		voyageIDKey:   &o.VoyageID,
		customerIDKey: &o.CustomerID,
		productKey:    &o.Product,
		productQtyKey: &o.ProductQty,
		dateKey:       &o.Date,
		spoiltKey:     &o.Spoilt,
	} {
		if _, err := snap.Get(key, v); err != nil {
			return err
		}
	}
	a.o = o
	return nil
}

func (a *orderActor) save(ctx context.Context) error {
	return a.self.State().SetMany(ctx, map[string]interface{}{
		orderStatusKey: a.o.Status,
		voyageIDKey:    a.o.VoyageID,
		customerIDKey:  a.o.CustomerID,
		productKey:     a.o.Product,
		productQtyKey:  a.o.ProductQty,
		dateKey:        a.o.Date,
		spoiltKey:      a.o.Spoilt,
	})
}

func (a *orderActor) tellManager(ctx context.Context, method string) {
	if err := a.self.Tell(ctx, orderManagerRef, method, OrderIDArgs{OrderID: order.ID(a.self.ID())}); err != nil {
		level.Warn(a.self.Logger()).Log("msg", "order manager notification failed", "method", method, "err", err)
	}
}

func (a *orderActor) forget(ctx context.Context) error {
	a.o = nil
	return a.self.Remove(ctx)
}

func (a *orderActor) createOrder(ctx context.Context, o order.Order) (ReserveReply, error) {
	if a.o != nil && !a.o.Status.Precedes(order.Booked) {
		booked := *a.o
		return ReserveReply{Reply: success(), Order: &booked}, nil
	}
	o.ID = order.ID(a.self.ID())
	o.Status = order.Pending
	if o.Date.IsZero() {
		o.Date = time.Now().UTC()
	}
	if err := o.Validate(); err != nil {
		return ReserveReply{Reply: failure(err)}, nil
	}

	var reply ReserveReply
	if err := a.self.Call(ctx, actor.NewRef(VoyageType, string(o.VoyageID)), "reserve", o, &reply); err != nil {
		reply = ReserveReply{Reply: failure(err)}
	}
	if !reply.OK() {
		return reply, a.forget(ctx)
	}

	o.Status = order.Booked
	a.o = &o
	if err := a.save(ctx); err != nil {
		return ReserveReply{}, err
	}
	a.tellManager(ctx, "orderBooked")
	return reply, nil
}

func (a *orderActor) departed(ctx context.Context, _ struct{}) (Reply, error) {
	if a.o == nil || !a.o.Advance(order.InTransit) {
		return success(), nil
	}
	if err := a.self.State().Set(ctx, orderStatusKey, a.o.Status); err != nil {
		return Reply{}, err
	}
	a.tellManager(ctx, "orderDeparted")
	return success(), nil
}

func (a *orderActor) delivered(ctx context.Context, _ struct{}) (Reply, error) {
	a.tellManager(ctx, "orderArrived")
	return success(), a.forget(ctx)
}

// anomaly handles a fault reported on one of the order's reefers. Before
// sailing the reefer is swapped; at sea the order spoils.
func (a *orderActor) anomaly(ctx context.Context, args ReeferArgs) (Reply, error) {
	if a.o == nil || a.o.Status == order.Delivered {
		return success(), a.forget(ctx)
	}
	args.OrderID = a.o.ID
	switch a.o.Status {
	case order.InTransit:
		return a.spoil(ctx, args)
	case order.Booked:
		var r ReplacementReply
		if err := a.self.Call(ctx, provisionerRef, "reeferReplacement", args, &r); err != nil {
			return failure(err), nil
		}
		if r.Error == ReeferInTransit {
			level.Warn(a.self.Logger()).Log("msg", "reefer already at sea, spoiling booked order", "reefer", args.ReeferID)
			return a.spoil(ctx, args)
		}
		if r.OK() {
			level.Info(a.self.Logger()).Log("msg", "reefer replaced", "reefer", args.ReeferID, "replacement", r.ReplacementReeferID)
		}
		return r.Reply, nil
	}
	return success(), nil
}

func (a *orderActor) spoil(ctx context.Context, args ReeferArgs) (Reply, error) {
	var r Reply
	if err := a.self.Call(ctx, provisionerRef, "reeferSpoilt", args, &r); err != nil {
		return failure(err), nil
	}
	if !r.OK() {
		return r, nil
	}
	a.o.Spoilt = true
	a.o.Advance(order.Spoilt)
	if err := a.self.State().SetMany(ctx, map[string]interface{}{
		orderStatusKey: a.o.Status,
		spoiltKey:      true,
	}); err != nil {
		return Reply{}, err
	}
	a.tellManager(ctx, "orderSpoilt")
	return r, nil
}

func (a *orderActor) state(context.Context, struct{}) (OrderReply, error) {
	if a.o == nil {
		return OrderReply{Reply: failure(fmt.Errorf("%w %s", order.ErrUnknown, a.self.ID()))}, nil
	}
	o := *a.o
	return OrderReply{Reply: success(), Order: &o}, nil
}
