package actors

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/voyage"
)

const (
	voyageInfoKey      = "voyageInfo"
	voyageStatusKey    = "voyageStatus"
	voyageOrdersSubmap = "voyageOrders"
)

// voyageActor is the state machine of one sailing.
type voyageActor struct {
	self       *actor.Self
	projection Projection

	v      *voyage.Voyage
	orders map[order.ID]ReserveReply
}

func voyageType(cfg Config) actor.Type[voyageActor] {
	return actor.Type[voyageActor]{
		Name: VoyageType,
		New: func(self *actor.Self) *voyageActor {
			return &voyageActor{self: self, projection: cfg.Projection}
		},
		Activate: (*voyageActor).activate,
		Methods: map[string]actor.Method[voyageActor]{
			"reserve":        actor.Handle((*voyageActor).reserve),
			"changePosition": actor.Handle((*voyageActor).changePosition),
			"state":          actor.Handle((*voyageActor).state),
		},
	}
}

func (a *voyageActor) activate(ctx context.Context) error {
	snap, err := a.self.State().GetAll(ctx)
	if err != nil {
		return err
	}
	a.orders = make(map[order.ID]ReserveReply)

	if snap.Empty() {
		info, err := a.projection.VoyageInfo(ctx, voyage.ID(a.self.ID()))
		if err != nil {
			return err
		}
		a.v = &info
		return a.save(ctx)
	}

	a.v = &voyage.Voyage{}
	if _, err := snap.Get(voyageInfoKey, a.v); err != nil {
		return err
	}
	if _, err := snap.Get(voyageStatusKey, &a.v.Status); err != nil {
		return err
	}
	for id, raw := range snap.Submap(voyageOrdersSubmap) {
		var r ReserveReply
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		a.orders[order.ID(id)] = r
	}
	return nil
}

func (a *voyageActor) save(ctx context.Context) error {
	return a.self.State().SetMany(ctx, map[string]interface{}{
		voyageInfoKey:   a.v,
		voyageStatusKey: a.v.Status,
	})
}

func (a *voyageActor) orderIDs() []order.ID {
	ids := make([]order.ID, 0, len(a.orders))
	for id := range a.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (a *voyageActor) reserve(ctx context.Context, o order.Order) (ReserveReply, error) {
	if r, ok := a.orders[o.ID]; ok {
		return r, nil
	}
	n := reefer.Needed(o.ProductQty)
	if err := a.v.CanReserve(n); err != nil {
		return ReserveReply{Reply: failure(err), FreeCapacity: a.v.FreeCapacity}, nil
	}

	var booking BookingReply
	if err := a.self.Call(ctx, provisionerRef, "bookReefers", o, &booking); err != nil {
		return ReserveReply{Reply: failure(err), FreeCapacity: a.v.FreeCapacity}, nil
	}
	if !booking.OK() {
		return ReserveReply{Reply: booking.Reply, FreeCapacity: a.v.FreeCapacity}, nil
	}

	if err := a.v.Reserve(n); err != nil {
		return ReserveReply{}, err
	}
	o.Status = order.Booked
	reply := ReserveReply{Reply: success(), Order: &o, FreeCapacity: a.v.FreeCapacity, ReeferCount: booking.ReeferCount}
	if err := a.save(ctx); err != nil {
		return ReserveReply{}, err
	}
	if err := a.self.State().Submap(voyageOrdersSubmap).Set(ctx, string(o.ID), reply); err != nil {
		return ReserveReply{}, err
	}
	a.orders[o.ID] = reply

	err := a.self.Tell(ctx, scheduleManagerRef, "updateVoyage", VoyageCapacity{
		VoyageID:     a.v.ID,
		FreeCapacity: a.v.FreeCapacity,
		OrderCount:   a.v.OrderCount,
		ReeferCount:  a.v.ReeferCount,
	})
	return reply, err
}

func (a *voyageActor) changePosition(ctx context.Context, args PositionArgs) (PositionReply, error) {
	if args.DaysAtSea == a.v.Position {
		return PositionReply{Reply: success(), VoyageStatus: a.v.Status}, nil
	}
	switch next := a.v.StatusAt(args.DaysAtSea); {
	case next == voyage.Arrived && a.v.Status != voyage.Arrived:
		if err := a.processArrived(ctx, args.DaysAtSea); err != nil {
			return PositionReply{Reply: failure(err), VoyageStatus: a.v.Status}, nil
		}
		a.v.Status = voyage.Arrived
		a.v.SetPosition(args.DaysAtSea)
		if err := a.self.Remove(ctx); err != nil {
			return PositionReply{}, err
		}
		level.Info(a.self.Logger()).Log("msg", "voyage arrived", "orders", len(a.orders))
		return PositionReply{Reply: success(), VoyageStatus: voyage.Arrived}, nil

	case next == voyage.Departed && a.v.Status < voyage.Departed:
		if err := a.processDeparted(ctx, args.DaysAtSea); err != nil {
			return PositionReply{Reply: failure(err), VoyageStatus: a.v.Status}, nil
		}
		a.v.Status = voyage.Departed
		a.v.SetPosition(args.DaysAtSea)
		level.Info(a.self.Logger()).Log("msg", "voyage departed", "orders", len(a.orders))

	default:
		a.v.SetPosition(args.DaysAtSea)
		a.update(ctx, a.projection.UpdatePosition, args.DaysAtSea)
		if err := a.self.Tell(ctx, scheduleManagerRef, "positionChanged", VoyagePosition{VoyageID: a.v.ID, DaysAtSea: args.DaysAtSea}); err != nil {
			return PositionReply{}, err
		}
	}
	if err := a.save(ctx); err != nil {
		return PositionReply{}, err
	}
	return PositionReply{Reply: success(), VoyageStatus: a.v.Status}, nil
}

// processDeparted moves the voyage's reefers to sea before telling the
// orders, so a provisioner failure leaves the voyage untouched.
func (a *voyageActor) processDeparted(ctx context.Context, days int) error {
	var r Reply
	if err := a.self.Call(ctx, provisionerRef, "voyageReefersDeparted", VoyageReefersArgs{VoyageID: a.v.ID, ReeferCount: a.v.ReeferCount}, &r); err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return err
	}
	a.notifyOrders(ctx, "departed")
	a.update(ctx, a.projection.UpdateDeparted, days)
	return a.self.Tell(ctx, scheduleManagerRef, "voyageDeparted", VoyagePosition{VoyageID: a.v.ID, DaysAtSea: days})
}

func (a *voyageActor) processArrived(ctx context.Context, days int) error {
	var r Reply
	if err := a.self.Call(ctx, provisionerRef, "releaseVoyageReefers", ReleaseArgs{OrderIDs: a.orderIDs()}, &r); err != nil {
		return err
	}
	if err := r.Err(); err != nil {
		return err
	}
	a.notifyOrders(ctx, "delivered")
	a.update(ctx, a.projection.UpdateArrived, days)
	return a.self.Tell(ctx, scheduleManagerRef, "voyageDeparted", VoyagePosition{VoyageID: a.v.ID, DaysAtSea: days})
}

func (a *voyageActor) notifyOrders(ctx context.Context, method string) {
	for _, id := range a.orderIDs() {
		if err := a.self.Tell(ctx, actor.NewRef(OrderType, string(id)), method, nil); err != nil {
			level.Warn(a.self.Logger()).Log("msg", "order notification failed", "order", id, "method", method, "err", err)
		}
	}
}

func (a *voyageActor) update(ctx context.Context, post func(context.Context, VoyageUpdate) error, days int) {
	u := VoyageUpdate{VoyageID: a.v.ID, DaysAtSea: days, Orders: len(a.orders)}
	if err := post(ctx, u); err != nil {
		level.Warn(a.self.Logger()).Log("msg", "projection update failed", "err", err)
	}
}

func (a *voyageActor) state(context.Context, struct{}) (VoyageState, error) {
	v := *a.v
	return VoyageState{Reply: success(), Voyage: &v, Orders: a.orderIDs()}, nil
}
