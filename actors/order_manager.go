package actors

import (
	"context"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
)

const (
	bookedSubmap    = "booked"
	inTransitSubmap = "inTransit"
	spoiltSubmap    = "spoilt"
)

// orderManager keeps the set of live orders per status. Counts are the
// set sizes, so replays change nothing.
type orderManager struct {
	self *actor.Self
	sets map[string]map[order.ID]bool
}

func orderManagerType() actor.Type[orderManager] {
	return actor.Type[orderManager]{
		Name:     OrderManagerType,
		New:      func(self *actor.Self) *orderManager { return &orderManager{self: self} },
		Activate: (*orderManager).activate,
		Methods: map[string]actor.Method[orderManager]{
			"orderBooked":   actor.Handle((*orderManager).orderBooked),
			"orderDeparted": actor.Handle((*orderManager).orderDeparted),
			"orderSpoilt":   actor.Handle((*orderManager).orderSpoilt),
			"orderArrived":  actor.Handle((*orderManager).orderArrived),
			"stats":         actor.Handle((*orderManager).stats),
		},
	}
}

func (m *orderManager) activate(ctx context.Context) error {
	snap, err := m.self.State().GetAll(ctx)
	if err != nil {
		return err
	}
	m.sets = make(map[string]map[order.ID]bool, 3)
	for _, name := range []string{bookedSubmap, inTransitSubmap, spoiltSubmap} {
		set := make(map[order.ID]bool)
		for id := range snap.Submap(name) {
			set[order.ID(id)] = true
		}
		m.sets[name] = set
	}
	return nil
}

// move puts id into set to (if any) and takes it out of every set in from.
func (m *orderManager) move(ctx context.Context, id order.ID, to string, from ...string) error {
	for _, name := range from {
		if !m.sets[name][id] {
			continue
		}
		if err := m.self.State().Submap(name).Remove(ctx, string(id)); err != nil {
			return err
		}
		delete(m.sets[name], id)
	}
	if to == "" || m.sets[to][id] {
		return nil
	}
	if err := m.self.State().Submap(to).Set(ctx, string(id), true); err != nil {
		return err
	}
	m.sets[to][id] = true
	return nil
}

func (m *orderManager) orderBooked(ctx context.Context, args OrderIDArgs) (Reply, error) {
	if m.sets[inTransitSubmap][args.OrderID] || m.sets[spoiltSubmap][args.OrderID] {
		return success(), nil
	}
	return success(), m.move(ctx, args.OrderID, bookedSubmap)
}

func (m *orderManager) orderDeparted(ctx context.Context, args OrderIDArgs) (Reply, error) {
	if m.sets[spoiltSubmap][args.OrderID] {
		return success(), nil
	}
	return success(), m.move(ctx, args.OrderID, inTransitSubmap, bookedSubmap)
}

func (m *orderManager) orderSpoilt(ctx context.Context, args OrderIDArgs) (Reply, error) {
	return success(), m.move(ctx, args.OrderID, spoiltSubmap, bookedSubmap, inTransitSubmap)
}

func (m *orderManager) orderArrived(ctx context.Context, args OrderIDArgs) (Reply, error) {
	return success(), m.move(ctx, args.OrderID, "", bookedSubmap, inTransitSubmap, spoiltSubmap)
}

func (m *orderManager) stats(context.Context, struct{}) (OrderStatsReply, error) {
	return OrderStatsReply{Reply: success(), OrderStats: OrderStats{
		BookedOrders:    len(m.sets[bookedSubmap]),
		InTransitOrders: len(m.sets[inTransitSubmap]),
		SpoiltOrders:    len(m.sets[spoiltSubmap]),
	}}, nil
}
