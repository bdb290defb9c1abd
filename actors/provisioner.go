package actors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/voyage"
)

const (
	reefersSubmap      = "reefers"
	reeferMapSubmap    = "reeferMap"
	replacementsSubmap = "replacements"
	currentDateKey     = "currentDate"
	originKey          = "origin"
)

// assignment is the reefers held by one order.
type assignment struct {
	VoyageID voyage.ID   `json:"voyageId"`
	Reefers  []reefer.ID `json:"reefers"`
}

// provisioner owns the whole reefer pool.
type provisioner struct {
	self            *actor.Self
	size            int
	maintenanceDays int

	inv          *reefer.Inventory
	assignments  map[order.ID]*assignment
	replacements map[reefer.ID]reefer.ID
	current      time.Time
}

func provisionerType(cfg Config) actor.Type[provisioner] {
	return actor.Type[provisioner]{
		Name: ProvisionerType,
		New: func(self *actor.Self) *provisioner {
			return &provisioner{self: self, size: cfg.InventorySize, maintenanceDays: cfg.MaintenanceDays, current: cfg.Start}
		},
		Activate: (*provisioner).activate,
		Methods: map[string]actor.Method[provisioner]{
			"bookReefers":                   actor.Handle((*provisioner).bookReefers),
			"voyageReefersDeparted":         actor.Handle((*provisioner).voyageReefersDeparted),
			"releaseVoyageReefers":          actor.Handle((*provisioner).releaseVoyageReefers),
			"reeferSpoilt":                  actor.Handle((*provisioner).reeferSpoilt),
			"reeferReplacement":             actor.Handle((*provisioner).reeferReplacement),
			"reeferAnomaly":                 actor.Handle((*provisioner).reeferAnomaly),
			"releaseReefersFromMaintenance": actor.Handle((*provisioner).releaseReefersFromMaintenance),
			"orderReefers":                  actor.Handle((*provisioner).orderReefers),
			"getStats":                      actor.Handle((*provisioner).getStats),
		},
	}
}

func (p *provisioner) activate(ctx context.Context) error {
	snap, err := p.self.State().GetAll(ctx)
	if err != nil {
		return err
	}
	p.inv = reefer.NewInventory(p.size)
	p.assignments = make(map[order.ID]*assignment)
	p.replacements = make(map[reefer.ID]reefer.ID)

	found, err := snap.Get(currentDateKey, &p.current)
	if err != nil {
		return err
	}
	if !found {
		if _, err := snap.Get(originKey, &p.current); err != nil {
			return err
		}
		if err := p.self.State().Set(ctx, originKey, p.current); err != nil {
			return err
		}
	}
	for _, raw := range snap.Submap(reefersSubmap) {
		var r reefer.Reefer
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		if err := p.inv.Restore(r); err != nil {
			return err
		}
	}
	for id, raw := range snap.Submap(reeferMapSubmap) {
		a := &assignment{}
		if err := json.Unmarshal(raw, a); err != nil {
			return err
		}
		p.assignments[order.ID(id)] = a
	}
	for id, raw := range snap.Submap(replacementsSubmap) {
		old, err := reefer.ParseID(id)
		if err != nil {
			return err
		}
		var repl reefer.ID
		if err := json.Unmarshal(raw, &repl); err != nil {
			return err
		}
		p.replacements[old] = repl
	}
	return nil
}

// save writes the changed reefers. Reefers back in the pool are not stored.
func (p *provisioner) save(ctx context.Context, changed []reefer.Reefer) error {
	set := make(map[string]interface{})
	var free []string
	for _, r := range changed {
		if r.State == reefer.Unallocated {
			free = append(free, r.ID.String())
			continue
		}
		set[r.ID.String()] = r
	}
	reefers := p.self.State().Submap(reefersSubmap)
	if len(set) > 0 {
		if err := reefers.SetMany(ctx, set); err != nil {
			return err
		}
	}
	if len(free) > 0 {
		return reefers.Remove(ctx, free...)
	}
	return nil
}

func (p *provisioner) bookReefers(ctx context.Context, o order.Order) (BookingReply, error) {
	if a, ok := p.assignments[o.ID]; ok {
		return BookingReply{Reply: success(), Reefers: a.Reefers, ReeferCount: len(a.Reefers)}, nil
	}
	changed, err := p.inv.Allocate(reefer.Needed(o.ProductQty), o.ID, o.VoyageID)
	if err != nil {
		return BookingReply{Reply: failure(err)}, nil
	}
	a := &assignment{VoyageID: o.VoyageID}
	for _, r := range changed {
		a.Reefers = append(a.Reefers, r.ID)
	}
	if err := p.save(ctx, changed); err != nil {
		return BookingReply{}, err
	}
	if err := p.self.State().Submap(reeferMapSubmap).Set(ctx, string(o.ID), a); err != nil {
		return BookingReply{}, err
	}
	p.assignments[o.ID] = a
	return BookingReply{Reply: success(), Reefers: a.Reefers, ReeferCount: len(a.Reefers)}, nil
}

func (p *provisioner) voyageReefersDeparted(ctx context.Context, args VoyageReefersArgs) (Reply, error) {
	var ids []reefer.ID
	for _, a := range p.assignments {
		if a.VoyageID == args.VoyageID {
			ids = append(ids, a.Reefers...)
		}
	}
	changed := p.inv.Depart(ids)
	if err := p.save(ctx, changed); err != nil {
		return Reply{}, err
	}
	level.Debug(p.self.Logger()).Log("msg", "reefers departed", "voyage", args.VoyageID, "reefers", len(changed))
	return success(), nil
}

func (p *provisioner) releaseVoyageReefers(ctx context.Context, args ReleaseArgs) (Reply, error) {
	var changed []reefer.Reefer
	var orders []string
	for _, id := range args.OrderIDs {
		a, ok := p.assignments[id]
		if !ok {
			continue
		}
		changed = append(changed, p.inv.Release(a.Reefers, p.current)...)
		orders = append(orders, string(id))
	}
	if err := p.save(ctx, changed); err != nil {
		return Reply{}, err
	}
	if len(orders) > 0 {
		if err := p.self.State().Submap(reeferMapSubmap).Remove(ctx, orders...); err != nil {
			return Reply{}, err
		}
	}
	for _, id := range orders {
		delete(p.assignments, order.ID(id))
	}
	return success(), nil
}

func (p *provisioner) reeferSpoilt(ctx context.Context, args ReeferArgs) (Reply, error) {
	if args.OrderID != "" {
		if r, err := p.inv.Get(args.ReeferID); err == nil && r.OrderID != args.OrderID {
			return notCarried(args), nil
		}
	}
	changed, err := p.inv.Spoil(args.ReeferID, p.current)
	if err != nil {
		return failure(err), nil
	}
	if err := p.save(ctx, changed); err != nil {
		return Reply{}, err
	}
	return success(), nil
}

func (p *provisioner) reeferReplacement(ctx context.Context, args ReeferArgs) (ReplacementReply, error) {
	if args.OrderID != "" && !p.carries(args.ReeferID, args.OrderID) {
		return ReplacementReply{Reply: notCarried(args)}, nil
	}
	if repl, ok := p.replacements[args.ReeferID]; ok {
		return ReplacementReply{Reply: success(), ReplacementReeferID: repl}, nil
	}
	repl, changed, err := p.inv.Replace(args.ReeferID, p.current)
	if err != nil {
		return ReplacementReply{Reply: failure(err)}, nil
	}
	a := p.assignments[repl.OrderID]
	if a == nil {
		a = &assignment{VoyageID: repl.VoyageID}
		p.assignments[repl.OrderID] = a
	}
	for i, id := range a.Reefers {
		if id == args.ReeferID {
			a.Reefers[i] = repl.ID
		}
	}
	if err := p.save(ctx, changed); err != nil {
		return ReplacementReply{}, err
	}
	if err := p.self.State().Submap(reeferMapSubmap).Set(ctx, string(repl.OrderID), a); err != nil {
		return ReplacementReply{}, err
	}
	if err := p.self.State().Submap(replacementsSubmap).Set(ctx, args.ReeferID.String(), repl.ID); err != nil {
		return ReplacementReply{}, err
	}
	p.replacements[args.ReeferID] = repl.ID
	return ReplacementReply{Reply: success(), ReplacementReeferID: repl.ID}, nil
}

// carries reports whether reefer id, or the reefer that replaced it, is
// assigned to order o.
func (p *provisioner) carries(id reefer.ID, o order.ID) bool {
	for hops := 0; hops <= len(p.replacements); hops++ {
		r, err := p.inv.Get(id)
		if err != nil {
			return false
		}
		if r.OrderID == o {
			return true
		}
		next, ok := p.replacements[id]
		if !ok {
			return false
		}
		id = next
	}
	return false
}

func notCarried(args ReeferArgs) Reply {
	return failed(ReeferNotFound, "reefer "+args.ReeferID.String()+" does not carry order "+string(args.OrderID))
}

// reeferAnomaly routes a fault reported for a reefer to the order it
// carries. An idle reefer goes straight to maintenance.
func (p *provisioner) reeferAnomaly(ctx context.Context, args ReeferArgs) (Reply, error) {
	r, err := p.inv.Get(args.ReeferID)
	if err != nil {
		return failure(err), nil
	}
	if r.Assigned() {
		if err := p.self.Tell(ctx, actor.NewRef(OrderType, string(r.OrderID)), "anomaly", args); err != nil {
			return Reply{}, err
		}
		return success(), nil
	}
	return p.reeferSpoilt(ctx, args)
}

func (p *provisioner) releaseReefersFromMaintenance(ctx context.Context, args DateArgs) (Reply, error) {
	date := voyage.Midnight(args.Date)
	if date.After(p.current) {
		p.current = date
		if err := p.self.State().Set(ctx, currentDateKey, p.current); err != nil {
			return Reply{}, err
		}
	}
	changed := p.inv.ReleaseFromMaintenance(p.current, p.maintenanceDays)
	if err := p.save(ctx, changed); err != nil {
		return Reply{}, err
	}
	var stale []string
	for _, r := range changed {
		if _, ok := p.replacements[r.ID]; ok {
			stale = append(stale, r.ID.String())
			delete(p.replacements, r.ID)
		}
	}
	if len(stale) > 0 {
		if err := p.self.State().Submap(replacementsSubmap).Remove(ctx, stale...); err != nil {
			return Reply{}, err
		}
	}
	if len(changed) > 0 {
		level.Info(p.self.Logger()).Log("msg", "reefers back from maintenance", "count", len(changed))
	}
	return success(), nil
}

func (p *provisioner) orderReefers(_ context.Context, args OrderIDArgs) (OrderReefersReply, error) {
	a, ok := p.assignments[args.OrderID]
	if !ok {
		return OrderReefersReply{Reply: failed(ReeferNotFound, "no reefers for order "+string(args.OrderID))}, nil
	}
	return OrderReefersReply{Reply: success(), VoyageID: a.VoyageID, Reefers: a.Reefers}, nil
}

func (p *provisioner) getStats(context.Context, struct{}) (ReeferStatsReply, error) {
	return ReeferStatsReply{Reply: success(), Stats: p.inv.Stats()}, nil
}
