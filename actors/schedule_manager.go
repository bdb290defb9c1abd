package actors

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/schedule"
	"github.com/Qalifah/reefer/voyage"
)

const (
	activeVoyagesSubmap = "activeVoyages"
	voyageUpdatesSubmap = "voyageUpdates"
)

// voyageDelta is what the schedule learned about a voyage since it was
// generated.
type voyageDelta struct {
	FreeCapacity int           `json:"freeCapacity"`
	ReeferCount  int           `json:"reeferCount"`
	OrderCount   int           `json:"orderCount"`
	Position     int           `json:"position"`
	Status       voyage.Status `json:"status"`
}

func deltaOf(v *voyage.Voyage) voyageDelta {
	return voyageDelta{
		FreeCapacity: v.FreeCapacity,
		ReeferCount:  v.ReeferCount,
		OrderCount:   v.OrderCount,
		Position:     v.Position,
		Status:       v.Status,
	}
}

func (d voyageDelta) apply(v *voyage.Voyage) {
	v.FreeCapacity = d.FreeCapacity
	v.ReeferCount = d.ReeferCount
	v.OrderCount = d.OrderCount
	v.SetPosition(d.Position)
	v.Status = d.Status
}

// scheduleManager owns the master schedule and the virtual clock. The
// schedule itself is never stored: it is regenerated from the routes and
// the clock origin, and only what changed since is persisted. The origin
// is fixed by the first activation; a later configured start is ignored.
type scheduleManager struct {
	self  *actor.Self
	gen   *schedule.Generator
	start time.Time

	sched   *schedule.Schedule
	current time.Time
	active  map[voyage.ID]int
}

func scheduleManagerType(cfg Config) actor.Type[scheduleManager] {
	return actor.Type[scheduleManager]{
		Name: ScheduleManagerType,
		New: func(self *actor.Self) *scheduleManager {
			return &scheduleManager{self: self, gen: schedule.NewGenerator(cfg.Routes), start: voyage.Midnight(cfg.Start)}
		},
		Activate: (*scheduleManager).activate,
		Methods: map[string]actor.Method[scheduleManager]{
			"newDay":              actor.Handle((*scheduleManager).newDay),
			"positionChanged":     actor.Handle((*scheduleManager).positionChanged),
			"voyageDeparted":      actor.Handle((*scheduleManager).voyageDeparted),
			"updateVoyage":        actor.Handle((*scheduleManager).updateVoyage),
			"getMatchingSchedule": actor.Handle((*scheduleManager).getMatchingSchedule),
			"getActiveSchedule":   actor.Handle((*scheduleManager).getActiveSchedule),
			"getVoyagesInRange":   actor.Handle((*scheduleManager).getVoyagesInRange),
			"getVoyage":           actor.Handle((*scheduleManager).getVoyage),
			"currentDate":         actor.Handle((*scheduleManager).currentDate),
		},
	}
}

func (m *scheduleManager) activate(ctx context.Context) error {
	snap, err := m.self.State().GetAll(ctx)
	if err != nil {
		return err
	}
	found, err := snap.Get(originKey, &m.start)
	if err != nil {
		return err
	}
	if !found {
		if err := m.self.State().Set(ctx, originKey, m.start); err != nil {
			return err
		}
	}
	m.current = m.start
	if _, err := snap.Get(currentDateKey, &m.current); err != nil {
		return err
	}
	m.active = make(map[voyage.ID]int)
	for id, raw := range snap.Submap(activeVoyagesSubmap) {
		var days int
		if err := json.Unmarshal(raw, &days); err != nil {
			return err
		}
		m.active[voyage.ID(id)] = days
	}

	m.sched = schedule.New(m.gen.Generate(m.start))
	if _, err := m.replenish(); err != nil {
		return err
	}
	for _, v := range m.sched.Arrived(m.current) {
		if _, ok := m.active[v.ID]; !ok {
			m.sched.Remove(v.ID)
		}
	}
	for id, raw := range snap.Submap(voyageUpdatesSubmap) {
		var d voyageDelta
		if err := json.Unmarshal(raw, &d); err != nil {
			return err
		}
		if v, err := m.sched.Find(voyage.ID(id)); err == nil {
			d.apply(v)
		}
	}
	level.Info(m.self.Logger()).Log("msg", "schedule restored", "voyages", m.sched.Len(), "date", m.current.Format(voyage.DateLayout), "active", len(m.active))
	return nil
}

// replenish extends the schedule until every route sails at least
// ThresholdDays past the current date.
func (m *scheduleManager) replenish() (int, error) {
	total := 0
	for {
		added, err := m.sched.Replenish(m.current, m.gen)
		if err != nil {
			return total, err
		}
		if len(added) == 0 {
			return total, nil
		}
		total += len(added)
	}
}

func (m *scheduleManager) saveVoyage(ctx context.Context, v *voyage.Voyage) error {
	return m.self.State().Submap(voyageUpdatesSubmap).Set(ctx, string(v.ID), deltaOf(v))
}

func (m *scheduleManager) newDay(ctx context.Context, args DateArgs) (NewDayReply, error) {
	date := voyage.Midnight(args.Date)
	if date.Before(m.current) {
		err := fmt.Errorf("%w: %s precedes %s", ErrInvalidDate, date.Format(voyage.DateLayout), m.current.Format(voyage.DateLayout))
		return NewDayReply{Reply: failure(err), Date: m.current}, nil
	}
	prev := m.current
	m.current = date

	positions := make(map[string]interface{})
	for _, v := range m.sched.Underway(prev, date) {
		if _, ok := m.active[v.ID]; !ok {
			m.active[v.ID] = 0
		}
	}
	var gone []string
	for id := range m.active {
		v, err := m.sched.Find(id)
		if err != nil {
			gone = append(gone, string(id))
			delete(m.active, id)
			continue
		}
		positions[string(id)] = voyage.DaysBetween(v.SailDate, date)
	}
	if err := m.self.State().Set(ctx, currentDateKey, m.current); err != nil {
		return NewDayReply{}, err
	}
	if len(gone) > 0 {
		if err := m.self.State().Submap(activeVoyagesSubmap).Remove(ctx, gone...); err != nil {
			return NewDayReply{}, err
		}
	}
	if len(positions) > 0 {
		if err := m.self.State().Submap(activeVoyagesSubmap).SetMany(ctx, positions); err != nil {
			return NewDayReply{}, err
		}
	}

	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		m.active[voyage.ID(id)] = positions[id].(int)
		args := PositionArgs{DaysAtSea: positions[id].(int)}
		if err := m.self.Tell(ctx, actor.NewRef(VoyageType, id), "changePosition", args); err != nil {
			return NewDayReply{}, err
		}
	}
	if err := m.self.Tell(ctx, provisionerRef, "releaseReefersFromMaintenance", DateArgs{Date: date}); err != nil {
		return NewDayReply{}, err
	}

	added, err := m.replenish()
	reply := NewDayReply{Reply: success(), Date: date, Active: len(ids), Added: added}
	if err != nil {
		reply.Reply = failure(err)
	}
	if added > 0 {
		level.Info(m.self.Logger()).Log("msg", "schedule replenished", "voyages", added)
	}
	return reply, nil
}

func (m *scheduleManager) positionChanged(ctx context.Context, args VoyagePosition) (Reply, error) {
	v, err := m.sched.Find(args.VoyageID)
	if err != nil {
		return failure(err), nil
	}
	v.SetPosition(args.DaysAtSea)
	if _, ok := m.active[v.ID]; ok {
		m.active[v.ID] = args.DaysAtSea
	}
	return success(), m.saveVoyage(ctx, v)
}

// voyageDeparted is told both on departure and on arrival. Once the voyage
// has spent all its days at sea it leaves the schedule.
func (m *scheduleManager) voyageDeparted(ctx context.Context, args VoyagePosition) (Reply, error) {
	v, err := m.sched.Find(args.VoyageID)
	if err != nil {
		return failure(err), nil
	}
	if args.DaysAtSea < v.Route.DaysAtSea {
		v.Status = voyage.Departed
		v.SetPosition(args.DaysAtSea)
		return success(), m.saveVoyage(ctx, v)
	}
	if err := m.self.State().Submap(activeVoyagesSubmap).Remove(ctx, string(v.ID)); err != nil {
		return Reply{}, err
	}
	if err := m.self.State().Submap(voyageUpdatesSubmap).Remove(ctx, string(v.ID)); err != nil {
		return Reply{}, err
	}
	delete(m.active, v.ID)
	m.sched.Remove(v.ID)
	return success(), nil
}

func (m *scheduleManager) updateVoyage(ctx context.Context, args VoyageCapacity) (Reply, error) {
	v, err := m.sched.Find(args.VoyageID)
	if err != nil {
		return failure(err), nil
	}
	v.FreeCapacity = args.FreeCapacity
	v.OrderCount = args.OrderCount
	v.ReeferCount = args.ReeferCount
	if v.Status == voyage.Unknown {
		v.Status = voyage.Pending
	}
	return success(), m.saveVoyage(ctx, v)
}

func snapshot(vs []*voyage.Voyage) []*voyage.Voyage {
	out := make([]*voyage.Voyage, len(vs))
	for i, v := range vs {
		c := *v
		out[i] = &c
	}
	return out
}

func (m *scheduleManager) getMatchingSchedule(_ context.Context, q MatchingQuery) (VoyagesReply, error) {
	from := voyage.Midnight(q.From)
	if q.From.IsZero() || from.Before(m.current) {
		from = m.current
	}
	return VoyagesReply{Reply: success(), Voyages: snapshot(m.sched.Matching(q.Origin, q.Destination, from))}, nil
}

func (m *scheduleManager) getActiveSchedule(context.Context, struct{}) (VoyagesReply, error) {
	var vs []*voyage.Voyage
	for _, v := range m.sched.All() {
		if _, ok := m.active[v.ID]; ok {
			vs = append(vs, v)
		}
	}
	return VoyagesReply{Reply: success(), Voyages: snapshot(vs)}, nil
}

func (m *scheduleManager) getVoyagesInRange(_ context.Context, q RangeQuery) (VoyagesReply, error) {
	if q.End.Before(q.Start) {
		return VoyagesReply{Reply: failure(fmt.Errorf("%w: range ends before it starts", ErrInvalidDate)), Voyages: []*voyage.Voyage{}}, nil
	}
	return VoyagesReply{Reply: success(), Voyages: snapshot(m.sched.InRange(voyage.Midnight(q.Start), q.End))}, nil
}

func (m *scheduleManager) getVoyage(_ context.Context, args VoyageIDArgs) (VoyageReply, error) {
	v, err := m.sched.Find(args.VoyageID)
	if err != nil {
		return VoyageReply{Reply: failure(err)}, nil
	}
	c := *v
	return VoyageReply{Reply: success(), Voyage: &c}, nil
}

func (m *scheduleManager) currentDate(context.Context, struct{}) (DateReply, error) {
	return DateReply{Reply: success(), Date: m.current}, nil
}
