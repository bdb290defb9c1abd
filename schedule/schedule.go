package schedule

import (
	"sort"
	"time"

	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/voyage"
)

// Schedule is the master list of voyages ordered by sail date, ties broken
// by vessel name. It is not safe for concurrent use.
type Schedule struct {
	voyages []*voyage.Voyage
	byID    map[voyage.ID]*voyage.Voyage
}

// New returns a schedule holding vs.
func New(vs []*voyage.Voyage) *Schedule {
	s := &Schedule{byID: make(map[voyage.ID]*voyage.Voyage, len(vs))}
	for _, v := range vs {
		s.Insert(v)
	}
	return s
}

func less(a, b *voyage.Voyage) bool {
	if !a.SailDate.Equal(b.SailDate) {
		return a.SailDate.Before(b.SailDate)
	}
	return a.Vessel() < b.Vessel()
}

// Insert places v after every voyage that does not sort after it. A
// voyage already present is left untouched.
func (s *Schedule) Insert(v *voyage.Voyage) {
	if _, ok := s.byID[v.ID]; ok {
		return
	}
	i := sort.Search(len(s.voyages), func(i int) bool { return less(v, s.voyages[i]) })
	s.voyages = append(s.voyages, nil)
	copy(s.voyages[i+1:], s.voyages[i:])
	s.voyages[i] = v
	s.byID[v.ID] = v
}

// Find returns the voyage with the given id.
func (s *Schedule) Find(id voyage.ID) (*voyage.Voyage, error) {
	if v, ok := s.byID[id]; ok {
		return v, nil
	}
	return nil, voyage.ErrUnknown
}

// Remove drops voyage id and reports whether it was present.
func (s *Schedule) Remove(id voyage.ID) bool {
	v, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, c := range s.voyages {
		if c == v {
			s.voyages = append(s.voyages[:i], s.voyages[i+1:]...)
			break
		}
	}
	return true
}

func (s *Schedule) Len() int { return len(s.voyages) }

// All returns the voyages in schedule order.
func (s *Schedule) All() []*voyage.Voyage {
	out := make([]*voyage.Voyage, len(s.voyages))
	copy(out, s.voyages)
	return out
}

func (s *Schedule) filter(keep func(v *voyage.Voyage) bool) []*voyage.Voyage {
	out := []*voyage.Voyage{}
	for _, v := range s.voyages {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Matching returns voyages from origin to destination sailing on or after
// from that still accept bookings.
func (s *Schedule) Matching(origin, destination location.Port, from time.Time) []*voyage.Voyage {
	return s.filter(func(v *voyage.Voyage) bool {
		return v.Origin() == origin && v.Destination() == destination &&
			!v.SailDate.Before(from) && v.Status < voyage.Departed
	})
}

// InRange returns voyages sailing within [start, end].
func (s *Schedule) InRange(start, end time.Time) []*voyage.Voyage {
	return s.filter(func(v *voyage.Voyage) bool {
		return !v.SailDate.Before(start) && !v.SailDate.After(end)
	})
}

// Active returns voyages at sea on date.
func (s *Schedule) Active(date time.Time) []*voyage.Voyage {
	return s.filter(func(v *voyage.Voyage) bool { return v.AtSea(date) })
}

// Underway returns voyages that sailed by to and had not arrived by from.
func (s *Schedule) Underway(from, to time.Time) []*voyage.Voyage {
	return s.filter(func(v *voyage.Voyage) bool {
		return !v.SailDate.After(to) && v.ArrivalDate.After(from)
	})
}

// Arrived returns voyages whose arrival date is on or before date.
func (s *Schedule) Arrived(date time.Time) []*voyage.Voyage {
	return s.filter(func(v *voyage.Voyage) bool { return !v.ArrivalDate.After(date) })
}

// Last returns the latest scheduled voyage of vessel.
func (s *Schedule) Last(vessel string) (*voyage.Voyage, error) {
	for i := len(s.voyages) - 1; i >= 0; i-- {
		if s.voyages[i].Vessel() == vessel {
			return s.voyages[i], nil
		}
	}
	return nil, ErrRouteNotFound
}

// Replenish extends every route whose last voyage sails within
// ThresholdDays of now by another year and returns the voyages added.
func (s *Schedule) Replenish(now time.Time, g *Generator) ([]*voyage.Voyage, error) {
	var added []*voyage.Voyage
	for _, route := range g.Routes() {
		last, err := s.Last(route.Vessel.Name)
		if err != nil {
			return added, err
		}
		if voyage.DaysBetween(now, last.SailDate) >= ThresholdDays {
			continue
		}
		start := voyage.AddDays(last.ArrivalDate, route.DaysAtPort)
		for _, v := range legs(route, last.Route.Reverse(), start, voyage.AddDays(start, horizonDays)) {
			s.Insert(v)
			added = append(added, v)
		}
	}
	return added, nil
}
