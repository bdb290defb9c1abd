package reefer

import (
	"fmt"
	"sort"
	"time"

	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/voyage"
)

// Inventory is the fixed pool of reefers. Only reefers that are not
// UNALLOCATED are tracked explicitly. Every mutating method returns the
// reefers it changed so callers can persist exactly those.
type Inventory struct {
	size    int
	reefers map[ID]Reefer
	lowFree ID
}

// NewInventory returns a pool of size unallocated reefers with ids
// 0..size-1.
func NewInventory(size int) *Inventory {
	return &Inventory{size: size, reefers: make(map[ID]Reefer)}
}

// Size returns the number of reefers in the pool.
func (inv *Inventory) Size() int { return inv.size }

// Restore places a previously persisted reefer back into the pool.
func (inv *Inventory) Restore(r Reefer) error {
	if !inv.contains(r.ID) {
		return fmt.Errorf("%w: %d outside pool of %d", ErrNotFound, r.ID, inv.size)
	}
	inv.put(r)
	return nil
}

// Get returns reefer id.
func (inv *Inventory) Get(id ID) (Reefer, error) {
	if !inv.contains(id) {
		return Reefer{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if r, ok := inv.reefers[id]; ok {
		return r, nil
	}
	return Reefer{ID: id}, nil
}

func (inv *Inventory) contains(id ID) bool {
	return id >= 0 && int(id) < inv.size
}

func (inv *Inventory) put(r Reefer) {
	if r.State == Unallocated {
		delete(inv.reefers, r.ID)
		if r.ID < inv.lowFree {
			inv.lowFree = r.ID
		}
		return
	}
	inv.reefers[r.ID] = r
}

// free returns up to n unallocated reefers in ascending id order.
func (inv *Inventory) free(n int) []ID {
	ids := make([]ID, 0, n)
	for id := inv.lowFree; int(id) < inv.size && len(ids) < n; id++ {
		if _, used := inv.reefers[id]; !used {
			ids = append(ids, id)
		}
	}
	return ids
}

// Allocate assigns n reefers to order o on voyage v, lowest ids first.
func (inv *Inventory) Allocate(n int, o order.ID, v voyage.ID) ([]Reefer, error) {
	ids := inv.free(n)
	if len(ids) < n {
		return nil, fmt.Errorf("%w: need %d, %d free", ErrInsufficientInventory, n, inv.Stats().Unallocated)
	}
	changed := make([]Reefer, 0, n)
	for _, id := range ids {
		r := Reefer{ID: id}
		r.assign(o, v)
		inv.put(r)
		changed = append(changed, r)
	}
	if len(ids) > 0 {
		inv.lowFree = ids[len(ids)-1] + 1
	}
	return changed, nil
}

// Depart moves the given ALLOCATED reefers to INTRANSIT.
func (inv *Inventory) Depart(ids []ID) []Reefer {
	var changed []Reefer
	for _, id := range ids {
		r, ok := inv.reefers[id]
		if !ok || r.State != Allocated {
			continue
		}
		r.State = InTransit
		inv.put(r)
		changed = append(changed, r)
	}
	return changed
}

// Release returns the given reefers to the pool. Spoilt reefers go to
// maintenance starting on date instead.
func (inv *Inventory) Release(ids []ID, date time.Time) []Reefer {
	var changed []Reefer
	for _, id := range ids {
		r, ok := inv.reefers[id]
		if !ok || !r.Assigned() {
			continue
		}
		if r.State == Spoilt {
			r.unassign(OnMaintenance, date)
		} else {
			r.unassign(Unallocated, time.Time{})
		}
		inv.put(r)
		changed = append(changed, r)
	}
	return changed
}

// Spoil marks reefer id SPOILT. A reefer carrying no order goes straight
// to maintenance. Spoiling twice changes nothing.
func (inv *Inventory) Spoil(id ID, date time.Time) ([]Reefer, error) {
	r, err := inv.Get(id)
	if err != nil {
		return nil, err
	}
	switch r.State {
	case Allocated, InTransit:
		r.State = Spoilt
	case Unallocated:
		r.unassign(OnMaintenance, date)
	default:
		return nil, nil
	}
	inv.put(r)
	return []Reefer{r}, nil
}

// Replace swaps an ALLOCATED reefer for the lowest free one, which takes
// over its order and voyage. The old reefer goes to maintenance.
func (inv *Inventory) Replace(id ID, date time.Time) (Reefer, []Reefer, error) {
	old, err := inv.Get(id)
	if err != nil {
		return Reefer{}, nil, err
	}
	switch old.State {
	case Allocated:
	case InTransit, Spoilt:
		return Reefer{}, nil, fmt.Errorf("%w: %d", ErrInTransit, id)
	default:
		return Reefer{}, nil, fmt.Errorf("%w: %d carries no order", ErrNotFound, id)
	}
	ids := inv.free(1)
	if len(ids) == 0 {
		return Reefer{}, nil, ErrNoReplacement
	}
	repl := Reefer{ID: ids[0]}
	repl.assign(old.OrderID, old.VoyageID)
	inv.put(repl)
	old.unassign(OnMaintenance, date)
	inv.put(old)
	return repl, []Reefer{old, repl}, nil
}

// ReleaseFromMaintenance returns reefers that have been in maintenance
// for at least days by date.
func (inv *Inventory) ReleaseFromMaintenance(date time.Time, days int) []Reefer {
	var changed []Reefer
	for _, r := range inv.reefers {
		if r.State != OnMaintenance || voyage.DaysBetween(r.MaintenanceSince, date) < days {
			continue
		}
		r.unassign(Unallocated, time.Time{})
		changed = append(changed, r)
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].ID < changed[j].ID })
	for _, r := range changed {
		inv.put(r)
	}
	return changed
}

// Stats counts reefers per state.
type Stats struct {
	Total         int `json:"total"`
	Unallocated   int `json:"unallocated"`
	Allocated     int `json:"allocated"`
	InTransit     int `json:"inTransit"`
	Spoilt        int `json:"spoilt"`
	OnMaintenance int `json:"onMaintenance"`
}

// Stats returns the current per-state counts.
func (inv *Inventory) Stats() Stats {
	s := Stats{Total: inv.size}
	for _, r := range inv.reefers {
		switch r.State {
		case Allocated:
			s.Allocated++
		case InTransit:
			s.InTransit++
		case Spoilt:
			s.Spoilt++
		case OnMaintenance:
			s.OnMaintenance++
		}
	}
	s.Unallocated = inv.size - len(inv.reefers)
	return s
}
