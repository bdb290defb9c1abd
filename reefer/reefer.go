// Package reefer models refrigerated containers and the fixed pool they
// are allocated from.
package reefer

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/voyage"
)

// CapacityKG is the amount of product one reefer holds.
const CapacityKG = 1000

// Needed returns the number of reefers required to ship qty kilograms.
func Needed(qty int) int {
	if qty <= 0 {
		return 0
	}
	return (qty + CapacityKG - 1) / CapacityKG
}

// ID identifies a reefer within the pool.
type ID int

func (id ID) String() string { return strconv.Itoa(int(id)) }

// ParseID parses the decimal form of a reefer id.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, s)
	}
	return ID(n), nil
}

// Reefer is a refrigerated container.
type Reefer struct {
	ID               ID        `json:"id"`
	State            State     `json:"state"`
	OrderID          order.ID  `json:"orderId,omitempty"`
	VoyageID         voyage.ID `json:"voyageId,omitempty"`
	MaintenanceSince time.Time `json:"maintenanceSince"`
}

// Assigned reports whether the reefer carries an order.
func (r Reefer) Assigned() bool {
	return r.State == Allocated || r.State == InTransit || r.State == Spoilt
}

func (r *Reefer) assign(o order.ID, v voyage.ID) {
	r.State = Allocated
	r.OrderID = o
	r.VoyageID = v
	r.MaintenanceSince = time.Time{}
}

func (r *Reefer) unassign(next State, date time.Time) {
	r.State = next
	r.OrderID = ""
	r.VoyageID = ""
	r.MaintenanceSince = time.Time{}
	if next == OnMaintenance {
		r.MaintenanceSince = date
	}
}

// ErrInsufficientInventory is returned when the pool has too few
// unallocated reefers.
var ErrInsufficientInventory = errors.New("insufficient reefer inventory")

// ErrNoReplacement is returned when no reefer is free to replace a
// spoilt one.
var ErrNoReplacement = errors.New("no replacement reefer available")

// ErrNotFound is used when a reefer id is outside the pool or carries no
// order.
var ErrNotFound = errors.New("reefer not found")

// ErrInTransit is returned when replacing a reefer that already sailed.
var ErrInTransit = errors.New("reefer already in transit")
