// Package order models a customer's request to ship refrigerated product
// on a voyage.
package order

import (
	"errors"
	"time"

	"github.com/pborman/uuid"

	"github.com/Qalifah/reefer/voyage"
)

// ID uniquely identifies an order
type ID string

// Order contains info about a customer order
type Order struct {
	ID         ID        `json:"orderId"`
	CustomerID string    `json:"customerId"`
	Product    string    `json:"product"`
	ProductQty int       `json:"productQty"`
	VoyageID   voyage.ID `json:"voyageId"`
	Status     Status    `json:"status"`
	Date       time.Time `json:"date"`
	Spoilt     bool      `json:"spoilt"`
}

// New creates a pending order with a fresh id.
func New(customer, product string, qty int, v voyage.ID) *Order {
	return &Order{
		ID:         NextID(),
		CustomerID: customer,
		Product:    product,
		ProductQty: qty,
		VoyageID:   v,
		Status:     Pending,
		Date:       time.Now().UTC(),
	}
}

// Validate checks that o can be booked.
func (o *Order) Validate() error {
	switch {
	case o.ID == "":
		return ErrInvalid
	case o.VoyageID == "":
		return ErrVoyageIDMissing
	case o.ProductQty <= 0:
		return ErrInvalid
	}
	return nil
}

// Advance moves the order to next if that is a forward transition and
// reports whether it did.
func (o *Order) Advance(next Status) bool {
	if !o.Status.Precedes(next) {
		return false
	}
	o.Status = next
	return true
}

// ErrUnknown is used when an order can't be found
var ErrUnknown = errors.New("unknown order")

// ErrVoyageIDMissing is returned for orders that name no voyage.
var ErrVoyageIDMissing = errors.New("order has no voyage id")

// ErrInvalid is returned for orders without an id or product quantity.
var ErrInvalid = errors.New("invalid order")

// NextID generates a new order ID.
func NextID() ID {
	return ID(uuid.New())
}
