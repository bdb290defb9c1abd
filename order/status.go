package order

import "fmt"

// Status of an order. An order only moves forward:
// PENDING, BOOKED, INTRANSIT, SPOILT, DELIVERED.
type Status int

// Valid order statuses.
const (
	Pending Status = iota
	Booked
	InTransit
	Spoilt
	Delivered
)

// Precedes reports whether t comes after s in an order's lifecycle.
func (s Status) Precedes(t Status) bool {
	return s < t
}

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Booked:
		return "BOOKED"
	case InTransit:
		return "INTRANSIT"
	case Spoilt:
		return "SPOILT"
	case Delivered:
		return "DELIVERED"
	}
	return ""
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Pending, Booked, InTransit, Spoilt, Delivered} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown order status %q", b)
}
