package reefer

import "fmt"

// State of a reefer.
type State int

// Valid reefer states.
const (
	Unallocated State = iota
	Allocated
	InTransit
	Spoilt
	OnMaintenance
)

func (s State) String() string {
	switch s {
	case Unallocated:
		return "UNALLOCATED"
	case Allocated:
		return "ALLOCATED"
	case InTransit:
		return "INTRANSIT"
	case Spoilt:
		return "SPOILT"
	case OnMaintenance:
		return "ONMAINTENANCE"
	}
	return ""
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, c := range []State{Unallocated, Allocated, InTransit, Spoilt, OnMaintenance} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown reefer state %q", b)
}
