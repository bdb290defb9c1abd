package voyage

import "fmt"

// Status of a voyage. Statuses only ever increase.
type Status int

// Valid voyage statuses.
const (
	Unknown Status = iota
	Pending
	Departed
	Arrived
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Pending:
		return "PENDING"
	case Departed:
		return "DEPARTED"
	case Arrived:
		return "ARRIVED"
	}
	return ""
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for _, c := range []Status{Unknown, Pending, Departed, Arrived} {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown voyage status %q", b)
}
