// Package routing holds the static route catalogue: which vessel sails
// between which ports and how long each leg takes.
package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Qalifah/reefer/location"
)

// Vessel is a ship and the number of reefers it can carry.
type Vessel struct {
	Name        string `json:"name"`
	MaxCapacity int    `json:"maxCapacity"`
}

// Route pairs a vessel with an origin and destination port.
type Route struct {
	OriginPort      location.Port `json:"originPort"`
	DestinationPort location.Port `json:"destinationPort"`
	DaysAtSea       int           `json:"daysAtSea"`
	DaysAtPort      int           `json:"daysAtPort"`
	Vessel          Vessel        `json:"vessel"`
}

// Reverse returns the return leg of r.
func (r Route) Reverse() Route {
	r.OriginPort, r.DestinationPort = r.DestinationPort, r.OriginPort
	return r
}

// ErrInvalidRoute is returned for a route that cannot be scheduled.
var ErrInvalidRoute = errors.New("invalid route")

// Validate checks that r can be scheduled.
func (r Route) Validate() error {
	switch {
	case r.Vessel.Name == "":
		return fmt.Errorf("%w: vessel has no name", ErrInvalidRoute)
	case r.Vessel.MaxCapacity <= 0:
		return fmt.Errorf("%w: vessel %s has no capacity", ErrInvalidRoute, r.Vessel.Name)
	case r.OriginPort == "" || r.DestinationPort == "":
		return fmt.Errorf("%w: vessel %s has no ports", ErrInvalidRoute, r.Vessel.Name)
	case r.DaysAtSea <= 0 || r.DaysAtPort < 0:
		return fmt.Errorf("%w: vessel %s has invalid leg durations", ErrInvalidRoute, r.Vessel.Name)
	}
	return nil
}

// LoadRoutes decodes a JSON array of routes and validates each of them.
// Vessel names must be unique.
func LoadRoutes(r io.Reader) ([]Route, error) {
	var routes []Route
	if err := json.NewDecoder(r).Decode(&routes); err != nil {
		return nil, fmt.Errorf("decode routes: %w", err)
	}
	seen := make(map[string]bool, len(routes))
	for _, route := range routes {
		if err := route.Validate(); err != nil {
			return nil, err
		}
		if seen[route.Vessel.Name] {
			return nil, fmt.Errorf("%w: vessel %s listed twice", ErrInvalidRoute, route.Vessel.Name)
		}
		seen[route.Vessel.Name] = true
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrInvalidRoute)
	}
	return routes, nil
}

// LoadRoutesFile reads routes from the JSON file at path.
func LoadRoutesFile(path string) ([]Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRoutes(f)
}

// DefaultRoutes returns the built-in route catalogue.
func DefaultRoutes() []Route {
	return []Route{
		{OriginPort: location.Elizabeth.Port, DestinationPort: location.London.Port, DaysAtSea: 10, DaysAtPort: 2, Vessel: Vessel{Name: "Abyssinian", MaxCapacity: 5000}},
		{OriginPort: location.Oakland.Port, DestinationPort: location.Shanghai.Port, DaysAtSea: 18, DaysAtPort: 3, Vessel: Vessel{Name: "Bengal", MaxCapacity: 8000}},
		{OriginPort: location.Rotterdam.Port, DestinationPort: location.Singapore.Port, DaysAtSea: 21, DaysAtPort: 3, Vessel: Vessel{Name: "Chartreux", MaxCapacity: 7000}},
		{OriginPort: location.Santos.Port, DestinationPort: location.Elizabeth.Port, DaysAtSea: 12, DaysAtPort: 2, Vessel: Vessel{Name: "Devon", MaxCapacity: 4000}},
		{OriginPort: location.Melbourne.Port, DestinationPort: location.Singapore.Port, DaysAtSea: 9, DaysAtPort: 2, Vessel: Vessel{Name: "Egyptian", MaxCapacity: 3000}},
	}
}
