// Package schedule generates voyages from the route catalogue and keeps
// them in sail-date order.
package schedule

import (
	"errors"
	"time"

	"github.com/Qalifah/reefer/routing"
	"github.com/Qalifah/reefer/voyage"
)

// ThresholdDays is how close the last sailing of a route may come to the
// current date before another year of voyages is generated.
const ThresholdDays = 100

const horizonDays = 365

// ErrRouteNotFound is used when a vessel has no voyage in the schedule.
var ErrRouteNotFound = errors.New("route not found")

// Generator produces voyages for a fixed set of routes.
type Generator struct {
	routes []routing.Route
}

// NewGenerator returns a Generator for routes.
func NewGenerator(routes []routing.Route) *Generator {
	return &Generator{routes: routes}
}

// Routes returns the routes the generator was built with.
func (g *Generator) Routes() []routing.Route {
	return g.routes
}

// Generate returns a year of voyages from start, sorted by sail date.
// Route i makes its first outbound departure 2*i days after start.
func (g *Generator) Generate(start time.Time) []*voyage.Voyage {
	start = voyage.Midnight(start)
	end := voyage.AddDays(start, horizonDays)
	s := New(nil)
	for i, route := range g.routes {
		for _, v := range legs(route, route, voyage.AddDays(start, 2*i), end) {
			s.Insert(v)
		}
	}
	return s.All()
}

// legs alternates outbound and return voyages of route starting with leg
// on departure. It stops at the first outbound departure after end, so the
// last voyage generated always brings the vessel home.
func legs(route, leg routing.Route, departure, end time.Time) []*voyage.Voyage {
	var out []*voyage.Voyage
	for {
		outbound := leg.OriginPort == route.OriginPort
		if outbound && departure.After(end) {
			return out
		}
		v := voyage.New(leg, departure)
		out = append(out, v)
		departure = voyage.AddDays(v.ArrivalDate, route.DaysAtPort)
		leg = leg.Reverse()
	}
}
