// Package actors holds the domain actors of the reefer platform: the
// provisioner owning the reefer pool, one actor per voyage and per order,
// and the schedule and order managers.
package actors

import (
	"errors"
	"time"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/routing"
	"github.com/Qalifah/reefer/voyage"
)

// Defaults applied by Register to a zero Config.
const (
	DefaultInventorySize   = 1000
	DefaultMaintenanceDays = 2
)

var (
	provisionerRef     = actor.NewRef(ProvisionerType, ProvisionerID)
	scheduleManagerRef = actor.NewRef(ScheduleManagerType, ScheduleManagerID)
	orderManagerRef    = actor.NewRef(OrderManagerType, OrderManagerID)
)

// Config is the process-wide configuration shared by the actors. It is
// read once at registration.
type Config struct {
	Routes          []routing.Route
	Start           time.Time
	InventorySize   int
	MaintenanceDays int
	Projection      Projection
}

// Register adds every domain actor type to sys.
func Register(sys *actor.System, cfg Config) error {
	if cfg.Projection == nil {
		return errors.New("actors: a voyage projection is required")
	}
	if len(cfg.Routes) == 0 {
		cfg.Routes = routing.DefaultRoutes()
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now()
	}
	cfg.Start = voyage.Midnight(cfg.Start)
	if cfg.InventorySize <= 0 {
		cfg.InventorySize = DefaultInventorySize
	}
	if cfg.MaintenanceDays <= 0 {
		cfg.MaintenanceDays = DefaultMaintenanceDays
	}

	if err := actor.Register(sys, provisionerType(cfg)); err != nil {
		return err
	}
	if err := actor.Register(sys, voyageType(cfg)); err != nil {
		return err
	}
	if err := actor.Register(sys, orderType()); err != nil {
		return err
	}
	if err := actor.Register(sys, orderManagerType()); err != nil {
		return err
	}
	return actor.Register(sys, scheduleManagerType(cfg))
}
