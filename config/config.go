// Package config reads the reeferd settings from the environment, after
// loading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/Qalifah/reefer/routing"
	"github.com/Qalifah/reefer/voyage"
)

// Config holds every setting of the reeferd process.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"logfmt"` // logfmt, json
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// Actor state goes to Redis when an address is set, in memory otherwise.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"reefer"`

	// Voyage events are published to RabbitMQ when a URL is set.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"reefer.voyages"`

	// A remote voyage projection replaces the in-process one when set.
	ProjectionURL string `env:"PROJECTION_URL"`
	ZipkinURL     string `env:"ZIPKIN_URL"`

	RoutesFile      string        `env:"ROUTES_FILE"`
	StartDate       string        `env:"START_DATE"`
	InventorySize   int           `env:"INVENTORY_SIZE" envDefault:"1000"`
	MaintenanceDays int           `env:"MAINTENANCE_DAYS" envDefault:"2"`
	CallTimeout     time.Duration `env:"CALL_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"10m"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Load reads the .env file named by files (".env" when none is given) if
// present, then parses the environment.
func Load(files ...string) (Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load(files...)

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings that env cannot.
func (c Config) Validate() error {
	switch {
	case c.InventorySize <= 0:
		return fmt.Errorf("%w: INVENTORY_SIZE must be positive", ErrInvalid)
	case c.MaintenanceDays < 0:
		return fmt.Errorf("%w: MAINTENANCE_DAYS must not be negative", ErrInvalid)
	case c.CallTimeout <= 0:
		return fmt.Errorf("%w: CALL_TIMEOUT must be positive", ErrInvalid)
	case c.LogFormat != "logfmt" && c.LogFormat != "json":
		return fmt.Errorf("%w: LOG_FORMAT must be logfmt or json", ErrInvalid)
	}
	if _, err := c.Start(); err != nil {
		return fmt.Errorf("%w: START_DATE: %v", ErrInvalid, err)
	}
	return nil
}

// Start returns the virtual clock origin, today when START_DATE is unset.
func (c Config) Start() (time.Time, error) {
	if c.StartDate == "" {
		return voyage.Midnight(time.Now()), nil
	}
	return voyage.ParseDate(c.StartDate)
}

// Routes loads the route catalogue, the built-in one when ROUTES_FILE is
// unset.
func (c Config) Routes() ([]routing.Route, error) {
	if c.RoutesFile == "" {
		return routing.DefaultRoutes(), nil
	}
	return routing.LoadRoutesFile(c.RoutesFile)
}
