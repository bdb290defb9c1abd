// Package events publishes voyage progress to interested listeners.
package events

import (
	"context"
	"time"

	"github.com/Qalifah/reefer/voyage"
)

// Kind is the type of a voyage event. It doubles as the routing key.
type Kind string

const (
	Position Kind = "voyage.position"
	Departed Kind = "voyage.departed"
	Arrived  Kind = "voyage.arrived"
)

// Event reports where a voyage is and how many orders it carries.
type Event struct {
	Kind      Kind      `json:"kind"`
	VoyageID  voyage.ID `json:"voyageId"`
	DaysAtSea int       `json:"daysAtSea"`
	Orders    int       `json:"orders"`
	Time      time.Time `json:"time"`
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func (nopPublisher) Close() error { return nil }
