// Package actor provides addressable virtual actors: single-threaded
// entities identified by (type, id) that own durable key/value state and
// talk to each other through synchronous calls and fire-and-forget tells.
package actor

import (
	"errors"
	"fmt"
)

// Ref identifies an actor. Holding a Ref does not materialise the actor.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewRef returns a handle for the actor (typ, id).
func NewRef(typ, id string) Ref {
	return Ref{Type: typ, ID: id}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// ErrTimeout is returned when a call exceeds its deadline. The callee's
// turn is not cancelled and may still complete.
var ErrTimeout = errors.New("actor call timed out")

// ErrInvalidCall is returned for an unknown actor type or method.
var ErrInvalidCall = errors.New("invalid actor call")

// ErrShutdown is returned once the system stopped accepting messages.
var ErrShutdown = errors.New("actor system is shut down")
