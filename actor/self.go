package actor

import (
	"context"

	"github.com/go-kit/kit/log"
)

// Self is an actor's view of itself and of the system hosting it. It is
// only valid inside the actor's own turns.
type Self struct {
	sys    *System
	act    *activation
	state  *State
	logger log.Logger
}

func (s *Self) Ref() Ref { return s.act.ref }

func (s *Self) ID() string { return s.act.ref.ID }

// State returns the actor's durable key/value partition.
func (s *Self) State() *State { return s.state }

func (s *Self) Logger() log.Logger { return s.logger }

// Call invokes another actor within the current causal chain. ctx must be
// the context the turn was given.
func (s *Self) Call(ctx context.Context, ref Ref, method string, args, reply interface{}) error {
	return s.sys.Call(ctx, ref, method, args, reply)
}

// Tell sends a fire-and-forget message to another actor.
func (s *Self) Tell(ctx context.Context, ref Ref, method string, args interface{}) error {
	return s.sys.Tell(ctx, ref, method, args)
}

// Remove deletes all of the actor's state. The in-memory instance is
// dropped when the current turn ends; a later message activates a fresh one.
func (s *Self) Remove(ctx context.Context) error {
	if err := s.sys.store.Purge(ctx, s.act.ref); err != nil {
		return err
	}
	s.act.removed = true
	return nil
}
