package actor

import (
	"context"
	"encoding/json"
	"fmt"
)

// Method is one entry of an actor type's dispatch table. args is the JSON
// encoded argument; the returned value is JSON encoded for the caller.
type Method[T any] func(a *T, ctx context.Context, args json.RawMessage) (interface{}, error)

// Type registers an actor type: a factory building one instance per
// activation, optional lifecycle hooks, and the methods it answers.
type Type[T any] struct {
	Name       string
	New        func(self *Self) *T
	Activate   func(a *T, ctx context.Context) error
	Deactivate func(a *T, ctx context.Context) error
	Methods    map[string]Method[T]
}

// Handle adapts a typed handler into a Method, decoding its argument from
// JSON. An empty or null payload yields the zero value of A.
func Handle[T, A, R any](fn func(a *T, ctx context.Context, args A) (R, error)) Method[T] {
	return func(a *T, ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args A
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: decode arguments: %v", ErrInvalidCall, err)
			}
		}
		return fn(a, ctx, args)
	}
}

// kind is the type-erased view of a Type the system dispatches through.
type kind interface {
	name() string
	has(method string) bool
	spawn(self *Self) instance
}

type instance interface {
	activate(ctx context.Context) error
	deactivate(ctx context.Context) error
	invoke(ctx context.Context, method string, args json.RawMessage) (interface{}, error)
}

func (t Type[T]) name() string { return t.Name }

func (t Type[T]) has(method string) bool {
	_, ok := t.Methods[method]
	return ok
}

func (t Type[T]) spawn(self *Self) instance {
	return &typedInstance[T]{t: t, a: t.New(self)}
}

type typedInstance[T any] struct {
	t Type[T]
	a *T
}

func (i *typedInstance[T]) activate(ctx context.Context) error {
	if i.t.Activate == nil {
		return nil
	}
	return i.t.Activate(i.a, ctx)
}

func (i *typedInstance[T]) deactivate(ctx context.Context) error {
	if i.t.Deactivate == nil {
		return nil
	}
	return i.t.Deactivate(i.a, ctx)
}

func (i *typedInstance[T]) invoke(ctx context.Context, method string, args json.RawMessage) (interface{}, error) {
	m, ok := i.t.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %q", ErrInvalidCall, i.t.Name, method)
	}
	return m(i.a, ctx, args)
}
