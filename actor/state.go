package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const submapSep = ":"

// State is an actor's private durable key/value partition. Values are
// JSON encoded; every write reaches the store before it returns.
type State struct {
	store Store
	ref   Ref
}

// Get decodes key into v and reports whether the key exists.
func (s *State) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	return s.get(ctx, key, v)
}

func (s *State) get(ctx context.Context, field string, v interface{}) (bool, error) {
	b, ok, err := s.store.Get(ctx, s.ref, field)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s %q: %w", s.ref, field, err)
	}
	return true, nil
}

// Set stores v under key.
func (s *State) Set(ctx context.Context, key string, v interface{}) error {
	return s.SetMany(ctx, map[string]interface{}{key: v})
}

// SetMany stores several keys in a single write.
func (s *State) SetMany(ctx context.Context, values map[string]interface{}) error {
	fields := make(map[string][]byte, len(values))
	for k, v := range values {
		if err := checkKey(k); err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s %q: %w", s.ref, k, err)
		}
		fields[k] = b
	}
	return s.store.Put(ctx, s.ref, fields)
}

// Remove deletes key.
func (s *State) Remove(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.store.Delete(ctx, s.ref, key)
}

// GetAll reads the whole partition, submaps included, in one round trip.
func (s *State) GetAll(ctx context.Context) (Snapshot, error) {
	fields, err := s.store.Load(ctx, s.ref)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Values:  make(map[string]json.RawMessage),
		Submaps: make(map[string]map[string]json.RawMessage),
	}
	for f, v := range fields {
		name, sub, ok := strings.Cut(f, submapSep)
		if !ok {
			snap.Values[f] = v
			continue
		}
		m, ok := snap.Submaps[name]
		if !ok {
			m = make(map[string]json.RawMessage)
			snap.Submaps[name] = m
		}
		m[sub] = v
	}
	return snap, nil
}

// Submap returns the named submap of this partition.
func (s *State) Submap(name string) Submap {
	return Submap{state: s, name: name}
}

// Submap is a named map nested in an actor's state. Entries are stored as
// "{name}:{subkey}" fields.
type Submap struct {
	state *State
	name  string
}

func (m Submap) field(sub string) string {
	return m.name + submapSep + sub
}

// Get decodes the entry sub into v and reports whether it exists.
func (m Submap) Get(ctx context.Context, sub string, v interface{}) (bool, error) {
	return m.state.get(ctx, m.field(sub), v)
}

// Set stores v under sub.
func (m Submap) Set(ctx context.Context, sub string, v interface{}) error {
	return m.SetMany(ctx, map[string]interface{}{sub: v})
}

// SetMany stores several entries in one write.
func (m Submap) SetMany(ctx context.Context, values map[string]interface{}) error {
	fields := make(map[string][]byte, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s %q: %w", m.state.ref, m.field(k), err)
		}
		fields[m.field(k)] = b
	}
	return m.state.store.Put(ctx, m.state.ref, fields)
}

// Remove deletes the given entries.
func (m Submap) Remove(ctx context.Context, subs ...string) error {
	fields := make([]string, len(subs))
	for i, sub := range subs {
		fields[i] = m.field(sub)
	}
	return m.state.store.Delete(ctx, m.state.ref, fields...)
}

// GetAll returns every entry of the submap.
func (m Submap) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	snap, err := m.state.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Submap(m.name), nil
}

// Snapshot is the decoded content of a partition.
type Snapshot struct {
	Values  map[string]json.RawMessage
	Submaps map[string]map[string]json.RawMessage
}

// Empty reports whether the actor has no state at all.
func (s Snapshot) Empty() bool {
	return len(s.Values) == 0 && len(s.Submaps) == 0
}

// Get decodes the top-level key into v and reports whether it was present.
func (s Snapshot) Get(key string, v interface{}) (bool, error) {
	b, ok := s.Values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, v)
}

// Submap returns the entries of the named submap, never nil.
func (s Snapshot) Submap(name string) map[string]json.RawMessage {
	if m, ok := s.Submaps[name]; ok {
		return m
	}
	return map[string]json.RawMessage{}
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, submapSep) {
		return fmt.Errorf("invalid state key %q", key)
	}
	return nil
}
