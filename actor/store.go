package actor

import (
	"context"
	"sync"
)

// Store is the durable backend holding every actor's fields. Each actor
// owns one partition; fields are opaque JSON documents.
type Store interface {
	Load(ctx context.Context, ref Ref) (map[string][]byte, error)
	Get(ctx context.Context, ref Ref, field string) ([]byte, bool, error)
	Put(ctx context.Context, ref Ref, fields map[string][]byte) error
	Delete(ctx context.Context, ref Ref, fields ...string) error
	Purge(ctx context.Context, ref Ref) error
}

type memoryStore struct {
	mtx        sync.RWMutex
	partitions map[Ref]map[string][]byte
}

// NewMemoryStore returns a Store that keeps all state in process memory.
func NewMemoryStore() Store {
	return &memoryStore{partitions: make(map[Ref]map[string][]byte)}
}

func (s *memoryStore) Load(_ context.Context, ref Ref) (map[string][]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	p := s.partitions[ref]
	out := make(map[string][]byte, len(p))
	for k, v := range p {
		out[k] = clone(v)
	}
	return out, nil
}

func (s *memoryStore) Get(_ context.Context, ref Ref, field string) ([]byte, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	v, ok := s.partitions[ref][field]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *memoryStore) Put(_ context.Context, ref Ref, fields map[string][]byte) error {
	if len(fields) == 0 {
		return nil
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	p, ok := s.partitions[ref]
	if !ok {
		p = make(map[string][]byte, len(fields))
		s.partitions[ref] = p
	}
	for k, v := range fields {
		p[k] = clone(v)
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, ref Ref, fields ...string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	p, ok := s.partitions[ref]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(p, f)
	}
	if len(p) == 0 {
		delete(s.partitions, ref)
	}
	return nil
}

func (s *memoryStore) Purge(_ context.Context, ref Ref) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.partitions, ref)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
