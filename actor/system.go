package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
)

// DefaultCallTimeout bounds how long Call waits for a reply.
const DefaultCallTimeout = 30 * time.Second

// System hosts actor activations for every registered type.
type System struct {
	store       Store
	logger      log.Logger
	callTimeout time.Duration
	idleTimeout time.Duration
	count       metrics.Counter
	latency     metrics.Histogram

	mtx    sync.Mutex
	kinds  map[string]kind
	active map[Ref]*activation
	closed bool

	pendingMtx sync.Mutex
	pending    int
	idle       chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
	swept    chan struct{}
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger used for failed tells and lifecycle errors.
func WithLogger(logger log.Logger) Option {
	return func(s *System) { s.logger = logger }
}

// WithCallTimeout overrides DefaultCallTimeout.
func WithCallTimeout(d time.Duration) Option {
	return func(s *System) { s.callTimeout = d }
}

// WithIdleTimeout enables eviction of activations unused for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *System) { s.idleTimeout = d }
}

// WithMetrics records one count and one latency observation per turn,
// labelled by "type", "method" and "error".
func WithMetrics(count metrics.Counter, latency metrics.Histogram) Option {
	return func(s *System) {
		s.count = count
		s.latency = latency
	}
}

// NewSystem returns a System persisting actor state in store.
func NewSystem(store Store, opts ...Option) *System {
	idle := make(chan struct{})
	close(idle)
	s := &System{
		store:       store,
		logger:      log.NewNopLogger(),
		callTimeout: DefaultCallTimeout,
		count:       discard.NewCounter(),
		latency:     discard.NewHistogram(),
		kinds:       make(map[string]kind),
		active:      make(map[Ref]*activation),
		idle:        idle,
		stop:        make(chan struct{}),
		swept:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTimeout > 0 {
		go s.sweep()
	} else {
		close(s.swept)
	}
	return s
}

// Register adds an actor type to s.
func Register[T any](s *System, t Type[T]) error {
	if t.Name == "" || t.New == nil {
		return errors.New("actor type needs a name and a factory")
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.kinds[t.Name]; ok {
		return fmt.Errorf("actor type %q already registered", t.Name)
	}
	s.kinds[t.Name] = t
	return nil
}

// Ref returns a handle for the actor (typ, id).
func (s *System) Ref(typ, id string) Ref {
	return NewRef(typ, id)
}

// Store returns the backend holding actor state.
func (s *System) Store() Store {
	return s.store
}

type result struct {
	data json.RawMessage
	err  error
}

// Call invokes method on ref and decodes its result into reply, which may
// be nil. A call made from inside a turn joins that turn's causal chain,
// so calling back into an actor already executing in the chain re-enters
// it instead of deadlocking.
func (s *System) Call(ctx context.Context, ref Ref, method string, args, reply interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode %s.%s arguments: %w", ref, method, err)
	}
	chain := chainFrom(ctx)
	if chain == "" {
		chain = newChain()
	}
	res := make(chan result, 1)
	if err := s.dispatch(ref, method, raw, chain, res); err != nil {
		return err
	}

	timer := time.NewTimer(s.callTimeout)
	defer timer.Stop()
	select {
	case r := <-res:
		if r.err != nil {
			return r.err
		}
		if reply == nil || len(r.data) == 0 {
			return nil
		}
		if err := json.Unmarshal(r.data, reply); err != nil {
			return fmt.Errorf("decode %s.%s reply: %w", ref, method, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s.%s after %s", ErrTimeout, ref, method, s.callTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tell enqueues method on ref and returns without waiting. Messages told
// by one sender to one receiver are processed in send order. Failures
// are logged.
func (s *System) Tell(_ context.Context, ref Ref, method string, args interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode %s.%s arguments: %w", ref, method, err)
	}
	return s.dispatch(ref, method, raw, newChain(), nil)
}

func (s *System) dispatch(ref Ref, method string, raw json.RawMessage, chain string, res chan<- result) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.closed {
		return ErrShutdown
	}
	k, ok := s.kinds[ref.Type]
	if !ok {
		return fmt.Errorf("%w: unknown actor type %q", ErrInvalidCall, ref.Type)
	}
	if !k.has(method) {
		return fmt.Errorf("%w: %s has no method %q", ErrInvalidCall, ref.Type, method)
	}
	a, ok := s.active[ref]
	if !ok {
		a = newActivation(ref)
		s.active[ref] = a
	}
	a.mtx.Lock()
	t := a.enqueueLocked(chain)
	a.mtx.Unlock()
	s.addPending()

	go s.run(a, k, t, method, raw, res)
	return nil
}

func (s *System) run(a *activation, k kind, t *ticket, method string, raw json.RawMessage, res chan<- result) {
	<-t.ready
	defer s.donePending()
	defer a.release()

	begin := time.Now()
	ctx := withChain(context.Background(), t.chain)
	data, err := s.turn(ctx, a, k, method, raw)
	if a.removed {
		s.forget(a)
	}

	s.count.With("type", a.ref.Type, "method", method, "error", strconv.FormatBool(err != nil)).Add(1)
	s.latency.With("type", a.ref.Type, "method", method, "error", strconv.FormatBool(err != nil)).Observe(time.Since(begin).Seconds())

	if res != nil {
		res <- result{data: data, err: err}
		return
	}
	if err != nil {
		level.Error(s.logger).Log("msg", "tell failed", "actor", a.ref, "method", method, "err", err)
	}
}

// turn runs one method on the activation, placing the instance first if
// needed. The caller holds the activation's turn.
func (s *System) turn(ctx context.Context, a *activation, k kind, method string, raw json.RawMessage) (data json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s.%s panicked: %v", a.ref, method, r)
		}
		if a.removed {
			a.inst = nil
		}
	}()

	if a.inst == nil {
		self := &Self{
			sys:    s,
			act:    a,
			state:  &State{store: s.store, ref: a.ref},
			logger: log.With(s.logger, "actor", a.ref),
		}
		inst := k.spawn(self)
		if err := inst.activate(ctx); err != nil {
			return nil, fmt.Errorf("activate %s: %w", a.ref, err)
		}
		a.inst = inst
	}

	v, err := a.inst.invoke(ctx, method, raw)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	data, err = json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s.%s reply: %w", a.ref, method, err)
	}
	return data, nil
}

// forget drops a removed actor's activation once its outermost turn ends,
// so ids that never come back do not accumulate. A queued message keeps
// the activation and places a fresh instance.
func (s *System) forget(a *activation) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.depth > 1 {
		return
	}
	a.removed = false
	if len(a.queue) == 0 && s.active[a.ref] == a {
		delete(s.active, a.ref)
	}
}

func (s *System) addPending() {
	s.pendingMtx.Lock()
	defer s.pendingMtx.Unlock()
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *System) donePending() {
	s.pendingMtx.Lock()
	defer s.pendingMtx.Unlock()
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// Drain blocks until no invocation is queued or running, including tells
// sent by turns that finished while waiting.
func (s *System) Drain(ctx context.Context) error {
	for {
		s.pendingMtx.Lock()
		if s.pending == 0 {
			s.pendingMtx.Unlock()
			return nil
		}
		idle := s.idle
		s.pendingMtx.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown stops accepting messages, waits for in-flight turns and
// deactivates every placed actor.
func (s *System) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.swept

	s.mtx.Lock()
	s.closed = true
	s.mtx.Unlock()

	if err := s.Drain(ctx); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	for ref, a := range s.active {
		if a.inst != nil {
			if err := a.inst.deactivate(ctx); err != nil {
				level.Warn(s.logger).Log("msg", "deactivate failed", "actor", ref, "err", err)
			}
			a.inst = nil
		}
		delete(s.active, ref)
	}
	return nil
}

// Active returns the number of activations currently placed.
func (s *System) Active() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.active)
}

func (s *System) sweep() {
	defer close(s.swept)
	interval := s.idleTimeout / 2
	if interval <= 0 {
		interval = s.idleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.evictIdle(now)
		case <-s.stop:
			return
		}
	}
}

// evictIdle deactivates activations unused for the idle timeout. Each
// victim is deactivated inside an exclusive turn.
func (s *System) evictIdle(now time.Time) {
	var victims []*activation
	s.mtx.Lock()
	for ref, a := range s.active {
		a.mtx.Lock()
		if a.idleLocked() && now.Sub(a.lastUsed) >= s.idleTimeout {
			if a.inst == nil {
				delete(s.active, ref)
			} else {
				a.enqueueLocked(newChain())
				s.addPending()
				victims = append(victims, a)
			}
		}
		a.mtx.Unlock()
	}
	s.mtx.Unlock()

	for _, a := range victims {
		s.deactivate(a)
	}
}

func (s *System) deactivate(a *activation) {
	defer s.donePending()
	if err := a.inst.deactivate(context.Background()); err != nil {
		level.Warn(s.logger).Log("msg", "deactivate failed", "actor", a.ref, "err", err)
	}
	a.inst = nil

	s.mtx.Lock()
	a.mtx.Lock()
	if len(a.queue) == 0 && s.active[a.ref] == a {
		delete(s.active, a.ref)
	}
	a.mtx.Unlock()
	s.mtx.Unlock()
	a.release()
}
