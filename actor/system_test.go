package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	self        *Self
	activations *int32
	deactivated *int32
	running     int32
	maxRunning  int32
	seen        []int
	release     chan struct{}
}

type addArgs struct {
	N int `json:"n"`
}

func counterType(activations, deactivated *int32, release chan struct{}) Type[counter] {
	return Type[counter]{
		Name: "counter",
		New: func(self *Self) *counter {
			return &counter{self: self, activations: activations, deactivated: deactivated, release: release}
		},
		Activate: func(c *counter, ctx context.Context) error {
			atomic.AddInt32(c.activations, 1)
			return nil
		},
		Deactivate: func(c *counter, ctx context.Context) error {
			atomic.AddInt32(c.deactivated, 1)
			return nil
		},
		Methods: map[string]Method[counter]{
			"add": Handle(func(c *counter, ctx context.Context, args addArgs) (int, error) {
				n := atomic.AddInt32(&c.running, 1)
				defer atomic.AddInt32(&c.running, -1)
				if n > atomic.LoadInt32(&c.maxRunning) {
					atomic.StoreInt32(&c.maxRunning, n)
				}
				time.Sleep(time.Millisecond)
				var total int
				if _, err := c.self.State().Get(ctx, "total", &total); err != nil {
					return 0, err
				}
				total += args.N
				c.seen = append(c.seen, args.N)
				return total, c.self.State().Set(ctx, "total", total)
			}),
			"seen": Handle(func(c *counter, ctx context.Context, _ struct{}) ([]int, error) {
				return c.seen, nil
			}),
			"max": Handle(func(c *counter, ctx context.Context, _ struct{}) (int32, error) {
				return atomic.LoadInt32(&c.maxRunning), nil
			}),
			"block": Handle(func(c *counter, ctx context.Context, _ struct{}) (bool, error) {
				<-c.release
				return true, nil
			}),
			"fail": Handle(func(c *counter, ctx context.Context, _ struct{}) (bool, error) {
				return false, errors.New("boom")
			}),
			"panic": Handle(func(c *counter, ctx context.Context, _ struct{}) (bool, error) {
				panic("kaboom")
			}),
			"remove": Handle(func(c *counter, ctx context.Context, _ struct{}) (bool, error) {
				return true, c.self.Remove(ctx)
			}),
		},
	}
}

func newCounterSystem(t *testing.T, opts ...Option) (*System, *int32, *int32, chan struct{}) {
	var activations, deactivated int32
	release := make(chan struct{})
	sys := NewSystem(NewMemoryStore(), opts...)
	require.NoError(t, Register(sys, counterType(&activations, &deactivated, release)))
	return sys, &activations, &deactivated, release
}

func TestCallSerializesTurns(t *testing.T) {
	sys, activations, _, _ := newCounterSystem(t)
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 1}, nil))
		}()
	}
	wg.Wait()

	var total int
	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 0}, &total))
	assert.Equal(t, 20, total)

	var peak int32
	require.NoError(t, sys.Call(ctx, ref, "max", nil, &peak))
	assert.Equal(t, int32(1), peak)
	assert.Equal(t, int32(1), atomic.LoadInt32(activations))
}

func TestTellKeepsSendOrder(t *testing.T) {
	sys, _, _, _ := newCounterSystem(t)
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	for i := 1; i <= 10; i++ {
		require.NoError(t, sys.Tell(ctx, ref, "add", addArgs{N: i}))
	}
	require.NoError(t, sys.Drain(ctx))

	var seen []int
	require.NoError(t, sys.Call(ctx, ref, "seen", nil, &seen))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
}

func TestInvalidCall(t *testing.T) {
	sys, _, _, _ := newCounterSystem(t)
	ctx := context.Background()

	err := sys.Call(ctx, sys.Ref("nope", "x"), "add", nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidCall))

	err = sys.Call(ctx, sys.Ref("counter", "x"), "nope", nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidCall))

	err = sys.Call(ctx, sys.Ref("counter", "x"), "add", "not an object", nil)
	assert.True(t, errors.Is(err, ErrInvalidCall))
}

func TestHandlerErrorsAndPanics(t *testing.T) {
	sys, _, _, _ := newCounterSystem(t)
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	assert.EqualError(t, sys.Call(ctx, ref, "fail", nil, nil), "boom")

	err := sys.Call(ctx, ref, "panic", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	var total int
	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 2}, &total))
	assert.Equal(t, 2, total)
}

func TestCallTimeoutDoesNotCancelTurn(t *testing.T) {
	sys, _, _, release := newCounterSystem(t, WithCallTimeout(20*time.Millisecond))
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	err := sys.Call(ctx, ref, "block", nil, nil)
	assert.True(t, errors.Is(err, ErrTimeout))

	require.NoError(t, sys.Tell(ctx, ref, "add", addArgs{N: 5}))
	close(release)
	require.NoError(t, sys.Drain(ctx))

	var total int
	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 0}, &total))
	assert.Equal(t, 5, total)
}

func TestCallHonoursContext(t *testing.T) {
	sys, _, _, release := newCounterSystem(t)
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := sys.Call(ctx, sys.Ref("counter", "c1"), "block", nil, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRemovePurgesState(t *testing.T) {
	sys, activations, _, _ := newCounterSystem(t)
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 3}, nil))
	require.NoError(t, sys.Call(ctx, ref, "remove", nil, nil))

	fields, err := sys.Store().Load(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, fields)

	var total int
	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 1}, &total))
	assert.Equal(t, 1, total)
	assert.Equal(t, int32(2), atomic.LoadInt32(activations))
}

func TestRemoveDropsActivation(t *testing.T) {
	sys, _, deactivated, _ := newCounterSystem(t)
	ctx := context.Background()

	for _, id := range []string{"o1", "o2", "o3"} {
		ref := sys.Ref("counter", id)
		require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 1}, nil))
		require.NoError(t, sys.Call(ctx, ref, "remove", nil, nil))
	}
	require.NoError(t, sys.Call(ctx, sys.Ref("counter", "kept"), "add", addArgs{N: 1}, nil))
	require.NoError(t, sys.Drain(ctx))
	assert.Equal(t, 1, sys.Active())

	require.NoError(t, sys.Call(ctx, sys.Ref("counter", "o1"), "remove", nil, nil))
	assert.Equal(t, 1, sys.Active())

	require.NoError(t, sys.Shutdown(ctx))
	assert.Equal(t, int32(1), atomic.LoadInt32(deactivated))
}

func TestIdleEvictionDeactivates(t *testing.T) {
	sys, activations, deactivated, _ := newCounterSystem(t, WithIdleTimeout(10*time.Millisecond))
	ctx := context.Background()
	ref := sys.Ref("counter", "c1")

	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 4}, nil))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(deactivated) == 1 && sys.Active() == 0
	}, time.Second, 5*time.Millisecond)

	var total int
	require.NoError(t, sys.Call(ctx, ref, "add", addArgs{N: 1}, &total))
	assert.Equal(t, 5, total)
	assert.Equal(t, int32(2), atomic.LoadInt32(activations))
	require.NoError(t, sys.Shutdown(ctx))
}

func TestShutdownDeactivatesAndRejects(t *testing.T) {
	sys, _, deactivated, _ := newCounterSystem(t)
	ctx := context.Background()

	require.NoError(t, sys.Call(ctx, sys.Ref("counter", "a"), "add", addArgs{N: 1}, nil))
	require.NoError(t, sys.Call(ctx, sys.Ref("counter", "b"), "add", addArgs{N: 1}, nil))
	require.NoError(t, sys.Shutdown(ctx))

	assert.Equal(t, int32(2), atomic.LoadInt32(deactivated))
	assert.Equal(t, 0, sys.Active())
	assert.True(t, errors.Is(sys.Tell(ctx, sys.Ref("counter", "a"), "add", addArgs{N: 1}), ErrShutdown))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	sys, _, _, _ := newCounterSystem(t)
	var n int32
	assert.Error(t, Register(sys, counterType(&n, &n, nil)))
	assert.Error(t, Register(sys, Type[counter]{Name: "other"}))
}

type pinger struct{ self *Self }

type hop struct {
	Back Ref `json:"back"`
}

func pingerType(name string) Type[pinger] {
	return Type[pinger]{
		Name: name,
		New:  func(self *Self) *pinger { return &pinger{self: self} },
		Methods: map[string]Method[pinger]{
			"ping": Handle(func(p *pinger, ctx context.Context, args hop) (string, error) {
				var reply string
				err := p.self.Call(ctx, args.Back, "pong", hop{Back: p.self.Ref()}, &reply)
				return "ping>" + reply, err
			}),
			"pong": Handle(func(p *pinger, ctx context.Context, args hop) (string, error) {
				var reply string
				err := p.self.Call(ctx, args.Back, "echo", nil, &reply)
				return "pong>" + reply, err
			}),
			"echo": Handle(func(p *pinger, ctx context.Context, _ struct{}) (string, error) {
				return "echo:" + p.self.ID(), nil
			}),
		},
	}
}

func TestReentrantCallInSameChain(t *testing.T) {
	sys := NewSystem(NewMemoryStore(), WithCallTimeout(time.Second))
	require.NoError(t, Register(sys, pingerType("left")))
	require.NoError(t, Register(sys, pingerType("right")))
	ctx := context.Background()

	var reply string
	err := sys.Call(ctx, sys.Ref("left", "l1"), "ping", hop{Back: sys.Ref("right", "r1")}, &reply)
	require.NoError(t, err)
	assert.Equal(t, "ping>pong>echo:l1", reply)
}
