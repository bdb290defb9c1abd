package actors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qalifah/reefer/actor"
	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/routing"
	"github.com/Qalifah/reefer/schedule"
	"github.com/Qalifah/reefer/voyage"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var testRoute = routing.Route{
	OriginPort:      location.Elizabeth.Port,
	DestinationPort: location.London.Port,
	DaysAtSea:       10,
	DaysAtPort:      4,
	Vessel:          routing.Vessel{Name: "Abyssinian", MaxCapacity: 100},
}

var v1 = voyage.NewID("Abyssinian", start)

// fakeProjection serves voyage metadata from its own copy of the schedule
// and records the updates it receives.
type fakeProjection struct {
	mtx     sync.Mutex
	sched   *schedule.Schedule
	updates map[string][]VoyageUpdate
}

func newFakeProjection(routes []routing.Route) *fakeProjection {
	return &fakeProjection{
		sched:   schedule.New(schedule.NewGenerator(routes).Generate(start)),
		updates: make(map[string][]VoyageUpdate),
	}
}

func (p *fakeProjection) VoyageInfo(_ context.Context, id voyage.ID) (voyage.Voyage, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	v, err := p.sched.Find(id)
	if err != nil {
		return voyage.Voyage{}, err
	}
	return *v, nil
}

func (p *fakeProjection) record(kind string, u VoyageUpdate) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.updates[kind] = append(p.updates[kind], u)
	return nil
}

func (p *fakeProjection) UpdatePosition(_ context.Context, u VoyageUpdate) error {
	return p.record("position", u)
}

func (p *fakeProjection) UpdateDeparted(_ context.Context, u VoyageUpdate) error {
	return p.record("departed", u)
}

func (p *fakeProjection) UpdateArrived(_ context.Context, u VoyageUpdate) error {
	return p.record("arrived", u)
}

func (p *fakeProjection) count(kind string) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.updates[kind])
}

type fixture struct {
	sys        *actor.System
	client     *Client
	projection *fakeProjection
}

func newFixture(t *testing.T, store actor.Store) *fixture {
	t.Helper()
	return newFixtureAt(t, store, start)
}

// newFixtureAt is newFixture with a configured clock origin of origin.
func newFixtureAt(t *testing.T, store actor.Store, origin time.Time) *fixture {
	t.Helper()
	proj := newFakeProjection([]routing.Route{testRoute})
	sys := actor.NewSystem(store, actor.WithCallTimeout(5*time.Second))
	require.NoError(t, Register(sys, Config{
		Routes:          []routing.Route{testRoute},
		Start:           origin,
		InventorySize:   1000,
		MaintenanceDays: 2,
		Projection:      proj,
	}))
	t.Cleanup(func() { sys.Shutdown(context.Background()) })
	return &fixture{sys: sys, client: NewClient(sys), projection: proj}
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.sys.Drain(ctx))
}

func (f *fixture) book(t *testing.T, qty int) ReserveReply {
	t.Helper()
	r, err := f.client.CreateOrder(context.Background(), *order.New("acme", "pharma", qty, v1))
	require.NoError(t, err)
	f.drain(t)
	return r
}

func (f *fixture) bookOn(t *testing.T, id voyage.ID, qty int) order.ID {
	t.Helper()
	r, err := f.client.CreateOrder(context.Background(), *order.New("acme", "pharma", qty, id))
	require.NoError(t, err)
	f.drain(t)
	return r.Order.ID
}

func (f *fixture) advance(t *testing.T, to time.Time) {
	t.Helper()
	ctx := context.Background()
	today, err := f.client.CurrentDate(ctx)
	require.NoError(t, err)
	for d := voyage.AddDays(today, 1); !d.After(to); d = voyage.AddDays(d, 1) {
		_, err := f.client.NewDay(ctx, d)
		require.NoError(t, err)
		f.drain(t)
	}
}

func (f *fixture) reeferStats(t *testing.T) reefer.Stats {
	t.Helper()
	s, err := f.client.ReeferStats(context.Background())
	require.NoError(t, err)
	return s
}

func (f *fixture) orderStats(t *testing.T) OrderStats {
	t.Helper()
	s, err := f.client.OrderStats(context.Background())
	require.NoError(t, err)
	return s
}

func failureKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var f *Failure
	require.True(t, errors.As(err, &f), "expected a failed reply, got %v", err)
	return f.Kind
}

func day(n int) time.Time { return voyage.AddDays(start, n-1) }

// v2 is the return leg of v1.
var v2 = voyage.NewID("Abyssinian", voyage.AddDays(start, 14))

func TestBasicBooking(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()

	r := f.book(t, 5000)
	require.NotNil(t, r.Order)
	assert.Equal(t, order.Booked, r.Order.Status)
	assert.Equal(t, 95, r.FreeCapacity)
	assert.Equal(t, 5, r.ReeferCount)

	o, err := f.client.Order(ctx, r.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Booked, o.Status)
	assert.Equal(t, v1, o.VoyageID)

	vs, err := f.client.VoyageState(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 95, vs.Voyage.FreeCapacity)
	assert.Equal(t, voyage.Pending, vs.Voyage.Status)
	assert.Equal(t, []order.ID{o.ID}, vs.Orders)

	stats := f.reeferStats(t)
	assert.Equal(t, 995, stats.Unallocated)
	assert.Equal(t, 5, stats.Allocated)

	reefers, err := f.client.OrderReefers(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{0, 1, 2, 3, 4}, reefers)

	sv, err := f.client.Voyage(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 95, sv.FreeCapacity)
	assert.Equal(t, 1, sv.OrderCount)

	assert.Equal(t, OrderStats{BookedOrders: 1}, f.orderStats(t))
}

func TestCapacityRejection(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	f.book(t, 5000)

	o := order.New("acme", "pharma", 100000, v1)
	_, err := f.client.CreateOrder(ctx, *o)
	assert.Equal(t, CapacityExceeded, failureKind(t, err))
	f.drain(t)

	vs, err := f.client.VoyageState(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 95, vs.Voyage.FreeCapacity)
	assert.Len(t, vs.Orders, 1)

	_, err = f.client.Order(ctx, o.ID)
	assert.Equal(t, OrderNotFound, failureKind(t, err))
	assert.Equal(t, 995, f.reeferStats(t).Unallocated)
	assert.Equal(t, OrderStats{BookedOrders: 1}, f.orderStats(t))
}

func TestInvalidOrders(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()

	_, err := f.client.CreateOrder(ctx, order.Order{ProductQty: 10})
	assert.Equal(t, VoyageIDMissing, failureKind(t, err))

	_, err = f.client.CreateOrder(ctx, order.Order{VoyageID: v1})
	assert.Equal(t, InvalidOrder, failureKind(t, err))

	_, err = f.client.CreateOrder(ctx, order.Order{VoyageID: "Nowhere-2024-01-01", ProductQty: 10})
	assert.Equal(t, VoyageNotFound, failureKind(t, err))

	f.drain(t)
	assert.Equal(t, 1000, f.reeferStats(t).Unallocated)
}

func TestInsufficientInventory(t *testing.T) {
	proj := newFakeProjection([]routing.Route{testRoute})
	sys := actor.NewSystem(actor.NewMemoryStore())
	require.NoError(t, Register(sys, Config{Routes: []routing.Route{testRoute}, Start: start, InventorySize: 3, Projection: proj}))
	defer sys.Shutdown(context.Background())
	client := NewClient(sys)

	_, err := client.CreateOrder(context.Background(), *order.New("acme", "pharma", 5000, v1))
	assert.Equal(t, InsufficientInventory, failureKind(t, err))

	vs, err := client.VoyageState(context.Background(), v1)
	require.NoError(t, err)
	assert.Equal(t, 100, vs.Voyage.FreeCapacity)
}

func TestDepartArriveCycle(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	r := f.book(t, 5000)
	id := r.Order.ID

	f.advance(t, day(2))

	vs, err := f.client.VoyageState(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, voyage.Departed, vs.Voyage.Status)
	assert.Equal(t, 1, vs.Voyage.Position)

	o, err := f.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.InTransit, o.Status)
	assert.Equal(t, 5, f.reeferStats(t).InTransit)
	assert.Equal(t, OrderStats{InTransitOrders: 1}, f.orderStats(t))
	assert.Equal(t, 1, f.projection.count("departed"))

	active, err := f.client.ActiveSchedule(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, v1, active[0].ID)
	assert.Equal(t, voyage.Departed, active[0].Status)

	_, err = f.client.CreateOrder(ctx, *order.New("acme", "pharma", 1000, v1))
	assert.Equal(t, VoyageDeparted, failureKind(t, err))

	f.advance(t, day(11))

	stats := f.reeferStats(t)
	assert.Equal(t, 1000, stats.Unallocated)
	assert.Equal(t, OrderStats{}, f.orderStats(t))
	assert.Equal(t, 1, f.projection.count("arrived"))
	assert.Equal(t, 8, f.projection.count("position"))

	// Both actors reclaimed their state.
	for _, ref := range []actor.Ref{actor.NewRef(VoyageType, string(v1)), actor.NewRef(OrderType, string(id))} {
		fields, err := f.sys.Store().Load(ctx, ref)
		require.NoError(t, err)
		assert.Empty(t, fields, ref.String())
	}

	_, err = f.client.Voyage(ctx, v1)
	assert.Equal(t, VoyageNotFound, failureKind(t, err))
	active, err = f.client.ActiveSchedule(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAnomalyBeforeDeparture(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	id := f.book(t, 5000).Order.ID

	require.NoError(t, f.client.OrderAnomaly(ctx, id, 2))
	f.drain(t)

	o, err := f.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.Booked, o.Status)
	assert.False(t, o.Spoilt)

	reefers, err := f.client.OrderReefers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{0, 1, 5, 3, 4}, reefers)

	stats := f.reeferStats(t)
	assert.Equal(t, 1, stats.OnMaintenance)
	assert.Equal(t, 5, stats.Allocated)
	assert.Equal(t, 994, stats.Unallocated)

	// A replayed anomaly hands back the same replacement.
	require.NoError(t, f.client.OrderAnomaly(ctx, id, 2))
	reefers, err = f.client.OrderReefers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{0, 1, 5, 3, 4}, reefers)
	assert.Equal(t, stats, f.reeferStats(t))
}

func TestReeferAnomalyRoutesToOrder(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	id := f.book(t, 2000).Order.ID

	require.NoError(t, f.client.ReeferAnomaly(ctx, 1))
	f.drain(t)
	reefers, err := f.client.OrderReefers(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{0, 2}, reefers)

	// An idle reefer goes to maintenance and comes back after two days.
	require.NoError(t, f.client.ReeferAnomaly(ctx, 500))
	f.drain(t)
	assert.Equal(t, 2, f.reeferStats(t).OnMaintenance)

	f.advance(t, day(3))
	assert.Equal(t, 0, f.reeferStats(t).OnMaintenance)

	err = f.client.ReeferAnomaly(ctx, 5000)
	assert.Equal(t, ReeferNotFound, failureKind(t, err))
}

func TestAnomalyInTransit(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	id := f.book(t, 5000).Order.ID
	f.advance(t, day(2))

	require.NoError(t, f.client.OrderAnomaly(ctx, id, 3))
	f.drain(t)

	o, err := f.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.Spoilt, o.Status)
	assert.True(t, o.Spoilt)

	stats := f.reeferStats(t)
	assert.Equal(t, 1, stats.Spoilt)
	assert.Equal(t, 4, stats.InTransit)
	assert.Equal(t, OrderStats{SpoiltOrders: 1}, f.orderStats(t))

	// Replays leave the order and the pool unchanged.
	require.NoError(t, f.client.OrderAnomaly(ctx, id, 3))
	f.drain(t)
	assert.Equal(t, stats, f.reeferStats(t))

	f.advance(t, day(11))
	stats = f.reeferStats(t)
	assert.Equal(t, 1, stats.OnMaintenance)
	assert.Equal(t, 999, stats.Unallocated)
	assert.Equal(t, OrderStats{}, f.orderStats(t))
}

func TestIdempotentReserve(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	o := order.New("acme", "pharma", 5000, v1)

	ref := actor.NewRef(VoyageType, string(v1))
	var r1, r2 ReserveReply
	require.NoError(t, f.sys.Call(ctx, ref, "reserve", o, &r1))
	require.NoError(t, f.sys.Call(ctx, ref, "reserve", o, &r2))
	f.drain(t)

	assert.True(t, r1.OK())
	assert.Equal(t, r1, r2)
	assert.Equal(t, 95, r2.FreeCapacity)
	assert.Equal(t, 995, f.reeferStats(t).Unallocated)
}

func TestIdempotentCreateOrder(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	o := order.New("acme", "pharma", 5000, v1)

	_, err := f.client.CreateOrder(ctx, *o)
	require.NoError(t, err)
	r, err := f.client.CreateOrder(ctx, *o)
	require.NoError(t, err)
	f.drain(t)

	assert.Equal(t, order.Booked, r.Order.Status)
	assert.Equal(t, 995, f.reeferStats(t).Unallocated)
	assert.Equal(t, OrderStats{BookedOrders: 1}, f.orderStats(t))

	vs, err := f.client.VoyageState(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 95, vs.Voyage.FreeCapacity)
}

func TestNewDay(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	f.book(t, 5000)

	r, err := f.client.NextDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2), r.Date)
	assert.Equal(t, 1, r.Active)
	f.drain(t)
	before := f.reeferStats(t)

	// Replaying the same date changes nothing.
	_, err = f.client.NewDay(ctx, day(2))
	require.NoError(t, err)
	f.drain(t)
	assert.Equal(t, before, f.reeferStats(t))
	assert.Equal(t, 1, f.projection.count("departed"))

	_, err = f.client.NewDay(ctx, start)
	assert.Equal(t, InvalidDate, failureKind(t, err))

	today, err := f.client.CurrentDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2), today)
}

func TestScheduleQueries(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()

	vs, err := f.client.MatchingSchedule(ctx, MatchingQuery{Origin: testRoute.OriginPort, Destination: testRoute.DestinationPort})
	require.NoError(t, err)
	require.NotEmpty(t, vs)
	assert.Equal(t, v1, vs[0].ID)
	for _, v := range vs {
		assert.Equal(t, testRoute.OriginPort, v.Origin())
	}

	// One round trip every 28 days.
	vs, err = f.client.VoyagesInRange(ctx, RangeQuery{Start: start, End: voyage.AddDays(start, 27)})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, voyage.NewID("Abyssinian", voyage.AddDays(start, 14)), vs[1].ID)
	assert.Equal(t, testRoute.DestinationPort, vs[1].Origin())

	_, err = f.client.VoyagesInRange(ctx, RangeQuery{Start: day(5), End: day(1)})
	assert.Equal(t, InvalidDate, failureKind(t, err))
}

func TestStateSurvivesRestart(t *testing.T) {
	store := actor.NewMemoryStore()
	f := newFixture(t, store)
	ctx := context.Background()
	id := f.book(t, 5000).Order.ID
	_, err := f.client.NextDay(ctx)
	require.NoError(t, err)
	f.drain(t)
	require.NoError(t, f.sys.Shutdown(ctx))

	g := newFixture(t, store)
	today, err := g.client.CurrentDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2), today)

	o, err := g.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.InTransit, o.Status)

	v, err := g.client.Voyage(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 95, v.FreeCapacity)
	assert.Equal(t, voyage.Departed, v.Status)

	assert.Equal(t, 5, g.reeferStats(t).InTransit)
	assert.Equal(t, OrderStats{InTransitOrders: 1}, g.orderStats(t))

	g.advance(t, day(11))
	assert.Equal(t, 1000, g.reeferStats(t).Unallocated)
}

func TestAnomalyAfterLostDeparture(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	id := f.book(t, 3000).Order.ID

	// The reefers sailed but the order never heard about it.
	var r Reply
	require.NoError(t, f.sys.Call(ctx, provisionerRef, "voyageReefersDeparted", VoyageReefersArgs{VoyageID: v1}, &r))
	require.True(t, r.OK())

	require.NoError(t, f.client.OrderAnomaly(ctx, id, 0))
	f.drain(t)

	o, err := f.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.Spoilt, o.Status)
	assert.True(t, o.Spoilt)
	assert.Equal(t, 1, f.reeferStats(t).Spoilt)
	assert.Equal(t, OrderStats{SpoiltOrders: 1}, f.orderStats(t))
}

func TestReplacementChecksOwner(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	f.book(t, 1000)

	var r ReplacementReply
	require.NoError(t, f.sys.Call(ctx, provisionerRef, "reeferReplacement", ReeferArgs{ReeferID: 0, OrderID: "someone-else"}, &r))
	assert.Equal(t, ReeferNotFound, r.Error)

	require.NoError(t, f.sys.Call(ctx, provisionerRef, "reeferReplacement", ReeferArgs{ReeferID: 7}, &r))
	assert.Equal(t, ReeferNotFound, r.Error)
}

func TestSpoilChecksOwner(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	o1 := f.bookOn(t, v1, 5000)
	o2 := f.bookOn(t, v2, 2000)
	f.advance(t, day(2))

	// Reefer 5 belongs to o2, which is still in port.
	err := f.client.OrderAnomaly(ctx, o1, 5)
	assert.Equal(t, ReeferNotFound, failureKind(t, err))
	f.drain(t)

	o, err := f.client.Order(ctx, o1)
	require.NoError(t, err)
	assert.Equal(t, order.InTransit, o.Status)
	assert.False(t, o.Spoilt)

	o, err = f.client.Order(ctx, o2)
	require.NoError(t, err)
	assert.Equal(t, order.Booked, o.Status)
	reefers, err := f.client.OrderReefers(ctx, o2)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{5, 6}, reefers)

	stats := f.reeferStats(t)
	assert.Equal(t, 2, stats.Allocated)
	assert.Equal(t, 5, stats.InTransit)
	assert.Equal(t, 0, stats.Spoilt)
	assert.Equal(t, OrderStats{BookedOrders: 1, InTransitOrders: 1}, f.orderStats(t))

	var r Reply
	require.NoError(t, f.sys.Call(ctx, provisionerRef, "reeferSpoilt", ReeferArgs{ReeferID: 1, OrderID: o2}, &r))
	assert.Equal(t, ReeferNotFound, r.Error)
	assert.Equal(t, 0, f.reeferStats(t).Spoilt)
}

func TestReplacedReeferChecksOwner(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	o1 := f.bookOn(t, v1, 5000)
	o2 := f.bookOn(t, v2, 2000)

	require.NoError(t, f.client.OrderAnomaly(ctx, o1, 2))
	f.drain(t)
	replaced, err := f.client.OrderReefers(ctx, o1)
	require.NoError(t, err)
	require.NotContains(t, replaced, reefer.ID(2))
	before := f.reeferStats(t)

	// Reefer 2 now sits in maintenance; only o1 may replay its replacement.
	err = f.client.OrderAnomaly(ctx, o2, 2)
	assert.Equal(t, ReeferNotFound, failureKind(t, err))

	var r ReplacementReply
	require.NoError(t, f.sys.Call(ctx, provisionerRef, "reeferReplacement", ReeferArgs{ReeferID: 2, OrderID: o2}, &r))
	assert.Equal(t, ReeferNotFound, r.Error)
	assert.Zero(t, r.ReplacementReeferID)

	require.NoError(t, f.client.OrderAnomaly(ctx, o1, 2))
	f.drain(t)
	reefers, err := f.client.OrderReefers(ctx, o1)
	require.NoError(t, err)
	assert.Equal(t, replaced, reefers)
	reefers, err = f.client.OrderReefers(ctx, o2)
	require.NoError(t, err)
	assert.Equal(t, []reefer.ID{5, 6}, reefers)
	assert.Equal(t, before, f.reeferStats(t))
}

func TestRestartKeepsClockOrigin(t *testing.T) {
	store := actor.NewMemoryStore()
	f := newFixture(t, store)
	ctx := context.Background()
	id := f.book(t, 5000).Order.ID
	_, err := f.client.NextDay(ctx)
	require.NoError(t, err)
	f.drain(t)
	require.NoError(t, f.sys.Shutdown(ctx))

	g := newFixtureAt(t, store, day(3))
	today, err := g.client.CurrentDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2), today)

	v, err := g.client.Voyage(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, voyage.Departed, v.Status)

	g.advance(t, day(12))
	_, err = g.client.Order(ctx, id)
	assert.Equal(t, OrderNotFound, failureKind(t, err))
	assert.Equal(t, 1000, g.reeferStats(t).Unallocated)
	assert.Equal(t, OrderStats{}, g.orderStats(t))
}

func TestRestartKeepsMaintenanceClock(t *testing.T) {
	store := actor.NewMemoryStore()
	f := newFixture(t, store)
	ctx := context.Background()
	f.book(t, 1000)
	require.NoError(t, f.sys.Shutdown(ctx))

	g := newFixtureAt(t, store, day(3))
	today, err := g.client.CurrentDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, start, today)

	v, err := g.client.Voyage(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, voyage.Pending, v.Status)

	// The reefer enters maintenance on the persisted day, not the configured one.
	require.NoError(t, g.client.ReeferAnomaly(ctx, 500))
	g.drain(t)
	assert.Equal(t, 1, g.reeferStats(t).OnMaintenance)
	g.advance(t, day(3))
	assert.Equal(t, 0, g.reeferStats(t).OnMaintenance)
}

func TestOrderNotificationReplays(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()
	id := f.book(t, 5000).Order.ID
	f.advance(t, day(2))
	ref := actor.NewRef(OrderType, string(id))

	for i := 0; i < 2; i++ {
		var r Reply
		require.NoError(t, f.sys.Call(ctx, ref, "departed", struct{}{}, &r))
		assert.True(t, r.OK())
	}
	f.drain(t)
	o, err := f.client.Order(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, order.InTransit, o.Status)
	assert.Equal(t, OrderStats{InTransitOrders: 1}, f.orderStats(t))

	for i := 0; i < 2; i++ {
		var r Reply
		require.NoError(t, f.sys.Call(ctx, ref, "delivered", struct{}{}, &r))
		assert.True(t, r.OK())
		f.drain(t)

		fields, err := f.sys.Store().Load(ctx, ref)
		require.NoError(t, err)
		assert.Empty(t, fields)
		assert.Equal(t, OrderStats{}, f.orderStats(t))
	}

	// A late departure for a delivered order does not bring it back.
	var r Reply
	require.NoError(t, f.sys.Call(ctx, ref, "departed", struct{}{}, &r))
	assert.True(t, r.OK())
	f.drain(t)
	_, err = f.client.Order(ctx, id)
	assert.Equal(t, OrderNotFound, failureKind(t, err))
	assert.Equal(t, OrderStats{}, f.orderStats(t))
}

func TestConcurrentBookingsShareCapacity(t *testing.T) {
	f := newFixture(t, actor.NewMemoryStore())
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mtx    sync.Mutex
		booked []order.ID
		kinds  []ErrorKind
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.client.CreateOrder(ctx, *order.New("acme", "pharma", 5000, v1))
			mtx.Lock()
			defer mtx.Unlock()
			if err != nil {
				kinds = append(kinds, KindOf(err))
				return
			}
			booked = append(booked, r.Order.ID)
		}()
	}
	wg.Wait()
	f.drain(t)

	require.Len(t, booked, 20)
	require.Len(t, kinds, 10)
	for _, k := range kinds {
		assert.Equal(t, CapacityExceeded, k)
	}

	seen := make(map[reefer.ID]order.ID)
	needed := 0
	for _, id := range booked {
		reefers, err := f.client.OrderReefers(ctx, id)
		require.NoError(t, err)
		assert.Len(t, reefers, 5)
		needed += len(reefers)
		for _, rid := range reefers {
			other, dup := seen[rid]
			assert.False(t, dup, "reefer %d held by %s and %s", rid, other, id)
			seen[rid] = id
		}
	}

	vs, err := f.client.VoyageState(ctx, v1)
	require.NoError(t, err)
	assert.Equal(t, 100, vs.Voyage.FreeCapacity+needed)
	assert.Len(t, vs.Orders, 20)
	assert.Equal(t, needed, f.reeferStats(t).Allocated)
	assert.Equal(t, OrderStats{BookedOrders: 20}, f.orderStats(t))
}
