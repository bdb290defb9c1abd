package projection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/events"
	"github.com/Qalifah/reefer/voyage"
)

func newTestServer(t *testing.T, pub events.Publisher) *httptest.Server {
	t.Helper()
	tracer := stdopentracing.NoopTracer{}
	svc := NewService(testVoyages(), pub)
	h := MakeHandler(NewSet(svc, log.NewNopLogger(), discard.NewHistogram(), tracer, nil), tracer, nil, log.NewNopLogger())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientRoundTrip(t *testing.T) {
	pub := &recorder{}
	srv := newTestServer(t, pub)
	client, err := NewHTTPClient(srv.URL, stdopentracing.NoopTracer{}, nil, log.NewNopLogger())
	require.NoError(t, err)
	ctx := context.Background()

	v, err := client.VoyageInfo(ctx, testVoyage)
	require.NoError(t, err)
	assert.Equal(t, testVoyage, v.ID)
	assert.Equal(t, 100, v.FreeCapacity)

	require.NoError(t, client.UpdateDeparted(ctx, actors.VoyageUpdate{VoyageID: testVoyage, Orders: 1}))
	require.NoError(t, client.UpdatePosition(ctx, actors.VoyageUpdate{VoyageID: testVoyage, DaysAtSea: 4, Orders: 1}))

	tr, err := client.Track(ctx, testVoyage)
	require.NoError(t, err)
	assert.Equal(t, voyage.Departed, tr.Status)
	assert.Equal(t, 4, tr.DaysAtSea)
	assert.Equal(t, []events.Kind{events.Departed, events.Position}, pub.kinds())
}

func TestHTTPClientErrors(t *testing.T) {
	srv := newTestServer(t, events.NewNopPublisher())
	client, err := NewHTTPClient(srv.URL, stdopentracing.NoopTracer{}, nil, log.NewNopLogger())
	require.NoError(t, err)

	_, err = client.VoyageInfo(context.Background(), "Nobody-2024-01-01")
	assert.Equal(t, actors.VoyageNotFound, actors.KindOf(err))

	_, err = client.Track(context.Background(), testVoyage)
	assert.Equal(t, actors.VoyageNotFound, actors.KindOf(err))
}

func TestUnknownUpdateKind(t *testing.T) {
	srv := newTestServer(t, events.NewNopPublisher())

	resp, err := http.Post(srv.URL+"/voyage/update/sunk", "application/json", strings.NewReader(`{"voyageId":"Abyssinian-2024-01-01"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMalformedUpdate(t *testing.T) {
	srv := newTestServer(t, events.NewNopPublisher())

	resp, err := http.Post(srv.URL+"/voyage/update/position", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
