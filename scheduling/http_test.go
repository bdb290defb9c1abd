package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

func newTestServer(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()
	tracer := stdopentracing.NoopTracer{}
	set := NewSet(f.svc, log.NewNopLogger(), discard.NewHistogram(), tracer, nil)
	srv := httptest.NewServer(MakeHandler(set, tracer, nil, log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHTTPClock(t *testing.T) {
	f := newFixture(t)
	srv := newTestServer(t, f)

	resp, err := http.Get(srv.URL + "/time/currentDate")
	require.NoError(t, err)
	var current currentDateResponse
	decode(t, resp, &current)
	assert.Equal(t, "2024-01-01", current.Date)

	resp, err = http.Post(srv.URL+"/time/nextDay", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var next dayResponse
	decode(t, resp, &next)
	require.NotNil(t, next.Day)
	assert.Equal(t, voyage.AddDays(start, 1), next.Day.Date)
	f.drain(t)

	resp, err = http.Post(srv.URL+"/time/newDay", "application/json", strings.NewReader(`{"date":"2024-01-01"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body middleware.ErrorBody
	decode(t, resp, &body)
	assert.Equal(t, actors.InvalidDate, body.Kind)

	resp, err = http.Post(srv.URL+"/time/newDay", "application/json", strings.NewReader(`{"date":"soon"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestHTTPVoyages(t *testing.T) {
	f := newFixture(t)
	srv := newTestServer(t, f)

	q := url.Values{}
	q.Set("origin", string(testRoute.OriginPort))
	q.Set("destination", string(testRoute.DestinationPort))
	q.Set("date", "2024-01-01")
	resp, err := http.Get(srv.URL + "/voyage/matching?" + q.Encode())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var matching voyagesResponse
	decode(t, resp, &matching)
	require.NotEmpty(t, matching.Voyages)
	assert.Equal(t, testVoyage, matching.Voyages[0].ID)

	resp, err = http.Post(srv.URL+"/voyage/inrange", "application/json", strings.NewReader(`{"startDate":"2024-01-01","endDate":"2024-01-28"}`))
	require.NoError(t, err)
	var inRange voyagesResponse
	decode(t, resp, &inRange)
	assert.Len(t, inRange.Voyages, 2)

	resp, err = http.Get(srv.URL + "/voyage/active")
	require.NoError(t, err)
	var active voyagesResponse
	decode(t, resp, &active)
	assert.NotNil(t, active.Voyages)
	assert.Empty(t, active.Voyages)

	resp, err = http.Get(srv.URL + "/voyage/" + string(testVoyage))
	require.NoError(t, err)
	var loaded loadVoyageResponse
	decode(t, resp, &loaded)
	require.NotNil(t, loaded.Voyage)
	assert.Equal(t, testVoyage, loaded.Voyage.ID)

	resp, err = http.Get(srv.URL + "/voyage/" + string(testVoyage) + "/state")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var state voyageStateResponse
	decode(t, resp, &state)
	require.NotNil(t, state.State)
	assert.Empty(t, state.State.Orders)

	resp, err = http.Get(srv.URL + "/voyage/Nowhere-2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
