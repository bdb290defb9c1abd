package scheduling

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

type newDayRequest struct {
	Date time.Time
}

type nextDayRequest struct{}

type dayResponse struct {
	Day *Day  `json:"day,omitempty"`
	Err error `json:"error,omitempty"`
}

func (r dayResponse) error() error { return r.Err }

func makeNewDayEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(newDayRequest)
		d, err := s.NewDay(ctx, req.Date)
		if err != nil {
			return dayResponse{Err: err}, nil
		}
		return dayResponse{Day: &d}, nil
	}
}

func makeNextDayEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(nextDayRequest)
		d, err := s.NextDay(ctx)
		if err != nil {
			return dayResponse{Err: err}, nil
		}
		return dayResponse{Day: &d}, nil
	}
}

type currentDateRequest struct{}

type currentDateResponse struct {
	Date string `json:"date,omitempty"`
	Err  error  `json:"error,omitempty"`
}

func (r currentDateResponse) error() error { return r.Err }

func makeCurrentDateEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(currentDateRequest)
		d, err := s.CurrentDate(ctx)
		if err != nil {
			return currentDateResponse{Err: err}, nil
		}
		return currentDateResponse{Date: d.Format(voyage.DateLayout)}, nil
	}
}

type activeVoyagesRequest struct{}

type matchingVoyagesRequest struct {
	Origin      location.Port
	Destination location.Port
	From        time.Time
}

type voyagesInRangeRequest struct {
	Start time.Time
	End   time.Time
}

type voyagesResponse struct {
	Voyages []*voyage.Voyage `json:"voyages"`
	Err     error            `json:"error,omitempty"`
}

func (r voyagesResponse) error() error { return r.Err }

func makeActiveVoyagesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(activeVoyagesRequest)
		vs, err := s.ActiveVoyages(ctx)
		return voyagesResponse{Voyages: nonNil(vs), Err: err}, nil
	}
}

func makeMatchingVoyagesEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(matchingVoyagesRequest)
		vs, err := s.MatchingVoyages(ctx, req.Origin, req.Destination, req.From)
		return voyagesResponse{Voyages: nonNil(vs), Err: err}, nil
	}
}

func makeVoyagesInRangeEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(voyagesInRangeRequest)
		vs, err := s.VoyagesInRange(ctx, req.Start, req.End)
		return voyagesResponse{Voyages: nonNil(vs), Err: err}, nil
	}
}

func nonNil(vs []*voyage.Voyage) []*voyage.Voyage {
	if vs == nil {
		return []*voyage.Voyage{}
	}
	return vs
}

type loadVoyageRequest struct {
	ID voyage.ID
}

type loadVoyageResponse struct {
	Voyage *voyage.Voyage `json:"voyage,omitempty"`
	Err    error          `json:"error,omitempty"`
}

func (r loadVoyageResponse) error() error { return r.Err }

func makeLoadVoyageEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadVoyageRequest)
		v, err := s.LoadVoyage(ctx, req.ID)
		if err != nil {
			return loadVoyageResponse{Err: err}, nil
		}
		return loadVoyageResponse{Voyage: &v}, nil
	}
}

type voyageStateRequest struct {
	ID voyage.ID
}

type voyageStateResponse struct {
	State *VoyageState `json:"state,omitempty"`
	Err   error        `json:"error,omitempty"`
}

func (r voyageStateResponse) error() error { return r.Err }

func makeVoyageStateEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(voyageStateRequest)
		st, err := s.VoyageState(ctx, req.ID)
		if err != nil {
			return voyageStateResponse{Err: err}, nil
		}
		return voyageStateResponse{State: &st}, nil
	}
}

// Set collects all of the endpoints that compose the scheduling service.
type Set struct {
	NewDayEndpoint          endpoint.Endpoint
	NextDayEndpoint         endpoint.Endpoint
	CurrentDateEndpoint     endpoint.Endpoint
	ActiveVoyagesEndpoint   endpoint.Endpoint
	MatchingVoyagesEndpoint endpoint.Endpoint
	VoyagesInRangeEndpoint  endpoint.Endpoint
	LoadVoyageEndpoint      endpoint.Endpoint
	VoyageStateEndpoint     endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters. NewDay and
// NextDay share one breaker.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	clock := circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "Clock"}))
	middlewares := func(name string, breaker endpoint.Middleware) []endpoint.Middleware {
		if breaker == nil {
			breaker = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: name}))
		}
		mws := []endpoint.Middleware{
			middleware.InstrumentingMiddleware(duration.With("method", name)),
			middleware.LoggingMiddleware(log.With(logger, "method", name)),
		}
		if zipkinTracer != nil {
			mws = append(mws, zipkin.TraceEndpoint(zipkinTracer, name))
		}
		return append(mws,
			opentracing.TraceServer(otTracer, name),
			breaker,
			ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(middleware.RequestsPerSecond), 100)),
		)
	}
	chain := func(e endpoint.Endpoint, name string, breaker endpoint.Middleware) endpoint.Endpoint {
		mws := middlewares(name, breaker)
		return endpoint.Chain(mws[0], mws[1:]...)(e)
	}

	return Set{
		NewDayEndpoint:          chain(makeNewDayEndpoint(svc), "NewDay", clock),
		NextDayEndpoint:         chain(makeNextDayEndpoint(svc), "NextDay", clock),
		CurrentDateEndpoint:     chain(makeCurrentDateEndpoint(svc), "CurrentDate", nil),
		ActiveVoyagesEndpoint:   chain(makeActiveVoyagesEndpoint(svc), "ActiveVoyages", nil),
		MatchingVoyagesEndpoint: chain(makeMatchingVoyagesEndpoint(svc), "MatchingVoyages", nil),
		VoyagesInRangeEndpoint:  chain(makeVoyagesInRangeEndpoint(svc), "VoyagesInRange", nil),
		LoadVoyageEndpoint:      chain(makeLoadVoyageEndpoint(svc), "LoadVoyage", nil),
		VoyageStateEndpoint:     chain(makeVoyageStateEndpoint(svc), "VoyageState", nil),
	}
}
