package projection

import (
	"context"

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

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

// Update kinds, as they appear in /voyage/update/{kind}.
const (
	PositionUpdate = "position"
	DepartedUpdate = "departed"
	ArrivedUpdate  = "arrived"
)

type voyageInfoRequest struct {
	ID voyage.ID
}

type voyageInfoResponse struct {
	Voyage *voyage.Voyage `json:"voyage,omitempty"`
	Err    error          `json:"error,omitempty"`
}

func (r voyageInfoResponse) error() error { return r.Err }

func makeVoyageInfoEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(voyageInfoRequest)
		v, err := s.VoyageInfo(ctx, req.ID)
		if err != nil {
			return voyageInfoResponse{Err: err}, nil
		}
		return voyageInfoResponse{Voyage: &v}, nil
	}
}

type updateRequest struct {
	Kind   string
	Update actors.VoyageUpdate
}

type updateResponse struct {
	Err error `json:"error,omitempty"`
}

func (r updateResponse) error() error { return r.Err }

func makeUpdateEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(updateRequest)
		var err error
		switch req.Kind {
		case PositionUpdate:
			err = s.UpdatePosition(ctx, req.Update)
		case DepartedUpdate:
			err = s.UpdateDeparted(ctx, req.Update)
		case ArrivedUpdate:
			err = s.UpdateArrived(ctx, req.Update)
		default:
			err = ErrInvalidArgument
		}
		return updateResponse{Err: err}, nil
	}
}

type trackRequest struct {
	ID voyage.ID
}

type trackResponse struct {
	Track *Track `json:"track,omitempty"`
	Err   error  `json:"error,omitempty"`
}

func (r trackResponse) error() error { return r.Err }

func makeTrackEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(trackRequest)
		t, err := s.Track(ctx, req.ID)
		if err != nil {
			return trackResponse{Err: err}, nil
		}
		return trackResponse{Track: &t}, nil
	}
}

// Set collects all of the endpoints that compose the projection service.
type Set struct {
	VoyageInfoEndpoint endpoint.Endpoint
	UpdateEndpoint     endpoint.Endpoint
	TrackEndpoint      endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	var voyageInfoEndpoint endpoint.Endpoint
	{
		voyageInfoEndpoint = makeVoyageInfoEndpoint(svc)
		voyageInfoEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(middleware.RequestsPerSecond), 100))(voyageInfoEndpoint)
		voyageInfoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(voyageInfoEndpoint)
		voyageInfoEndpoint = opentracing.TraceServer(otTracer, "VoyageInfo")(voyageInfoEndpoint)
		if zipkinTracer != nil {
			voyageInfoEndpoint = zipkin.TraceEndpoint(zipkinTracer, "VoyageInfo")(voyageInfoEndpoint)
		}
		voyageInfoEndpoint = middleware.LoggingMiddleware(log.With(logger, "method", "VoyageInfo"))(voyageInfoEndpoint)
		voyageInfoEndpoint = middleware.InstrumentingMiddleware(duration.With("method", "VoyageInfo"))(voyageInfoEndpoint)
	}

	var updateEndpoint endpoint.Endpoint
	{
		updateEndpoint = makeUpdateEndpoint(svc)
		updateEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(middleware.RequestsPerSecond), 100))(updateEndpoint)
		updateEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(updateEndpoint)
		updateEndpoint = opentracing.TraceServer(otTracer, "Update")(updateEndpoint)
		if zipkinTracer != nil {
			updateEndpoint = zipkin.TraceEndpoint(zipkinTracer, "Update")(updateEndpoint)
		}
		updateEndpoint = middleware.LoggingMiddleware(log.With(logger, "method", "Update"))(updateEndpoint)
		updateEndpoint = middleware.InstrumentingMiddleware(duration.With("method", "Update"))(updateEndpoint)
	}

	var trackEndpoint endpoint.Endpoint
	{
		trackEndpoint = makeTrackEndpoint(svc)
		trackEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(middleware.RequestsPerSecond), 100))(trackEndpoint)
		trackEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{}))(trackEndpoint)
		trackEndpoint = opentracing.TraceServer(otTracer, "Track")(trackEndpoint)
		if zipkinTracer != nil {
			trackEndpoint = zipkin.TraceEndpoint(zipkinTracer, "Track")(trackEndpoint)
		}
		trackEndpoint = middleware.LoggingMiddleware(log.With(logger, "method", "Track"))(trackEndpoint)
		trackEndpoint = middleware.InstrumentingMiddleware(duration.With("method", "Track"))(trackEndpoint)
	}

	return Set{
		VoyageInfoEndpoint: voyageInfoEndpoint,
		UpdateEndpoint:     updateEndpoint,
		TrackEndpoint:      trackEndpoint,
	}
}

// VoyageInfo implements the service interface so Set can be used as a service
func (s Set) VoyageInfo(ctx context.Context, id voyage.ID) (voyage.Voyage, error) {
	resp, err := s.VoyageInfoEndpoint(ctx, voyageInfoRequest{ID: id})
	if err != nil {
		return voyage.Voyage{}, err
	}
	response := resp.(voyageInfoResponse)
	if response.Err != nil {
		return voyage.Voyage{}, response.Err
	}
	return *response.Voyage, nil
}

func (s Set) update(ctx context.Context, kind string, u actors.VoyageUpdate) error {
	resp, err := s.UpdateEndpoint(ctx, updateRequest{Kind: kind, Update: u})
	if err != nil {
		return err
	}
	return resp.(updateResponse).Err
}

// UpdatePosition implements the service interface so Set can be used as a service
func (s Set) UpdatePosition(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, PositionUpdate, u)
}

// UpdateDeparted implements the service interface so Set can be used as a service
func (s Set) UpdateDeparted(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, DepartedUpdate, u)
}

// UpdateArrived implements the service interface so Set can be used as a service
func (s Set) UpdateArrived(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, ArrivedUpdate, u)
}

// Track implements the service interface so Set can be used as a service
func (s Set) Track(ctx context.Context, id voyage.ID) (Track, error) {
	resp, err := s.TrackEndpoint(ctx, trackRequest{ID: id})
	if err != nil {
		return Track{}, err
	}
	response := resp.(trackResponse)
	if response.Err != nil {
		return Track{}, response.Err
	}
	return *response.Track, nil
}
