package booking

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
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
)

type bookOrderRequest struct {
	Order order.Order
}

type bookOrderResponse struct {
	Booking *Booking `json:"booking,omitempty"`
	Err     error    `json:"error,omitempty"`
}

func (r bookOrderResponse) error() error { return r.Err }

func makeBookOrderEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(bookOrderRequest)
		b, err := s.BookOrder(ctx, req.Order)
		if err != nil {
			return bookOrderResponse{Err: err}, nil
		}
		return bookOrderResponse{Booking: &b}, nil
	}
}

type loadOrderRequest struct {
	ID order.ID
}

type loadOrderResponse struct {
	Order *Order `json:"order,omitempty"`
	Err   error  `json:"error,omitempty"`
}

func (r loadOrderResponse) error() error { return r.Err }

func makeLoadOrderEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(loadOrderRequest)
		o, err := s.LoadOrder(ctx, req.ID)
		if err != nil {
			return loadOrderResponse{Err: err}, nil
		}
		return loadOrderResponse{Order: &o}, nil
	}
}

type orderAnomalyRequest struct {
	ID       order.ID
	ReeferID reefer.ID
}

type anomalyResponse struct {
	Err error `json:"error,omitempty"`
}

func (r anomalyResponse) error() error { return r.Err }

func makeOrderAnomalyEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(orderAnomalyRequest)
		err := s.OrderAnomaly(ctx, req.ID, req.ReeferID)
		return anomalyResponse{Err: err}, nil
	}
}

type reeferAnomalyRequest struct {
	ReeferID reefer.ID
}

func makeReeferAnomalyEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(reeferAnomalyRequest)
		err := s.ReeferAnomaly(ctx, req.ReeferID)
		return anomalyResponse{Err: err}, nil
	}
}

type orderStatsRequest struct{}

type orderStatsResponse struct {
	Stats *actors.OrderStats `json:"stats,omitempty"`
	Err   error              `json:"error,omitempty"`
}

func (r orderStatsResponse) error() error { return r.Err }

func makeOrderStatsEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(orderStatsRequest)
		st, err := s.OrderStats(ctx)
		if err != nil {
			return orderStatsResponse{Err: err}, nil
		}
		return orderStatsResponse{Stats: &st}, nil
	}
}

type reeferStatsRequest struct{}

type reeferStatsResponse struct {
	Stats *reefer.Stats `json:"stats,omitempty"`
	Err   error         `json:"error,omitempty"`
}

func (r reeferStatsResponse) error() error { return r.Err }

func makeReeferStatsEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		_ = request.(reeferStatsRequest)
		st, err := s.ReeferStats(ctx)
		if err != nil {
			return reeferStatsResponse{Err: err}, nil
		}
		return reeferStatsResponse{Stats: &st}, nil
	}
}

// Set collects all of the endpoints that compose the booking service. It's
// meant to be used as a helper struct, to collect all of the endpoints into a
// single parameter.
type Set struct {
	BookOrderEndpoint     endpoint.Endpoint
	LoadOrderEndpoint     endpoint.Endpoint
	OrderAnomalyEndpoint  endpoint.Endpoint
	ReeferAnomalyEndpoint endpoint.Endpoint
	OrderStatsEndpoint    endpoint.Endpoint
	ReeferStatsEndpoint   endpoint.Endpoint
}

// NewSet returns a Set that wraps the provided server, and wires in all of the
// expected endpoint middlewares via the various parameters.
func NewSet(svc Service, logger log.Logger, duration metrics.Histogram, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer) Set {
	wrap := func(e endpoint.Endpoint, name string) endpoint.Endpoint {
		e = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Limit(middleware.RequestsPerSecond), 100))(e)
		e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: name}))(e)
		e = opentracing.TraceServer(otTracer, name)(e)
		if zipkinTracer != nil {
			e = zipkin.TraceEndpoint(zipkinTracer, name)(e)
		}
		e = middleware.LoggingMiddleware(log.With(logger, "method", name))(e)
		e = middleware.InstrumentingMiddleware(duration.With("method", name))(e)
		return e
	}

	return Set{
		BookOrderEndpoint:     wrap(makeBookOrderEndpoint(svc), "BookOrder"),
		LoadOrderEndpoint:     wrap(makeLoadOrderEndpoint(svc), "LoadOrder"),
		OrderAnomalyEndpoint:  wrap(makeOrderAnomalyEndpoint(svc), "OrderAnomaly"),
		ReeferAnomalyEndpoint: wrap(makeReeferAnomalyEndpoint(svc), "ReeferAnomaly"),
		OrderStatsEndpoint:    wrap(makeOrderStatsEndpoint(svc), "OrderStats"),
		ReeferStatsEndpoint:   wrap(makeReeferStatsEndpoint(svc), "ReeferStats"),
	}
}

// BookOrder implements the service interface so Set can be used as a service
func (s Set) BookOrder(ctx context.Context, o order.Order) (Booking, error) {
	resp, err := s.BookOrderEndpoint(ctx, bookOrderRequest{Order: o})
	if err != nil {
		return Booking{}, err
	}
	response := resp.(bookOrderResponse)
	if response.Err != nil {
		return Booking{}, response.Err
	}
	return *response.Booking, nil
}

// LoadOrder implements the service interface so Set can be used as a service
func (s Set) LoadOrder(ctx context.Context, id order.ID) (Order, error) {
	resp, err := s.LoadOrderEndpoint(ctx, loadOrderRequest{ID: id})
	if err != nil {
		return Order{}, err
	}
	response := resp.(loadOrderResponse)
	if response.Err != nil {
		return Order{}, response.Err
	}
	return *response.Order, nil
}

// OrderAnomaly implements the service interface so Set can be used as a service
func (s Set) OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) error {
	resp, err := s.OrderAnomalyEndpoint(ctx, orderAnomalyRequest{ID: id, ReeferID: rid})
	if err != nil {
		return err
	}
	return resp.(anomalyResponse).Err
}

// ReeferAnomaly implements the service interface so Set can be used as a service
func (s Set) ReeferAnomaly(ctx context.Context, rid reefer.ID) error {
	resp, err := s.ReeferAnomalyEndpoint(ctx, reeferAnomalyRequest{ReeferID: rid})
	if err != nil {
		return err
	}
	return resp.(anomalyResponse).Err
}

// OrderStats implements the service interface so Set can be used as a service
func (s Set) OrderStats(ctx context.Context) (actors.OrderStats, error) {
	resp, err := s.OrderStatsEndpoint(ctx, orderStatsRequest{})
	if err != nil {
		return actors.OrderStats{}, err
	}
	response := resp.(orderStatsResponse)
	if response.Err != nil {
		return actors.OrderStats{}, response.Err
	}
	return *response.Stats, nil
}

// ReeferStats implements the service interface so Set can be used as a service
func (s Set) ReeferStats(ctx context.Context) (reefer.Stats, error) {
	resp, err := s.ReeferStatsEndpoint(ctx, reeferStatsRequest{})
	if err != nil {
		return reefer.Stats{}, err
	}
	response := resp.(reeferStatsResponse)
	if response.Err != nil {
		return reefer.Stats{}, response.Err
	}
	return *response.Stats, nil
}
