package booking

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/voyage"
)

// MakeHandler returns a handler for the booking service.
func MakeHandler(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}
	if zipkinTracer != nil {
		opts = append(opts, zipkin.HTTPServerTrace(zipkinTracer))
	}
	traced := func(name string) []kithttp.ServerOption {
		return append(opts[:len(opts):len(opts)], kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, name, logger)))
	}

	bookOrderHandler := kithttp.NewServer(
		endpoints.BookOrderEndpoint,
		decodeBookOrderRequest,
		encodeResponse,
		traced("BookOrder")...,
	)
	loadOrderHandler := kithttp.NewServer(
		endpoints.LoadOrderEndpoint,
		decodeLoadOrderRequest,
		encodeResponse,
		traced("LoadOrder")...,
	)
	orderAnomalyHandler := kithttp.NewServer(
		endpoints.OrderAnomalyEndpoint,
		decodeOrderAnomalyRequest,
		encodeResponse,
		traced("OrderAnomaly")...,
	)
	reeferAnomalyHandler := kithttp.NewServer(
		endpoints.ReeferAnomalyEndpoint,
		decodeReeferAnomalyRequest,
		encodeResponse,
		traced("ReeferAnomaly")...,
	)
	orderStatsHandler := kithttp.NewServer(
		endpoints.OrderStatsEndpoint,
		func(context.Context, *http.Request) (interface{}, error) { return orderStatsRequest{}, nil },
		encodeResponse,
		traced("OrderStats")...,
	)
	reeferStatsHandler := kithttp.NewServer(
		endpoints.ReeferStatsEndpoint,
		func(context.Context, *http.Request) (interface{}, error) { return reeferStatsRequest{}, nil },
		encodeResponse,
		traced("ReeferStats")...,
	)

	r.Handle("/orders", bookOrderHandler).Methods("POST")
	r.Handle("/orders/stats", orderStatsHandler).Methods("GET")
	r.Handle("/orders/{id}", loadOrderHandler).Methods("GET")
	r.Handle("/orders/{id}/anomaly", orderAnomalyHandler).Methods("POST")
	r.Handle("/reefers/stats", reeferStatsHandler).Methods("GET")
	r.Handle("/reefers/{id}/anomaly", reeferAnomalyHandler).Methods("POST")

	return r
}

func decodeBookOrderRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		ID         string `json:"orderId"`
		CustomerID string `json:"customerId"`
		Product    string `json:"product"`
		ProductQty int    `json:"productQty"`
		VoyageID   string `json:"voyageId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrInvalidArgument
	}

	o := order.New(body.CustomerID, body.Product, body.ProductQty, voyage.ID(body.VoyageID))
	if body.ID != "" {
		o.ID = order.ID(body.ID)
	}
	return bookOrderRequest{Order: *o}, nil
}

func decodeLoadOrderRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return loadOrderRequest{ID: order.ID(id)}, nil
}

func decodeOrderAnomalyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	var body struct {
		ReeferID reefer.ID `json:"reeferId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrInvalidArgument
	}
	return orderAnomalyRequest{ID: order.ID(id), ReeferID: body.ReeferID}, nil
}

func decodeReeferAnomalyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	rid, err := reefer.ParseID(mux.Vars(r)["id"])
	if err != nil {
		return nil, ErrInvalidArgument
	}
	return reeferAnomalyRequest{ReeferID: rid}, nil
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if e, ok := response.(errorer); ok && e.error() != nil {
		encodeError(ctx, e.error(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

type errorer interface {
	error() error
}

// encode errors from business-logic
func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch err {
	case ErrInvalidArgument:
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(middleware.StatusCode(err))
	}
	json.NewEncoder(w).Encode(middleware.NewErrorBody(err))
}
