package projection

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

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

// MakeHandler returns a handler serving the projection endpoints.
func MakeHandler(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}
	if zipkinTracer != nil {
		opts = append(opts, zipkin.HTTPServerTrace(zipkinTracer))
	}

	voyageInfoHandler := kithttp.NewServer(
		endpoints.VoyageInfoEndpoint,
		decodeVoyageInfoRequest,
		encodeResponse,
		append(opts, kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, "VoyageInfo", logger)))...,
	)
	updateHandler := kithttp.NewServer(
		endpoints.UpdateEndpoint,
		decodeUpdateRequest,
		encodeResponse,
		append(opts, kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, "Update", logger)))...,
	)
	trackHandler := kithttp.NewServer(
		endpoints.TrackEndpoint,
		decodeTrackRequest,
		encodeResponse,
		append(opts, kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, "Track", logger)))...,
	)

	r.Handle("/voyage/info/{id}", voyageInfoHandler).Methods("GET")
	r.Handle("/voyage/update/{kind}", updateHandler).Methods("POST")
	r.Handle("/voyage/track/{id}", trackHandler).Methods("GET")

	return r
}

func decodeVoyageInfoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return voyageInfoRequest{ID: voyage.ID(id)}, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	kind, ok := mux.Vars(r)["kind"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	var u actors.VoyageUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		return nil, ErrInvalidArgument
	}
	return updateRequest{Kind: kind, Update: u}, nil
}

func decodeTrackRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return trackRequest{ID: voyage.ID(id)}, nil
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
	case voyage.ErrUnknown:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(middleware.StatusCode(err))
	}
	json.NewEncoder(w).Encode(middleware.NewErrorBody(err))
}
