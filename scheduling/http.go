package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/go-kit/kit/endpoint"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

// MakeHandler returns a handler for the scheduling service.
func MakeHandler(endpoints Set, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger kitlog.Logger) http.Handler {
	r := mux.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeError),
	}
	if zipkinTracer != nil {
		opts = append(opts, zipkin.HTTPServerTrace(zipkinTracer))
	}
	newServer := func(name string, ep endpoint.Endpoint, dec kithttp.DecodeRequestFunc) *kithttp.Server {
		return kithttp.NewServer(ep, dec, encodeResponse,
			append(opts[:len(opts):len(opts)], kithttp.ServerBefore(opentracing.HTTPToContext(otTracer, name, logger)))...)
	}

	r.Handle("/time/newDay", newServer("NewDay", endpoints.NewDayEndpoint, decodeNewDayRequest)).Methods("POST")
	r.Handle("/time/nextDay", newServer("NextDay", endpoints.NextDayEndpoint, decodeEmpty(nextDayRequest{}))).Methods("POST")
	r.Handle("/time/currentDate", newServer("CurrentDate", endpoints.CurrentDateEndpoint, decodeEmpty(currentDateRequest{}))).Methods("GET")
	r.Handle("/voyage/active", newServer("ActiveVoyages", endpoints.ActiveVoyagesEndpoint, decodeEmpty(activeVoyagesRequest{}))).Methods("GET")
	r.Handle("/voyage/matching", newServer("MatchingVoyages", endpoints.MatchingVoyagesEndpoint, decodeMatchingVoyagesRequest)).Methods("GET")
	r.Handle("/voyage/inrange", newServer("VoyagesInRange", endpoints.VoyagesInRangeEndpoint, decodeVoyagesInRangeRequest)).Methods("POST")
	r.Handle("/voyage/{id}", newServer("LoadVoyage", endpoints.LoadVoyageEndpoint, decodeLoadVoyageRequest)).Methods("GET")
	r.Handle("/voyage/{id}/state", newServer("VoyageState", endpoints.VoyageStateEndpoint, decodeVoyageStateRequest)).Methods("GET")

	return r
}

func decodeEmpty(req interface{}) kithttp.DecodeRequestFunc {
	return func(context.Context, *http.Request) (interface{}, error) {
		return req, nil
	}
}

func decodeNewDayRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrInvalidArgument
	}
	date, err := voyage.ParseDate(body.Date)
	if err != nil {
		return nil, ErrInvalidArgument
	}
	return newDayRequest{Date: date}, nil
}

func decodeMatchingVoyagesRequest(_ context.Context, r *http.Request) (interface{}, error) {
	q := r.URL.Query()
	req := matchingVoyagesRequest{
		Origin:      location.Port(q.Get("origin")),
		Destination: location.Port(q.Get("destination")),
	}
	if s := q.Get("date"); s != "" {
		from, err := voyage.ParseDate(s)
		if err != nil {
			return nil, ErrInvalidArgument
		}
		req.From = from
	}
	return req, nil
}

func decodeVoyagesInRangeRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Start string `json:"startDate"`
		End   string `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, ErrInvalidArgument
	}
	var (
		dates [2]time.Time
		err   error
	)
	for i, s := range []string{body.Start, body.End} {
		if dates[i], err = voyage.ParseDate(s); err != nil {
			return nil, ErrInvalidArgument
		}
	}
	return voyagesInRangeRequest{Start: dates[0], End: dates[1]}, nil
}

func decodeLoadVoyageRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return loadVoyageRequest{ID: voyage.ID(id)}, nil
}

func decodeVoyageStateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, ErrInvalidArgument
	}
	return voyageStateRequest{ID: voyage.ID(id)}, nil
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
