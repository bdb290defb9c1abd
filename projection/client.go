package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	kithttp "github.com/go-kit/kit/transport/http"

	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"

	"github.com/Qalifah/reefer/middleware"
	"github.com/Qalifah/reefer/voyage"
)

// NewHTTPClient returns a projection service backed by an HTTP server at
// instance, e.g. "localhost:8080" or "http://projection:8080".
func NewHTTPClient(instance string, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) (Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second/middleware.RequestsPerSecond), 100))
	options := []kithttp.ClientOption{
		kithttp.ClientBefore(opentracing.ContextToHTTP(otTracer, logger)),
	}
	if zipkinTracer != nil {
		options = append(options, zipkin.HTTPClientTrace(zipkinTracer))
	}

	var voyageInfoEndpoint endpoint.Endpoint
	{
		voyageInfoEndpoint = kithttp.NewClient(
			"GET",
			u,
			encodeVoyageInfoRequest,
			decodeVoyageInfoResponse,
			options...,
		).Endpoint()
		voyageInfoEndpoint = opentracing.TraceClient(otTracer, "Voyage Info")(voyageInfoEndpoint)
		voyageInfoEndpoint = limiter(voyageInfoEndpoint)
		voyageInfoEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Voyage Info",
			Timeout: 30 * time.Second,
		}))(voyageInfoEndpoint)
	}

	var updateEndpoint endpoint.Endpoint
	{
		updateEndpoint = kithttp.NewClient(
			"POST",
			u,
			encodeUpdateRequest,
			decodeUpdateResponse,
			options...,
		).Endpoint()
		updateEndpoint = opentracing.TraceClient(otTracer, "Update Voyage")(updateEndpoint)
		updateEndpoint = limiter(updateEndpoint)
		updateEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Update Voyage",
			Timeout: 30 * time.Second,
		}))(updateEndpoint)
	}

	var trackEndpoint endpoint.Endpoint
	{
		trackEndpoint = kithttp.NewClient(
			"GET",
			u,
			encodeTrackRequest,
			decodeTrackResponse,
			options...,
		).Endpoint()
		trackEndpoint = opentracing.TraceClient(otTracer, "Track Voyage")(trackEndpoint)
		trackEndpoint = limiter(trackEndpoint)
		trackEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "Track Voyage",
			Timeout: 30 * time.Second,
		}))(trackEndpoint)
	}

	return Set{
		VoyageInfoEndpoint: voyageInfoEndpoint,
		UpdateEndpoint:     updateEndpoint,
		TrackEndpoint:      trackEndpoint,
	}, nil
}

func encodeVoyageInfoRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(voyageInfoRequest)
	r.URL.Path = "/voyage/info/" + url.PathEscape(string(req.ID))
	return nil
}

func encodeUpdateRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(updateRequest)
	r.URL.Path = "/voyage/update/" + req.Kind
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req.Update); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = io.NopCloser(&buf)
	r.ContentLength = int64(buf.Len())
	return nil
}

func encodeTrackRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(trackRequest)
	r.URL.Path = "/voyage/track/" + url.PathEscape(string(req.ID))
	return nil
}

// decodeError reads the error body of a failed response. Failures the
// server classified come back as *actors.Failure; a missing voyage as
// voyage.ErrUnknown.
func decodeError(r *http.Response) error {
	var body middleware.ErrorBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body.Error = r.Status
	}
	if r.StatusCode == http.StatusNotFound && body.Kind == "" {
		return voyage.ErrUnknown
	}
	if r.StatusCode == http.StatusBadRequest && body.Kind == "" {
		return ErrInvalidArgument
	}
	return body.Err()
}

func decodeVoyageInfoResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return voyageInfoResponse{Err: decodeError(r)}, nil
	}
	var resp voyageInfoResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeUpdateResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return updateResponse{Err: decodeError(r)}, nil
	}
	return updateResponse{}, nil
}

func decodeTrackResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return trackResponse{Err: decodeError(r)}, nil
	}
	var resp trackResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return resp, nil
}
