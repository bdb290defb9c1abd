package projection

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/voyage"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		Service:        s,
	}
}

func (s *instrumentingService) observe(method string, begin time.Time) {
	s.requestCount.With("method", method).Add(1)
	s.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (s *instrumentingService) VoyageInfo(ctx context.Context, id voyage.ID) (voyage.Voyage, error) {
	defer s.observe("voyage_info", time.Now())
	return s.Service.VoyageInfo(ctx, id)
}

func (s *instrumentingService) UpdatePosition(ctx context.Context, u actors.VoyageUpdate) error {
	defer s.observe("update_position", time.Now())
	return s.Service.UpdatePosition(ctx, u)
}

func (s *instrumentingService) UpdateDeparted(ctx context.Context, u actors.VoyageUpdate) error {
	defer s.observe("update_departed", time.Now())
	return s.Service.UpdateDeparted(ctx, u)
}

func (s *instrumentingService) UpdateArrived(ctx context.Context, u actors.VoyageUpdate) error {
	defer s.observe("update_arrived", time.Now())
	return s.Service.UpdateArrived(ctx, u)
}
