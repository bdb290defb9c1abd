package scheduling

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	activeVoyages  metrics.Gauge
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
// The number of voyages at sea after each clock change is set on active.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, active metrics.Gauge, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		activeVoyages:  active,
		Service:        s,
	}
}

func (s *instrumentingService) NewDay(ctx context.Context, date time.Time) (Day, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "new_day").Add(1)
		s.requestLatency.With("method", "new_day").Observe(time.Since(begin).Seconds())
	}(time.Now())
	d, err := s.Service.NewDay(ctx, date)
	if err == nil {
		s.activeVoyages.Set(float64(d.ActiveVoyages))
	}
	return d, err
}

func (s *instrumentingService) NextDay(ctx context.Context) (Day, error) {
	defer func(begin time.Time) {
		s.requestCount.With("method", "next_day").Add(1)
		s.requestLatency.With("method", "next_day").Observe(time.Since(begin).Seconds())
	}(time.Now())
	d, err := s.Service.NextDay(ctx)
	if err == nil {
		s.activeVoyages.Set(float64(d.ActiveVoyages))
	}
	return d, err
}
