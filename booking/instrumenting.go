package booking

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	reefers        metrics.Counter
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
// Booked reefers are added to reefers.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, reefers metrics.Counter, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		reefers:        reefers,
		Service:        s,
	}
}

func (s *instrumentingService) observe(method string, begin time.Time) {
	s.requestCount.With("method", method).Add(1)
	s.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (s *instrumentingService) BookOrder(ctx context.Context, o order.Order) (Booking, error) {
	defer s.observe("book", time.Now())
	b, err := s.Service.BookOrder(ctx, o)
	if err == nil {
		s.reefers.Add(float64(b.ReeferCount))
	}
	return b, err
}

func (s *instrumentingService) LoadOrder(ctx context.Context, id order.ID) (Order, error) {
	defer s.observe("load", time.Now())
	return s.Service.LoadOrder(ctx, id)
}

func (s *instrumentingService) OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) error {
	defer s.observe("order_anomaly", time.Now())
	return s.Service.OrderAnomaly(ctx, id, rid)
}

func (s *instrumentingService) ReeferAnomaly(ctx context.Context, rid reefer.ID) error {
	defer s.observe("reefer_anomaly", time.Now())
	return s.Service.ReeferAnomaly(ctx, rid)
}

func (s *instrumentingService) OrderStats(ctx context.Context) (actors.OrderStats, error) {
	defer s.observe("order_stats", time.Now())
	return s.Service.OrderStats(ctx)
}

func (s *instrumentingService) ReeferStats(ctx context.Context) (reefer.Stats, error) {
	defer s.observe("reefer_stats", time.Now())
	return s.Service.ReeferStats(ctx)
}
