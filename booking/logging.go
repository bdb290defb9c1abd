package booking

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
)

type loggingService struct {
	logger log.Logger
	Service
}

// NewLoggingService creates a new instance of the logging service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{logger, s}
}

func (s *loggingService) BookOrder(ctx context.Context, o order.Order) (b Booking, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "book",
			"order_id", b.Order.ID,
			"customer", o.CustomerID,
			"voyage", o.VoyageID,
			"qty", o.ProductQty,
			"reefers", b.ReeferCount,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.BookOrder(ctx, o)
}

func (s *loggingService) LoadOrder(ctx context.Context, id order.ID) (o Order, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "load",
			"order_id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.LoadOrder(ctx, id)
}

func (s *loggingService) OrderAnomaly(ctx context.Context, id order.ID, rid reefer.ID) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "order_anomaly",
			"order_id", id,
			"reefer", rid,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.OrderAnomaly(ctx, id, rid)
}

func (s *loggingService) ReeferAnomaly(ctx context.Context, rid reefer.ID) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "reefer_anomaly",
			"reefer", rid,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.ReeferAnomaly(ctx, rid)
}

func (s *loggingService) OrderStats(ctx context.Context) (st actors.OrderStats, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "order_stats",
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.OrderStats(ctx)
}

func (s *loggingService) ReeferStats(ctx context.Context) (st reefer.Stats, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "reefer_stats",
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.ReeferStats(ctx)
}
