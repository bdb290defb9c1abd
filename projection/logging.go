package projection

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/voyage"
)

type loggingService struct {
	logger log.Logger
	Service
}

// NewLoggingService returns a new instance of a logging Service.
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{logger, s}
}

func (s *loggingService) VoyageInfo(ctx context.Context, id voyage.ID) (v voyage.Voyage, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "voyage_info",
			"voyage", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.VoyageInfo(ctx, id)
}

func (s *loggingService) UpdatePosition(ctx context.Context, u actors.VoyageUpdate) (err error) {
	defer s.logUpdate("update_position", u, time.Now(), &err)
	return s.Service.UpdatePosition(ctx, u)
}

func (s *loggingService) UpdateDeparted(ctx context.Context, u actors.VoyageUpdate) (err error) {
	defer s.logUpdate("update_departed", u, time.Now(), &err)
	return s.Service.UpdateDeparted(ctx, u)
}

func (s *loggingService) UpdateArrived(ctx context.Context, u actors.VoyageUpdate) (err error) {
	defer s.logUpdate("update_arrived", u, time.Now(), &err)
	return s.Service.UpdateArrived(ctx, u)
}

func (s *loggingService) logUpdate(method string, u actors.VoyageUpdate, begin time.Time, err *error) {
	s.logger.Log(
		"method", method,
		"voyage", u.VoyageID,
		"days_at_sea", u.DaysAtSea,
		"orders", u.Orders,
		"took", time.Since(begin),
		"err", *err,
	)
}
