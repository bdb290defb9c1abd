package scheduling

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/reefer/location"
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

func (s *loggingService) NewDay(ctx context.Context, date time.Time) (d Day, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "new_day",
			"date", date.Format(voyage.DateLayout),
			"active", d.ActiveVoyages,
			"added", d.VoyagesAdded,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.NewDay(ctx, date)
}

func (s *loggingService) NextDay(ctx context.Context) (d Day, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "next_day",
			"date", d.Date.Format(voyage.DateLayout),
			"active", d.ActiveVoyages,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.NextDay(ctx)
}

func (s *loggingService) MatchingVoyages(ctx context.Context, origin, destination location.Port, from time.Time) (vs []*voyage.Voyage, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "matching_voyages",
			"origin", origin,
			"destination", destination,
			"from", from.Format(voyage.DateLayout),
			"found", len(vs),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.MatchingVoyages(ctx, origin, destination, from)
}

func (s *loggingService) VoyagesInRange(ctx context.Context, start, end time.Time) (vs []*voyage.Voyage, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "voyages_in_range",
			"start", start.Format(voyage.DateLayout),
			"end", end.Format(voyage.DateLayout),
			"found", len(vs),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.VoyagesInRange(ctx, start, end)
}

func (s *loggingService) LoadVoyage(ctx context.Context, id voyage.ID) (v voyage.Voyage, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "load_voyage",
			"voyage", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.LoadVoyage(ctx, id)
}
