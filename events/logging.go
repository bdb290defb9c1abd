package events

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
)

type loggingPublisher struct {
	logger log.Logger
	Publisher
}

// NewLoggingPublisher returns a Publisher logging every event it sends.
func NewLoggingPublisher(logger log.Logger, p Publisher) Publisher {
	return &loggingPublisher{logger, p}
}

func (p *loggingPublisher) Publish(ctx context.Context, e Event) (err error) {
	defer func(begin time.Time) {
		p.logger.Log(
			"method", "publish",
			"kind", e.Kind,
			"voyage", e.VoyageID,
			"days_at_sea", e.DaysAtSea,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.Publisher.Publish(ctx, e)
}
