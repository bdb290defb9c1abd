// Package projection provides the voyage read side: static voyage metadata
// for voyage actors, and the progress they report as they sail.
package projection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Qalifah/reefer/actors"
	"github.com/Qalifah/reefer/events"
	"github.com/Qalifah/reefer/voyage"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// Service is the voyage projection. It implements actors.Projection.
type Service interface {
	actors.Projection

	// Track returns the last progress reported by a voyage at sea.
	Track(ctx context.Context, id voyage.ID) (Track, error)
}

// Track is the last known progress of a voyage.
type Track struct {
	VoyageID  voyage.ID     `json:"voyageId"`
	Status    voyage.Status `json:"status"`
	DaysAtSea int           `json:"daysAtSea"`
	Orders    int           `json:"orders"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// VoyageSource looks up scheduled voyages.
type VoyageSource interface {
	Voyage(ctx context.Context, id voyage.ID) (voyage.Voyage, error)
}

type service struct {
	voyages   VoyageSource
	publisher events.Publisher

	mtx    sync.RWMutex
	tracks map[voyage.ID]Track
}

// NewService returns a projection reading voyages from src and publishing
// every update to pub.
func NewService(src VoyageSource, pub events.Publisher) Service {
	return &service{
		voyages:   src,
		publisher: pub,
		tracks:    make(map[voyage.ID]Track),
	}
}

func (s *service) VoyageInfo(ctx context.Context, id voyage.ID) (voyage.Voyage, error) {
	if id == "" {
		return voyage.Voyage{}, ErrInvalidArgument
	}
	return s.voyages.Voyage(ctx, id)
}

func (s *service) UpdatePosition(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, events.Position, voyage.Departed, u)
}

func (s *service) UpdateDeparted(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, events.Departed, voyage.Departed, u)
}

func (s *service) UpdateArrived(ctx context.Context, u actors.VoyageUpdate) error {
	return s.update(ctx, events.Arrived, voyage.Arrived, u)
}

func (s *service) update(ctx context.Context, kind events.Kind, status voyage.Status, u actors.VoyageUpdate) error {
	if u.VoyageID == "" {
		return ErrInvalidArgument
	}
	now := time.Now().UTC()

	s.mtx.Lock()
	if status == voyage.Arrived {
		delete(s.tracks, u.VoyageID)
	} else {
		s.tracks[u.VoyageID] = Track{
			VoyageID:  u.VoyageID,
			Status:    status,
			DaysAtSea: u.DaysAtSea,
			Orders:    u.Orders,
			UpdatedAt: now,
		}
	}
	s.mtx.Unlock()

	return s.publisher.Publish(ctx, events.Event{
		Kind:      kind,
		VoyageID:  u.VoyageID,
		DaysAtSea: u.DaysAtSea,
		Orders:    u.Orders,
		Time:      now,
	})
}

func (s *service) Track(_ context.Context, id voyage.ID) (Track, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	t, ok := s.tracks[id]
	if !ok {
		return Track{}, voyage.ErrUnknown
	}
	return t, nil
}
