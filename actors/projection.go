package actors

import (
	"context"

	"github.com/Qalifah/reefer/voyage"
)

// VoyageUpdate is what a voyage reports to the projection as it moves.
type VoyageUpdate struct {
	VoyageID  voyage.ID `json:"voyageId"`
	DaysAtSea int       `json:"daysAtSea"`
	Orders    int       `json:"orders"`
}

// Projection is the read-side collaborator voyages fetch their static
// metadata from and report progress to.
type Projection interface {
	VoyageInfo(ctx context.Context, id voyage.ID) (voyage.Voyage, error)
	UpdatePosition(ctx context.Context, u VoyageUpdate) error
	UpdateDeparted(ctx context.Context, u VoyageUpdate) error
	UpdateArrived(ctx context.Context, u VoyageUpdate) error
}
