package actors

import (
	"time"

	"github.com/Qalifah/reefer/location"
	"github.com/Qalifah/reefer/order"
	"github.com/Qalifah/reefer/reefer"
	"github.com/Qalifah/reefer/voyage"
)

// Actor type names and singleton ids.
const (
	OrderType           = "order"
	VoyageType          = "voyage"
	ProvisionerType     = "provisioner"
	ScheduleManagerType = "schedulemanager"
	OrderManagerType    = "ordermanager"

	ProvisionerID     = "provisioner"
	ScheduleManagerID = "schedulemanager"
	OrderManagerID    = "ordermanager"
)

type (
	// PositionArgs moves a voyage to daysAtSea days after its sail date.
	PositionArgs struct {
		DaysAtSea int `json:"daysAtSea"`
	}

	VoyageReefersArgs struct {
		VoyageID    voyage.ID `json:"voyageId"`
		ReeferCount int       `json:"reeferCount"`
	}

	ReleaseArgs struct {
		OrderIDs []order.ID `json:"orderIds"`
	}

	// ReeferArgs names a reefer, optionally on behalf of the order it
	// should belong to.
	ReeferArgs struct {
		ReeferID reefer.ID `json:"reeferId"`
		OrderID  order.ID  `json:"orderId,omitempty"`
	}

	OrderIDArgs struct {
		OrderID order.ID `json:"orderId"`
	}

	VoyageIDArgs struct {
		VoyageID voyage.ID `json:"voyageId"`
	}

	DateArgs struct {
		Date time.Time `json:"date"`
	}

	VoyagePosition struct {
		VoyageID  voyage.ID `json:"voyageId"`
		DaysAtSea int       `json:"daysAtSea"`
	}

	VoyageCapacity struct {
		VoyageID     voyage.ID `json:"voyageId"`
		FreeCapacity int       `json:"freeCapacity"`
		OrderCount   int       `json:"orderCount"`
		ReeferCount  int       `json:"reeferCount"`
	}

	MatchingQuery struct {
		Origin      location.Port `json:"origin"`
		Destination location.Port `json:"destination"`
		From        time.Time     `json:"date"`
	}

	RangeQuery struct {
		Start time.Time `json:"startDate"`
		End   time.Time `json:"endDate"`
	}
)

type (
	// BookingReply lists the reefers allocated to an order.
	BookingReply struct {
		Reply
		Reefers     []reefer.ID `json:"reefers,omitempty"`
		ReeferCount int         `json:"reeferCount"`
	}

	// ReserveReply answers reserve and createOrder.
	ReserveReply struct {
		Reply
		Order        *order.Order `json:"order,omitempty"`
		FreeCapacity int          `json:"freeCapacity"`
		ReeferCount  int          `json:"reeferCount"`
	}

	ReplacementReply struct {
		Reply
		ReplacementReeferID reefer.ID `json:"replacementReeferId"`
	}

	PositionReply struct {
		Reply
		VoyageStatus voyage.Status `json:"voyageStatus"`
	}

	OrderReefersReply struct {
		Reply
		VoyageID voyage.ID   `json:"voyageId,omitempty"`
		Reefers  []reefer.ID `json:"reefers,omitempty"`
	}

	ReeferStatsReply struct {
		Reply
		Stats reefer.Stats `json:"stats"`
	}

	OrderStats struct {
		BookedOrders    int `json:"bookedOrders"`
		InTransitOrders int `json:"inTransitOrders"`
		SpoiltOrders    int `json:"spoiltOrders"`
	}

	OrderStatsReply struct {
		Reply
		OrderStats
	}

	OrderReply struct {
		Reply
		Order *order.Order `json:"order,omitempty"`
	}

	// VoyageState is a voyage as its own actor sees it.
	VoyageState struct {
		Reply
		Voyage *voyage.Voyage `json:"voyage,omitempty"`
		Orders []order.ID     `json:"orders"`
	}

	VoyageReply struct {
		Reply
		Voyage *voyage.Voyage `json:"voyage,omitempty"`
	}

	VoyagesReply struct {
		Reply
		Voyages []*voyage.Voyage `json:"voyages"`
	}

	DateReply struct {
		Reply
		Date time.Time `json:"date"`
	}

	NewDayReply struct {
		Reply
		Date   time.Time `json:"date"`
		Active int       `json:"activeVoyages"`
		Added  int       `json:"voyagesAdded"`
	}
)
