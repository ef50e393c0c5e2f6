package rental

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// AggregateTypeRental identifies the rental aggregate, which lives in the
// fleet service. Only its integration events are consumed here.
const AggregateTypeRental = "Rental"

// EventTypeRentalCompleted is published when a rental is returned and settled
const EventTypeRentalCompleted = "RentalCompleted"

// RentalCompletedEvent carries the settled amount of a finished rental.
// The loyalty handler converts it into earned points.
type RentalCompletedEvent struct {
	shared.BaseDomainEvent
	RentalID    uuid.UUID       `json:"rental_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewRentalCompletedEvent creates a new RentalCompletedEvent
func NewRentalCompletedEvent(rentalID, customerID uuid.UUID, totalAmount decimal.Decimal) *RentalCompletedEvent {
	return &RentalCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRentalCompleted, AggregateTypeRental, rentalID),
		RentalID:        rentalID,
		CustomerID:      customerID,
		TotalAmount:     totalAmount,
	}
}
