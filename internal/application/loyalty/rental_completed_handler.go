package loyalty

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/rental"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// RentalCompletedHandler awards points when a rental settles. For each of
// the customer's memberships in an active program it posts an EARN entry
// of floor(amount * earn rate). The ledger appends unconditionally, so
// exactly-once lives here: a membership that already has an entry for
// this rental is skipped.
type RentalCompletedHandler struct {
	programRepo     loyalty.ProgramRepository
	membershipRepo  loyalty.MembershipRepository
	transactionRepo loyalty.PointTransactionRepository
	ledger          *LedgerService
	logger          *zap.Logger
}

// NewRentalCompletedHandler creates a new handler for rental completed events
func NewRentalCompletedHandler(
	programRepo loyalty.ProgramRepository,
	membershipRepo loyalty.MembershipRepository,
	transactionRepo loyalty.PointTransactionRepository,
	ledger *LedgerService,
	logger *zap.Logger,
) *RentalCompletedHandler {
	return &RentalCompletedHandler{
		programRepo:     programRepo,
		membershipRepo:  membershipRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		logger:          logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *RentalCompletedHandler) EventTypes() []string {
	return []string{rental.EventTypeRentalCompleted}
}

// Handle awards earn points for a completed rental
func (h *RentalCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*rental.RentalCompletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", rental.EventTypeRentalCompleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			rental.EventTypeRentalCompleted, event.EventType())
	}

	h.logger.Info("processing rental completed event",
		zap.String("rental_id", completed.RentalID.String()),
		zap.String("customer_id", completed.CustomerID.String()),
		zap.String("total_amount", completed.TotalAmount.String()),
	)

	memberships, err := h.membershipRepo.FindByCustomerID(ctx, completed.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to load memberships: %w", err)
	}

	for _, membership := range memberships {
		program, err := h.programRepo.FindByID(ctx, membership.ProgramID)
		if err != nil {
			return fmt.Errorf("failed to load program %s: %w", membership.ProgramID, err)
		}
		if !program.Active {
			continue
		}

		points := program.EarnedPoints(completed.TotalAmount)
		if points <= 0 {
			h.logger.Info("rental amount earns no points",
				zap.String("rental_id", completed.RentalID.String()),
				zap.String("program_id", program.ID.String()),
			)
			continue
		}

		// idempotency: one earn per rental per membership
		exists, err := h.transactionRepo.ExistsBySource(ctx, membership.ID, loyalty.SourceTypeRental, completed.RentalID)
		if err != nil {
			return fmt.Errorf("failed to check existing earn: %w", err)
		}
		if exists {
			h.logger.Warn("points already awarded for rental, skipping",
				zap.String("rental_id", completed.RentalID.String()),
				zap.String("membership_id", membership.ID.String()),
			)
			continue
		}

		rentalID := completed.RentalID
		_, err = h.ledger.ApplyTransaction(ctx, membership.ID, ApplyTransactionRequest{
			Type:        loyalty.PointTransactionTypeEarn.String(),
			Points:      points,
			SourceType:  loyalty.SourceTypeRental,
			SourceID:    &rentalID,
			Description: fmt.Sprintf("Rental %s completed", completed.RentalID),
		})
		if err != nil {
			return fmt.Errorf("failed to award points for rental %s: %w", completed.RentalID, err)
		}

		h.logger.Info("awarded rental points",
			zap.String("rental_id", completed.RentalID.String()),
			zap.String("membership_id", membership.ID.String()),
			zap.Int64("points", points),
		)
	}

	return nil
}
