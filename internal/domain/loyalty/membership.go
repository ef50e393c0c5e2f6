package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// Membership links one customer to one program. A customer holds at most
// one membership per program, and a membership is never deleted; leaving
// a program is modeled by expiring the remaining balance.
type Membership struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID
	ProgramID      uuid.UUID
	Balance        int64
	Tier           string
	JoinedAt       time.Time
	LastActivityAt *time.Time
	ExpiresAt      *time.Time
}

// NewMembership enrolls a customer into a program. The balance starts at
// zero and the tier at the ladder's floor; LastActivityAt stays nil until
// the first transaction.
func NewMembership(customerID, programID uuid.UUID, ladder TierLadder) (*Membership, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "customer ID is required")
	}
	if programID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "program ID is required")
	}
	m := &Membership{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		ProgramID:         programID,
		Balance:           0,
		Tier:              ladder.Floor().Name,
		JoinedAt:          time.Now(),
	}
	m.AddDomainEvent(NewMemberEnrolledEvent(m.ID, customerID, programID))
	return m, nil
}

// Apply posts a ledger entry against the membership: it checks the balance
// guard, moves the balance, re-resolves the tier from the new balance and
// returns the created transaction. Nothing is mutated when an error is
// returned. Persisting the returned transaction together with the updated
// membership is the caller's responsibility.
func (m *Membership) Apply(txType PointTransactionType, points int64, ladder TierLadder) (*PointTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "invalid transaction type")
	}
	if points <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "transaction points must be positive")
	}
	delta := points
	if txType.IsDebit() {
		delta = -points
	}
	newBalance := m.Balance + delta
	if newBalance < 0 {
		return nil, shared.ErrInsufficientBalance
	}

	tx, err := NewPointTransaction(m.ID, txType, points, newBalance)
	if err != nil {
		return nil, err
	}

	previousTier := m.Tier
	m.Balance = newBalance
	m.Tier = ladder.Resolve(newBalance).Name
	now := time.Now()
	m.LastActivityAt = &now
	m.UpdatedAt = now
	m.IncrementVersion()

	if m.Tier != previousTier {
		m.AddDomainEvent(NewTierChangedEvent(m.ID, m.CustomerID, previousTier, m.Tier))
	}
	return tx, nil
}
