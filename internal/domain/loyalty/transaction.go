package loyalty

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// PointTransactionType classifies a ledger entry. The type implies the
// sign: EARN and BONUS credit the balance, REDEEM and EXPIRE debit it.
// Points are always stored as a positive magnitude.
type PointTransactionType string

const (
	PointTransactionTypeEarn   PointTransactionType = "EARN"
	PointTransactionTypeRedeem PointTransactionType = "REDEEM"
	PointTransactionTypeExpire PointTransactionType = "EXPIRE"
	PointTransactionTypeBonus  PointTransactionType = "BONUS"
)

// IsValid checks if the transaction type is valid
func (t PointTransactionType) IsValid() bool {
	switch t {
	case PointTransactionTypeEarn, PointTransactionTypeRedeem,
		PointTransactionTypeExpire, PointTransactionTypeBonus:
		return true
	}
	return false
}

// IsCredit returns true for types that increase the balance
func (t PointTransactionType) IsCredit() bool {
	return t == PointTransactionTypeEarn || t == PointTransactionTypeBonus
}

// IsDebit returns true for types that decrease the balance
func (t PointTransactionType) IsDebit() bool {
	return t == PointTransactionTypeRedeem || t == PointTransactionTypeExpire
}

// String returns the string representation
func (t PointTransactionType) String() string {
	return string(t)
}

// Source types attribute a transaction to what produced it
const (
	SourceTypeRental = "RENTAL"
	SourceTypeManual = "MANUAL"
	SourceTypeSystem = "SYSTEM"
)

// PointTransaction is one immutable entry in a membership's point ledger.
// Entries are never updated or deleted; corrections are made by appending
// an offsetting entry. The signed sum of a membership's entries equals its
// balance.
type PointTransaction struct {
	shared.BaseEntity
	MembershipID    uuid.UUID
	Type            PointTransactionType
	Points          int64 // positive magnitude, sign implied by Type
	BalanceAfter    int64
	SourceType      string
	SourceID        *uuid.UUID
	Description     string
	TransactionDate time.Time
}

// NewPointTransaction creates a validated ledger entry.
func NewPointTransaction(membershipID uuid.UUID, txType PointTransactionType, points int64, balanceAfter int64) (*PointTransaction, error) {
	if membershipID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "membership ID is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "invalid transaction type")
	}
	if points <= 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "transaction points must be positive")
	}
	if balanceAfter < 0 {
		return nil, shared.ErrInsufficientBalance
	}
	return &PointTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		MembershipID:    membershipID,
		Type:            txType,
		Points:          points,
		BalanceAfter:    balanceAfter,
		TransactionDate: time.Now(),
	}, nil
}

// WithSource attributes the transaction to an originating record,
// e.g. the rental that earned the points.
func (t *PointTransaction) WithSource(sourceType string, sourceID uuid.UUID) *PointTransaction {
	t.SourceType = strings.ToUpper(sourceType)
	t.SourceID = &sourceID
	return t
}

// WithDescription sets a free-form description
func (t *PointTransaction) WithDescription(description string) *PointTransaction {
	t.Description = description
	return t
}

// SignedPoints returns the points with the sign implied by the type
func (t *PointTransaction) SignedPoints() int64 {
	if t.Type.IsDebit() {
		return -t.Points
	}
	return t.Points
}
