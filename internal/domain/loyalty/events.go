package loyalty

import (
	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeProgram    = "LoyaltyProgram"
	AggregateTypeMembership = "LoyaltyMembership"
)

// Event type constants
const (
	EventTypeProgramCreated     = "LoyaltyProgramCreated"
	EventTypeProgramDeactivated = "LoyaltyProgramDeactivated"
	EventTypeMemberEnrolled     = "LoyaltyMemberEnrolled"
	EventTypeTierChanged        = "LoyaltyTierChanged"
)

// ProgramCreatedEvent is published when a new program is created
type ProgramCreatedEvent struct {
	shared.BaseDomainEvent
	ProgramID uuid.UUID `json:"program_id"`
	Name      string    `json:"name"`
}

// NewProgramCreatedEvent creates a new ProgramCreatedEvent
func NewProgramCreatedEvent(programID uuid.UUID, name string) *ProgramCreatedEvent {
	return &ProgramCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProgramCreated, AggregateTypeProgram, programID),
		ProgramID:       programID,
		Name:            name,
	}
}

// ProgramDeactivatedEvent is published when a program is retired
type ProgramDeactivatedEvent struct {
	shared.BaseDomainEvent
	ProgramID uuid.UUID `json:"program_id"`
	Name      string    `json:"name"`
}

// NewProgramDeactivatedEvent creates a new ProgramDeactivatedEvent
func NewProgramDeactivatedEvent(programID uuid.UUID, name string) *ProgramDeactivatedEvent {
	return &ProgramDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProgramDeactivated, AggregateTypeProgram, programID),
		ProgramID:       programID,
		Name:            name,
	}
}

// MemberEnrolledEvent is published when a customer joins a program
type MemberEnrolledEvent struct {
	shared.BaseDomainEvent
	MembershipID uuid.UUID `json:"membership_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	ProgramID    uuid.UUID `json:"program_id"`
}

// NewMemberEnrolledEvent creates a new MemberEnrolledEvent
func NewMemberEnrolledEvent(membershipID, customerID, programID uuid.UUID) *MemberEnrolledEvent {
	return &MemberEnrolledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMemberEnrolled, AggregateTypeMembership, membershipID),
		MembershipID:    membershipID,
		CustomerID:      customerID,
		ProgramID:       programID,
	}
}

// TierChangedEvent is published when a transaction moves a member to a
// different tier, in either direction
type TierChangedEvent struct {
	shared.BaseDomainEvent
	MembershipID uuid.UUID `json:"membership_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	FromTier     string    `json:"from_tier"`
	ToTier       string    `json:"to_tier"`
}

// NewTierChangedEvent creates a new TierChangedEvent
func NewTierChangedEvent(membershipID, customerID uuid.UUID, fromTier, toTier string) *TierChangedEvent {
	return &TierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTierChanged, AggregateTypeMembership, membershipID),
		MembershipID:    membershipID,
		CustomerID:      customerID,
		FromTier:        fromTier,
		ToTier:          toTier,
	}
}
