package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// ProgramModel is the persistence model for the loyalty Program aggregate.
// The tier ladder and redemption rules are embedded documents; they are
// small, always read together with the program and never queried by column.
type ProgramModel struct {
	AggregateModel
	Name                  string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_program_name"`
	Description           string          `gorm:"type:text"`
	PointsPerCurrencyUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active                bool            `gorm:"not null;default:true;index"`
	Tiers                 string          `gorm:"type:jsonb;not null;default:'[]'"`
	RedemptionRules       string          `gorm:"type:jsonb;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (ProgramModel) TableName() string {
	return "loyalty_programs"
}

// ToDomain converts the persistence model to a domain Program aggregate.
func (m *ProgramModel) ToDomain() (*loyalty.Program, error) {
	var tiers loyalty.TierLadder
	if m.Tiers != "" {
		if err := json.Unmarshal([]byte(m.Tiers), &tiers); err != nil {
			return nil, err
		}
	}
	var rules []loyalty.RedemptionRule
	if m.RedemptionRules != "" {
		if err := json.Unmarshal([]byte(m.RedemptionRules), &rules); err != nil {
			return nil, err
		}
	}

	return &loyalty.Program{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Name:                  m.Name,
		Description:           m.Description,
		PointsPerCurrencyUnit: m.PointsPerCurrencyUnit,
		Active:                m.Active,
		Tiers:                 tiers,
		RedemptionRules:       rules,
	}, nil
}

// FromDomain populates the persistence model from a domain Program aggregate.
func (m *ProgramModel) FromDomain(p *loyalty.Program) error {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Description = p.Description
	m.PointsPerCurrencyUnit = p.PointsPerCurrencyUnit
	m.Active = p.Active

	tiers, err := json.Marshal(p.Tiers)
	if err != nil {
		return err
	}
	m.Tiers = string(tiers)

	rules := p.RedemptionRules
	if rules == nil {
		rules = []loyalty.RedemptionRule{}
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	m.RedemptionRules = string(rulesJSON)
	return nil
}

// ProgramModelFromDomain creates a new persistence model from a domain Program.
func ProgramModelFromDomain(p *loyalty.Program) (*ProgramModel, error) {
	m := &ProgramModel{}
	if err := m.FromDomain(p); err != nil {
		return nil, err
	}
	return m, nil
}

// MembershipModel is the persistence model for the Membership aggregate.
// The unique index on (customer_id, program_id) backs the one-membership-per
// customer-per-program rule against concurrent enrollments.
type MembershipModel struct {
	AggregateModel
	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_customer_program,priority:1"`
	ProgramID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_membership_customer_program,priority:2;index"`
	Balance        int64      `gorm:"not null;default:0"`
	Tier           string     `gorm:"type:varchar(100);not null"`
	JoinedAt       time.Time  `gorm:"not null"`
	LastActivityAt *time.Time `gorm:""`
	ExpiresAt      *time.Time `gorm:""`
}

// TableName returns the table name for GORM
func (MembershipModel) TableName() string {
	return "loyalty_memberships"
}

// ToDomain converts the persistence model to a domain Membership aggregate.
func (m *MembershipModel) ToDomain() *loyalty.Membership {
	return &loyalty.Membership{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		CustomerID:     m.CustomerID,
		ProgramID:      m.ProgramID,
		Balance:        m.Balance,
		Tier:           m.Tier,
		JoinedAt:       m.JoinedAt,
		LastActivityAt: m.LastActivityAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain Membership.
func (m *MembershipModel) FromDomain(mem *loyalty.Membership) {
	m.FromDomainAggregateRoot(mem.BaseAggregateRoot)
	m.CustomerID = mem.CustomerID
	m.ProgramID = mem.ProgramID
	m.Balance = mem.Balance
	m.Tier = mem.Tier
	m.JoinedAt = mem.JoinedAt
	m.LastActivityAt = mem.LastActivityAt
	m.ExpiresAt = mem.ExpiresAt
}

// MembershipModelFromDomain creates a new persistence model from a domain Membership.
func MembershipModelFromDomain(mem *loyalty.Membership) *MembershipModel {
	m := &MembershipModel{}
	m.FromDomain(mem)
	return m
}

// PointTransactionModel is the persistence model for ledger entries. Rows
// are inserted and read, never updated or deleted.
type PointTransactionModel struct {
	BaseModel
	MembershipID    uuid.UUID                    `gorm:"type:uuid;not null;index:idx_point_tx_membership"`
	Type            loyalty.PointTransactionType `gorm:"type:varchar(20);not null"`
	Points          int64                        `gorm:"not null"`
	BalanceAfter    int64                        `gorm:"not null"`
	SourceType      string                       `gorm:"type:varchar(20)"`
	SourceID        *uuid.UUID                   `gorm:"type:uuid;index:idx_point_tx_source"`
	Description     string                       `gorm:"type:text"`
	TransactionDate time.Time                    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PointTransactionModel) TableName() string {
	return "loyalty_transactions"
}

// ToDomain converts the persistence model to a domain PointTransaction.
func (m *PointTransactionModel) ToDomain() *loyalty.PointTransaction {
	return &loyalty.PointTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		MembershipID:    m.MembershipID,
		Type:            m.Type,
		Points:          m.Points,
		BalanceAfter:    m.BalanceAfter,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain PointTransaction.
func (m *PointTransactionModel) FromDomain(tx *loyalty.PointTransaction) {
	m.FromDomainBaseEntity(tx.BaseEntity)
	m.MembershipID = tx.MembershipID
	m.Type = tx.Type
	m.Points = tx.Points
	m.BalanceAfter = tx.BalanceAfter
	m.SourceType = tx.SourceType
	m.SourceID = tx.SourceID
	m.Description = tx.Description
	m.TransactionDate = tx.TransactionDate
}

// PointTransactionModelFromDomain creates a new persistence model from a
// domain PointTransaction.
func PointTransactionModelFromDomain(tx *loyalty.PointTransaction) *PointTransactionModel {
	m := &PointTransactionModel{}
	m.FromDomain(tx)
	return m
}
