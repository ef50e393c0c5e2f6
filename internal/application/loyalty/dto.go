package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetrent/backend/internal/domain/loyalty"
)

// TierInput represents one tier of a program's ladder in requests
type TierInput struct {
	Name            string          `json:"name" binding:"required"`
	MinimumPoints   int64           `json:"minimum_points" binding:"min=0"`
	Benefits        []string        `json:"benefits"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// RedemptionRuleInput represents one redemption rule in requests
type RedemptionRuleInput struct {
	PointsRequired    int64           `json:"points_required" binding:"required,gt=0"`
	RewardDescription string          `json:"reward_description" binding:"required"`
	MonetaryValue     decimal.Decimal `json:"monetary_value"`
}

// CreateProgramRequest carries the fields for creating a program
type CreateProgramRequest struct {
	Name                  string                `json:"name" binding:"required,max=200"`
	Description           string                `json:"description"`
	PointsPerCurrencyUnit decimal.Decimal       `json:"points_per_currency_unit" binding:"required"`
	Tiers                 []TierInput           `json:"tiers" binding:"required,min=1,dive"`
	RedemptionRules       []RedemptionRuleInput `json:"redemption_rules" binding:"dive"`
}

// UpdateProgramRequest carries partial program updates. Nil fields are
// left unchanged.
type UpdateProgramRequest struct {
	Name                  *string                `json:"name"`
	Description           *string                `json:"description"`
	PointsPerCurrencyUnit *decimal.Decimal       `json:"points_per_currency_unit"`
	Tiers                 *[]TierInput           `json:"tiers"`
	RedemptionRules       *[]RedemptionRuleInput `json:"redemption_rules"`
}

// ProgramListFilter represents filter options for program lists
type ProgramListFilter struct {
	ActiveOnly bool   `form:"active_only"`
	Search     string `form:"search"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TierResponse represents one tier in responses
type TierResponse struct {
	Name            string          `json:"name"`
	MinimumPoints   int64           `json:"minimum_points"`
	Benefits        []string        `json:"benefits,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// RedemptionRuleResponse represents one redemption rule in responses
type RedemptionRuleResponse struct {
	PointsRequired    int64           `json:"points_required"`
	RewardDescription string          `json:"reward_description"`
	MonetaryValue     decimal.Decimal `json:"monetary_value"`
}

// ProgramResponse represents a program in responses
type ProgramResponse struct {
	ID                    uuid.UUID                `json:"id"`
	Name                  string                   `json:"name"`
	Description           string                   `json:"description"`
	PointsPerCurrencyUnit decimal.Decimal          `json:"points_per_currency_unit"`
	Active                bool                     `json:"active"`
	Tiers                 []TierResponse           `json:"tiers"`
	RedemptionRules       []RedemptionRuleResponse `json:"redemption_rules"`
	CreatedAt             time.Time                `json:"created_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// MembershipResponse represents a membership in responses
type MembershipResponse struct {
	ID             uuid.UUID  `json:"id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	ProgramID      uuid.UUID  `json:"program_id"`
	Balance        int64      `json:"balance"`
	Tier           string     `json:"tier"`
	JoinedAt       time.Time  `json:"joined_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// MemberResponse pairs a membership with its customer for admin listings
type MemberResponse struct {
	Membership   MembershipResponse `json:"membership"`
	CustomerName string             `json:"customer_name"`
	Username     string             `json:"username"`
}

// EnrollRequest carries the fields for enrolling a customer
type EnrollRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	ProgramID  uuid.UUID `json:"program_id" binding:"required"`
}

// ApplyTransactionRequest carries the fields for posting a ledger entry
type ApplyTransactionRequest struct {
	Type        string     `json:"type" binding:"required,oneof=EARN REDEEM EXPIRE BONUS"`
	Points      int64      `json:"points" binding:"required,gt=0"`
	SourceType  string     `json:"source_type" binding:"omitempty,oneof=RENTAL MANUAL SYSTEM"`
	SourceID    *uuid.UUID `json:"source_id"`
	Description string     `json:"description"`
}

// TransactionListFilter represents filter options for transaction lists
type TransactionListFilter struct {
	Type      string     `form:"type" binding:"omitempty,oneof=EARN REDEEM EXPIRE BONUS"`
	ProgramID *uuid.UUID `form:"program_id"`
	DateFrom  string     `form:"date_from"`
	DateTo    string     `form:"date_to"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse represents a ledger entry in responses
type TransactionResponse struct {
	ID              uuid.UUID  `json:"id"`
	MembershipID    uuid.UUID  `json:"membership_id"`
	Type            string     `json:"type"`
	Points          int64      `json:"points"`
	SignedPoints    int64      `json:"signed_points"`
	BalanceAfter    int64      `json:"balance_after"`
	SourceType      string     `json:"source_type,omitempty"`
	SourceID        *uuid.UUID `json:"source_id,omitempty"`
	Description     string     `json:"description,omitempty"`
	TransactionDate time.Time  `json:"transaction_date"`
}

// RedemptionCheckRequest asks whether a customer can redeem points
type RedemptionCheckRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
	ProgramID  uuid.UUID `json:"program_id" binding:"required"`
	Points     int64     `json:"points" binding:"required,gt=0"`
}

// RedemptionCheckResponse is the evaluator verdict. Reason is set only
// when the redemption is not eligible.
type RedemptionCheckResponse struct {
	Eligible          bool             `json:"eligible"`
	Reason            string           `json:"reason,omitempty"`
	AvailablePoints   int64            `json:"available_points"`
	RewardDescription string           `json:"reward_description,omitempty"`
	MonetaryValue     *decimal.Decimal `json:"monetary_value,omitempty"`
}

// StatsResponse represents program-wide statistics
type StatsResponse struct {
	ProgramID           uuid.UUID        `json:"program_id"`
	MemberCount         int64            `json:"member_count"`
	TotalPointsIssued   int64            `json:"total_points_issued"`
	TotalPointsRedeemed int64            `json:"total_points_redeemed"`
	TotalPointsExpired  int64            `json:"total_points_expired"`
	TotalActivePoints   int64            `json:"total_active_points"`
	RedemptionRate      float64          `json:"redemption_rate"`
	MembershipByTier    map[string]int64 `json:"membership_by_tier"`
}

// ToProgramResponse converts a domain Program to ProgramResponse
func ToProgramResponse(p *loyalty.Program) ProgramResponse {
	tiers := make([]TierResponse, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = TierResponse{
			Name:            t.Name,
			MinimumPoints:   t.MinimumPoints,
			Benefits:        t.Benefits,
			DiscountPercent: t.DiscountPercent,
		}
	}
	rules := make([]RedemptionRuleResponse, len(p.RedemptionRules))
	for i, r := range p.RedemptionRules {
		rules[i] = RedemptionRuleResponse{
			PointsRequired:    r.PointsRequired,
			RewardDescription: r.RewardDescription,
			MonetaryValue:     r.MonetaryValue,
		}
	}
	return ProgramResponse{
		ID:                    p.ID,
		Name:                  p.Name,
		Description:           p.Description,
		PointsPerCurrencyUnit: p.PointsPerCurrencyUnit,
		Active:                p.Active,
		Tiers:                 tiers,
		RedemptionRules:       rules,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

// ToProgramResponses converts a slice of domain Programs
func ToProgramResponses(programs []*loyalty.Program) []ProgramResponse {
	responses := make([]ProgramResponse, len(programs))
	for i, p := range programs {
		responses[i] = ToProgramResponse(p)
	}
	return responses
}

// ToMembershipResponse converts a domain Membership to MembershipResponse
func ToMembershipResponse(m *loyalty.Membership) MembershipResponse {
	return MembershipResponse{
		ID:             m.ID,
		CustomerID:     m.CustomerID,
		ProgramID:      m.ProgramID,
		Balance:        m.Balance,
		Tier:           m.Tier,
		JoinedAt:       m.JoinedAt,
		LastActivityAt: m.LastActivityAt,
		ExpiresAt:      m.ExpiresAt,
	}
}

// ToTransactionResponse converts a domain PointTransaction to TransactionResponse
func ToTransactionResponse(t *loyalty.PointTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		MembershipID:    t.MembershipID,
		Type:            t.Type.String(),
		Points:          t.Points,
		SignedPoints:    t.SignedPoints(),
		BalanceAfter:    t.BalanceAfter,
		SourceType:      t.SourceType,
		SourceID:        t.SourceID,
		Description:     t.Description,
		TransactionDate: t.TransactionDate,
	}
}

// ToTransactionResponses converts a slice of domain PointTransactions
func ToTransactionResponses(transactions []*loyalty.PointTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		responses[i] = ToTransactionResponse(t)
	}
	return responses
}

func toTierLadder(inputs []TierInput) loyalty.TierLadder {
	ladder := make(loyalty.TierLadder, len(inputs))
	for i, t := range inputs {
		ladder[i] = loyalty.Tier{
			Name:            t.Name,
			MinimumPoints:   t.MinimumPoints,
			Benefits:        t.Benefits,
			DiscountPercent: t.DiscountPercent,
		}
	}
	return ladder
}

func toRedemptionRules(inputs []RedemptionRuleInput) []loyalty.RedemptionRule {
	rules := make([]loyalty.RedemptionRule, len(inputs))
	for i, r := range inputs {
		rules[i] = loyalty.RedemptionRule{
			PointsRequired:    r.PointsRequired,
			RewardDescription: r.RewardDescription,
			MonetaryValue:     r.MonetaryValue,
		}
	}
	return rules
}
