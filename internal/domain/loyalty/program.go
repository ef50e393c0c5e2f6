package loyalty

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// Tier is one level of a program's tier ladder
type Tier struct {
	Name            string          `json:"name"`
	MinimumPoints   int64           `json:"minimum_points"`
	Benefits        []string        `json:"benefits,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// TierLadder is an ordered set of tiers, sorted ascending by minimum points.
// A valid ladder always contains exactly one floor tier at zero points.
type TierLadder []Tier

// Validate checks the ladder invariants: non-empty, exactly one tier at
// zero minimum points, strictly increasing thresholds, non-empty names.
func (l TierLadder) Validate() error {
	if len(l) == 0 {
		return shared.NewDomainError("VALIDATION_ERROR", "tier ladder must contain at least one tier")
	}
	floors := 0
	seen := make(map[int64]bool, len(l))
	for _, t := range l {
		if strings.TrimSpace(t.Name) == "" {
			return shared.NewDomainError("VALIDATION_ERROR", "tier name is required")
		}
		if t.MinimumPoints < 0 {
			return shared.NewDomainError("VALIDATION_ERROR", "tier minimum points cannot be negative")
		}
		if t.MinimumPoints == 0 {
			floors++
		}
		if seen[t.MinimumPoints] {
			return shared.NewDomainError("VALIDATION_ERROR", "tier thresholds must be strictly increasing")
		}
		seen[t.MinimumPoints] = true
	}
	if floors != 1 {
		return shared.NewDomainError("VALIDATION_ERROR", "tier ladder must contain exactly one tier at zero points")
	}
	return nil
}

// sorted returns a copy of the ladder ordered ascending by minimum points.
func (l TierLadder) sorted() TierLadder {
	out := make(TierLadder, len(l))
	copy(out, l)
	sort.Slice(out, func(i, j int) bool { return out[i].MinimumPoints < out[j].MinimumPoints })
	return out
}

// Resolve returns the tier with the greatest minimum points that does not
// exceed balance. The ladder is stored ascending, so this scans from the top.
// A balance may cross several thresholds at once; resolution depends only on
// the final balance, never on the previous tier.
func (l TierLadder) Resolve(balance int64) Tier {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].MinimumPoints <= balance {
			return l[i]
		}
	}
	return l[0]
}

// Floor returns the zero-point entry tier.
func (l TierLadder) Floor() Tier {
	return l[0]
}

// RedemptionRule describes one reward a member can redeem points for
type RedemptionRule struct {
	PointsRequired    int64           `json:"points_required"`
	RewardDescription string          `json:"reward_description"`
	MonetaryValue     decimal.Decimal `json:"monetary_value"`
}

// Program is the loyalty program aggregate root. Programs are never hard
// deleted; retired programs are deactivated so memberships and the
// transaction history stay queryable.
type Program struct {
	shared.BaseAggregateRoot
	Name                  string
	Description           string
	PointsPerCurrencyUnit decimal.Decimal
	Active                bool
	Tiers                 TierLadder
	RedemptionRules       []RedemptionRule
}

// NewProgram creates a program, validating the earn rate, the tier ladder
// and the redemption rules. Tiers are stored sorted ascending.
func NewProgram(name, description string, earnRate decimal.Decimal, tiers TierLadder, rules []RedemptionRule) (*Program, error) {
	p := &Program{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Active:            true,
	}
	if err := p.setName(name); err != nil {
		return nil, err
	}
	p.Description = description
	if err := p.setEarnRate(earnRate); err != nil {
		return nil, err
	}
	if err := p.setTiers(tiers); err != nil {
		return nil, err
	}
	if err := p.setRedemptionRules(rules); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProgramCreatedEvent(p.ID, p.Name))
	return p, nil
}

func (p *Program) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "program name is required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("VALIDATION_ERROR", "program name cannot exceed 200 characters")
	}
	p.Name = name
	return nil
}

func (p *Program) setEarnRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "points per currency unit must be positive")
	}
	p.PointsPerCurrencyUnit = rate
	return nil
}

func (p *Program) setTiers(tiers TierLadder) error {
	if err := tiers.Validate(); err != nil {
		return err
	}
	p.Tiers = tiers.sorted()
	return nil
}

func (p *Program) setRedemptionRules(rules []RedemptionRule) error {
	seen := make(map[int64]bool, len(rules))
	for _, r := range rules {
		if r.PointsRequired <= 0 {
			return shared.NewDomainError("VALIDATION_ERROR", "redemption rule points must be positive")
		}
		if strings.TrimSpace(r.RewardDescription) == "" {
			return shared.NewDomainError("VALIDATION_ERROR", "redemption rule description is required")
		}
		if r.MonetaryValue.IsNegative() {
			return shared.NewDomainError("VALIDATION_ERROR", "redemption rule value cannot be negative")
		}
		if seen[r.PointsRequired] {
			return shared.NewDomainError("VALIDATION_ERROR", "redemption rules must have unique point costs")
		}
		seen[r.PointsRequired] = true
	}
	p.RedemptionRules = rules
	return nil
}

// UpdateDetails changes the program's name and description.
func (p *Program) UpdateDetails(name, description string) error {
	if err := p.setName(name); err != nil {
		return err
	}
	p.Description = description
	p.touch()
	return nil
}

// UpdateEarnRate changes how many points one currency unit earns.
// Existing balances are not recalculated.
func (p *Program) UpdateEarnRate(rate decimal.Decimal) error {
	if err := p.setEarnRate(rate); err != nil {
		return err
	}
	p.touch()
	return nil
}

// UpdateTiers replaces the tier ladder. Member tiers are re-resolved lazily,
// on each member's next transaction.
func (p *Program) UpdateTiers(tiers TierLadder) error {
	if err := p.setTiers(tiers); err != nil {
		return err
	}
	p.touch()
	return nil
}

// UpdateRedemptionRules replaces the redemption rule set.
func (p *Program) UpdateRedemptionRules(rules []RedemptionRule) error {
	if err := p.setRedemptionRules(rules); err != nil {
		return err
	}
	p.touch()
	return nil
}

// Deactivate retires the program. Existing memberships and transaction
// history are untouched; new enrollments are rejected.
func (p *Program) Deactivate() {
	if !p.Active {
		return
	}
	p.Active = false
	p.touch()
	p.AddDomainEvent(NewProgramDeactivatedEvent(p.ID, p.Name))
}

// MatchRedemptionRule returns the rule whose cost equals points exactly,
// or nil when no rule matches. Matching is intentionally exact, not
// greatest-not-exceeding.
func (p *Program) MatchRedemptionRule(points int64) *RedemptionRule {
	for i := range p.RedemptionRules {
		if p.RedemptionRules[i].PointsRequired == points {
			return &p.RedemptionRules[i]
		}
	}
	return nil
}

// EarnedPoints converts a monetary amount into points at the program's
// earn rate, truncating toward zero.
func (p *Program) EarnedPoints(amount decimal.Decimal) int64 {
	if amount.IsNegative() {
		return 0
	}
	return amount.Mul(p.PointsPerCurrencyUnit).IntPart()
}

func (p *Program) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
