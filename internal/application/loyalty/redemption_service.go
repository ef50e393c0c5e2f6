package loyalty

import (
	"context"
	"errors"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// Ineligibility reasons returned by the redemption evaluator
const (
	ReasonNotEnrolled        = "not enrolled"
	ReasonInsufficientPoints = "insufficient points"
	ReasonNoMatchingRule     = "no matching redemption rule"
)

// RedemptionService evaluates redemption eligibility. It never writes;
// the actual redemption is a REDEEM entry posted through the ledger.
type RedemptionService struct {
	programRepo    loyalty.ProgramRepository
	membershipRepo loyalty.MembershipRepository
}

// NewRedemptionService creates a new RedemptionService
func NewRedemptionService(programRepo loyalty.ProgramRepository, membershipRepo loyalty.MembershipRepository) *RedemptionService {
	return &RedemptionService{
		programRepo:    programRepo,
		membershipRepo: membershipRepo,
	}
}

// CanRedeem checks whether a customer can redeem the given number of
// points in a program. Checks run in a fixed order: enrollment, balance,
// rule match. A rule matches only on exact point cost.
func (s *RedemptionService) CanRedeem(ctx context.Context, req RedemptionCheckRequest) (*RedemptionCheckResponse, error) {
	program, err := s.programRepo.FindByID(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}

	membership, err := s.membershipRepo.FindByCustomerAndProgram(ctx, req.CustomerID, req.ProgramID)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) && de.Code == "NOT_FOUND" {
			return &RedemptionCheckResponse{Eligible: false, Reason: ReasonNotEnrolled}, nil
		}
		return nil, err
	}

	if membership.Balance < req.Points {
		return &RedemptionCheckResponse{
			Eligible:        false,
			Reason:          ReasonInsufficientPoints,
			AvailablePoints: membership.Balance,
		}, nil
	}

	rule := program.MatchRedemptionRule(req.Points)
	if rule == nil {
		return &RedemptionCheckResponse{
			Eligible:        false,
			Reason:          ReasonNoMatchingRule,
			AvailablePoints: membership.Balance,
		}, nil
	}

	return &RedemptionCheckResponse{
		Eligible:          true,
		AvailablePoints:   membership.Balance,
		RewardDescription: rule.RewardDescription,
		MonetaryValue:     &rule.MonetaryValue,
	}, nil
}
