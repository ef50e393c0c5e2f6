package loyalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/loyalty"
)

// StatisticsService computes program-wide aggregates. Results reflect
// committed state and may lag in-flight ledger writes.
type StatisticsService struct {
	programRepo loyalty.ProgramRepository
	statsRepo   loyalty.StatsRepository
}

// NewStatisticsService creates a new StatisticsService
func NewStatisticsService(programRepo loyalty.ProgramRepository, statsRepo loyalty.StatsRepository) *StatisticsService {
	return &StatisticsService{
		programRepo: programRepo,
		statsRepo:   statsRepo,
	}
}

// ProgramStatistics aggregates one program's memberships and ledger.
// A program with no activity yields all-zero statistics, never an error.
func (s *StatisticsService) ProgramStatistics(ctx context.Context, programID uuid.UUID) (*StatsResponse, error) {
	if _, err := s.programRepo.FindByID(ctx, programID); err != nil {
		return nil, err
	}

	memberCount, err := s.statsRepo.MemberCount(ctx, programID)
	if err != nil {
		return nil, err
	}
	earned, err := s.statsRepo.SumPointsByType(ctx, programID, loyalty.PointTransactionTypeEarn)
	if err != nil {
		return nil, err
	}
	bonus, err := s.statsRepo.SumPointsByType(ctx, programID, loyalty.PointTransactionTypeBonus)
	if err != nil {
		return nil, err
	}
	redeemed, err := s.statsRepo.SumPointsByType(ctx, programID, loyalty.PointTransactionTypeRedeem)
	if err != nil {
		return nil, err
	}
	expired, err := s.statsRepo.SumPointsByType(ctx, programID, loyalty.PointTransactionTypeExpire)
	if err != nil {
		return nil, err
	}
	activePoints, err := s.statsRepo.SumBalances(ctx, programID)
	if err != nil {
		return nil, err
	}
	byTier, err := s.statsRepo.CountByTier(ctx, programID)
	if err != nil {
		return nil, err
	}

	issued := earned + bonus
	rate := 0.0
	if issued > 0 {
		rate = float64(redeemed) / float64(issued) * 100
	}

	return &StatsResponse{
		ProgramID:           programID,
		MemberCount:         memberCount,
		TotalPointsIssued:   issued,
		TotalPointsRedeemed: redeemed,
		TotalPointsExpired:  expired,
		TotalActivePoints:   activePoints,
		RedemptionRate:      rate,
		MembershipByTier:    byTier,
	}, nil
}
