package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/infrastructure/persistence/models"
)

// GormStatsRepository computes program-wide aggregates in SQL rather than
// loading memberships and ledger rows into memory.
type GormStatsRepository struct {
	db *gorm.DB
}

var _ loyalty.StatsRepository = (*GormStatsRepository)(nil)

// NewGormStatsRepository creates a new GormStatsRepository
func NewGormStatsRepository(db *gorm.DB) *GormStatsRepository {
	return &GormStatsRepository{db: db}
}

func (r *GormStatsRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// MemberCount counts a program's memberships
func (r *GormStatsRepository) MemberCount(ctx context.Context, programID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.MembershipModel{}).
		Where("program_id = ?", programID).
		Count(&count).Error
	return count, err
}

// SumPointsByType sums transaction magnitudes for a program by type
func (r *GormStatsRepository) SumPointsByType(ctx context.Context, programID uuid.UUID, txType loyalty.PointTransactionType) (int64, error) {
	var total int64
	err := r.conn(ctx).Model(&models.PointTransactionModel{}).
		Select("COALESCE(SUM(points), 0)").
		Joins("JOIN loyalty_memberships m ON m.id = loyalty_transactions.membership_id").
		Where("m.program_id = ? AND loyalty_transactions.type = ?", programID, txType).
		Scan(&total).Error
	return total, err
}

// SumBalances sums the current balances of a program's memberships
func (r *GormStatsRepository) SumBalances(ctx context.Context, programID uuid.UUID) (int64, error) {
	var total int64
	err := r.conn(ctx).Model(&models.MembershipModel{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("program_id = ?", programID).
		Scan(&total).Error
	return total, err
}

// CountByTier groups a program's memberships by tier
func (r *GormStatsRepository) CountByTier(ctx context.Context, programID uuid.UUID) (map[string]int64, error) {
	var results []struct {
		Tier  string
		Count int64
	}
	err := r.conn(ctx).Model(&models.MembershipModel{}).
		Select("tier, COUNT(*) as count").
		Where("program_id = ?", programID).
		Group("tier").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	byTier := make(map[string]int64, len(results))
	for _, row := range results {
		byTier[row.Tier] = row.Count
	}
	return byTier, nil
}
