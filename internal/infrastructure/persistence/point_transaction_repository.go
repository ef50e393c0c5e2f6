package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/persistence/models"
)

// GormPointTransactionRepository implements PointTransactionRepository using
// GORM. The ledger is append-only; this repository never updates or deletes.
type GormPointTransactionRepository struct {
	db *gorm.DB
}

var _ loyalty.PointTransactionRepository = (*GormPointTransactionRepository)(nil)

// NewGormPointTransactionRepository creates a new GormPointTransactionRepository
func NewGormPointTransactionRepository(db *gorm.DB) *GormPointTransactionRepository {
	return &GormPointTransactionRepository{db: db}
}

func (r *GormPointTransactionRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// Create appends a transaction to the ledger
func (r *GormPointTransactionRepository) Create(ctx context.Context, transaction *loyalty.PointTransaction) error {
	model := models.PointTransactionModelFromDomain(transaction)
	return r.conn(ctx).Create(model).Error
}

// FindByID finds a transaction by ID
func (r *GormPointTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.PointTransaction, error) {
	var model models.PointTransactionModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMembershipID lists a membership's transactions, newest first
func (r *GormPointTransactionRepository) FindByMembershipID(ctx context.Context, membershipID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	query := r.conn(ctx).Model(&models.PointTransactionModel{}).
		Where("membership_id = ?", membershipID)
	return r.list(r.applyFilter(ctx, query, filter), filter)
}

// FindByCustomerID lists transactions across all of a customer's
// memberships, newest first
func (r *GormPointTransactionRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	query := r.conn(ctx).Model(&models.PointTransactionModel{}).
		Where("membership_id IN (?)",
			r.conn(ctx).Model(&models.MembershipModel{}).
				Select("id").
				Where("customer_id = ?", customerID),
		)
	return r.list(r.applyFilter(ctx, query, filter), filter)
}

// ExistsBySource checks whether a transaction from the given source was
// already posted against the membership
func (r *GormPointTransactionRepository) ExistsBySource(ctx context.Context, membershipID uuid.UUID, sourceType string, sourceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&models.PointTransactionModel{}).
		Where("membership_id = ? AND source_type = ? AND source_id = ?", membershipID, sourceType, sourceID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies the type, program and date-range criteria.
func (r *GormPointTransactionRepository) applyFilter(ctx context.Context, query *gorm.DB, filter loyalty.TransactionFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.ProgramID != nil {
		query = query.Where("membership_id IN (?)",
			r.conn(ctx).Model(&models.MembershipModel{}).
				Select("id").
				Where("program_id = ?", *filter.ProgramID),
		)
	}
	if filter.DateFrom != nil {
		query = query.Where("transaction_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("transaction_date <= ?", *filter.DateTo)
	}
	return query
}

// list counts, paginates and loads a filtered ledger query.
func (r *GormPointTransactionRepository) list(query *gorm.DB, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var transactionModels []models.PointTransactionModel
	if err := query.Order("transaction_date DESC, created_at DESC").Find(&transactionModels).Error; err != nil {
		return nil, 0, err
	}

	transactions := make([]*loyalty.PointTransaction, len(transactionModels))
	for i := range transactionModels {
		transactions[i] = transactionModels[i].ToDomain()
	}
	return transactions, total, nil
}
