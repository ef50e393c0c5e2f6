package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/persistence/models"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

var _ loyalty.MembershipRepository = (*GormMembershipRepository)(nil)

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// Create creates a new membership. The unique index on
// (customer_id, program_id) rejects concurrent duplicate enrollments.
func (r *GormMembershipRepository) Create(ctx context.Context, membership *loyalty.Membership) error {
	model := models.MembershipModelFromDomain(membership)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyEnrolled
		}
		return err
	}
	return nil
}

// Save updates an existing membership
func (r *GormMembershipRepository) Save(ctx context.Context, membership *loyalty.Membership) error {
	model := models.MembershipModelFromDomain(membership)
	return r.conn(ctx).Save(model).Error
}

// FindByID finds a membership by ID
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Membership, error) {
	var model models.MembershipModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a membership by ID with a SELECT ... FOR UPDATE
// row lock. The lock is held until the surrounding transaction ends, so
// concurrent ledger writes against the same membership run one at a time.
func (r *GormMembershipRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*loyalty.Membership, error) {
	var model models.MembershipModel
	if err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerAndProgram finds the customer's membership in a program
func (r *GormMembershipRepository) FindByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (*loyalty.Membership, error) {
	var model models.MembershipModel
	if err := r.conn(ctx).
		Where("customer_id = ? AND program_id = ?", customerID, programID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerID finds all memberships held by a customer
func (r *GormMembershipRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*loyalty.Membership, error) {
	var membershipModels []models.MembershipModel
	if err := r.conn(ctx).
		Where("customer_id = ?", customerID).
		Order("joined_at DESC").
		Find(&membershipModels).Error; err != nil {
		return nil, err
	}

	memberships := make([]*loyalty.Membership, len(membershipModels))
	for i := range membershipModels {
		memberships[i] = membershipModels[i].ToDomain()
	}
	return memberships, nil
}

// ListByProgram lists a program's memberships with pagination
func (r *GormMembershipRepository) ListByProgram(ctx context.Context, programID uuid.UUID, filter shared.Filter) ([]*loyalty.Membership, int64, error) {
	query := r.conn(ctx).Model(&models.MembershipModel{}).
		Where("program_id = ?", programID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, MembershipSortFields, "joined_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var membershipModels []models.MembershipModel
	if err := query.Order(orderBy + " " + orderDir).Find(&membershipModels).Error; err != nil {
		return nil, 0, err
	}

	memberships := make([]*loyalty.Membership, len(membershipModels))
	for i := range membershipModels {
		memberships[i] = membershipModels[i].ToDomain()
	}
	return memberships, total, nil
}

// ExistsByCustomerAndProgram checks whether the customer is already enrolled
func (r *GormMembershipRepository) ExistsByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&models.MembershipModel{}).
		Where("customer_id = ? AND program_id = ?", customerID, programID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
