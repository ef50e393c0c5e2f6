package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/persistence/models"
)

// GormProgramRepository implements ProgramRepository using GORM
type GormProgramRepository struct {
	db *gorm.DB
}

var _ loyalty.ProgramRepository = (*GormProgramRepository)(nil)

// NewGormProgramRepository creates a new GormProgramRepository
func NewGormProgramRepository(db *gorm.DB) *GormProgramRepository {
	return &GormProgramRepository{db: db}
}

func (r *GormProgramRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// Save creates or updates a program
func (r *GormProgramRepository) Save(ctx context.Context, program *loyalty.Program) error {
	model, err := models.ProgramModelFromDomain(program)
	if err != nil {
		return err
	}
	return r.conn(ctx).Save(model).Error
}

// FindByID finds a program by ID
func (r *GormProgramRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Program, error) {
	var model models.ProgramModel
	if err := r.conn(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// List lists programs with filtering and pagination
func (r *GormProgramRepository) List(ctx context.Context, filter loyalty.ProgramFilter) ([]*loyalty.Program, int64, error) {
	query := r.conn(ctx).Model(&models.ProgramModel{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var programModels []models.ProgramModel
	if err := query.Order("created_at DESC").Find(&programModels).Error; err != nil {
		return nil, 0, err
	}

	programs := make([]*loyalty.Program, len(programModels))
	for i := range programModels {
		program, err := programModels[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		programs[i] = program
	}
	return programs, total, nil
}

// FindActive finds all active programs
func (r *GormProgramRepository) FindActive(ctx context.Context) ([]*loyalty.Program, error) {
	var programModels []models.ProgramModel
	if err := r.conn(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&programModels).Error; err != nil {
		return nil, err
	}

	programs := make([]*loyalty.Program, len(programModels))
	for i := range programModels {
		program, err := programModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		programs[i] = program
	}
	return programs, nil
}

// ExistsByName checks if a program with the given name exists
func (r *GormProgramRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&models.ProgramModel{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
