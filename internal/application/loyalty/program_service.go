package loyalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// ProgramService handles program registry operations
type ProgramService struct {
	programRepo loyalty.ProgramRepository
	eventBus    shared.EventPublisher
}

// NewProgramService creates a new ProgramService
func NewProgramService(programRepo loyalty.ProgramRepository, eventBus shared.EventPublisher) *ProgramService {
	return &ProgramService{
		programRepo: programRepo,
		eventBus:    eventBus,
	}
}

// CreateProgram creates a new loyalty program
func (s *ProgramService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*ProgramResponse, error) {
	exists, err := s.programRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "a program with this name already exists")
	}

	program, err := loyalty.NewProgram(
		req.Name,
		req.Description,
		req.PointsPerCurrencyUnit,
		toTierLadder(req.Tiers),
		toRedemptionRules(req.RedemptionRules),
	)
	if err != nil {
		return nil, err
	}

	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, program)

	response := ToProgramResponse(program)
	return &response, nil
}

// GetProgram retrieves a program by ID
func (s *ProgramService) GetProgram(ctx context.Context, id uuid.UUID) (*ProgramResponse, error) {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProgramResponse(program)
	return &response, nil
}

// ListPrograms lists programs with filtering and pagination
func (s *ProgramService) ListPrograms(ctx context.Context, filter ProgramListFilter) ([]ProgramResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	programs, total, err := s.programRepo.List(ctx, loyalty.ProgramFilter{
		ActiveOnly: filter.ActiveOnly,
		Search:     filter.Search,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	return ToProgramResponses(programs), total, nil
}

// UpdateProgram applies a partial update to a program. Nil fields are
// left unchanged; every provided field is revalidated.
func (s *ProgramService) UpdateProgram(ctx context.Context, id uuid.UUID, req UpdateProgramRequest) (*ProgramResponse, error) {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := program.Name
		if req.Name != nil {
			name = *req.Name
		}
		description := program.Description
		if req.Description != nil {
			description = *req.Description
		}
		if err := program.UpdateDetails(name, description); err != nil {
			return nil, err
		}
	}
	if req.PointsPerCurrencyUnit != nil {
		if err := program.UpdateEarnRate(*req.PointsPerCurrencyUnit); err != nil {
			return nil, err
		}
	}
	if req.Tiers != nil {
		if err := program.UpdateTiers(toTierLadder(*req.Tiers)); err != nil {
			return nil, err
		}
	}
	if req.RedemptionRules != nil {
		if err := program.UpdateRedemptionRules(toRedemptionRules(*req.RedemptionRules)); err != nil {
			return nil, err
		}
	}

	if err := s.programRepo.Save(ctx, program); err != nil {
		return nil, err
	}

	response := ToProgramResponse(program)
	return &response, nil
}

// DeactivateProgram retires a program. Memberships and the transaction
// history stay queryable; only new enrollments are blocked.
func (s *ProgramService) DeactivateProgram(ctx context.Context, id uuid.UUID) error {
	program, err := s.programRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	program.Deactivate()

	if err := s.programRepo.Save(ctx, program); err != nil {
		return err
	}

	s.publishEvents(ctx, program)
	return nil
}

func (s *ProgramService) publishEvents(ctx context.Context, program *loyalty.Program) {
	if s.eventBus == nil {
		return
	}
	events := program.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	program.ClearDomainEvents()
	_ = s.eventBus.Publish(ctx, events...)
}
