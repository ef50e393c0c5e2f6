package loyalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// EnrollmentService handles membership creation and lookup
type EnrollmentService struct {
	programRepo    loyalty.ProgramRepository
	membershipRepo loyalty.MembershipRepository
	userRepo       identity.UserRepository
	eventBus       shared.EventPublisher
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(
	programRepo loyalty.ProgramRepository,
	membershipRepo loyalty.MembershipRepository,
	userRepo identity.UserRepository,
	eventBus shared.EventPublisher,
) *EnrollmentService {
	return &EnrollmentService{
		programRepo:    programRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		eventBus:       eventBus,
	}
}

// Enroll creates a membership for a customer in an active program. The
// pre-check catches most duplicates; the unique index on
// (customer_id, program_id) is the guard against racing enrollments.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*MembershipResponse, error) {
	program, err := s.programRepo.FindByID(ctx, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if !program.Active {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "program is not active")
	}

	exists, err := s.membershipRepo.ExistsByCustomerAndProgram(ctx, req.CustomerID, req.ProgramID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyEnrolled
	}

	membership, err := loyalty.NewMembership(req.CustomerID, req.ProgramID, program.Tiers)
	if err != nil {
		return nil, err
	}

	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		events := membership.GetDomainEvents()
		membership.ClearDomainEvents()
		_ = s.eventBus.Publish(ctx, events...)
	}

	response := ToMembershipResponse(membership)
	return &response, nil
}

// GetMembership finds a customer's membership in a program
func (s *EnrollmentService) GetMembership(ctx context.Context, customerID, programID uuid.UUID) (*MembershipResponse, error) {
	membership, err := s.membershipRepo.FindByCustomerAndProgram(ctx, customerID, programID)
	if err != nil {
		return nil, err
	}
	response := ToMembershipResponse(membership)
	return &response, nil
}

// GetMembershipByID finds a membership by its ID
func (s *EnrollmentService) GetMembershipByID(ctx context.Context, id uuid.UUID) (*MembershipResponse, error) {
	membership, err := s.membershipRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToMembershipResponse(membership)
	return &response, nil
}

// ListMembers lists a program's memberships together with their customer
// accounts, for the back-office member view
func (s *EnrollmentService) ListMembers(ctx context.Context, programID uuid.UUID, filter shared.Filter) ([]MemberResponse, int64, error) {
	if _, err := s.programRepo.FindByID(ctx, programID); err != nil {
		return nil, 0, err
	}

	memberships, total, err := s.membershipRepo.ListByProgram(ctx, programID, filter)
	if err != nil {
		return nil, 0, err
	}

	customerIDs := make([]uuid.UUID, len(memberships))
	for i, m := range memberships {
		customerIDs[i] = m.CustomerID
	}
	users, err := s.userRepo.FindByIDs(ctx, customerIDs)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uuid.UUID]*identity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	members := make([]MemberResponse, len(memberships))
	for i, m := range memberships {
		member := MemberResponse{Membership: ToMembershipResponse(m)}
		if u, ok := byID[m.CustomerID]; ok {
			member.Username = u.Username
			member.CustomerName = u.DisplayName
			if member.CustomerName == "" {
				member.CustomerName = u.Username
			}
		}
		members[i] = member
	}
	return members, total, nil
}
