package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/fleetrent/backend/internal/domain/identity"
	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockProgramRepository is a mock implementation of ProgramRepository
type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) Save(ctx context.Context, program *loyalty.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *MockProgramRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Program), args.Error(1)
}

func (m *MockProgramRepository) List(ctx context.Context, filter loyalty.ProgramFilter) ([]*loyalty.Program, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*loyalty.Program), args.Get(1).(int64), args.Error(2)
}

func (m *MockProgramRepository) FindActive(ctx context.Context) ([]*loyalty.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loyalty.Program), args.Error(1)
}

func (m *MockProgramRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// MockMembershipRepository is a mock implementation of MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *loyalty.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *loyalty.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*loyalty.Membership, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (*loyalty.Membership, error) {
	args := m.Called(ctx, customerID, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*loyalty.Membership, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loyalty.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByProgram(ctx context.Context, programID uuid.UUID, filter shared.Filter) ([]*loyalty.Membership, int64, error) {
	args := m.Called(ctx, programID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*loyalty.Membership), args.Get(1).(int64), args.Error(2)
}

func (m *MockMembershipRepository) ExistsByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (bool, error) {
	args := m.Called(ctx, customerID, programID)
	return args.Bool(0), args.Error(1)
}

// MockTransactionRepository is a mock implementation of PointTransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *loyalty.PointTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*loyalty.PointTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.PointTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByMembershipID(ctx context.Context, membershipID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	args := m.Called(ctx, membershipID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*loyalty.PointTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*loyalty.PointTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ExistsBySource(ctx context.Context, membershipID uuid.UUID, sourceType string, sourceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, membershipID, sourceType, sourceID)
	return args.Bool(0), args.Error(1)
}

// MockStatsRepository is a mock implementation of StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) MemberCount(ctx context.Context, programID uuid.UUID) (int64, error) {
	args := m.Called(ctx, programID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) SumPointsByType(ctx context.Context, programID uuid.UUID, txType loyalty.PointTransactionType) (int64, error) {
	args := m.Called(ctx, programID, txType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) SumBalances(ctx context.Context, programID uuid.UUID) (int64, error) {
	args := m.Called(ctx, programID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsRepository) CountByTier(ctx context.Context, programID uuid.UUID) (map[string]int64, error) {
	args := m.Called(ctx, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter shared.Filter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// passthroughTxManager runs the unit of work directly, without a store
type passthroughTxManager struct{}

func (passthroughTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
