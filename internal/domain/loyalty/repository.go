package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// ProgramFilter contains filter options for listing programs
type ProgramFilter struct {
	ActiveOnly bool
	Search     string
	Page       int
	PageSize   int
}

// ProgramRepository defines the interface for program persistence
type ProgramRepository interface {
	// Save creates or updates a program
	Save(ctx context.Context, program *Program) error

	// FindByID finds a program by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Program, error)

	// List lists programs with filtering and pagination
	List(ctx context.Context, filter ProgramFilter) ([]*Program, int64, error)

	// FindActive finds all active programs
	FindActive(ctx context.Context) ([]*Program, error)

	// ExistsByName checks if a program with the given name exists
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// MembershipRepository defines the interface for membership persistence
type MembershipRepository interface {
	// Create creates a new membership
	Create(ctx context.Context, membership *Membership) error

	// Save updates an existing membership
	Save(ctx context.Context, membership *Membership) error

	// FindByID finds a membership by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Membership, error)

	// FindByIDForUpdate finds a membership by ID and locks the row for the
	// duration of the surrounding store transaction, serializing concurrent
	// ledger writes against the same membership
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Membership, error)

	// FindByCustomerAndProgram finds the customer's membership in a program
	FindByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (*Membership, error)

	// FindByCustomerID finds all memberships held by a customer
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]*Membership, error)

	// ListByProgram lists a program's memberships with pagination
	ListByProgram(ctx context.Context, programID uuid.UUID, filter shared.Filter) ([]*Membership, int64, error)

	// ExistsByCustomerAndProgram checks whether the customer is already enrolled
	ExistsByCustomerAndProgram(ctx context.Context, customerID, programID uuid.UUID) (bool, error)
}

// TransactionFilter contains filter options for listing point transactions
type TransactionFilter struct {
	Type      *PointTransactionType
	ProgramID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// PointTransactionRepository defines the interface for ledger persistence.
// The ledger is append-only: there is no update or delete.
type PointTransactionRepository interface {
	// Create appends a transaction to the ledger
	Create(ctx context.Context, transaction *PointTransaction) error

	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PointTransaction, error)

	// FindByMembershipID lists a membership's transactions, newest first
	FindByMembershipID(ctx context.Context, membershipID uuid.UUID, filter TransactionFilter) ([]*PointTransaction, int64, error)

	// FindByCustomerID lists transactions across all of a customer's
	// memberships, newest first
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, filter TransactionFilter) ([]*PointTransaction, int64, error)

	// ExistsBySource checks whether a transaction from the given source was
	// already posted against the membership
	ExistsBySource(ctx context.Context, membershipID uuid.UUID, sourceType string, sourceID uuid.UUID) (bool, error)
}

// ProgramStats is a point-in-time aggregate over one program's memberships
// and ledger. Computed from committed state; it may lag in-flight writes
// but is internally consistent.
type ProgramStats struct {
	ProgramID           uuid.UUID        `json:"program_id"`
	MemberCount         int64            `json:"member_count"`
	TotalPointsIssued   int64            `json:"total_points_issued"`
	TotalPointsRedeemed int64            `json:"total_points_redeemed"`
	TotalPointsExpired  int64            `json:"total_points_expired"`
	TotalActivePoints   int64            `json:"total_active_points"`
	RedemptionRate      float64          `json:"redemption_rate"`
	MembershipByTier    map[string]int64 `json:"membership_by_tier"`
}

// StatsRepository computes program-wide aggregates with SQL
type StatsRepository interface {
	// MemberCount counts a program's memberships
	MemberCount(ctx context.Context, programID uuid.UUID) (int64, error)

	// SumPointsByType sums transaction magnitudes for a program by type
	SumPointsByType(ctx context.Context, programID uuid.UUID, txType PointTransactionType) (int64, error)

	// SumBalances sums the current balances of a program's memberships
	SumBalances(ctx context.Context, programID uuid.UUID) (int64, error)

	// CountByTier groups a program's memberships by tier
	CountByTier(ctx context.Context, programID uuid.UUID) (map[string]int64, error)
}
