package loyalty

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
)

// LedgerService posts point transactions. Every write runs inside a store
// transaction that locks the membership row, so concurrent posts against
// the same membership are serialized while different memberships proceed
// in parallel.
type LedgerService struct {
	programRepo     loyalty.ProgramRepository
	membershipRepo  loyalty.MembershipRepository
	transactionRepo loyalty.PointTransactionRepository
	txManager       shared.TransactionManager
	eventBus        shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	programRepo loyalty.ProgramRepository,
	membershipRepo loyalty.MembershipRepository,
	transactionRepo loyalty.PointTransactionRepository,
	txManager shared.TransactionManager,
	eventBus shared.EventPublisher,
) *LedgerService {
	return &LedgerService{
		programRepo:     programRepo,
		membershipRepo:  membershipRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		eventBus:        eventBus,
	}
}

// ApplyTransaction atomically appends a ledger entry and updates the
// membership's balance, tier and activity timestamp. On any error nothing
// is persisted. The ledger itself never deduplicates: callers that retry
// must guard with ExistsBySource.
func (s *LedgerService) ApplyTransaction(ctx context.Context, membershipID uuid.UUID, req ApplyTransactionRequest) (*TransactionResponse, error) {
	txType := loyalty.PointTransactionType(req.Type)

	var (
		created *loyalty.PointTransaction
		events  []shared.DomainEvent
	)
	err := s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		membership, err := s.membershipRepo.FindByIDForUpdate(ctx, membershipID)
		if err != nil {
			return err
		}
		program, err := s.programRepo.FindByID(ctx, membership.ProgramID)
		if err != nil {
			return err
		}

		tx, err := membership.Apply(txType, req.Points, program.Tiers)
		if err != nil {
			return err
		}
		if req.SourceType != "" && req.SourceID != nil {
			tx.WithSource(req.SourceType, *req.SourceID)
		}
		if req.Description != "" {
			tx.WithDescription(req.Description)
		}

		if err := s.membershipRepo.Save(ctx, membership); err != nil {
			return err
		}
		if err := s.transactionRepo.Create(ctx, tx); err != nil {
			return err
		}

		created = tx
		events = membership.GetDomainEvents()
		membership.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// published only after the store transaction committed
	if s.eventBus != nil && len(events) > 0 {
		_ = s.eventBus.Publish(ctx, events...)
	}

	response := ToTransactionResponse(created)
	return &response, nil
}

// ListTransactions lists a customer's ledger entries across all of their
// memberships, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, customerID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter, err := toTransactionFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	transactions, total, err := s.transactionRepo.FindByCustomerID(ctx, customerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(transactions), total, nil
}

// ListMembershipTransactions lists one membership's ledger entries
func (s *LedgerService) ListMembershipTransactions(ctx context.Context, membershipID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	domainFilter, err := toTransactionFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	transactions, total, err := s.transactionRepo.FindByMembershipID(ctx, membershipID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(transactions), total, nil
}

func toTransactionFilter(filter TransactionListFilter) (loyalty.TransactionFilter, error) {
	out := loyalty.TransactionFilter{
		ProgramID: filter.ProgramID,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = 20
	}
	if filter.Type != "" {
		txType := loyalty.PointTransactionType(filter.Type)
		if !txType.IsValid() {
			return out, shared.NewDomainError("VALIDATION_ERROR", "invalid transaction type filter")
		}
		out.Type = &txType
	}
	if filter.DateFrom != "" {
		from, err := time.Parse(time.RFC3339, filter.DateFrom)
		if err != nil {
			return out, shared.NewDomainError("VALIDATION_ERROR", "date_from must be RFC3339")
		}
		out.DateFrom = &from
	}
	if filter.DateTo != "" {
		to, err := time.Parse(time.RFC3339, filter.DateTo)
		if err != nil {
			return out, shared.NewDomainError("VALIDATION_ERROR", "date_to must be RFC3339")
		}
		out.DateTo = &to
	}
	return out, nil
}
