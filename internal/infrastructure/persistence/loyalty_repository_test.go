package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetrent/backend/internal/domain/loyalty"
	"github.com/fleetrent/backend/internal/domain/shared"
	"github.com/fleetrent/backend/internal/infrastructure/persistence/models"
)

func setupLoyaltyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ProgramModel{},
		&models.MembershipModel{},
		&models.PointTransactionModel{},
	)
	require.NoError(t, err)

	return db
}

func newTestProgram(t *testing.T, name string) *loyalty.Program {
	t.Helper()

	program, err := loyalty.NewProgram(
		name,
		"test program",
		decimal.NewFromFloat(1.5),
		loyalty.TierLadder{
			{Name: "Bronze", MinimumPoints: 0},
			{Name: "Silver", MinimumPoints: 1000},
			{Name: "Gold", MinimumPoints: 5000},
		},
		[]loyalty.RedemptionRule{
			{PointsRequired: 500, RewardDescription: "Free weekend upgrade", MonetaryValue: decimal.NewFromInt(25)},
		},
	)
	require.NoError(t, err)
	return program
}

func enrollTestMember(t *testing.T, db *gorm.DB, program *loyalty.Program) *loyalty.Membership {
	t.Helper()

	membership, err := loyalty.NewMembership(uuid.New(), program.ID, program.Tiers)
	require.NoError(t, err)
	require.NoError(t, NewGormMembershipRepository(db).Create(context.Background(), membership))
	return membership
}

func TestGormProgramRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a program with tiers and rules", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormProgramRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		require.NoError(t, repo.Save(ctx, program))

		found, err := repo.FindByID(ctx, program.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rental Rewards", found.Name)
		assert.True(t, found.PointsPerCurrencyUnit.Equal(decimal.NewFromFloat(1.5)))
		assert.True(t, found.Active)
		require.Len(t, found.Tiers, 3)
		assert.Equal(t, "Silver", found.Tiers[1].Name)
		require.Len(t, found.RedemptionRules, 1)
		assert.Equal(t, int64(500), found.RedemptionRules[0].PointsRequired)
	})

	t.Run("returns not found for unknown ID", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormProgramRepository(db)

		_, err := repo.FindByID(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("persists updates", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormProgramRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		require.NoError(t, repo.Save(ctx, program))

		program.Deactivate()
		require.NoError(t, repo.Save(ctx, program))

		found, err := repo.FindByID(ctx, program.ID)
		require.NoError(t, err)
		assert.False(t, found.Active)
	})

	t.Run("checks existence by name", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormProgramRepository(db)

		require.NoError(t, repo.Save(ctx, newTestProgram(t, "Rental Rewards")))

		exists, err := repo.ExistsByName(ctx, "Rental Rewards")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "Other Program")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("lists active programs only when filtered", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormProgramRepository(db)

		active := newTestProgram(t, "Active Program")
		require.NoError(t, repo.Save(ctx, active))

		retired := newTestProgram(t, "Retired Program")
		retired.Deactivate()
		require.NoError(t, repo.Save(ctx, retired))

		programs, total, err := repo.List(ctx, loyalty.ProgramFilter{ActiveOnly: true, Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, programs, 1)
		assert.Equal(t, "Active Program", programs[0].Name)

		activeOnly, err := repo.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, activeOnly, 1)
	})
}

func TestGormMembershipRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and finds a membership", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormMembershipRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		found, err := repo.FindByCustomerAndProgram(ctx, membership.CustomerID, program.ID)
		require.NoError(t, err)
		assert.Equal(t, membership.ID, found.ID)
		assert.Equal(t, int64(0), found.Balance)
		assert.Equal(t, "Bronze", found.Tier)
		assert.Nil(t, found.LastActivityAt)
	})

	t.Run("rejects a duplicate enrollment", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormMembershipRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		duplicate, err := loyalty.NewMembership(membership.CustomerID, program.ID, program.Tiers)
		require.NoError(t, err)

		err = repo.Create(ctx, duplicate)
		require.Error(t, err)
		assert.Equal(t, shared.ErrAlreadyEnrolled, err)
	})

	t.Run("lists program members with pagination", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormMembershipRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		for i := 0; i < 5; i++ {
			enrollTestMember(t, db, program)
		}

		memberships, total, err := repo.ListByProgram(ctx, program.ID, shared.Filter{Page: 1, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, memberships, 3)
	})

	t.Run("checks enrollment existence", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormMembershipRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		exists, err := repo.ExistsByCustomerAndProgram(ctx, membership.CustomerID, program.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCustomerAndProgram(ctx, uuid.New(), program.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormPointTransactionRepository(t *testing.T) {
	ctx := context.Background()

	appendEntry := func(t *testing.T, db *gorm.DB, membership *loyalty.Membership, txType loyalty.PointTransactionType, points, balanceAfter int64, when time.Time) *loyalty.PointTransaction {
		t.Helper()
		entry, err := loyalty.NewPointTransaction(membership.ID, txType, points, balanceAfter)
		require.NoError(t, err)
		entry.TransactionDate = when
		require.NoError(t, NewGormPointTransactionRepository(db).Create(ctx, entry))
		return entry
	}

	t.Run("lists a membership's transactions newest first", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		appendEntry(t, db, membership, loyalty.PointTransactionTypeEarn, 100, 100, base)
		appendEntry(t, db, membership, loyalty.PointTransactionTypeEarn, 50, 150, base.Add(time.Hour))
		appendEntry(t, db, membership, loyalty.PointTransactionTypeRedeem, 30, 120, base.Add(2*time.Hour))

		entries, total, err := repo.FindByMembershipID(ctx, membership.ID, loyalty.TransactionFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, entries, 3)
		assert.Equal(t, loyalty.PointTransactionTypeRedeem, entries[0].Type)
		assert.Equal(t, int64(120), entries[0].BalanceAfter)
	})

	t.Run("filters by type and date range", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		appendEntry(t, db, membership, loyalty.PointTransactionTypeEarn, 100, 100, base)
		appendEntry(t, db, membership, loyalty.PointTransactionTypeRedeem, 40, 60, base.Add(time.Hour))
		appendEntry(t, db, membership, loyalty.PointTransactionTypeEarn, 25, 85, base.Add(48*time.Hour))

		earn := loyalty.PointTransactionTypeEarn
		entries, total, err := repo.FindByMembershipID(ctx, membership.ID, loyalty.TransactionFilter{Type: &earn})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)

		from := base.Add(24 * time.Hour)
		entries, total, err = repo.FindByMembershipID(ctx, membership.ID, loyalty.TransactionFilter{DateFrom: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, int64(25), entries[0].Points)
	})

	t.Run("lists across a customer's memberships", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormPointTransactionRepository(db)
		membershipRepo := NewGormMembershipRepository(db)

		customerID := uuid.New()
		first := newTestProgram(t, "First Program")
		second := newTestProgram(t, "Second Program")

		membershipA, err := loyalty.NewMembership(customerID, first.ID, first.Tiers)
		require.NoError(t, err)
		require.NoError(t, membershipRepo.Create(ctx, membershipA))
		membershipB, err := loyalty.NewMembership(customerID, second.ID, second.Tiers)
		require.NoError(t, err)
		require.NoError(t, membershipRepo.Create(ctx, membershipB))

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		appendEntry(t, db, membershipA, loyalty.PointTransactionTypeEarn, 100, 100, base)
		appendEntry(t, db, membershipB, loyalty.PointTransactionTypeBonus, 200, 200, base.Add(time.Hour))

		entries, total, err := repo.FindByCustomerID(ctx, customerID, loyalty.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)

		entries, total, err = repo.FindByCustomerID(ctx, customerID, loyalty.TransactionFilter{ProgramID: &second.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, loyalty.PointTransactionTypeBonus, entries[0].Type)
	})

	t.Run("detects an already posted source", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		repo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		rentalID := uuid.New()
		entry, err := loyalty.NewPointTransaction(membership.ID, loyalty.PointTransactionTypeEarn, 100, 100)
		require.NoError(t, err)
		entry.WithSource(loyalty.SourceTypeRental, rentalID)
		require.NoError(t, repo.Create(ctx, entry))

		exists, err := repo.ExistsBySource(ctx, membership.ID, loyalty.SourceTypeRental, rentalID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySource(ctx, membership.ID, loyalty.SourceTypeRental, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormStatsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates program activity", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		statsRepo := NewGormStatsRepository(db)
		membershipRepo := NewGormMembershipRepository(db)
		txRepo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		silver := enrollTestMember(t, db, program)
		bronze := enrollTestMember(t, db, program)

		silver.Balance = 1200
		silver.Tier = "Silver"
		require.NoError(t, membershipRepo.Save(ctx, silver))
		bronze.Balance = 300
		require.NoError(t, membershipRepo.Save(ctx, bronze))

		entries := []struct {
			membershipID uuid.UUID
			txType       loyalty.PointTransactionType
			points       int64
			balanceAfter int64
		}{
			{silver.ID, loyalty.PointTransactionTypeEarn, 1000, 1000},
			{silver.ID, loyalty.PointTransactionTypeBonus, 500, 1500},
			{silver.ID, loyalty.PointTransactionTypeRedeem, 300, 1200},
			{bronze.ID, loyalty.PointTransactionTypeEarn, 350, 350},
			{bronze.ID, loyalty.PointTransactionTypeExpire, 50, 300},
		}
		for _, e := range entries {
			entry, err := loyalty.NewPointTransaction(e.membershipID, e.txType, e.points, e.balanceAfter)
			require.NoError(t, err)
			require.NoError(t, txRepo.Create(ctx, entry))
		}

		count, err := statsRepo.MemberCount(ctx, program.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		earned, err := statsRepo.SumPointsByType(ctx, program.ID, loyalty.PointTransactionTypeEarn)
		require.NoError(t, err)
		assert.Equal(t, int64(1350), earned)

		redeemed, err := statsRepo.SumPointsByType(ctx, program.ID, loyalty.PointTransactionTypeRedeem)
		require.NoError(t, err)
		assert.Equal(t, int64(300), redeemed)

		balances, err := statsRepo.SumBalances(ctx, program.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), balances)

		byTier, err := statsRepo.CountByTier(ctx, program.ID)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"Bronze": 1, "Silver": 1}, byTier)
	})

	t.Run("returns zeros for a program without activity", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		statsRepo := NewGormStatsRepository(db)

		programID := uuid.New()

		count, err := statsRepo.MemberCount(ctx, programID)
		require.NoError(t, err)
		assert.Zero(t, count)

		earned, err := statsRepo.SumPointsByType(ctx, programID, loyalty.PointTransactionTypeEarn)
		require.NoError(t, err)
		assert.Zero(t, earned)

		byTier, err := statsRepo.CountByTier(ctx, programID)
		require.NoError(t, err)
		assert.Empty(t, byTier)
	})
}

func TestGormTransactionManager(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when the unit of work succeeds", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		manager := NewGormTransactionManager(db)
		membershipRepo := NewGormMembershipRepository(db)
		txRepo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		err := manager.WithinTransaction(ctx, func(txCtx context.Context) error {
			membership.Balance = 100
			if err := membershipRepo.Save(txCtx, membership); err != nil {
				return err
			}
			entry, err := loyalty.NewPointTransaction(membership.ID, loyalty.PointTransactionTypeEarn, 100, 100)
			if err != nil {
				return err
			}
			return txRepo.Create(txCtx, entry)
		})
		require.NoError(t, err)

		found, err := membershipRepo.FindByID(ctx, membership.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), found.Balance)

		_, total, err := txRepo.FindByMembershipID(ctx, membership.ID, loyalty.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("rolls back every write when the unit of work fails", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		manager := NewGormTransactionManager(db)
		membershipRepo := NewGormMembershipRepository(db)
		txRepo := NewGormPointTransactionRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		boom := errors.New("ledger write failed")
		err := manager.WithinTransaction(ctx, func(txCtx context.Context) error {
			membership.Balance = 100
			if err := membershipRepo.Save(txCtx, membership); err != nil {
				return err
			}
			entry, err := loyalty.NewPointTransaction(membership.ID, loyalty.PointTransactionTypeEarn, 100, 100)
			if err != nil {
				return err
			}
			if err := txRepo.Create(txCtx, entry); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		found, err := membershipRepo.FindByID(ctx, membership.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.Balance)

		_, total, err := txRepo.FindByMembershipID(ctx, membership.ID, loyalty.TransactionFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("joins an already open transaction", func(t *testing.T) {
		db := setupLoyaltyTestDB(t)
		manager := NewGormTransactionManager(db)
		membershipRepo := NewGormMembershipRepository(db)

		program := newTestProgram(t, "Rental Rewards")
		membership := enrollTestMember(t, db, program)

		boom := errors.New("inner failure")
		err := manager.WithinTransaction(ctx, func(outerCtx context.Context) error {
			membership.Balance = 100
			if err := membershipRepo.Save(outerCtx, membership); err != nil {
				return err
			}
			return manager.WithinTransaction(outerCtx, func(innerCtx context.Context) error {
				return boom
			})
		})
		require.ErrorIs(t, err, boom)

		found, err := membershipRepo.FindByID(ctx, membership.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.Balance)
	})
}
