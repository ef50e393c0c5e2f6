package loyalty

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointTransactionType(t *testing.T) {
	t.Run("IsValid returns true for valid types", func(t *testing.T) {
		validTypes := []PointTransactionType{
			PointTransactionTypeEarn,
			PointTransactionTypeRedeem,
			PointTransactionTypeExpire,
			PointTransactionTypeBonus,
		}

		for _, txType := range validTypes {
			assert.True(t, txType.IsValid(), "Expected %s to be valid", txType)
		}
	})

	t.Run("IsValid returns false for invalid type", func(t *testing.T) {
		invalid := PointTransactionType("INVALID")
		assert.False(t, invalid.IsValid())
	})

	t.Run("IsCredit returns correct values", func(t *testing.T) {
		assert.True(t, PointTransactionTypeEarn.IsCredit())
		assert.True(t, PointTransactionTypeBonus.IsCredit())
		assert.False(t, PointTransactionTypeRedeem.IsCredit())
		assert.False(t, PointTransactionTypeExpire.IsCredit())
	})

	t.Run("IsDebit returns correct values", func(t *testing.T) {
		assert.True(t, PointTransactionTypeRedeem.IsDebit())
		assert.True(t, PointTransactionTypeExpire.IsDebit())
		assert.False(t, PointTransactionTypeEarn.IsDebit())
		assert.False(t, PointTransactionTypeBonus.IsDebit())
	})

	t.Run("String returns correct value", func(t *testing.T) {
		assert.Equal(t, "EARN", PointTransactionTypeEarn.String())
		assert.Equal(t, "REDEEM", PointTransactionTypeRedeem.String())
	})
}

func TestNewPointTransaction(t *testing.T) {
	membershipID := uuid.New()

	t.Run("creates valid transaction", func(t *testing.T) {
		tx, err := NewPointTransaction(membershipID, PointTransactionTypeEarn, 100, 100)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, tx.ID)
		assert.Equal(t, membershipID, tx.MembershipID)
		assert.Equal(t, PointTransactionTypeEarn, tx.Type)
		assert.Equal(t, int64(100), tx.Points)
		assert.Equal(t, int64(100), tx.BalanceAfter)
		assert.False(t, tx.TransactionDate.IsZero())
	})

	t.Run("rejects nil membership ID", func(t *testing.T) {
		_, err := NewPointTransaction(uuid.Nil, PointTransactionTypeEarn, 100, 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "membership ID")
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewPointTransaction(membershipID, PointTransactionType("BOGUS"), 100, 100)
		require.Error(t, err)
	})

	t.Run("rejects zero points", func(t *testing.T) {
		_, err := NewPointTransaction(membershipID, PointTransactionTypeEarn, 0, 0)
		require.Error(t, err)
	})

	t.Run("rejects negative points", func(t *testing.T) {
		_, err := NewPointTransaction(membershipID, PointTransactionTypeRedeem, -50, 0)
		require.Error(t, err)
	})

	t.Run("rejects negative balance after", func(t *testing.T) {
		_, err := NewPointTransaction(membershipID, PointTransactionTypeRedeem, 100, -10)
		require.Error(t, err)
		assert.Equal(t, "INSUFFICIENT_BALANCE", domainCode(t, err))
	})
}

func TestPointTransactionBuilders(t *testing.T) {
	membershipID := uuid.New()
	sourceID := uuid.New()

	tx, err := NewPointTransaction(membershipID, PointTransactionTypeEarn, 50, 50)
	require.NoError(t, err)

	tx.WithSource("rental", sourceID).WithDescription("completed rental")

	assert.Equal(t, SourceTypeRental, tx.SourceType)
	require.NotNil(t, tx.SourceID)
	assert.Equal(t, sourceID, *tx.SourceID)
	assert.Equal(t, "completed rental", tx.Description)
}

func TestPointTransactionSignedPoints(t *testing.T) {
	membershipID := uuid.New()

	cases := []struct {
		txType PointTransactionType
		points int64
		want   int64
	}{
		{PointTransactionTypeEarn, 100, 100},
		{PointTransactionTypeBonus, 250, 250},
		{PointTransactionTypeRedeem, 100, -100},
		{PointTransactionTypeExpire, 30, -30},
	}

	for _, tc := range cases {
		t.Run(tc.txType.String(), func(t *testing.T) {
			tx, err := NewPointTransaction(membershipID, tc.txType, tc.points, 1000)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tx.SignedPoints())
		})
	}
}
