package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// txContextKey is the context key under which an open transaction is stored.
type txContextKey struct{}

// GormTransactionManager implements shared.TransactionManager on top of a
// GORM connection. The open transaction travels in the context so that
// repositories participate in it transparently.
type GormTransactionManager struct {
	db *gorm.DB
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a database transaction. Repository calls
// made with the context passed to fn join the same transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := txFromContext(ctx); tx != nil {
		// already inside a transaction, join it
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// txFromContext returns the transaction stored in the context, if any.
func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// dbFromContext returns the context's transaction when one is open and the
// fallback connection otherwise.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}
