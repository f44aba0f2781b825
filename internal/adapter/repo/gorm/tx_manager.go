package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TxManager runs use-case transactions. With a lock name, every transaction
// first takes the matching transaction-scoped advisory lock, so read-modify-
// write cycles from several processes serialize.
type TxManager struct {
	db       *gorm.DB
	lockName string
}

func NewTxManager(db *gorm.DB, lockName string) TxManager {
	return TxManager{db: db, lockName: lockName}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.lockName != "" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", t.lockName).Error; err != nil {
				return fmt.Errorf("advisory lock %s: %w", t.lockName, err)
			}
		}
		return fn(withTx(ctx, tx))
	})
}
