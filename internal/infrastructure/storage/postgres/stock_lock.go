package postgres

import (
	"context"
	"errors"
	"fmt"

	"mams/internal/domain/inventory"
)

var _ inventory.StockLocker = (*StockLocker)(nil)

// lockStockSQL takes a transaction-scoped advisory lock on (item, base).
const lockStockSQL = "SELECT pg_advisory_xact_lock(hashtextextended($1, $2))"

var errNoTransaction = errors.New("postgres: stock lock requires a transaction")

// StockLocker serializes guarded mutations with advisory locks released at
// commit or rollback.
type StockLocker struct {
	txm *TxManager
}

// NewStockLocker creates a locker.
func NewStockLocker(txm *TxManager) *StockLocker {
	return &StockLocker{txm: txm}
}

// LockStock locks keys in the order given; callers pass them sorted.
func (l *StockLocker) LockStock(ctx context.Context, keys []inventory.StockKey) error {
	tx := getTx(ctx)
	if tx == nil {
		return errNoTransaction
	}
	for _, k := range keys {
		if _, err := tx.Exec(ctx, lockStockSQL, k.Item, k.BaseID); err != nil {
			return fmt.Errorf("advisory lock %s: %w", k, err)
		}
	}
	return nil
}
