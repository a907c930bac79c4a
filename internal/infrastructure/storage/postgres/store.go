package postgres

import (
	"fmt"

	"mams/internal/domain/ledger"
)

// Store bundles the repositories over one pool.
type Store struct {
	Tx      *TxManager
	Bases   *BaseRepo
	Ledgers ledger.Repositories
	Reader  *LedgerReader
	Locker  *StockLocker
	Audit   *AuditLog
}

// NewStore builds every repository over pool.
func NewStore(pool *Pool, opts TxOptions) (*Store, error) {
	txm := NewTxManager(pool, opts)
	auditLog, err := NewAuditLog(txm)
	if err != nil {
		return nil, fmt.Errorf("audit log: %w", err)
	}
	return &Store{
		Tx:      txm,
		Bases:   NewBaseRepo(txm),
		Ledgers: NewLedgerRepos(txm),
		Reader:  NewLedgerReader(txm),
		Locker:  NewStockLocker(txm),
		Audit:   auditLog,
	}, nil
}
