// Package app assembles the domain services over a storage backend.
package app

import (
	"mams/internal/core/tx"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
	"mams/internal/domain/personnel"
	v1 "mams/internal/infrastructure/http/v1"
	"mams/internal/infrastructure/storage/memory"
	"mams/internal/infrastructure/storage/postgres"
)

// AuditLog is an audit sink that can also be read back.
type AuditLog interface {
	audit.Recorder
	audit.Reader
}

// Backend is the persistence a service graph runs on.
type Backend struct {
	Tx      tx.Manager
	Bases   base.Repository
	Ledgers ledger.Repositories
	Reader  inventory.LedgerReader
	Locker  inventory.StockLocker
	Audit   AuditLog
}

// MemoryBackend adapts an in-process store.
func MemoryBackend(s *memory.Store) Backend {
	return Backend{
		Tx:      s,
		Bases:   s,
		Ledgers: s.Ledgers(),
		Reader:  s,
		Locker:  s,
		Audit:   s,
	}
}

// PostgresBackend adapts the postgres repositories.
func PostgresBackend(s *postgres.Store) Backend {
	return Backend{
		Tx:      s.Tx,
		Bases:   s.Bases,
		Ledgers: s.Ledgers,
		Reader:  s.Reader,
		Locker:  s.Locker,
		Audit:   s.Audit,
	}
}

// Options tune the service graph. Zero values use the wall clock, discard
// measurements and load the embedded roster.
type Options struct {
	Clock     types.Clock
	Observer  inventory.Observer
	Personnel *personnel.Directory
}

// NewServices wires every domain service over b.
func NewServices(b Backend, opts Options) (v1.Services, error) {
	roster := opts.Personnel
	if roster == nil {
		var err error
		if roster, err = personnel.Load(""); err != nil {
			return v1.Services{}, err
		}
	}

	calc := inventory.NewCalculator(b.Reader, opts.Clock, opts.Observer)
	guard := inventory.NewGuard(b.Tx, b.Locker, calc, opts.Observer)
	bases := base.NewService(b.Bases, b.Tx, b.Audit)
	deps := ledger.Deps{Guard: guard, Bases: bases, Audit: b.Audit, Clock: opts.Clock}

	return v1.Services{
		Bases:        bases,
		Purchases:    ledger.NewPurchaseService(deps, b.Ledgers.Purchases),
		Transfers:    ledger.NewTransferService(deps, b.Ledgers.Transfers),
		Assignments:  ledger.NewAssignmentService(deps, b.Ledgers.Assignments),
		Expenditures: ledger.NewExpenditureService(deps, b.Ledgers.Expenditures),
		Calculator:   calc,
		Lister:       inventory.NewLister(calc, b.Reader, opts.Observer),
		Summarizer:   inventory.NewSummarizer(calc),
		Personnel:    roster,
		Audit:        b.Audit,
	}, nil
}
