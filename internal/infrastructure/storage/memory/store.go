// Package memory provides an in-process store implementing the same
// repositories as the postgres package. It backs STORE=memory and the domain
// tests.
//
// Transactions are fully serialized by one mutex and roll back by restoring a
// snapshot, so ledger rows and audit entries are discarded together.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"mams/internal/core/tx"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
)

var (
	_ tx.ReadOnlyManager     = (*Store)(nil)
	_ tx.InTransaction       = (*Store)(nil)
	_ inventory.StockLocker  = (*Store)(nil)
	_ inventory.LedgerReader = (*Store)(nil)
	_ base.Repository        = (*Store)(nil)
	_ audit.Recorder         = (*Store)(nil)
	_ audit.Reader           = (*Store)(nil)
)

type state struct {
	seq          int64
	bases        map[int64]base.Base
	purchases    map[int64]ledger.Purchase
	transfers    map[int64]ledger.Transfer
	assignments  map[int64]ledger.Assignment
	expenditures map[int64]ledger.Expenditure
	audit        []audit.Entry
}

func newState() *state {
	return &state{
		bases:        make(map[int64]base.Base),
		purchases:    make(map[int64]ledger.Purchase),
		transfers:    make(map[int64]ledger.Transfer),
		assignments:  make(map[int64]ledger.Assignment),
		expenditures: make(map[int64]ledger.Expenditure),
	}
}

func (s *state) clone() *state {
	return &state{
		seq:          s.seq,
		bases:        maps.Clone(s.bases),
		purchases:    maps.Clone(s.purchases),
		transfers:    maps.Clone(s.transfers),
		assignments:  maps.Clone(s.assignments),
		expenditures: maps.Clone(s.expenditures),
		audit:        slices.Clone(s.audit),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store is the in-memory database.
type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState(), clock: time.Now}
}

// txKey marks a context that already holds the store mutex.
type txKey struct{}

// InTransaction reports whether ctx carries an active transaction.
func (s *Store) InTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction executes fn with exclusive access. An error or a panic in
// fn restores the state it started from. Nested calls reuse the outer
// transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadOnly runs fn like RunInTransaction; changes made by fn are discarded.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() { s.data = snapshot }()
	return fn(context.WithValue(ctx, txKey{}, s))
}

// LockStock is a no-op: transactions are already serialized.
func (s *Store) LockStock(context.Context, []inventory.StockKey) error {
	return nil
}

// view runs fn against the current state, taking the mutex unless ctx
// already holds it.
func (s *Store) view(ctx context.Context, fn func(st *state) error) error {
	if s.InTransaction(ctx) {
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}
