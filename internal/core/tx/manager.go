// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces; the implementations live in
// infrastructure/storage.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Reporting queries use it; they take no locks.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only, read-committed transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTransaction reports whether ctx carries an active transaction.
type InTransaction interface {
	InTransaction(ctx context.Context) bool
}
