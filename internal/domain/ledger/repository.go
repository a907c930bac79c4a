package ledger

import (
	"context"

	"mams/internal/core/types"
)

// Row is the set of ledger row types.
type Row interface {
	Purchase | Transfer | Assignment | Expenditure
}

// Repository persists one ledger. Get and GetForUpdate return apperror
// NotFound when the row is absent; Create assigns ID and timestamps.
type Repository[T Row] interface {
	Create(ctx context.Context, row *T) error
	Get(ctx context.Context, id int64) (*T, error)
	// GetForUpdate locks the row for the rest of the transaction in ctx.
	GetForUpdate(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, row *T) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ListFilter) ([]T, error)
}

// ListFilter contains filtering options for ledger listings.
// Zero fields do not filter.
type ListFilter struct {
	// BaseID matches the row's base; for transfers, either side.
	BaseID *int64
	Item   string
	// From and To bound the effective date, inclusive.
	From *types.Date
	To   *types.Date
	// Personnel applies to assignments only.
	Personnel string
	// Status applies to transfers and assignments.
	Status string

	Limit  int
	Offset int
}

// DefaultListLimit caps unpaged listings.
const DefaultListLimit = 500

// Normalize applies the default limit.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > DefaultListLimit {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Repositories groups the four ledgers.
type Repositories struct {
	Purchases    Repository[Purchase]
	Transfers    Repository[Transfer]
	Assignments  Repository[Assignment]
	Expenditures Repository[Expenditure]
}
