package base

import "context"

// Repository persists bases. Lookups return apperror NotFound when absent;
// Create returns apperror Duplicate on a name or code clash.
type Repository interface {
	Create(ctx context.Context, b *Base) error
	GetByID(ctx context.Context, id int64) (*Base, error)
	GetByName(ctx context.Context, name string) (*Base, error)
	// List returns all bases ordered by name.
	List(ctx context.Context) ([]Base, error)
}
