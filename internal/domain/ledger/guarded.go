package ledger

import (
	"context"
	"strconv"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
)

// BaseLookup resolves base references and names.
type BaseLookup interface {
	base.Resolver
	Names(ctx context.Context) (map[int64]string, error)
}

// Deps are the collaborators shared by the ledger services.
type Deps struct {
	Guard *inventory.Guard
	Bases BaseLookup
	Audit audit.Recorder
	Clock types.Clock
}

// debit is the stock a row takes away from one key.
type debit struct {
	Key      inventory.StockKey
	Date     types.Date
	Quantity int64
}

func (d debit) differs(o debit) bool {
	return d.Key != o.Key || !d.Date.Equal(o.Date) || d.Quantity != o.Quantity
}

// creditFor returns the stored quantity to add back when checking next.
// The stored row is only part of the computed sum if it debits the same key
// on or before the evaluation date.
func creditFor(stored, next debit) int64 {
	if stored.Key == next.Key && stored.Date.NotAfter(next.Date) {
		return stored.Quantity
	}
	return 0
}

// checkUpdate re-admits a changed debit. The stored row's quantity is
// credited back when it is included in the balance being computed. Each
// retracted row is stock the stored row delivered that the update takes away;
// it is subtracted under the same inclusion rule.
func checkUpdate(ctx context.Context, s *inventory.Session, stored, next debit, baseName string, retracted ...debit) error {
	if !next.differs(stored) {
		return nil
	}
	if err := s.Lock(ctx, stored.Key, next.Key); err != nil {
		return err
	}
	credit := creditFor(stored, next)
	for _, r := range retracted {
		credit -= creditFor(r, next)
	}
	_, err := s.Check(ctx, inventory.StockCheck{
		Key:       next.Key,
		BaseName:  baseName,
		AsOf:      next.Date,
		Requested: next.Quantity,
		Credit:    credit,
	})
	return err
}

// resolveBase returns the named base or NotFound.
func (d *Deps) resolveBase(ctx context.Context, baseID int64) (*base.Base, error) {
	return d.Bases.Resolve(ctx, base.Ref{ID: &baseID})
}

func (d *Deps) today() types.Date {
	return d.Clock.Today()
}

func (d *Deps) record(ctx context.Context, action audit.Action, resource string, id int64, payload map[string]any) error {
	return d.Audit.Record(ctx, audit.Entry{
		Action:       action,
		ResourceType: resource,
		ResourceID:   strconv.FormatInt(id, 10),
		Payload:      payload,
	})
}

// readFilter narrows f to what the caller may see.
func readFilter(ctx context.Context, f ListFilter) (ListFilter, error) {
	bid, err := security.GetScope(ctx).ReadBase(f.BaseID)
	if err != nil {
		return f, err
	}
	f.BaseID = bid
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, apperror.NewValidation("start date must not be after end date")
	}
	f.Normalize()
	return f, nil
}

func requireVisible(ctx context.Context, baseIDs ...int64) error {
	scope := security.GetScope(ctx)
	for _, id := range baseIDs {
		if scope.CanAccessBase(id) {
			return nil
		}
	}
	return apperror.NewForbiddenScope("record belongs to another base")
}

func dateOrToday(d *types.Date, today types.Date) types.Date {
	if d == nil || d.IsZero() {
		return today
	}
	return *d
}

// validatePatchShape rejects malformed values before any transaction opens.
func validatePatchShape(item *string, qty *int64, baseIDs map[string]*int64) error {
	if item != nil {
		if err := validateItem(NormalizeItem(*item)); err != nil {
			return err
		}
	}
	if qty != nil {
		if err := validateQuantity(*qty); err != nil {
			return err
		}
	}
	for field, id := range baseIDs {
		if id != nil && *id <= 0 {
			return apperror.NewValidation(field+" must be a positive id").WithDetail("field", field)
		}
	}
	return nil
}
