package ledger

import (
	"context"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/inventory"
	"mams/pkg/logger"
)

const resourcePurchase = "purchase"

// PurchaseInput is a request to record incoming stock.
type PurchaseInput struct {
	Item     string
	Quantity int64
	Price    types.Money
	BaseID   *int64
	Date     *types.Date
}

// PurchasePatch changes any subset of a purchase.
type PurchasePatch struct {
	Item     *string
	Quantity *int64
	Price    *types.Money
	BaseID   *int64
	Date     *types.Date
}

// PurchaseService records purchases. Purchases only add stock, so they are
// not admission-checked; updates and deletes still take the stock locks of
// the keys they touch.
type PurchaseService struct {
	Deps
	repo Repository[Purchase]
}

// NewPurchaseService creates the service.
func NewPurchaseService(deps Deps, repo Repository[Purchase]) *PurchaseService {
	return &PurchaseService{Deps: deps, repo: repo}
}

func (in PurchaseInput) row(today types.Date) *Purchase {
	return &Purchase{
		Item:     NormalizeItem(in.Item),
		Quantity: in.Quantity,
		Price:    in.Price,
		Date:     dateOrToday(in.Date, today),
	}
}

// Validate checks the fields that need no lookup.
func (in PurchaseInput) Validate(ctx context.Context) error {
	return in.row(types.Date{}).Validate(ctx)
}

// Validate checks the fields that need no lookup.
func (p PurchasePatch) Validate() error {
	if err := validatePatchShape(p.Item, p.Quantity, map[string]*int64{"baseId": p.BaseID}); err != nil {
		return err
	}
	if p.Price != nil && p.Price.IsNegative() {
		return apperror.NewValidation("price must be a non-negative number").WithDetail("field", "price")
	}
	return nil
}

// Create records a purchase.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput) (*Purchase, error) {
	row := in.row(s.today())
	if err := row.Validate(ctx); err != nil {
		return nil, err
	}

	baseID, err := security.GetScope(ctx).TargetBase(in.BaseID, "baseId")
	if err != nil {
		return nil, err
	}
	row.BaseID = baseID

	err = s.Guard.Run(ctx, "purchase.create", func(ctx context.Context, _ *inventory.Session) error {
		b, err := s.resolveBase(ctx, row.BaseID)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return err
		}
		payload := purchaseState(row)
		payload["baseName"] = b.Name
		return s.record(ctx, audit.ActionCreate, resourcePurchase, row.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"id", row.ID, "item", row.Item, "base_id", row.BaseID, "quantity", row.Quantity)
	return row, nil
}

// Update applies patch to a purchase.
func (s *PurchaseService) Update(ctx context.Context, id int64, patch PurchasePatch) (*Purchase, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated Purchase
	err := s.Guard.Run(ctx, "purchase.update", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		scope := security.GetScope(ctx)
		if err := scope.RequireBase(stored.BaseID); err != nil {
			return err
		}

		next := *stored
		applyPurchasePatch(&next, patch)
		if err := next.Validate(ctx); err != nil {
			return err
		}
		if err := scope.RequireBase(next.BaseID); err != nil {
			return err
		}
		if _, err := s.resolveBase(ctx, next.BaseID); err != nil {
			return err
		}
		if err := sess.Lock(ctx, stored.key(), next.key()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		updated = next
		return s.record(ctx, audit.ActionUpdate, resourcePurchase, id, map[string]any{
			"changes": audit.Diff(purchaseState(stored), purchaseState(&next)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a purchase.
func (s *PurchaseService) Delete(ctx context.Context, id int64) error {
	return s.Guard.Run(ctx, "purchase.delete", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := security.GetScope(ctx).RequireBase(stored.BaseID); err != nil {
			return err
		}
		if err := sess.Lock(ctx, stored.key()); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, audit.ActionDelete, resourcePurchase, id, purchaseState(stored))
	})
}

// Get returns one purchase visible to the caller.
func (s *PurchaseService) Get(ctx context.Context, id int64) (*Purchase, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireVisible(ctx, row.BaseID); err != nil {
		return nil, err
	}
	return row, nil
}

// List returns purchases visible to the caller, newest first.
func (s *PurchaseService) List(ctx context.Context, f ListFilter) ([]Purchase, error) {
	f, err := readFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func (p *Purchase) key() inventory.StockKey {
	return inventory.StockKey{Item: p.Item, BaseID: p.BaseID}
}

func applyPurchasePatch(p *Purchase, patch PurchasePatch) {
	if patch.Item != nil {
		p.Item = NormalizeItem(*patch.Item)
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.BaseID != nil {
		p.BaseID = *patch.BaseID
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		p.Date = *patch.Date
	}
}

func purchaseState(p *Purchase) map[string]any {
	return map[string]any{
		"item":     p.Item,
		"quantity": p.Quantity,
		"price":    p.Price.String(),
		"baseId":   p.BaseID,
		"date":     p.Date.String(),
	}
}
