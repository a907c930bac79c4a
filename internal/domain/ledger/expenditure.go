package ledger

import (
	"context"
	"strings"

	"mams/internal/core/security"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/inventory"
	"mams/pkg/logger"
)

const resourceExpenditure = "expenditure"

// ExpenditureInput is a request to consume stock.
type ExpenditureInput struct {
	Item     string
	Quantity int64
	BaseID   *int64
	Reason   *string
	Date     *types.Date
}

// ExpenditurePatch changes any subset of an expenditure.
type ExpenditurePatch struct {
	Item     *string
	Quantity *int64
	BaseID   *int64
	Reason   *string
	Date     *types.Date
}

// ExpenditureService mutates the expenditure ledger under the stock guard.
type ExpenditureService struct {
	Deps
	repo Repository[Expenditure]
}

// NewExpenditureService creates the service.
func NewExpenditureService(deps Deps, repo Repository[Expenditure]) *ExpenditureService {
	return &ExpenditureService{Deps: deps, repo: repo}
}

func (in ExpenditureInput) row(today types.Date) *Expenditure {
	return &Expenditure{
		Item:     NormalizeItem(in.Item),
		Quantity: in.Quantity,
		Reason:   trimOptional(in.Reason),
		Date:     dateOrToday(in.Date, today),
	}
}

// Validate checks the fields that need no lookup.
func (in ExpenditureInput) Validate(ctx context.Context) error {
	return in.row(types.Date{}).Validate(ctx)
}

// Validate checks the fields that need no lookup.
func (p ExpenditurePatch) Validate() error {
	if err := validatePatchShape(p.Item, p.Quantity, map[string]*int64{"baseId": p.BaseID}); err != nil {
		return err
	}
	if p.Reason != nil && len(strings.TrimSpace(*p.Reason)) > maxReasonLen {
		return tooLong("reason", maxReasonLen)
	}
	return nil
}

// Create admits and records a new expenditure.
func (s *ExpenditureService) Create(ctx context.Context, in ExpenditureInput) (*Expenditure, error) {
	row := in.row(s.today())
	if err := row.Validate(ctx); err != nil {
		return nil, err
	}

	baseID, err := security.GetScope(ctx).TargetBase(in.BaseID, "baseId")
	if err != nil {
		return nil, err
	}
	row.BaseID = baseID

	err = s.Guard.Run(ctx, "expenditure.create", func(ctx context.Context, sess *inventory.Session) error {
		b, err := s.resolveBase(ctx, row.BaseID)
		if err != nil {
			return err
		}
		d := row.debit()
		if _, err := sess.Check(ctx, inventory.StockCheck{
			Key: d.Key, BaseName: b.Name, AsOf: d.Date, Requested: d.Quantity,
		}); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return err
		}
		payload := expenditureState(row)
		payload["baseName"] = b.Name
		return s.record(ctx, audit.ActionCreate, resourceExpenditure, row.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expenditure created",
		"id", row.ID, "item", row.Item, "base_id", row.BaseID, "quantity", row.Quantity)
	return row, nil
}

// Update applies patch and re-admits when item, base, date or quantity change.
func (s *ExpenditureService) Update(ctx context.Context, id int64, patch ExpenditurePatch) (*Expenditure, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated Expenditure
	err := s.Guard.Run(ctx, "expenditure.update", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		scope := security.GetScope(ctx)
		if err := scope.RequireBase(stored.BaseID); err != nil {
			return err
		}

		next := *stored
		applyExpenditurePatch(&next, patch)
		if err := next.Validate(ctx); err != nil {
			return err
		}
		if err := scope.RequireBase(next.BaseID); err != nil {
			return err
		}
		b, err := s.resolveBase(ctx, next.BaseID)
		if err != nil {
			return err
		}

		if err := checkUpdate(ctx, sess, stored.debit(), next.debit(), b.Name); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		updated = next
		return s.record(ctx, audit.ActionUpdate, resourceExpenditure, id, map[string]any{
			"changes": audit.Diff(expenditureState(stored), expenditureState(&next)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an expenditure. No stock check is needed.
func (s *ExpenditureService) Delete(ctx context.Context, id int64) error {
	return s.Guard.Run(ctx, "expenditure.delete", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := security.GetScope(ctx).RequireBase(stored.BaseID); err != nil {
			return err
		}
		if err := sess.Lock(ctx, stored.debit().Key); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, audit.ActionDelete, resourceExpenditure, id, expenditureState(stored))
	})
}

// Get returns one expenditure visible to the caller.
func (s *ExpenditureService) Get(ctx context.Context, id int64) (*Expenditure, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireVisible(ctx, row.BaseID); err != nil {
		return nil, err
	}
	return row, nil
}

// List returns expenditures visible to the caller, newest first.
func (s *ExpenditureService) List(ctx context.Context, f ListFilter) ([]Expenditure, error) {
	f, err := readFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func applyExpenditurePatch(e *Expenditure, p ExpenditurePatch) {
	if p.Item != nil {
		e.Item = NormalizeItem(*p.Item)
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.BaseID != nil {
		e.BaseID = *p.BaseID
	}
	if p.Reason != nil {
		e.Reason = trimOptional(p.Reason)
	}
	if p.Date != nil && !p.Date.IsZero() {
		e.Date = *p.Date
	}
}

func expenditureState(e *Expenditure) map[string]any {
	state := map[string]any{
		"item":     e.Item,
		"quantity": e.Quantity,
		"baseId":   e.BaseID,
		"date":     e.Date.String(),
	}
	if e.Reason != nil {
		state["reason"] = *e.Reason
	}
	return state
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
