package ledger

import (
	"context"
	"strings"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/inventory"
	"mams/pkg/logger"
)

const resourceAssignment = "assignment"

// AssignmentInput is a request to hand stock to personnel.
type AssignmentInput struct {
	Item      string
	Quantity  int64
	BaseID    *int64
	Personnel string
	Date      *types.Date
	Status    string
}

// AssignmentPatch changes any subset of an assignment.
type AssignmentPatch struct {
	Item      *string
	Quantity  *int64
	BaseID    *int64
	Personnel *string
	Date      *types.Date
	Status    *string
}

// AssignmentService mutates the assignment ledger under the stock guard.
type AssignmentService struct {
	Deps
	repo Repository[Assignment]
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps Deps, repo Repository[Assignment]) *AssignmentService {
	return &AssignmentService{Deps: deps, repo: repo}
}

func (in AssignmentInput) row(today types.Date) *Assignment {
	row := &Assignment{
		Item:      NormalizeItem(in.Item),
		Quantity:  in.Quantity,
		Personnel: strings.TrimSpace(in.Personnel),
		Date:      dateOrToday(in.Date, today),
		Status:    strings.TrimSpace(in.Status),
	}
	if row.Status == "" {
		row.Status = DefaultAssignmentStatus
	}
	return row
}

// Validate checks the fields that need no lookup.
func (in AssignmentInput) Validate(ctx context.Context) error {
	return in.row(types.Date{}).Validate(ctx)
}

// Validate checks the fields that need no lookup.
func (p AssignmentPatch) Validate() error {
	if err := validatePatchShape(p.Item, p.Quantity, map[string]*int64{"baseId": p.BaseID}); err != nil {
		return err
	}
	if p.Personnel != nil && strings.TrimSpace(*p.Personnel) == "" {
		return apperror.NewValidation("personnel is required").WithDetail("field", "personnel")
	}
	return nil
}

// Create admits and records a new assignment.
func (s *AssignmentService) Create(ctx context.Context, in AssignmentInput) (*Assignment, error) {
	row := in.row(s.today())
	if err := row.Validate(ctx); err != nil {
		return nil, err
	}

	baseID, err := security.GetScope(ctx).TargetBase(in.BaseID, "baseId")
	if err != nil {
		return nil, err
	}
	row.BaseID = baseID

	err = s.Guard.Run(ctx, "assignment.create", func(ctx context.Context, sess *inventory.Session) error {
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
		payload := assignmentState(row)
		payload["baseName"] = b.Name
		return s.record(ctx, audit.ActionCreate, resourceAssignment, row.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "assignment created",
		"id", row.ID, "item", row.Item, "base_id", row.BaseID, "quantity", row.Quantity)
	return row, nil
}

// Update applies patch and re-admits when item, base, date or quantity change.
func (s *AssignmentService) Update(ctx context.Context, id int64, patch AssignmentPatch) (*Assignment, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated Assignment
	err := s.Guard.Run(ctx, "assignment.update", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		scope := security.GetScope(ctx)
		if err := scope.RequireBase(stored.BaseID); err != nil {
			return err
		}

		next := *stored
		applyAssignmentPatch(&next, patch)
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
		return s.record(ctx, audit.ActionUpdate, resourceAssignment, id, map[string]any{
			"changes": audit.Diff(assignmentState(stored), assignmentState(&next)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an assignment. No stock check is needed.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	return s.Guard.Run(ctx, "assignment.delete", func(ctx context.Context, sess *inventory.Session) error {
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
		return s.record(ctx, audit.ActionDelete, resourceAssignment, id, assignmentState(stored))
	})
}

// Get returns one assignment visible to the caller.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*Assignment, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireVisible(ctx, row.BaseID); err != nil {
		return nil, err
	}
	return row, nil
}

// List returns assignments visible to the caller, newest first.
func (s *AssignmentService) List(ctx context.Context, f ListFilter) ([]Assignment, error) {
	f, err := readFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

func applyAssignmentPatch(a *Assignment, p AssignmentPatch) {
	if p.Item != nil {
		a.Item = NormalizeItem(*p.Item)
	}
	if p.Quantity != nil {
		a.Quantity = *p.Quantity
	}
	if p.BaseID != nil {
		a.BaseID = *p.BaseID
	}
	if p.Personnel != nil {
		a.Personnel = strings.TrimSpace(*p.Personnel)
	}
	if p.Date != nil && !p.Date.IsZero() {
		a.Date = *p.Date
	}
	if p.Status != nil {
		a.Status = strings.TrimSpace(*p.Status)
	}
}

func assignmentState(a *Assignment) map[string]any {
	return map[string]any{
		"item":      a.Item,
		"quantity":  a.Quantity,
		"baseId":    a.BaseID,
		"personnel": a.Personnel,
		"date":      a.Date.String(),
		"status":    a.Status,
	}
}
