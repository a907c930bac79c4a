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
	"mams/pkg/logger"
)

const resourceTransfer = "transfer"

// TransferInput is a request to move stock between bases.
type TransferInput struct {
	Item              string
	Quantity          int64
	SourceBaseID      *int64
	DestinationBaseID *int64
	Date              *types.Date
	Status            TransferStatus
}

// TransferPatch changes any subset of a transfer.
type TransferPatch struct {
	Item              *string
	Quantity          *int64
	SourceBaseID      *int64
	DestinationBaseID *int64
	Date              *types.Date
	Status            *TransferStatus
}

// StockInfo is the source base position around a created transfer.
type StockInfo struct {
	BeforeTransfer int64 `json:"beforeTransfer"`
	AfterTransfer  int64 `json:"afterTransfer"`
	Transferred    int64 `json:"transferred"`
}

// TransferResult is returned by Create.
type TransferResult struct {
	Transfer  *Transfer
	StockInfo StockInfo
}

// TransferStats aggregates transfers by item and base.
type TransferStats struct {
	TotalTransfers int              `json:"totalTransfers"`
	TotalQuantity  int64            `json:"totalQuantity"`
	ByItem         map[string]int64 `json:"byItem"`
	// ByBase is outbound minus inbound quantity per base name.
	ByBase map[string]int64 `json:"byBase"`
}

// TransferService mutates the transfer ledger under the stock guard.
type TransferService struct {
	Deps
	repo Repository[Transfer]
}

// NewTransferService creates the service.
func NewTransferService(deps Deps, repo Repository[Transfer]) *TransferService {
	return &TransferService{Deps: deps, repo: repo}
}

func (in TransferInput) row(today types.Date) *Transfer {
	row := &Transfer{
		Item:     NormalizeItem(in.Item),
		Quantity: in.Quantity,
		Date:     dateOrToday(in.Date, today),
		Status:   in.Status,
	}
	if row.Status == "" {
		row.Status = TransferCompleted
	}
	return row
}

// Validate checks the fields that need no lookup. Base references are
// checked by Create.
func (in TransferInput) Validate(ctx context.Context) error {
	return in.row(types.Date{}).Validate(ctx)
}

// Validate checks the fields that need no lookup.
func (p TransferPatch) Validate() error {
	if err := validatePatchShape(p.Item, p.Quantity, map[string]*int64{
		"sourceBaseId":      p.SourceBaseID,
		"destinationBaseId": p.DestinationBaseID,
	}); err != nil {
		return err
	}
	if p.Status != nil {
		return validateTransferStatus(*p.Status)
	}
	return nil
}

// Create admits and records a transfer out of the source base.
func (s *TransferService) Create(ctx context.Context, in TransferInput) (*TransferResult, error) {
	row := in.row(s.today())
	if err := row.Validate(ctx); err != nil {
		return nil, err
	}
	if in.DestinationBaseID == nil {
		return nil, apperror.NewValidation("destinationBaseId is required").WithDetail("field", "destinationBaseId")
	}

	srcID, err := security.GetScope(ctx).TargetBase(in.SourceBaseID, "sourceBaseId")
	if err != nil {
		return nil, err
	}
	row.SourceBaseID = srcID
	row.DestinationBaseID = *in.DestinationBaseID
	if row.SelfTransfer() {
		return nil, selfTransferError(row.SourceBaseID)
	}

	var info StockInfo
	err = s.Guard.Run(ctx, "transfer.create", func(ctx context.Context, sess *inventory.Session) error {
		src, dst, err := s.resolvePair(ctx, row.SourceBaseID, row.DestinationBaseID)
		if err != nil {
			return err
		}
		d := row.debit()
		bal, err := sess.Check(ctx, inventory.StockCheck{
			Key: d.Key, BaseName: src.Name, AsOf: d.Date, Requested: d.Quantity,
		})
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, row); err != nil {
			return err
		}

		info = StockInfo{
			BeforeTransfer: bal.Available,
			AfterTransfer:  bal.Available - row.Quantity,
			Transferred:    row.Quantity,
		}
		payload := transferState(row)
		payload["sourceBase"] = src.Name
		payload["destinationBase"] = dst.Name
		payload["beforeStock"] = info.BeforeTransfer
		payload["afterStock"] = info.AfterTransfer
		return s.record(ctx, audit.ActionCreate, resourceTransfer, row.ID, payload)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer created",
		"id", row.ID,
		"item", row.Item,
		"source_base_id", row.SourceBaseID,
		"destination_base_id", row.DestinationBaseID,
		"quantity", row.Quantity,
	)
	return &TransferResult{Transfer: row, StockInfo: info}, nil
}

// Update applies patch and re-admits the source debit when it changes.
func (s *TransferService) Update(ctx context.Context, id int64, patch TransferPatch) (*Transfer, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated Transfer
	err := s.Guard.Run(ctx, "transfer.update", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		scope := security.GetScope(ctx)
		if err := scope.RequireBase(stored.SourceBaseID); err != nil {
			return err
		}

		next := *stored
		applyTransferPatch(&next, patch)
		if err := next.Validate(ctx); err != nil {
			return err
		}
		if next.SelfTransfer() {
			return selfTransferError(next.SourceBaseID)
		}
		if err := scope.RequireBase(next.SourceBaseID); err != nil {
			return err
		}
		src, _, err := s.resolvePair(ctx, next.SourceBaseID, next.DestinationBaseID)
		if err != nil {
			return err
		}

		// The destination is credited; only lock it so concurrent debits there
		// see either the old or the new row.
		if err := sess.Lock(ctx,
			inventory.StockKey{Item: stored.Item, BaseID: stored.DestinationBaseID},
			inventory.StockKey{Item: next.Item, BaseID: next.DestinationBaseID},
			stored.debit().Key,
			next.debit().Key,
		); err != nil {
			return err
		}
		// When the new source is the stored destination, the balance there still
		// includes this row's own delivery.
		if err := checkUpdate(ctx, sess, stored.debit(), next.debit(), src.Name, stored.inbound()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		updated = next
		return s.record(ctx, audit.ActionUpdate, resourceTransfer, id, map[string]any{
			"changes": audit.Diff(transferState(stored), transferState(&next)),
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a transfer. No stock check is needed.
func (s *TransferService) Delete(ctx context.Context, id int64) error {
	return s.Guard.Run(ctx, "transfer.delete", func(ctx context.Context, sess *inventory.Session) error {
		stored, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := security.GetScope(ctx).RequireBase(stored.SourceBaseID); err != nil {
			return err
		}
		if err := sess.Lock(ctx,
			stored.debit().Key,
			inventory.StockKey{Item: stored.Item, BaseID: stored.DestinationBaseID},
		); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.record(ctx, audit.ActionDelete, resourceTransfer, id, transferState(stored))
	})
}

// Get returns one transfer visible to the caller (either side).
func (s *TransferService) Get(ctx context.Context, id int64) (*Transfer, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireVisible(ctx, row.SourceBaseID, row.DestinationBaseID); err != nil {
		return nil, err
	}
	return row, nil
}

// List returns transfers touching the caller's base, newest first.
func (s *TransferService) List(ctx context.Context, f ListFilter) ([]Transfer, error) {
	f, err := readFilter(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// Stats aggregates the transfers List would return.
func (s *TransferService) Stats(ctx context.Context, f ListFilter) (TransferStats, error) {
	rows, err := s.List(ctx, f)
	if err != nil {
		return TransferStats{}, err
	}
	names, err := s.Bases.Names(ctx)
	if err != nil {
		return TransferStats{}, err
	}

	stats := TransferStats{
		TotalTransfers: len(rows),
		ByItem:         make(map[string]int64),
		ByBase:         make(map[string]int64),
	}
	for _, t := range rows {
		stats.TotalQuantity += t.Quantity
		stats.ByItem[t.Item] += t.Quantity
		stats.ByBase[baseLabel(names, t.SourceBaseID)] += t.Quantity
		stats.ByBase[baseLabel(names, t.DestinationBaseID)] -= t.Quantity
	}
	return stats, nil
}

func (s *TransferService) resolvePair(ctx context.Context, srcID, dstID int64) (*base.Base, *base.Base, error) {
	src, err := s.resolveBase(ctx, srcID)
	if err != nil {
		return nil, nil, err
	}
	dst, err := s.resolveBase(ctx, dstID)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

func selfTransferError(baseID int64) error {
	return apperror.NewConflictingReference("cannot transfer to the same base").
		WithDetail("sourceBaseId", baseID).
		WithDetail("destinationBaseId", baseID)
}

func applyTransferPatch(t *Transfer, p TransferPatch) {
	if p.Item != nil {
		t.Item = NormalizeItem(*p.Item)
	}
	if p.Quantity != nil {
		t.Quantity = *p.Quantity
	}
	if p.SourceBaseID != nil {
		t.SourceBaseID = *p.SourceBaseID
	}
	if p.DestinationBaseID != nil {
		t.DestinationBaseID = *p.DestinationBaseID
	}
	if p.Date != nil && !p.Date.IsZero() {
		t.Date = *p.Date
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

func transferState(t *Transfer) map[string]any {
	return map[string]any{
		"item":              t.Item,
		"quantity":          t.Quantity,
		"sourceBaseId":      t.SourceBaseID,
		"destinationBaseId": t.DestinationBaseID,
		"date":              t.Date.String(),
		"status":            string(t.Status),
	}
}

func baseLabel(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "#" + strconv.FormatInt(id, 10)
}
