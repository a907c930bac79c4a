package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Mode picks the quantity a listing filters on.
type Mode string

const (
	ModeGeneric     Mode = "generic"
	ModeTransfer    Mode = "transfer"
	ModeExpenditure Mode = "expenditure"
	ModeAssignment  Mode = "assignment"
)

// ParseMode validates a listing mode. Empty means generic.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeGeneric, nil
	case ModeGeneric, ModeTransfer, ModeExpenditure, ModeAssignment:
		return m, nil
	}
	return "", fmt.Errorf("unknown listing mode %q", s)
}

// AvailableItem is one row of a per-base availability listing.
type AvailableItem struct {
	Item            string `json:"item"`
	Available       int64  `json:"available"`
	Assignable      *int64 `json:"assignable,omitempty"`
	AlreadyAssigned *int64 `json:"alreadyAssigned,omitempty"`
}

// StockLevel is the current stock of one item at one base.
type StockLevel struct {
	Item         string `json:"item"`
	BaseID       int64  `json:"baseId"`
	CurrentStock int64  `json:"currentStock"`
}

// Lister reports what can be moved out of a base today.
type Lister struct {
	calc   *Calculator
	reader LedgerReader
	obs    Observer
}

// NewLister creates a lister over the calculator's ledgers.
func NewLister(calc *Calculator, reader LedgerReader, obs Observer) *Lister {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Lister{calc: calc, reader: reader, obs: obs}
}

// ListAvailable lists items with positive stock at baseID, sorted by name
// (byte-wise). Candidates are items ever purchased at or transferred into the
// base; items known only from outbound, assignment or expenditure rows are
// not listed.
func (l *Lister) ListAvailable(ctx context.Context, baseID int64, mode Mode) ([]AvailableItem, error) {
	candidates, err := l.candidates(ctx, baseID)
	if err != nil {
		return nil, err
	}

	today := l.calc.Today()
	out := make([]AvailableItem, 0, len(candidates))
	for _, item := range candidates {
		b, err := l.calc.Compute(ctx, BalanceQuery{Item: item, BaseID: &baseID, AsOf: &today})
		if err != nil {
			return nil, fmt.Errorf("balance of %q: %w", item, err)
		}

		if mode == ModeAssignment {
			assignable := b.Received() - b.Consumed()
			if assignable <= 0 {
				continue
			}
			assigned := b.Assigned
			out = append(out, AvailableItem{
				Item:            item,
				Available:       b.Available,
				Assignable:      &assignable,
				AlreadyAssigned: &assigned,
			})
			continue
		}

		if b.Available <= 0 {
			continue
		}
		out = append(out, AvailableItem{Item: item, Available: b.Available})
	}

	l.obs.ItemsListed(mode, len(out))
	return out, nil
}

// candidates returns the sorted union of purchased and inbound items at baseID.
func (l *Lister) candidates(ctx context.Context, baseID int64) ([]string, error) {
	purchased, err := l.reader.DistinctItems(ctx, FlowPurchased, &baseID)
	if err != nil {
		return nil, fmt.Errorf("purchased items: %w", err)
	}
	inbound, err := l.reader.DistinctItems(ctx, FlowTransferredIn, &baseID)
	if err != nil {
		return nil, fmt.Errorf("inbound items: %w", err)
	}

	items := append(slices.Clone(purchased), inbound...)
	slices.Sort(items)
	return slices.Compact(items), nil
}

// CurrentStock returns today's available quantity of item at baseID.
func (l *Lister) CurrentStock(ctx context.Context, baseID int64, item string) (StockLevel, error) {
	b, err := l.calc.Compute(ctx, BalanceQuery{Item: item, BaseID: &baseID})
	if err != nil {
		return StockLevel{}, err
	}
	return StockLevel{Item: item, BaseID: baseID, CurrentStock: b.Available}, nil
}

// LedgerItems returns the distinct item names recorded in one ledger, sorted.
// Filter pickers use it; FlowTransferredIn and FlowTransferredOut both read
// the transfer ledger from the respective side.
func (l *Lister) LedgerItems(ctx context.Context, flow Flow, baseID *int64) ([]string, error) {
	items, err := l.reader.DistinctItems(ctx, flow, baseID)
	if err != nil {
		return nil, fmt.Errorf("%s items: %w", flow, err)
	}
	items = slices.Clone(items)
	slices.Sort(items)
	return slices.Compact(items), nil
}
