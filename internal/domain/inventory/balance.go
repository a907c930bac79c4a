// Package inventory computes derived stock balances from the four ledgers
// and gates stock-debiting mutations on them.
//
// Nothing here is stored: every balance is recomputed from ledger rows as of a date.
package inventory

import (
	"context"
	"fmt"
	"time"

	"mams/internal/core/types"
)

// Flow names one contributing sum of a balance.
type Flow string

const (
	FlowPurchased      Flow = "purchased"
	FlowTransferredIn  Flow = "transferred_in"
	FlowTransferredOut Flow = "transferred_out"
	FlowAssigned       Flow = "assigned"
	FlowExpended       Flow = "expended"
)

// Flows lists every flow in the order they enter the balance.
var Flows = []Flow{FlowPurchased, FlowTransferredIn, FlowTransferredOut, FlowAssigned, FlowExpended}

// ParseFlow validates a flow name.
func ParseFlow(s string) (Flow, error) {
	for _, f := range Flows {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown flow %q", s)
}

// SumFilter restricts a ledger sum. Empty Item and nil BaseID mean "all".
// AsOf is inclusive and always set by the calculator.
type SumFilter struct {
	Item   string
	BaseID *int64
	AsOf   types.Date
}

// LedgerReader is the persistence query interface the calculator consumes.
// Implementations must read through the transaction carried by ctx, if any.
type LedgerReader interface {
	// SumQuantity returns the sum of quantity over rows of flow matching f, zero when none match.
	SumQuantity(ctx context.Context, flow Flow, f SumFilter) (int64, error)

	// DistinctItems returns the distinct item names recorded for flow, optionally at one base.
	DistinctItems(ctx context.Context, flow Flow, baseID *int64) ([]string, error)
}

// BalanceQuery selects what to aggregate.
type BalanceQuery struct {
	// Item is the exact, case-sensitive item name. Empty aggregates all items.
	Item string
	// BaseID nil aggregates all bases; transfers then net out.
	BaseID *int64
	// AsOf nil means today.
	AsOf *types.Date
}

// Balance is the derived stock position and its contributing sums.
type Balance struct {
	Available      int64 `json:"available"`
	Purchased      int64 `json:"purchasedQty"`
	TransferredIn  int64 `json:"transferredInQty"`
	TransferredOut int64 `json:"transferredOutQty"`
	Assigned       int64 `json:"assignedQty"`
	Expended       int64 `json:"expendedQty"`
}

// Received is what came into the base.
func (b Balance) Received() int64 { return b.Purchased + b.TransferredIn }

// Consumed is what left the base or was handed out.
func (b Balance) Consumed() int64 { return b.Assigned + b.Expended + b.TransferredOut }

// Sub returns the per-flow difference b - o.
func (b Balance) Sub(o Balance) Balance {
	return Balance{
		Available:      b.Available - o.Available,
		Purchased:      b.Purchased - o.Purchased,
		TransferredIn:  b.TransferredIn - o.TransferredIn,
		TransferredOut: b.TransferredOut - o.TransferredOut,
		Assigned:       b.Assigned - o.Assigned,
		Expended:       b.Expended - o.Expended,
	}
}

func (b *Balance) set(flow Flow, qty int64) {
	switch flow {
	case FlowPurchased:
		b.Purchased = qty
	case FlowTransferredIn:
		b.TransferredIn = qty
	case FlowTransferredOut:
		b.TransferredOut = qty
	case FlowAssigned:
		b.Assigned = qty
	case FlowExpended:
		b.Expended = qty
	}
}

// Calculator aggregates ledger sums into a Balance.
type Calculator struct {
	reader LedgerReader
	clock  types.Clock
	obs    Observer
}

// NewCalculator creates a calculator. A nil clock uses the wall clock; a nil observer discards.
func NewCalculator(reader LedgerReader, clock types.Clock, obs Observer) *Calculator {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Calculator{reader: reader, clock: clock, obs: obs}
}

// Today returns the calculator's notion of the current day.
func (c *Calculator) Today() types.Date {
	return c.clock.Today()
}

// Compute is the reporting entry point. It takes no locks; concurrent writers
// may commit between the five sums. Guards use Session.Balance instead.
func (c *Calculator) Compute(ctx context.Context, q BalanceQuery) (Balance, error) {
	return c.compute(ctx, q, false)
}

func (c *Calculator) compute(ctx context.Context, q BalanceQuery, guarded bool) (Balance, error) {
	start := time.Now()
	defer func() { c.obs.BalanceComputed(guarded, time.Since(start)) }()

	asOf := c.Today()
	if q.AsOf != nil && !q.AsOf.IsZero() {
		asOf = *q.AsOf
	}
	filter := SumFilter{Item: q.Item, BaseID: q.BaseID, AsOf: asOf}

	var b Balance
	for _, flow := range Flows {
		qty, err := c.reader.SumQuantity(ctx, flow, filter)
		if err != nil {
			return Balance{}, fmt.Errorf("sum %s: %w", flow, err)
		}
		b.set(flow, qty)
	}
	b.Available = b.Received() - b.Consumed()
	return b, nil
}
