package memory

import (
	"context"
	"fmt"
	"slices"

	"mams/internal/core/types"
	"mams/internal/domain/inventory"
)

// movement is one row's contribution to a flow.
type movement struct {
	item   string
	baseID int64
	date   types.Date
	qty    int64
}

// movements projects the ledger behind flow onto the side that flow counts.
func (st *state) movements(flow inventory.Flow) ([]movement, error) {
	var out []movement
	switch flow {
	case inventory.FlowPurchased:
		for _, p := range st.purchases {
			out = append(out, movement{p.Item, p.BaseID, p.Date, p.Quantity})
		}
	case inventory.FlowTransferredIn:
		for _, t := range st.transfers {
			out = append(out, movement{t.Item, t.DestinationBaseID, t.Date, t.Quantity})
		}
	case inventory.FlowTransferredOut:
		for _, t := range st.transfers {
			out = append(out, movement{t.Item, t.SourceBaseID, t.Date, t.Quantity})
		}
	case inventory.FlowAssigned:
		for _, a := range st.assignments {
			out = append(out, movement{a.Item, a.BaseID, a.Date, a.Quantity})
		}
	case inventory.FlowExpended:
		for _, e := range st.expenditures {
			out = append(out, movement{e.Item, e.BaseID, e.Date, e.Quantity})
		}
	default:
		return nil, fmt.Errorf("memory: unknown flow %q", flow)
	}
	return out, nil
}

func (s *Store) SumQuantity(ctx context.Context, flow inventory.Flow, f inventory.SumFilter) (int64, error) {
	var total int64
	err := s.view(ctx, func(st *state) error {
		rows, err := st.movements(flow)
		if err != nil {
			return err
		}
		for _, m := range rows {
			if f.Item != "" && m.item != f.Item {
				continue
			}
			if f.BaseID != nil && m.baseID != *f.BaseID {
				continue
			}
			if m.date.After(f.AsOf) {
				continue
			}
			total += m.qty
		}
		return nil
	})
	return total, err
}

func (s *Store) DistinctItems(ctx context.Context, flow inventory.Flow, baseID *int64) ([]string, error) {
	var items []string
	err := s.view(ctx, func(st *state) error {
		rows, err := st.movements(flow)
		if err != nil {
			return err
		}
		for _, m := range rows {
			if baseID == nil || m.baseID == *baseID {
				items = append(items, m.item)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(items)
	return slices.Compact(items), nil
}
