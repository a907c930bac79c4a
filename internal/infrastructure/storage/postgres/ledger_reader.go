package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mams/internal/domain/inventory"
)

var _ inventory.LedgerReader = (*LedgerReader)(nil)

// flowSource is the table and base column a flow is summed over.
type flowSource struct {
	table   string
	baseCol string
}

var flowSources = map[inventory.Flow]flowSource{
	inventory.FlowPurchased:      {"purchases", "base_id"},
	inventory.FlowTransferredIn:  {"transfers", "destination_base_id"},
	inventory.FlowTransferredOut: {"transfers", "source_base_id"},
	inventory.FlowAssigned:       {"assignments", "base_id"},
	inventory.FlowExpended:       {"expenditures", "base_id"},
}

// LedgerReader runs the calculator's aggregate queries.
type LedgerReader struct {
	txm *TxManager
}

// NewLedgerReader creates a reader.
func NewLedgerReader(txm *TxManager) *LedgerReader {
	return &LedgerReader{txm: txm}
}

func sumQuery(flow inventory.Flow, f inventory.SumFilter) (squirrel.SelectBuilder, error) {
	src, ok := flowSources[flow]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown flow %q", flow)
	}
	q := builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(src.table).
		Where(squirrel.LtOrEq{"date": f.AsOf})
	if f.Item != "" {
		q = q.Where(squirrel.Eq{"item": f.Item})
	}
	if f.BaseID != nil {
		q = q.Where(squirrel.Eq{src.baseCol: *f.BaseID})
	}
	return q, nil
}

func (r *LedgerReader) SumQuantity(ctx context.Context, flow inventory.Flow, f inventory.SumFilter) (int64, error) {
	q, err := sumQuery(flow, f)
	if err != nil {
		return 0, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build sum: %w", err)
	}
	var total int64
	if err := r.txm.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum %s: %w", flow, err)
	}
	return total, nil
}

func distinctQuery(flow inventory.Flow, baseID *int64) (squirrel.SelectBuilder, error) {
	src, ok := flowSources[flow]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("unknown flow %q", flow)
	}
	q := builder().Select("DISTINCT item").From(src.table)
	if baseID != nil {
		q = q.Where(squirrel.Eq{src.baseCol: *baseID})
	}
	// COLLATE "C" keeps the byte-wise order the lister promises.
	return q.OrderBy(`item COLLATE "C"`), nil
}

func (r *LedgerReader) DistinctItems(ctx context.Context, flow inventory.Flow, baseID *int64) ([]string, error) {
	q, err := distinctQuery(flow, baseID)
	if err != nil {
		return nil, err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build distinct: %w", err)
	}
	items := make([]string, 0)
	if err := pgxscan.Select(ctx, r.txm.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", flow, err)
	}
	return items, nil
}
