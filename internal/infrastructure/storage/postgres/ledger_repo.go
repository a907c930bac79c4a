package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mams/internal/core/apperror"
	"mams/internal/domain/ledger"
)

// ledgerTable describes how one ledger maps onto its table.
type ledgerTable struct {
	name   string
	entity string
	// baseCols are matched by ListFilter.BaseID, any of them.
	baseCols     []string
	hasPersonnel bool
	hasStatus    bool
}

var (
	purchasesTable    = ledgerTable{name: "purchases", entity: "purchase", baseCols: []string{"base_id"}}
	transfersTable    = ledgerTable{name: "transfers", entity: "transfer", baseCols: []string{"source_base_id", "destination_base_id"}, hasStatus: true}
	assignmentsTable  = ledgerTable{name: "assignments", entity: "assignment", baseCols: []string{"base_id"}, hasPersonnel: true, hasStatus: true}
	expendituresTable = ledgerTable{name: "expenditures", entity: "expenditure", baseCols: []string{"base_id"}}
)

// LedgerRepo implements ledger.Repository for one table.
type LedgerRepo[T ledger.Row] struct {
	txm      *TxManager
	table    ledgerTable
	cols     []string
	writable []string
}

// NewLedgerRepos builds the four ledger repositories.
func NewLedgerRepos(txm *TxManager) ledger.Repositories {
	return ledger.Repositories{
		Purchases:    newLedgerRepo[ledger.Purchase](txm, purchasesTable),
		Transfers:    newLedgerRepo[ledger.Transfer](txm, transfersTable),
		Assignments:  newLedgerRepo[ledger.Assignment](txm, assignmentsTable),
		Expenditures: newLedgerRepo[ledger.Expenditure](txm, expendituresTable),
	}
}

func newLedgerRepo[T ledger.Row](txm *TxManager, table ledgerTable) *LedgerRepo[T] {
	cols := ExtractDBColumns[T]()
	return &LedgerRepo[T]{
		txm:      txm,
		table:    table,
		cols:     cols,
		writable: without(cols, "id", "created_at", "updated_at"),
	}
}

func (r *LedgerRepo[T]) returning() string {
	return "RETURNING " + strings.Join(r.cols, ", ")
}

// Create inserts row and reads back the generated id and timestamps.
func (r *LedgerRepo[T]) Create(ctx context.Context, row *T) error {
	sql, args, err := builder().
		Insert(r.table.name).
		SetMap(pick(StructToMap(row), r.writable)).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), row, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.table.name, translate(err, r.table.entity))
	}
	return nil
}

func (r *LedgerRepo[T]) Get(ctx context.Context, id int64) (*T, error) {
	return r.get(ctx, id, false)
}

func (r *LedgerRepo[T]) GetForUpdate(ctx context.Context, id int64) (*T, error) {
	return r.get(ctx, id, true)
}

func (r *LedgerRepo[T]) get(ctx context.Context, id int64, forUpdate bool) (*T, error) {
	q := builder().Select(r.cols...).From(r.table.name).Where(squirrel.Eq{"id": id})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := new(T)
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.table.entity, id)
		}
		return nil, fmt.Errorf("get %s: %w", r.table.name, err)
	}
	return row, nil
}

// Update writes every mutable column of row and refreshes updated_at.
func (r *LedgerRepo[T]) Update(ctx context.Context, row *T) error {
	data := StructToMap(row)
	sql, args, err := builder().
		Update(r.table.name).
		SetMap(pick(data, r.writable)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": data["id"]}).
		Suffix(r.returning()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(r.table.entity, data["id"])
		}
		return fmt.Errorf("update %s: %w", r.table.name, translate(err, r.table.entity))
	}
	return nil
}

func (r *LedgerRepo[T]) Delete(ctx context.Context, id int64) error {
	sql, args, err := builder().Delete(r.table.name).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txm.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.table.name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.table.entity, id)
	}
	return nil
}

// List returns matching rows newest first.
func (r *LedgerRepo[T]) List(ctx context.Context, f ledger.ListFilter) ([]T, error) {
	sql, args, err := r.listQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	rows := make([]T, 0)
	if err := pgxscan.Select(ctx, r.txm.Querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.table.name, err)
	}
	return rows, nil
}

func (r *LedgerRepo[T]) listQuery(f ledger.ListFilter) squirrel.SelectBuilder {
	f.Normalize()
	q := builder().Select(r.cols...).From(r.table.name)

	if f.BaseID != nil {
		or := squirrel.Or{}
		for _, c := range r.table.baseCols {
			or = append(or, squirrel.Eq{c: *f.BaseID})
		}
		q = q.Where(or)
	}
	if f.Item != "" {
		q = q.Where(squirrel.Eq{"item": f.Item})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.To})
	}
	if f.Personnel != "" && r.table.hasPersonnel {
		q = q.Where(squirrel.Eq{"personnel": f.Personnel})
	}
	if f.Status != "" && r.table.hasStatus {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}

	return q.OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
}
