package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"mams/internal/core/apperror"
	"mams/internal/domain/base"
)

var _ base.Repository = (*BaseRepo)(nil)

const basesTable = "bases"

// BaseRepo implements base.Repository.
type BaseRepo struct {
	txm  *TxManager
	cols []string
}

// NewBaseRepo creates the repository.
func NewBaseRepo(txm *TxManager) *BaseRepo {
	return &BaseRepo{txm: txm, cols: ExtractDBColumns[base.Base]()}
}

func (r *BaseRepo) Create(ctx context.Context, b *base.Base) error {
	sql, args, err := builder().
		Insert(basesTable).
		SetMap(pick(StructToMap(b), without(r.cols, "id", "created_at", "updated_at"))).
		Suffix("RETURNING " + strings.Join(r.cols, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), b, sql, args...); err != nil {
		return translate(err, "base")
	}
	return nil
}

func (r *BaseRepo) GetByID(ctx context.Context, id int64) (*base.Base, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id}, id)
}

func (r *BaseRepo) GetByName(ctx context.Context, name string) (*base.Base, error) {
	return r.getBy(ctx, squirrel.Eq{"name": name}, name)
}

func (r *BaseRepo) getBy(ctx context.Context, where squirrel.Eq, key any) (*base.Base, error) {
	sql, args, err := builder().Select(r.cols...).From(basesTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var b base.Base
	if err := pgxscan.Get(ctx, r.txm.Querier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("base", key)
		}
		return nil, fmt.Errorf("get base: %w", err)
	}
	return &b, nil
}

func (r *BaseRepo) List(ctx context.Context) ([]base.Base, error) {
	sql, args, err := builder().Select(r.cols...).From(basesTable).OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}
	out := make([]base.Base, 0)
	if err := pgxscan.Select(ctx, r.txm.Querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list bases: %w", err)
	}
	return out, nil
}
