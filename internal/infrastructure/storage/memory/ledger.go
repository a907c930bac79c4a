package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"mams/internal/core/apperror"
	"mams/internal/domain/ledger"
)

// rowMeta exposes the bookkeeping fields of a ledger row.
type rowMeta struct {
	id        *int64
	createdAt *time.Time
	updatedAt *time.Time
}

// table is one ledger held in the store.
type table[T ledger.Row] struct {
	store  *Store
	entity string
	rows   func(*state) map[int64]T
	meta   func(*T) rowMeta
	match  func(*T, ledger.ListFilter) bool
}

// Ledgers returns the four ledger repositories backed by s.
func (s *Store) Ledgers() ledger.Repositories {
	return ledger.Repositories{
		Purchases: &table[ledger.Purchase]{
			store:  s,
			entity: "purchase",
			rows:   func(st *state) map[int64]ledger.Purchase { return st.purchases },
			meta: func(p *ledger.Purchase) rowMeta {
				return rowMeta{&p.ID, &p.CreatedAt, &p.UpdatedAt}
			},
			match: func(p *ledger.Purchase, f ledger.ListFilter) bool {
				return matchBase(f, p.BaseID) && matchCommon(f, p.Item, p.Date.String())
			},
		},
		Transfers: &table[ledger.Transfer]{
			store:  s,
			entity: "transfer",
			rows:   func(st *state) map[int64]ledger.Transfer { return st.transfers },
			meta: func(t *ledger.Transfer) rowMeta {
				return rowMeta{&t.ID, &t.CreatedAt, &t.UpdatedAt}
			},
			match: func(t *ledger.Transfer, f ledger.ListFilter) bool {
				return matchBase(f, t.SourceBaseID, t.DestinationBaseID) &&
					matchCommon(f, t.Item, t.Date.String()) &&
					(f.Status == "" || f.Status == string(t.Status))
			},
		},
		Assignments: &table[ledger.Assignment]{
			store:  s,
			entity: "assignment",
			rows:   func(st *state) map[int64]ledger.Assignment { return st.assignments },
			meta: func(a *ledger.Assignment) rowMeta {
				return rowMeta{&a.ID, &a.CreatedAt, &a.UpdatedAt}
			},
			match: func(a *ledger.Assignment, f ledger.ListFilter) bool {
				return matchBase(f, a.BaseID) &&
					matchCommon(f, a.Item, a.Date.String()) &&
					(f.Personnel == "" || f.Personnel == a.Personnel) &&
					(f.Status == "" || f.Status == a.Status)
			},
		},
		Expenditures: &table[ledger.Expenditure]{
			store:  s,
			entity: "expenditure",
			rows:   func(st *state) map[int64]ledger.Expenditure { return st.expenditures },
			meta: func(e *ledger.Expenditure) rowMeta {
				return rowMeta{&e.ID, &e.CreatedAt, &e.UpdatedAt}
			},
			match: func(e *ledger.Expenditure, f ledger.ListFilter) bool {
				return matchBase(f, e.BaseID) && matchCommon(f, e.Item, e.Date.String())
			},
		},
	}
}

func (t *table[T]) Create(ctx context.Context, row *T) error {
	return t.store.view(ctx, func(st *state) error {
		m := t.meta(row)
		now := t.store.now()
		*m.id = st.nextID()
		*m.createdAt = now
		*m.updatedAt = now
		t.rows(st)[*m.id] = *row
		return nil
	})
}

func (t *table[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	err := t.store.view(ctx, func(st *state) error {
		row, ok := t.rows(st)[id]
		if !ok {
			return apperror.NewNotFound(t.entity, id)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is Get: the transaction already holds the store exclusively.
func (t *table[T]) GetForUpdate(ctx context.Context, id int64) (*T, error) {
	return t.Get(ctx, id)
}

func (t *table[T]) Update(ctx context.Context, row *T) error {
	return t.store.view(ctx, func(st *state) error {
		m := t.meta(row)
		stored, ok := t.rows(st)[*m.id]
		if !ok {
			return apperror.NewNotFound(t.entity, *m.id)
		}
		*m.createdAt = *t.meta(&stored).createdAt
		*m.updatedAt = t.store.now()
		t.rows(st)[*m.id] = *row
		return nil
	})
}

func (t *table[T]) Delete(ctx context.Context, id int64) error {
	return t.store.view(ctx, func(st *state) error {
		rows := t.rows(st)
		if _, ok := rows[id]; !ok {
			return apperror.NewNotFound(t.entity, id)
		}
		delete(rows, id)
		return nil
	})
}

// List returns matching rows newest first.
func (t *table[T]) List(ctx context.Context, f ledger.ListFilter) ([]T, error) {
	f.Normalize()
	var out []T
	err := t.store.view(ctx, func(st *state) error {
		for _, row := range t.rows(st) {
			if t.match(&row, f) {
				out = append(out, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b T) int {
		ma, mb := t.meta(&a), t.meta(&b)
		if c := mb.createdAt.Compare(*ma.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(*mb.id, *ma.id)
	})

	if f.Offset >= len(out) {
		return []T{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchBase(f ledger.ListFilter, ids ...int64) bool {
	if f.BaseID == nil {
		return true
	}
	return slices.Contains(ids, *f.BaseID)
}

// matchCommon compares dates in their YYYY-MM-DD form, which sorts lexically.
func matchCommon(f ledger.ListFilter, item, date string) bool {
	if f.Item != "" && f.Item != item {
		return false
	}
	if f.From != nil && date < f.From.String() {
		return false
	}
	if f.To != nil && date > f.To.String() {
		return false
	}
	return true
}
