package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"mams/internal/core/apperror"
	"mams/internal/domain/base"
)

func (s *Store) Create(ctx context.Context, b *base.Base) error {
	return s.view(ctx, func(st *state) error {
		for _, existing := range st.bases {
			if strings.EqualFold(existing.Name, b.Name) {
				return apperror.NewDuplicate("base", "name", b.Name)
			}
			if b.Code != "" && strings.EqualFold(existing.Code, b.Code) {
				return apperror.NewDuplicate("base", "code", b.Code)
			}
		}
		now := s.now()
		b.ID = st.nextID()
		b.CreatedAt = now
		b.UpdatedAt = now
		st.bases[b.ID] = *b
		return nil
	})
}

func (s *Store) GetByID(ctx context.Context, id int64) (*base.Base, error) {
	var out *base.Base
	err := s.view(ctx, func(st *state) error {
		b, ok := st.bases[id]
		if !ok {
			return apperror.NewNotFound("base", id)
		}
		out = &b
		return nil
	})
	return out, err
}

// GetByName matches names exactly.
func (s *Store) GetByName(ctx context.Context, name string) (*base.Base, error) {
	var out *base.Base
	err := s.view(ctx, func(st *state) error {
		for _, b := range st.bases {
			if b.Name == name {
				out = &b
				return nil
			}
		}
		return apperror.NewNotFound("base", name)
	})
	return out, err
}

func (s *Store) List(ctx context.Context) ([]base.Base, error) {
	var out []base.Base
	err := s.view(ctx, func(st *state) error {
		out = make([]base.Base, 0, len(st.bases))
		for _, b := range st.bases {
			out = append(out, b)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b base.Base) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}
