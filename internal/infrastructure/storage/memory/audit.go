package memory

import (
	"context"
	"slices"

	"mams/internal/domain/audit"
)

// Record appends e to the audit log of the current transaction.
func (s *Store) Record(ctx context.Context, e audit.Entry) error {
	return s.view(ctx, func(st *state) error {
		st.audit = append(st.audit, audit.Prepare(ctx, e, s.now()))
		return nil
	})
}

func (s *Store) History(ctx context.Context, f audit.HistoryFilter) ([]audit.Entry, error) {
	var out []audit.Entry
	err := s.view(ctx, func(st *state) error {
		for _, e := range slices.Backward(st.audit) {
			if f.ResourceType != "" && e.ResourceType != f.ResourceType {
				continue
			}
			if f.ResourceID != "" && e.ResourceID != f.ResourceID {
				continue
			}
			if f.ActorID != "" && e.ActorID != f.ActorID {
				continue
			}
			out = append(out, e)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}
