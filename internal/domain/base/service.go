package base

import (
	"context"
	"strconv"
	"strings"

	"mams/internal/core/apperror"
	"mams/internal/core/security"
	"mams/internal/core/tx"
	"mams/internal/domain/audit"
	"mams/pkg/logger"
)

const resourceType = "base"

// Resolver turns a Ref into a canonical Base.
type Resolver interface {
	Resolve(ctx context.Context, ref Ref) (*Base, error)
}

// Service provides business logic for the Base catalog.
type Service struct {
	repo  Repository
	txm   tx.Manager
	audit audit.Recorder
}

var _ Resolver = (*Service)(nil)

// NewService creates a new Base service.
func NewService(repo Repository, txm tx.Manager, rec audit.Recorder) *Service {
	return &Service{repo: repo, txm: txm, audit: rec}
}

// Create registers a new base. Only privileged callers may create bases.
func (s *Service) Create(ctx context.Context, b *Base) error {
	scope := security.GetScope(ctx)
	if !scope.IsPrivileged() {
		return apperror.NewForbidden("only admin may create bases")
	}

	b.Normalize()
	if err := b.Validate(ctx); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: resourceType,
			ResourceID:   strconv.FormatInt(b.ID, 10),
			Payload: map[string]any{
				"name":     b.Name,
				"code":     b.Code,
				"location": b.Location,
			},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "base created", "base_id", b.ID, "name", b.Name)
	return nil
}

// Get returns a base by id.
func (s *Service) Get(ctx context.Context, id int64) (*Base, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all bases ordered by name.
func (s *Service) List(ctx context.Context) ([]Base, error) {
	return s.repo.List(ctx)
}

// Resolve looks a base up by id, or by exact name when no id is given.
func (s *Service) Resolve(ctx context.Context, ref Ref) (*Base, error) {
	if ref.ID != nil {
		return s.repo.GetByID(ctx, *ref.ID)
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return nil, apperror.NewValidation("base reference is required")
	}
	return s.repo.GetByName(ctx, name)
}

// Names maps base ids to names. Unknown ids are skipped.
func (s *Service) Names(ctx context.Context) (map[int64]string, error) {
	bases, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(bases))
	for _, b := range bases {
		out[b.ID] = b.Name
	}
	return out, nil
}
