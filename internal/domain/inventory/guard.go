package inventory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"mams/internal/core/apperror"
	"mams/internal/core/tx"
	"mams/internal/core/types"
	"mams/pkg/logger"
)

// StockKey identifies the stock position a mutation touches.
type StockKey struct {
	Item   string
	BaseID int64
}

func (k StockKey) String() string {
	return fmt.Sprintf("%d/%s", k.BaseID, k.Item)
}

func compareKeys(a, b StockKey) int {
	if c := cmp.Compare(a.BaseID, b.BaseID); c != 0 {
		return c
	}
	return cmp.Compare(a.Item, b.Item)
}

// StockLocker serializes guarded mutations per stock key for the lifetime of
// the transaction in ctx. Keys arrive sorted and deduplicated.
type StockLocker interface {
	LockStock(ctx context.Context, keys []StockKey) error
}

// StockCheck is one admission decision.
type StockCheck struct {
	Key StockKey
	// BaseName is reported in the rejection; it is not used for the lookup.
	BaseName string
	AsOf     types.Date
	// Requested is the quantity the mutation debits from Key.
	Requested int64
	// Credit is added to the computed balance. Updates pass the stored row's
	// quantity when that row is part of the sum being computed.
	Credit int64
}

// Guard runs check-then-write sequences atomically.
type Guard struct {
	txm    tx.Manager
	locker StockLocker
	calc   *Calculator
	obs    Observer
}

// NewGuard creates a guard over the calculator's ledgers.
func NewGuard(txm tx.Manager, locker StockLocker, calc *Calculator, obs Observer) *Guard {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Guard{txm: txm, locker: locker, calc: calc, obs: obs}
}

// Calculator returns the calculator behind the guard.
func (g *Guard) Calculator() *Calculator {
	return g.calc
}

// Run opens a transaction and hands fn a Session bound to it. Any error
// returned by fn rolls the whole transaction back, audit entries included.
func (g *Guard) Run(ctx context.Context, op string, fn func(ctx context.Context, s *Session) error) error {
	err := g.txm.RunInTransaction(ctx, func(txCtx context.Context) error {
		s := &Session{guard: g, op: op, locked: make(map[StockKey]struct{})}
		defer func() { s.closed = true }()
		return fn(txCtx, s)
	})
	if err != nil && !apperror.IsAppError(err) {
		logger.Error(ctx, "guarded mutation failed", "operation", op, "error", err)
	}
	return err
}

// Session is the guarded view of the ledgers inside one Guard.Run.
// It must not be retained past the callback.
type Session struct {
	guard  *Guard
	op     string
	locked map[StockKey]struct{}
	closed bool
}

var errSessionClosed = errors.New("inventory: session used outside of Guard.Run")

// Lock takes the stock locks for keys not yet held by this session.
// Callers that touch several keys should pass them in one call so they are
// acquired in a single global order.
func (s *Session) Lock(ctx context.Context, keys ...StockKey) error {
	if s.closed {
		return errSessionClosed
	}
	pending := make([]StockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := s.locked[k]; !ok {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	slices.SortFunc(pending, compareKeys)
	pending = slices.Compact(pending)

	if err := s.guard.locker.LockStock(ctx, pending); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	for _, k := range pending {
		s.locked[k] = struct{}{}
	}
	return nil
}

// Balance computes the balance of key as of asOf, locking key first.
func (s *Session) Balance(ctx context.Context, key StockKey, asOf types.Date) (Balance, error) {
	if err := s.Lock(ctx, key); err != nil {
		return Balance{}, err
	}
	baseID := key.BaseID
	return s.guard.calc.compute(ctx, BalanceQuery{Item: key.Item, BaseID: &baseID, AsOf: &asOf}, true)
}

// Check admits c or fails with InsufficientStock when c.Requested exceeds
// available plus credit. The computed balance is returned in both cases.
func (s *Session) Check(ctx context.Context, c StockCheck) (Balance, error) {
	b, err := s.Balance(ctx, c.Key, c.AsOf)
	if err != nil {
		return Balance{}, err
	}

	net := b.Available + c.Credit
	if c.Requested > net {
		s.guard.obs.GuardDecision(s.op, OutcomeInsufficientStock)
		logger.Info(ctx, "stock check rejected",
			"operation", s.op,
			"item", c.Key.Item,
			"base_id", c.Key.BaseID,
			"as_of", c.AsOf.String(),
			"requested", c.Requested,
			"available", net,
		)
		return b, apperror.NewInsufficientStock(apperror.StockShortage{
			Item:      c.Key.Item,
			BaseID:    c.Key.BaseID,
			BaseName:  c.BaseName,
			Requested: c.Requested,
			Available: net,
		})
	}

	s.guard.obs.GuardDecision(s.op, OutcomeAdmitted)
	return b, nil
}
