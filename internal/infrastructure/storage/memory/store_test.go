package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mams/internal/core/apperror"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
)

func seedBases(t *testing.T, s *Store) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	alpha := &base.Base{Name: "Alpha", Code: "ALPHA"}
	beta := &base.Base{Name: "Beta", Code: "BETA"}
	require.NoError(t, s.Create(ctx, alpha))
	require.NoError(t, s.Create(ctx, beta))
	return alpha.ID, beta.ID
}

func TestRunInTransaction_RollbackDiscardsRowsAndAudit(t *testing.T) {
	s := New()
	alpha, beta := seedBases(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Ledgers().Transfers.Create(ctx, &ledger.Transfer{
			Item: "Rifle", Quantity: 5, SourceBaseID: alpha, DestinationBaseID: beta,
			Date: types.NewDate(2025, 3, 1), Status: ledger.TransferCompleted,
		}))
		require.NoError(t, s.Record(ctx, audit.Entry{Action: audit.ActionCreate, ResourceType: "transfer"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := s.Ledgers().Transfers.List(ctx, ledger.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)

	entries, err := s.History(ctx, audit.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunInTransaction_PanicRestoresState(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Create(ctx, &base.Base{Name: "Half"}))
			panic("handler bug")
		})
	})

	_, err := s.GetByName(ctx, "Half")
	assert.True(t, apperror.IsNotFound(err))

	// The mutex was released: the store is still usable.
	require.NoError(t, s.Create(ctx, &base.Base{Name: "Alpha"}))
}

func TestRunInTransaction_NestedReusesOuter(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, s.InTransaction(ctx))
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.Create(ctx, &base.Base{Name: "Alpha"})
		})
	})
	require.NoError(t, err)

	got, err := s.GetByName(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
}

func TestReadOnly_DiscardsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.ReadOnly(ctx, func(ctx context.Context) error {
		return s.Create(ctx, &base.Base{Name: "Ghost"})
	}))
	_, err := s.GetByName(ctx, "Ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSumQuantity_CountsTransferSides(t *testing.T) {
	s := New()
	alpha, beta := seedBases(t, s)
	ctx := context.Background()
	repos := s.Ledgers()

	require.NoError(t, repos.Purchases.Create(ctx, &ledger.Purchase{
		Item: "Rifle", Quantity: 100, BaseID: alpha, Date: types.NewDate(2025, 3, 1),
	}))
	require.NoError(t, repos.Transfers.Create(ctx, &ledger.Transfer{
		Item: "Rifle", Quantity: 30, SourceBaseID: alpha, DestinationBaseID: beta,
		Date: types.NewDate(2025, 3, 5), Status: ledger.TransferCompleted,
	}))

	sum := func(flow inventory.Flow, baseID *int64, asOf types.Date) int64 {
		t.Helper()
		n, err := s.SumQuantity(ctx, flow, inventory.SumFilter{Item: "Rifle", BaseID: baseID, AsOf: asOf})
		require.NoError(t, err)
		return n
	}
	day := types.NewDate(2025, 3, 5)

	assert.Equal(t, int64(100), sum(inventory.FlowPurchased, &alpha, day))
	assert.Equal(t, int64(30), sum(inventory.FlowTransferredOut, &alpha, day))
	assert.Equal(t, int64(30), sum(inventory.FlowTransferredIn, &beta, day))
	assert.Zero(t, sum(inventory.FlowTransferredIn, &alpha, day))
	assert.Zero(t, sum(inventory.FlowTransferredOut, &alpha, day.AddDays(-1)), "as-of is inclusive")
	assert.Equal(t, int64(30), sum(inventory.FlowTransferredIn, nil, day))

	items, err := s.DistinctItems(ctx, inventory.FlowTransferredIn, &beta)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rifle"}, items)

	_, err = s.SumQuantity(ctx, inventory.Flow("lost"), inventory.SumFilter{AsOf: day})
	assert.Error(t, err)
}

func TestBases_Duplicate(t *testing.T) {
	s := New()
	seedBases(t, s)

	err := s.Create(context.Background(), &base.Base{Name: "alpha"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	err = s.Create(context.Background(), &base.Base{Name: "Gamma", Code: "beta"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Record(ctx, audit.Entry{Action: audit.ActionCreate, ResourceType: "purchase", ResourceID: id}))
	}
	require.NoError(t, s.Record(ctx, audit.Entry{Action: audit.ActionCreate, ResourceType: "base", ResourceID: "9"}))

	got, err := s.History(ctx, audit.HistoryFilter{ResourceType: "purchase", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ResourceID)
	assert.Equal(t, "2", got[1].ResourceID)
}
