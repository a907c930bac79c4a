package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mams/internal/core/apperror"
	appctx "mams/internal/core/context"
	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/base"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
	"mams/internal/infrastructure/storage/memory"
)

var today = types.NewDate(2025, time.March, 10)

type env struct {
	store        *memory.Store
	calc         *inventory.Calculator
	purchases    *ledger.PurchaseService
	transfers    *ledger.TransferService
	assignments  *ledger.AssignmentService
	expenditures *ledger.ExpenditureService
	admin        context.Context
	alpha, beta  int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.New()
	clock := types.FixedClock(today.Time())
	calc := inventory.NewCalculator(store, clock, nil)
	guard := inventory.NewGuard(store, store, calc, nil)
	bases := base.NewService(store, store, store)
	deps := ledger.Deps{Guard: guard, Bases: bases, Audit: store, Clock: clock}
	repos := store.Ledgers()

	e := &env{
		store:        store,
		calc:         calc,
		purchases:    ledger.NewPurchaseService(deps, repos.Purchases),
		transfers:    ledger.NewTransferService(deps, repos.Transfers),
		assignments:  ledger.NewAssignmentService(deps, repos.Assignments),
		expenditures: ledger.NewExpenditureService(deps, repos.Expenditures),
		admin:        asUser("admin-1", "admin", nil),
	}

	alpha := &base.Base{Name: "Alpha", Code: "ALPHA"}
	require.NoError(t, bases.Create(e.admin, alpha))
	beta := &base.Base{Name: "Beta", Code: "BETA"}
	require.NoError(t, bases.Create(e.admin, beta))
	e.alpha, e.beta = alpha.ID, beta.ID
	return e
}

func asUser(id, role string, baseID *int64) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: id, Role: role, BaseID: baseID})
}

func ptr[T any](v T) *T { return &v }

func (e *env) buy(t *testing.T, item string, baseID, qty int64, date types.Date) *ledger.Purchase {
	t.Helper()
	p, err := e.purchases.Create(e.admin, ledger.PurchaseInput{
		Item: item, Quantity: qty, BaseID: &baseID, Date: &date, Price: types.MustMoney("10.50"),
	})
	require.NoError(t, err)
	return p
}

func (e *env) available(t *testing.T, item string, baseID int64) int64 {
	t.Helper()
	b, err := e.calc.Compute(context.Background(), inventory.BalanceQuery{Item: item, BaseID: &baseID})
	require.NoError(t, err)
	return b.Available
}

func (e *env) auditCount(t *testing.T, resource string) int {
	t.Helper()
	entries, err := e.store.History(context.Background(), audit.HistoryFilter{ResourceType: resource})
	require.NoError(t, err)
	return len(entries)
}

func shortage(t *testing.T, err error) map[string]any {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	return appErr.Details
}

func TestRifleScenario(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 100, today.AddDays(-3))

	_, err := e.assignments.Create(e.admin, ledger.AssignmentInput{
		Item: "Rifle", Quantity: 30, BaseID: &e.alpha, Personnel: "Alpha Squad A",
	})
	require.NoError(t, err)

	_, err = e.expenditures.Create(e.admin, ledger.ExpenditureInput{
		Item: "Rifle", Quantity: 80, BaseID: &e.alpha, Reason: ptr("training"),
	})
	details := shortage(t, err)
	assert.Equal(t, "Rifle", details["item"])
	assert.EqualValues(t, 80, details["requested"])
	assert.EqualValues(t, 70, details["available"])
	assert.Equal(t, "Alpha", details["baseName"])

	assert.Equal(t, int64(70), e.available(t, "Rifle", e.alpha))
	assert.Zero(t, e.auditCount(t, "expenditure"), "rejected mutation leaves no audit entry")

	rows, err := e.expenditures.List(e.admin, ledger.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreate_AdmitsExactBalance(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Tent", e.alpha, 5, today)

	_, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Tent", Quantity: 5, BaseID: &e.alpha})
	require.NoError(t, err)
	assert.Zero(t, e.available(t, "Tent", e.alpha))
	assert.Equal(t, 1, e.auditCount(t, "expenditure"))
}

func TestCreate_ChecksAsOfRowDate(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)

	yesterday := today.AddDays(-1)
	_, err := e.assignments.Create(e.admin, ledger.AssignmentInput{
		Item: "Rifle", Quantity: 1, BaseID: &e.alpha, Personnel: "Alpha Squad B", Date: &yesterday,
	})
	details := shortage(t, err)
	assert.EqualValues(t, 0, details["available"])
}

func TestCreate_ValidationAndScope(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)

	_, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 0, BaseID: &e.alpha})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "  ", Quantity: 1, BaseID: &e.alpha})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "admin must name a base")

	cmdr := asUser("cmdr-beta", "base_commander", &e.beta)
	_, err = e.expenditures.Create(cmdr, ledger.ExpenditureInput{Item: "Rifle", Quantity: 1, BaseID: &e.alpha})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbiddenScope))

	_, err = e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 1, BaseID: ptr(int64(999))})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_ScopedCallerDefaultsToHomeBase(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)

	cmdr := asUser("cmdr-alpha", "base_commander", &e.alpha)
	row, err := e.assignments.Create(cmdr, ledger.AssignmentInput{Item: "Rifle", Quantity: 2, Personnel: "Alpha Commander"})
	require.NoError(t, err)
	assert.Equal(t, e.alpha, row.BaseID)
	assert.Equal(t, ledger.DefaultAssignmentStatus, row.Status)
	assert.True(t, row.Date.Equal(today))

	entries, err := e.store.History(context.Background(), audit.HistoryFilter{ResourceType: "assignment"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cmdr-alpha", entries[0].ActorID)
}

func TestUpdate_CreditsStoredQuantity(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 100, today.AddDays(-1))
	row, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 40, BaseID: &e.alpha})
	require.NoError(t, err)

	// 60 available plus the stored 40.
	_, err = e.expenditures.Update(e.admin, row.ID, ledger.ExpenditurePatch{Quantity: ptr(int64(100))})
	require.NoError(t, err)
	assert.Zero(t, e.available(t, "Rifle", e.alpha))

	_, err = e.expenditures.Update(e.admin, row.ID, ledger.ExpenditurePatch{Quantity: ptr(int64(101))})
	details := shortage(t, err)
	assert.EqualValues(t, 100, details["available"])
	assert.Equal(t, 2, e.auditCount(t, "expenditure"), "only the admitted update is audited")
}

func TestUpdate_NoCreditWhenKeyChanges(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)
	e.buy(t, "Rifle", e.beta, 5, today)
	row, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 10, BaseID: &e.alpha})
	require.NoError(t, err)

	_, err = e.expenditures.Update(e.admin, row.ID, ledger.ExpenditurePatch{BaseID: &e.beta})
	details := shortage(t, err)
	assert.EqualValues(t, 5, details["available"])
	assert.Equal(t, "Beta", details["baseName"])
	assert.Zero(t, e.available(t, "Rifle", e.alpha), "stored row is untouched after a rejection")
}

func TestUpdate_NoCreditWhenMovedBeforeStoredDate(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today.AddDays(-5))
	e.buy(t, "Rifle", e.alpha, 10, today)
	row, err := e.assignments.Create(e.admin, ledger.AssignmentInput{
		Item: "Rifle", Quantity: 15, BaseID: &e.alpha, Personnel: "Alpha Squad A",
	})
	require.NoError(t, err)

	// On day -5 only 10 existed; the stored row (dated today) is not in that sum.
	_, err = e.assignments.Update(e.admin, row.ID, ledger.AssignmentPatch{Date: ptr(today.AddDays(-5))})
	details := shortage(t, err)
	assert.EqualValues(t, 10, details["available"])
}

func TestUpdate_UnchangedDebitSkipsCheck(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)
	row, err := e.assignments.Create(e.admin, ledger.AssignmentInput{
		Item: "Rifle", Quantity: 10, BaseID: &e.alpha, Personnel: "Alpha Squad A",
	})
	require.NoError(t, err)

	updated, err := e.assignments.Update(e.admin, row.ID, ledger.AssignmentPatch{Status: ptr("returned")})
	require.NoError(t, err)
	assert.Equal(t, "returned", updated.Status)
}

func TestUpdate_ScopeOnStoredRow(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)
	row, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 1, BaseID: &e.alpha})
	require.NoError(t, err)

	cmdr := asUser("cmdr-beta", "base_commander", &e.beta)
	_, err = e.expenditures.Update(cmdr, row.ID, ledger.ExpenditurePatch{Quantity: ptr(int64(2))})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbiddenScope))

	_, err = e.expenditures.Get(cmdr, row.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbiddenScope))

	_, err = e.expenditures.Update(e.admin, 999, ledger.ExpenditurePatch{Quantity: ptr(int64(2))})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_RestoresStock(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 10, today)
	row, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{Item: "Rifle", Quantity: 4, BaseID: &e.alpha})
	require.NoError(t, err)

	require.NoError(t, e.expenditures.Delete(e.admin, row.ID))
	assert.Equal(t, int64(10), e.available(t, "Rifle", e.alpha))

	err = e.expenditures.Delete(e.admin, row.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestTransfer_MovesStock(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Radio", e.alpha, 12, today)

	res, err := e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Radio", Quantity: 5, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta,
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StockInfo{BeforeTransfer: 12, AfterTransfer: 7, Transferred: 5}, res.StockInfo)
	assert.Equal(t, ledger.TransferCompleted, res.Transfer.Status)

	assert.Equal(t, int64(7), e.available(t, "Radio", e.alpha))
	assert.Equal(t, int64(5), e.available(t, "Radio", e.beta))

	_, err = e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Radio", Quantity: 8, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta,
	})
	details := shortage(t, err)
	assert.EqualValues(t, 7, details["available"])
}

func TestTransfer_SelfTransferConflicts(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Radio", e.alpha, 12, today)

	_, err := e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Radio", Quantity: 1, SourceBaseID: &e.alpha, DestinationBaseID: &e.alpha,
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflictingReference))

	res, err := e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Radio", Quantity: 1, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta,
	})
	require.NoError(t, err)
	_, err = e.transfers.Update(e.admin, res.Transfer.ID, ledger.TransferPatch{DestinationBaseID: &e.alpha})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflictingReference))
}

func TestTransfer_DestinationRequired(t *testing.T) {
	e := newEnv(t)
	_, err := e.transfers.Create(e.admin, ledger.TransferInput{Item: "Radio", Quantity: 1, SourceBaseID: &e.alpha})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestTransfer_VisibleFromBothSides(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Radio", e.alpha, 12, today)
	res, err := e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Radio", Quantity: 2, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta,
	})
	require.NoError(t, err)

	logistics := asUser("log-beta", "logistics", &e.beta)
	got, err := e.transfers.Get(logistics, res.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Transfer.ID, got.ID)

	rows, err := e.transfers.List(logistics, ledger.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.True(t, apperror.HasCode(e.transfers.Delete(logistics, res.Transfer.ID), apperror.CodeForbiddenScope))
}

func TestTransfer_Stats(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Radio", e.alpha, 12, today)
	e.buy(t, "Tent", e.beta, 4, today)
	for _, in := range []ledger.TransferInput{
		{Item: "Radio", Quantity: 5, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta},
		{Item: "Radio", Quantity: 2, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta},
		{Item: "Tent", Quantity: 3, SourceBaseID: &e.beta, DestinationBaseID: &e.alpha},
	} {
		_, err := e.transfers.Create(e.admin, in)
		require.NoError(t, err)
	}

	stats, err := e.transfers.Stats(e.admin, ledger.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalTransfers)
	assert.Equal(t, int64(10), stats.TotalQuantity)
	assert.Equal(t, map[string]int64{"Radio": 7, "Tent": 3}, stats.ByItem)
	assert.Equal(t, map[string]int64{"Alpha": 4, "Beta": -4}, stats.ByBase)
}

func TestPurchase_UpdateAndList(t *testing.T) {
	e := newEnv(t)
	p := e.buy(t, "Rifle", e.alpha, 10, today)

	updated, err := e.purchases.Update(e.admin, p.ID, ledger.PurchasePatch{Quantity: ptr(int64(25))})
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.Quantity)
	assert.True(t, updated.Price.Equal(types.MustMoney("10.5")))
	assert.Equal(t, int64(25), e.available(t, "Rifle", e.alpha))

	_, err = e.purchases.Create(e.admin, ledger.PurchaseInput{
		Item: "Rifle", Quantity: 1, BaseID: &e.alpha, Price: types.MustMoney("-1"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	rows, err := e.purchases.List(e.admin, ledger.ListFilter{Item: "Rifle", BaseID: &e.alpha})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	from, to := today, today.AddDays(-1)
	_, err = e.purchases.List(e.admin, ledger.ListFilter{From: &from, To: &to})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestConcurrentDebits_OnlyOneAdmitted(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Rifle", e.alpha, 100, today)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.expenditures.Create(e.admin, ledger.ExpenditureInput{
				Item: "Rifle", Quantity: 60, BaseID: &e.alpha,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
			} else if apperror.IsInsufficientStock(err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, int64(40), e.available(t, "Rifle", e.alpha))
}

func TestTransfer_UpdateSwappingBasesRetractsDelivery(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Tent", e.alpha, 10, today.AddDays(-2))
	res, err := e.transfers.Create(e.admin, ledger.TransferInput{
		Item: "Tent", Quantity: 10, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta, Date: ptr(today.AddDays(-1)),
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), e.available(t, "Tent", e.beta))

	// Beta's 10 are this transfer's own delivery; reversing it leaves nothing to send.
	_, err = e.transfers.Update(e.admin, res.Transfer.ID, ledger.TransferPatch{
		SourceBaseID: &e.beta, DestinationBaseID: &e.alpha,
	})
	details := shortage(t, err)
	assert.EqualValues(t, 0, details["available"])
	assert.Zero(t, e.available(t, "Tent", e.alpha))
	assert.Equal(t, int64(10), e.available(t, "Tent", e.beta))

	// With stock of its own, Beta may send the same quantity back.
	e.buy(t, "Tent", e.beta, 10, today.AddDays(-2))
	_, err = e.transfers.Update(e.admin, res.Transfer.ID, ledger.TransferPatch{
		SourceBaseID: &e.beta, DestinationBaseID: &e.alpha,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), e.available(t, "Tent", e.alpha))
	assert.Zero(t, e.available(t, "Tent", e.beta))
}

func TestConcurrentTransfers_OnlyOneAdmitted(t *testing.T) {
	e := newEnv(t)
	e.buy(t, "Radio", e.alpha, 40, today)

	const workers = 2
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.transfers.Create(e.admin, ledger.TransferInput{
				Item: "Radio", Quantity: 40, SourceBaseID: &e.alpha, DestinationBaseID: &e.beta,
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
			} else if apperror.IsInsufficientStock(err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, rejected)
	assert.Zero(t, e.available(t, "Radio", e.alpha))
	assert.Equal(t, int64(40), e.available(t, "Radio", e.beta))
	assert.Equal(t, 1, e.auditCount(t, "transfer"))
}
