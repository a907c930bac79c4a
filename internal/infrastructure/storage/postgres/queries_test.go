package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mams/internal/core/types"
	"mams/internal/domain/audit"
	"mams/internal/domain/inventory"
	"mams/internal/domain/ledger"
)

var asOf = types.NewDate(2025, time.March, 10)

func TestSumQuery(t *testing.T) {
	baseID := int64(3)
	q, err := sumQuery(inventory.FlowTransferredIn, inventory.SumFilter{Item: "Rifle", BaseID: &baseID, AsOf: asOf})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COALESCE(SUM(quantity), 0) FROM transfers WHERE date <= $1 AND item = $2 AND destination_base_id = $3",
		sql)
	// squirrel unwraps driver.Valuer arguments.
	assert.Equal(t, []any{asOf.Time(), "Rifle", baseID}, args)
}

func TestSumQuery_AllBasesAllItems(t *testing.T) {
	q, err := sumQuery(inventory.FlowExpended, inventory.SumFilter{AsOf: asOf})
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COALESCE(SUM(quantity), 0) FROM expenditures WHERE date <= $1", sql)
	assert.Len(t, args, 1)

	_, err = sumQuery("bogus", inventory.SumFilter{AsOf: asOf})
	assert.Error(t, err)
}

func TestFlowSources_CoverEveryFlow(t *testing.T) {
	for _, f := range inventory.Flows {
		assert.Contains(t, flowSources, f)
	}
	assert.Equal(t, "source_base_id", flowSources[inventory.FlowTransferredOut].baseCol)
}

func TestDistinctQuery(t *testing.T) {
	baseID := int64(1)
	q, err := distinctQuery(inventory.FlowPurchased, &baseID)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT item FROM purchases WHERE base_id = $1 ORDER BY item COLLATE "C"`, sql)
	assert.Equal(t, []any{baseID}, args)
}

func TestListQuery_TransfersMatchEitherSide(t *testing.T) {
	repo := newLedgerRepo[ledger.Transfer](nil, transfersTable)
	baseID := int64(2)
	sql, args, err := repo.listQuery(ledger.ListFilter{BaseID: &baseID, Status: "pending", Personnel: "ignored"}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "(source_base_id = $1 OR destination_base_id = $2)")
	assert.Contains(t, sql, "status = $3")
	assert.NotContains(t, sql, "personnel")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY created_at DESC, id DESC LIMIT 500 OFFSET 0"), sql)
	assert.Equal(t, []any{baseID, baseID, "pending"}, args)
}

func TestListQuery_DateRange(t *testing.T) {
	repo := newLedgerRepo[ledger.Assignment](nil, assignmentsTable)
	from, to := asOf.AddDays(-7), asOf
	sql, _, err := repo.listQuery(ledger.ListFilter{From: &from, To: &to, Personnel: "Alpha Squad A", Limit: 20, Offset: 40}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "date >= $1 AND date <= $2 AND personnel = $3")
	assert.Contains(t, sql, "LIMIT 20 OFFSET 40")
}

func TestLedgerRepo_WritableColumns(t *testing.T) {
	repo := newLedgerRepo[ledger.Purchase](nil, purchasesTable)
	assert.Equal(t, []string{"item", "quantity", "price", "base_id", "date"}, repo.writable)
	assert.True(t, strings.HasPrefix(repo.returning(), "RETURNING id, item"))
}

func TestHistoryQuery(t *testing.T) {
	sql, args, err := historyQuery([]string{"id"}, audit.HistoryFilter{ResourceType: "transfer", ResourceID: "9"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM audit_log WHERE resource_type = $1 AND resource_id = $2 ORDER BY created_at DESC LIMIT 100", sql)
	assert.Equal(t, []any{"transfer", "9"}, args)
}

func TestAuditLog_CompressesLargePayloads(t *testing.T) {
	log, err := NewAuditLog(nil)
	require.NoError(t, err)

	small := audit.Entry{Action: audit.ActionCreate, ResourceType: "base", Payload: map[string]any{"name": "Alpha"}}
	row, err := log.encode(small)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.JSONEq(t, `{"name":"Alpha"}`, string(row.Payload))

	large := audit.Entry{Action: audit.ActionUpdate, Payload: map[string]any{"note": strings.Repeat("x", DefaultCompressThreshold)}}
	row, err = log.encode(large)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Payload)
	assert.Less(t, len(row.PayloadCompressed), DefaultCompressThreshold)

	back, err := log.decode(row)
	require.NoError(t, err)
	assert.Equal(t, large.Payload, back.Payload)
	assert.Equal(t, audit.ActionUpdate, back.Action)
}

func TestMigrations(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, "001", ms[0].Version)
	assert.Len(t, ms[0].Checksum, 64)
	for _, table := range []string{"bases", "purchases", "transfers", "assignments", "expenditures", "audit_log"} {
		assert.Contains(t, ms[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
