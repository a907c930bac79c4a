package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"mams/internal/core/id"
	"mams/internal/domain/audit"
)

var (
	_ audit.Recorder = (*AuditLog)(nil)
	_ audit.Reader   = (*AuditLog)(nil)
)

// CompressionAlgo names how a stored payload is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which entries are zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

const defaultHistoryLimit = 100

// auditRow is the stored shape of an audit.Entry.
type auditRow struct {
	ID                id.ID           `db:"id"`
	ActorID           string          `db:"actor_id"`
	Action            string          `db:"action"`
	ResourceType      string          `db:"resource_type"`
	ResourceID        string          `db:"resource_id"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	IP                string          `db:"ip"`
	UserAgent         string          `db:"user_agent"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditLog stores audit entries in audit_log through the caller's transaction.
type AuditLog struct {
	txm       *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
	cols      []string
}

// NewAuditLog creates the audit sink.
func NewAuditLog(txm *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditLog{
		txm:       txm,
		encoder:   encoder,
		decoder:   decoder,
		threshold: DefaultCompressThreshold,
		cols:      ExtractDBColumns[auditRow](),
	}, nil
}

// Record inserts e. Inside a guarded mutation it shares the ledger row's transaction.
func (a *AuditLog) Record(ctx context.Context, e audit.Entry) error {
	e = audit.Prepare(ctx, e, time.Now())
	row, err := a.encode(e)
	if err != nil {
		return err
	}
	sql, args, err := builder().Insert("audit_log").SetMap(StructToMap(row)).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := a.txm.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (a *AuditLog) encode(e audit.Entry) (auditRow, error) {
	row := auditRow{
		ID:              e.ID,
		ActorID:         e.ActorID,
		Action:          string(e.Action),
		ResourceType:    e.ResourceType,
		ResourceID:      e.ResourceID,
		CompressionAlgo: CompressionNone,
		IP:              e.IP,
		UserAgent:       e.UserAgent,
		CreatedAt:       e.CreatedAt,
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return row, fmt.Errorf("marshal audit payload: %w", err)
	}
	if len(payload) > a.threshold {
		row.PayloadCompressed = a.encoder.EncodeAll(payload, nil)
		row.CompressionAlgo = CompressionZstd
		return row, nil
	}
	row.Payload = payload
	return row, nil
}

func (a *AuditLog) decode(row auditRow) (audit.Entry, error) {
	e := audit.Entry{
		ID:           row.ID,
		ActorID:      row.ActorID,
		Action:       audit.Action(row.Action),
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID,
		IP:           row.IP,
		UserAgent:    row.UserAgent,
		CreatedAt:    row.CreatedAt,
	}
	payload := []byte(row.Payload)
	if row.CompressionAlgo == CompressionZstd && len(row.PayloadCompressed) > 0 {
		var err error
		payload, err = a.decoder.DecodeAll(row.PayloadCompressed, nil)
		if err != nil {
			return e, fmt.Errorf("decompress audit payload: %w", err)
		}
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return e, fmt.Errorf("unmarshal audit payload: %w", err)
		}
	}
	return e, nil
}

// History returns matching entries newest first.
func (a *AuditLog) History(ctx context.Context, f audit.HistoryFilter) ([]audit.Entry, error) {
	sql, args, err := historyQuery(a.cols, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history: %w", err)
	}
	var rows []auditRow
	if err := pgxscan.Select(ctx, a.txm.Querier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := a.decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func historyQuery(cols []string, f audit.HistoryFilter) squirrel.SelectBuilder {
	q := builder().Select(cols...).From("audit_log")
	if f.ResourceType != "" {
		q = q.Where(squirrel.Eq{"resource_type": f.ResourceType})
	}
	if f.ResourceID != "" {
		q = q.Where(squirrel.Eq{"resource_id": f.ResourceID})
	}
	if f.ActorID != "" {
		q = q.Where(squirrel.Eq{"actor_id": f.ActorID})
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return q.OrderBy("created_at DESC").Limit(uint64(limit))
}
