// Package audit defines the audit sink the ledger services write to.
//
// Entries are recorded inside the guarded transaction, so a rollback discards
// them together with the ledger row.
package audit

import (
	"context"
	"strings"
	"time"

	appctx "mams/internal/core/context"
	"mams/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID           id.ID          `json:"id"`
	ActorID      string         `json:"actorId"`
	Action       Action         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Payload      map[string]any `json:"payload,omitempty"`
	IP           string         `json:"ip,omitempty"`
	UserAgent    string         `json:"userAgent,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Recorder is the audit sink.
type Recorder interface {
	// Record writes e through the transaction in ctx.
	Record(ctx context.Context, e Entry) error
}

// HistoryFilter selects entries for reading back.
type HistoryFilter struct {
	ResourceType string
	ResourceID   string
	ActorID      string
	Limit        int
}

// Reader reads recorded entries, newest first.
type Reader interface {
	History(ctx context.Context, f HistoryFilter) ([]Entry, error)
}

// Prepare fills the entry's id, timestamp and caller identity from ctx and
// redacts secrets from the payload. Sinks call it before persisting.
func Prepare(ctx context.Context, e Entry, now time.Time) Entry {
	if e.ID == (id.ID{}) {
		e.ID = id.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if user := appctx.GetUser(ctx); user != nil {
		if e.ActorID == "" {
			e.ActorID = user.UserID
		}
		if e.IP == "" {
			e.IP = user.IP
		}
		if e.UserAgent == "" {
			e.UserAgent = user.UserAgent
		}
	}
	e.Payload = Redact(e.Payload)
	return e
}

// redactedValue replaces secret values in payloads.
const redactedValue = "***"

// Redact returns a copy of payload with password-like keys masked at any depth.
func Redact(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if isSecretKey(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		cp := make([]any, len(t))
		for i := range t {
			cp[i] = redactValue(t[i])
		}
		return cp
	default:
		return v
	}
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "password") || strings.Contains(k, "secret") || k == "token"
}
