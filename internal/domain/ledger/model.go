// Package ledger provides the four stock ledgers (purchases, transfers,
// assignments, expenditures) and the services that mutate them.
package ledger

import (
	"context"
	"strings"
	"time"

	"mams/internal/core/apperror"
	"mams/internal/core/types"
	"mams/internal/domain/inventory"
)

const (
	maxItemLen      = 120
	maxPersonnelLen = 150
	maxReasonLen    = 255
	maxStatusLen    = 30
)

// TransferStatus is informational; balances count every transfer row.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// DefaultAssignmentStatus is applied when none is given.
const DefaultAssignmentStatus = "assigned"

// Purchase adds stock to a base from its date onward.
type Purchase struct {
	ID        int64       `db:"id" json:"id"`
	Item      string      `db:"item" json:"item"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	Price     types.Money `db:"price" json:"price"`
	BaseID    int64       `db:"base_id" json:"baseId"`
	Date      types.Date  `db:"date" json:"date"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// Validate implements field checks for Purchase.
func (p *Purchase) Validate(_ context.Context) error {
	if err := validateCommon(p.Item, p.Quantity); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must be a non-negative number").WithDetail("field", "price")
	}
	return nil
}

// Transfer moves stock from the source base to the destination base.
type Transfer struct {
	ID                int64          `db:"id" json:"id"`
	Item              string         `db:"item" json:"item"`
	Quantity          int64          `db:"quantity" json:"quantity"`
	SourceBaseID      int64          `db:"source_base_id" json:"sourceBaseId"`
	DestinationBaseID int64          `db:"destination_base_id" json:"destinationBaseId"`
	Date              types.Date     `db:"date" json:"date"`
	Status            TransferStatus `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// Validate implements field checks for Transfer.
func (t *Transfer) Validate(_ context.Context) error {
	if err := validateCommon(t.Item, t.Quantity); err != nil {
		return err
	}
	return validateTransferStatus(t.Status)
}

func validateTransferStatus(s TransferStatus) error {
	switch s {
	case TransferPending, TransferCompleted, TransferCancelled:
		return nil
	}
	return apperror.NewValidation("invalid transfer status").
		WithDetail("field", "status").
		WithDetail("value", string(s))
}

// SelfTransfer reports whether source and destination are the same base.
func (t *Transfer) SelfTransfer() bool {
	return t.SourceBaseID == t.DestinationBaseID
}

func (t *Transfer) debit() debit {
	return debit{Key: inventory.StockKey{Item: t.Item, BaseID: t.SourceBaseID}, Date: t.Date, Quantity: t.Quantity}
}

// inbound is the stock the transfer adds at its destination.
func (t *Transfer) inbound() debit {
	return debit{Key: inventory.StockKey{Item: t.Item, BaseID: t.DestinationBaseID}, Date: t.Date, Quantity: t.Quantity}
}

// Assignment hands stock at a base to personnel.
type Assignment struct {
	ID        int64      `db:"id" json:"id"`
	Item      string     `db:"item" json:"item"`
	Quantity  int64      `db:"quantity" json:"quantity"`
	BaseID    int64      `db:"base_id" json:"baseId"`
	Personnel string     `db:"personnel" json:"personnel"`
	Date      types.Date `db:"date" json:"dateAssigned"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Validate implements field checks for Assignment.
func (a *Assignment) Validate(_ context.Context) error {
	if err := validateCommon(a.Item, a.Quantity); err != nil {
		return err
	}
	if a.Personnel == "" {
		return apperror.NewValidation("personnel is required").WithDetail("field", "personnel")
	}
	if len(a.Personnel) > maxPersonnelLen {
		return tooLong("personnel", maxPersonnelLen)
	}
	if a.Status == "" || len(a.Status) > maxStatusLen {
		return apperror.NewValidation("invalid assignment status").WithDetail("field", "status")
	}
	return nil
}

func (a *Assignment) debit() debit {
	return debit{Key: inventory.StockKey{Item: a.Item, BaseID: a.BaseID}, Date: a.Date, Quantity: a.Quantity}
}

// Expenditure consumes stock at a base.
type Expenditure struct {
	ID        int64      `db:"id" json:"id"`
	Item      string     `db:"item" json:"item"`
	Quantity  int64      `db:"quantity" json:"quantity"`
	BaseID    int64      `db:"base_id" json:"baseId"`
	Reason    *string    `db:"reason" json:"reason,omitempty"`
	Date      types.Date `db:"date" json:"date"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// Validate implements field checks for Expenditure.
func (e *Expenditure) Validate(_ context.Context) error {
	if err := validateCommon(e.Item, e.Quantity); err != nil {
		return err
	}
	if e.Reason != nil && len(*e.Reason) > maxReasonLen {
		return tooLong("reason", maxReasonLen)
	}
	return nil
}

func (e *Expenditure) debit() debit {
	return debit{Key: inventory.StockKey{Item: e.Item, BaseID: e.BaseID}, Date: e.Date, Quantity: e.Quantity}
}

// --- Validation Helpers ---

// NormalizeItem trims surrounding whitespace; item names are otherwise case-sensitive.
func NormalizeItem(s string) string {
	return strings.TrimSpace(s)
}

func validateItem(item string) error {
	if item == "" {
		return apperror.NewValidation("item is required").WithDetail("field", "item")
	}
	if len(item) > maxItemLen {
		return tooLong("item", maxItemLen)
	}
	return nil
}

func validateQuantity(q int64) error {
	if q <= 0 {
		return apperror.NewValidation("quantity must be a positive integer").
			WithDetail("field", "quantity").
			WithDetail("value", q)
	}
	return nil
}

// validateCommon checks the fields every ledger row has. Base references are
// checked by scope resolution and the base resolver.
func validateCommon(item string, qty int64) error {
	if err := validateItem(item); err != nil {
		return err
	}
	return validateQuantity(qty)
}

func tooLong(field string, max int) error {
	return apperror.NewValidation(field+" is too long").
		WithDetail("field", field).
		WithDetail("max", max)
}
