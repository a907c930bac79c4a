package dto

import (
	"strings"

	"mams/internal/core/types"
	"mams/internal/domain/base"
	"mams/internal/domain/ledger"
)

// Base references in bodies accept an id or a name; the id wins.

// --- Purchases ---

// CreatePurchaseRequest is the request body for recording a purchase.
type CreatePurchaseRequest struct {
	Item     string       `json:"item"`
	Quantity int64        `json:"quantity"`
	Price    *types.Money `json:"price"`
	BaseID   *int64       `json:"baseId"`
	BaseName string       `json:"baseName"`
	Date     *types.Date  `json:"date"`
}

// BaseRef returns the target base reference.
func (r *CreatePurchaseRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToInput converts the request; baseID is the resolved target, if any.
func (r *CreatePurchaseRequest) ToInput(baseID *int64) ledger.PurchaseInput {
	in := ledger.PurchaseInput{
		Item:     r.Item,
		Quantity: r.Quantity,
		Price:    types.Zero(),
		BaseID:   baseID,
		Date:     dateOrNil(r.Date),
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	return in
}

// UpdatePurchaseRequest changes any subset of a purchase.
type UpdatePurchaseRequest struct {
	Item     *string      `json:"item"`
	Quantity *int64       `json:"quantity"`
	Price    *types.Money `json:"price"`
	BaseID   *int64       `json:"baseId"`
	BaseName string       `json:"baseName"`
	Date     *types.Date  `json:"date"`
}

// BaseRef returns the requested base, zero when unchanged.
func (r *UpdatePurchaseRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToPatch converts the request.
func (r *UpdatePurchaseRequest) ToPatch(baseID *int64) ledger.PurchasePatch {
	return ledger.PurchasePatch{
		Item:     r.Item,
		Quantity: r.Quantity,
		Price:    r.Price,
		BaseID:   baseID,
		Date:     dateOrNil(r.Date),
	}
}

// PurchaseResponse is a purchase with its base name.
type PurchaseResponse struct {
	ledger.Purchase
	BaseName string `json:"baseName"`
}

// FromPurchase creates the response.
func FromPurchase(p ledger.Purchase, names map[int64]string) PurchaseResponse {
	return PurchaseResponse{Purchase: p, BaseName: names[p.BaseID]}
}

// --- Transfers ---

// CreateTransferRequest is the request body for moving stock.
type CreateTransferRequest struct {
	Item                string                 `json:"item"`
	Quantity            int64                  `json:"quantity"`
	SourceBaseID        *int64                 `json:"sourceBaseId"`
	SourceBaseName      string                 `json:"fromBase"`
	DestinationBaseID   *int64                 `json:"destinationBaseId"`
	DestinationBaseName string                 `json:"toBase"`
	Date                *types.Date            `json:"date"`
	Status              *ledger.TransferStatus `json:"status"`
}

// SourceRef returns the source base reference.
func (r *CreateTransferRequest) SourceRef() base.Ref {
	return base.Ref{ID: r.SourceBaseID, Name: r.SourceBaseName}
}

// DestinationRef returns the destination base reference.
func (r *CreateTransferRequest) DestinationRef() base.Ref {
	return base.Ref{ID: r.DestinationBaseID, Name: r.DestinationBaseName}
}

// ToInput converts the request with resolved base ids.
func (r *CreateTransferRequest) ToInput(srcID, dstID *int64) ledger.TransferInput {
	in := ledger.TransferInput{
		Item:              r.Item,
		Quantity:          r.Quantity,
		SourceBaseID:      srcID,
		DestinationBaseID: dstID,
		Date:              dateOrNil(r.Date),
	}
	if r.Status != nil {
		in.Status = ledger.TransferStatus(strings.ToLower(strings.TrimSpace(string(*r.Status))))
	}
	return in
}

// UpdateTransferRequest changes any subset of a transfer.
type UpdateTransferRequest struct {
	Item                *string                `json:"item"`
	Quantity            *int64                 `json:"quantity"`
	SourceBaseID        *int64                 `json:"sourceBaseId"`
	SourceBaseName      string                 `json:"fromBase"`
	DestinationBaseID   *int64                 `json:"destinationBaseId"`
	DestinationBaseName string                 `json:"toBase"`
	Date                *types.Date            `json:"date"`
	Status              *ledger.TransferStatus `json:"status"`
}

// SourceRef returns the requested source, zero when unchanged.
func (r *UpdateTransferRequest) SourceRef() base.Ref {
	return base.Ref{ID: r.SourceBaseID, Name: r.SourceBaseName}
}

// DestinationRef returns the requested destination, zero when unchanged.
func (r *UpdateTransferRequest) DestinationRef() base.Ref {
	return base.Ref{ID: r.DestinationBaseID, Name: r.DestinationBaseName}
}

// ToPatch converts the request with resolved base ids.
func (r *UpdateTransferRequest) ToPatch(srcID, dstID *int64) ledger.TransferPatch {
	p := ledger.TransferPatch{
		Item:              r.Item,
		Quantity:          r.Quantity,
		SourceBaseID:      srcID,
		DestinationBaseID: dstID,
		Date:              dateOrNil(r.Date),
	}
	if r.Status != nil {
		s := ledger.TransferStatus(strings.ToLower(strings.TrimSpace(string(*r.Status))))
		p.Status = &s
	}
	return p
}

// TransferResponse is a transfer with both base names.
type TransferResponse struct {
	ledger.Transfer
	SourceLocation      string `json:"sourceLocation"`
	DestinationLocation string `json:"destinationLocation"`
}

// FromTransfer creates the response.
func FromTransfer(t ledger.Transfer, names map[int64]string) TransferResponse {
	return TransferResponse{
		Transfer:            t,
		SourceLocation:      names[t.SourceBaseID],
		DestinationLocation: names[t.DestinationBaseID],
	}
}

// CreateTransferResponse adds the source stock position to a created transfer.
type CreateTransferResponse struct {
	TransferResponse
	StockInfo ledger.StockInfo `json:"stockInfo"`
}

// --- Assignments ---

// CreateAssignmentRequest is the request body for handing stock to personnel.
type CreateAssignmentRequest struct {
	Item      string      `json:"item"`
	Quantity  int64       `json:"quantity"`
	BaseID    *int64      `json:"baseId"`
	BaseName  string      `json:"baseLocation"`
	Personnel string      `json:"personnel"`
	Date      *types.Date `json:"dateAssigned"`
	Status    string      `json:"status"`
}

// BaseRef returns the target base reference.
func (r *CreateAssignmentRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToInput converts the request.
func (r *CreateAssignmentRequest) ToInput(baseID *int64) ledger.AssignmentInput {
	return ledger.AssignmentInput{
		Item:      r.Item,
		Quantity:  r.Quantity,
		BaseID:    baseID,
		Personnel: r.Personnel,
		Date:      dateOrNil(r.Date),
		Status:    r.Status,
	}
}

// UpdateAssignmentRequest changes any subset of an assignment.
type UpdateAssignmentRequest struct {
	Item      *string     `json:"item"`
	Quantity  *int64      `json:"quantity"`
	BaseID    *int64      `json:"baseId"`
	BaseName  string      `json:"baseLocation"`
	Personnel *string     `json:"personnel"`
	Date      *types.Date `json:"dateAssigned"`
	Status    *string     `json:"status"`
}

// BaseRef returns the requested base, zero when unchanged.
func (r *UpdateAssignmentRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToPatch converts the request.
func (r *UpdateAssignmentRequest) ToPatch(baseID *int64) ledger.AssignmentPatch {
	return ledger.AssignmentPatch{
		Item:      r.Item,
		Quantity:  r.Quantity,
		BaseID:    baseID,
		Personnel: r.Personnel,
		Date:      dateOrNil(r.Date),
		Status:    r.Status,
	}
}

// AssignmentResponse is an assignment with its base name.
type AssignmentResponse struct {
	ledger.Assignment
	BaseLocation string `json:"baseLocation"`
}

// FromAssignment creates the response.
func FromAssignment(a ledger.Assignment, names map[int64]string) AssignmentResponse {
	return AssignmentResponse{Assignment: a, BaseLocation: names[a.BaseID]}
}

// --- Expenditures ---

// CreateExpenditureRequest is the request body for consuming stock.
type CreateExpenditureRequest struct {
	Item     string      `json:"item"`
	Quantity int64       `json:"quantity"`
	BaseID   *int64      `json:"baseId"`
	BaseName string      `json:"baseName"`
	Reason   *string     `json:"reason"`
	Date     *types.Date `json:"date"`
}

// BaseRef returns the target base reference.
func (r *CreateExpenditureRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToInput converts the request.
func (r *CreateExpenditureRequest) ToInput(baseID *int64) ledger.ExpenditureInput {
	return ledger.ExpenditureInput{
		Item:     r.Item,
		Quantity: r.Quantity,
		BaseID:   baseID,
		Reason:   r.Reason,
		Date:     dateOrNil(r.Date),
	}
}

// UpdateExpenditureRequest changes any subset of an expenditure.
type UpdateExpenditureRequest struct {
	Item     *string     `json:"item"`
	Quantity *int64      `json:"quantity"`
	BaseID   *int64      `json:"baseId"`
	BaseName string      `json:"baseName"`
	Reason   *string     `json:"reason"`
	Date     *types.Date `json:"date"`
}

// BaseRef returns the requested base, zero when unchanged.
func (r *UpdateExpenditureRequest) BaseRef() base.Ref {
	return base.Ref{ID: r.BaseID, Name: r.BaseName}
}

// ToPatch converts the request.
func (r *UpdateExpenditureRequest) ToPatch(baseID *int64) ledger.ExpenditurePatch {
	return ledger.ExpenditurePatch{
		Item:     r.Item,
		Quantity: r.Quantity,
		BaseID:   baseID,
		Reason:   r.Reason,
		Date:     dateOrNil(r.Date),
	}
}

// ExpenditureResponse is an expenditure with its base name.
type ExpenditureResponse struct {
	ledger.Expenditure
	BaseName string `json:"baseName"`
}

// FromExpenditure creates the response.
func FromExpenditure(e ledger.Expenditure, names map[int64]string) ExpenditureResponse {
	return ExpenditureResponse{Expenditure: e, BaseName: names[e.BaseID]}
}

// dateOrNil treats an explicit null date like an omitted one.
func dateOrNil(d *types.Date) *types.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
