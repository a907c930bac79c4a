package dto

import (
	"mams/internal/core/types"
	"mams/internal/domain/inventory"
)

// BalanceQuery is the query for a point-in-time balance.
type BalanceQuery struct {
	BaseQuery
	Item string `form:"item"`
	AsOf string `form:"asOf"`
}

// BalanceResponse is a balance with the parameters it was computed for.
type BalanceResponse struct {
	inventory.Balance
	Item   string     `json:"item,omitempty"`
	BaseID *int64     `json:"baseId,omitempty"`
	AsOf   types.Date `json:"asOf"`
}

// AvailableQuery selects the base whose stock is listed.
type AvailableQuery struct {
	BaseQuery
	Mode string `form:"mode"`
}

// CurrentStockQuery selects one stock position.
type CurrentStockQuery struct {
	BaseQuery
	Item string `form:"item"`
}

// SummaryQuery is the query for the dashboard summary.
type SummaryQuery struct {
	BaseQuery
	Item      string `form:"item"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// NetMovementResponse lists the per-flow rows behind the net movement figure.
type NetMovementResponse struct {
	Purchases    []PurchaseResponse `json:"purchases"`
	TransfersIn  []TransferResponse `json:"transfersIn"`
	TransfersOut []TransferResponse `json:"transfersOut"`
}

// PersonnelQuery selects the roster of one base, or every base.
type PersonnelQuery struct {
	BaseQuery
	BaseLocation string `form:"baseLocation"`
}
