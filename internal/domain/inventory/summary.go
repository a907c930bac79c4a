package inventory

import (
	"context"

	"mams/internal/core/apperror"
	"mams/internal/core/types"
)

// EarliestDate is the default start of a summary period.
var EarliestDate = types.NewDate(1900, 1, 1)

// SummaryQuery selects a reporting period. Nil bounds take defaults:
// From is EarliestDate, To is today.
type SummaryQuery struct {
	Item   string
	BaseID *int64
	From   *types.Date
	To     *types.Date
}

// Summary is the movement over a period.
type Summary struct {
	Opening     int64 `json:"opening"`
	Purchases   int64 `json:"purchases"`
	TransferIn  int64 `json:"transferIn"`
	TransferOut int64 `json:"transferOut"`
	Assigned    int64 `json:"assigned"`
	Expended    int64 `json:"expended"`
	Closing     int64 `json:"closing"`
	NetMovement int64 `json:"netMovement"`
}

// Summarizer builds period summaries as the difference of two balance snapshots.
type Summarizer struct {
	calc *Calculator
}

// NewSummarizer creates a summarizer.
func NewSummarizer(calc *Calculator) *Summarizer {
	return &Summarizer{calc: calc}
}

// Summarize computes the closing balance at To and the opening balance on the
// day before From, then differences each flow.
func (s *Summarizer) Summarize(ctx context.Context, q SummaryQuery) (Summary, error) {
	to := s.calc.Today()
	if q.To != nil && !q.To.IsZero() {
		to = *q.To
	}
	from := EarliestDate
	if q.From != nil && !q.From.IsZero() {
		from = *q.From
	}
	if from.After(to) {
		return Summary{}, apperror.NewValidation("startDate must not be after endDate").
			WithDetail("startDate", from.String()).
			WithDetail("endDate", to.String())
	}

	closing, err := s.calc.Compute(ctx, BalanceQuery{Item: q.Item, BaseID: q.BaseID, AsOf: &to})
	if err != nil {
		return Summary{}, err
	}
	dayBefore := from.AddDays(-1)
	opening, err := s.calc.Compute(ctx, BalanceQuery{Item: q.Item, BaseID: q.BaseID, AsOf: &dayBefore})
	if err != nil {
		return Summary{}, err
	}

	d := closing.Sub(opening)
	return Summary{
		Opening:     opening.Available,
		Purchases:   d.Purchased,
		TransferIn:  d.TransferredIn,
		TransferOut: d.TransferredOut,
		Assigned:    d.Assigned,
		Expended:    d.Expended,
		Closing:     closing.Available,
		NetMovement: d.Purchased + d.TransferredIn - d.TransferredOut,
	}, nil
}
