package inventory

import "time"

// Guard outcomes reported to the Observer.
const (
	OutcomeAdmitted          = "admitted"
	OutcomeInsufficientStock = "insufficient_stock"
)

// Observer receives measurements from the engine. The metrics package provides
// a prometheus implementation.
type Observer interface {
	BalanceComputed(guarded bool, elapsed time.Duration)
	GuardDecision(operation, outcome string)
	ItemsListed(mode Mode, count int)
}

// NopObserver discards all measurements.
type NopObserver struct{}

func (NopObserver) BalanceComputed(bool, time.Duration) {}
func (NopObserver) GuardDecision(string, string)        {}
func (NopObserver) ItemsListed(Mode, int)               {}
