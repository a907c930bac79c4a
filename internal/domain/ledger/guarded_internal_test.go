package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mams/internal/core/types"
	"mams/internal/domain/inventory"
)

func TestCreditFor(t *testing.T) {
	day := types.NewDate(2025, time.March, 10)
	rifleAlpha := inventory.StockKey{Item: "Rifle", BaseID: 1}
	stored := debit{Key: rifleAlpha, Date: day, Quantity: 40}

	tests := []struct {
		name string
		next debit
		want int64
	}{
		{"same key and date", debit{Key: rifleAlpha, Date: day, Quantity: 50}, 40},
		{"later date", debit{Key: rifleAlpha, Date: day.AddDays(3), Quantity: 50}, 40},
		{"earlier date", debit{Key: rifleAlpha, Date: day.AddDays(-1), Quantity: 50}, 0},
		{"other base", debit{Key: inventory.StockKey{Item: "Rifle", BaseID: 2}, Date: day, Quantity: 50}, 0},
		{"other item", debit{Key: inventory.StockKey{Item: "Tent", BaseID: 1}, Date: day, Quantity: 50}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, creditFor(stored, tt.next))
		})
	}
}

func TestDebitDiffers(t *testing.T) {
	day := types.NewDate(2025, time.March, 10)
	d := debit{Key: inventory.StockKey{Item: "Rifle", BaseID: 1}, Date: day, Quantity: 5}

	assert.False(t, d.differs(d))
	assert.True(t, d.differs(debit{Key: d.Key, Date: day, Quantity: 6}))
	assert.True(t, d.differs(debit{Key: d.Key, Date: day.AddDays(1), Quantity: 5}))
}

func TestValidatePatchShape(t *testing.T) {
	assert.NoError(t, validatePatchShape(nil, nil, map[string]*int64{"baseId": nil}))
	blank := "   "
	assert.Error(t, validatePatchShape(&blank, nil, nil))
	zero := int64(0)
	assert.Error(t, validatePatchShape(nil, &zero, nil))
	assert.Error(t, validatePatchShape(nil, nil, map[string]*int64{"baseId": &zero}))
}
