package record

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alynder/warchest/internal/resource"
)

func TestAccumulate_Empty(t *testing.T) {
	total, newest := Accumulate(nil)

	assert.True(t, total.IsZero())
	assert.Equal(t, int64(0), newest)
}

func TestAccumulate_SumsAndNewest(t *testing.T) {
	records := []BankRecord{
		{ID: 101, Amounts: resource.Vector{Money: 100, Steel: 1}},
		{ID: 103, Amounts: resource.Vector{Money: 50}},
		{ID: 102, Amounts: resource.Vector{Food: 2.5, Steel: 4}},
	}

	total, newest := Accumulate(records)

	assert.Equal(t, 150.0, total.Money)
	assert.Equal(t, 5.0, total.Steel)
	assert.Equal(t, 2.5, total.Food)
	assert.Equal(t, int64(103), newest, "newest id, not last")
}

func TestAccumulate_Pure(t *testing.T) {
	records := []BankRecord{{ID: 7, Amounts: resource.Vector{Coal: 3}}}

	t1, n1 := Accumulate(records)
	t2, n2 := Accumulate(records)

	assert.Equal(t, t1, t2)
	assert.Equal(t, n1, n2)
	assert.Equal(t, 3.0, records[0].Amounts.Coal, "input untouched")
}
