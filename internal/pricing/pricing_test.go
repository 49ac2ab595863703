package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFactorPercentTiers(t *testing.T) {
	cases := []struct {
		ratio float64
		want  int
	}{
		{0.0, 90},
		{0.10, 90},
		{0.2499, 90},
		{0.25, 100}, // lower bound inclusive
		{0.40, 100},
		{0.4999, 100},
		{0.50, 110},
		{0.74, 110},
		{0.75, 125},
		{0.99, 125},
		{1.0, 125},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FactorPercent(c.ratio), "ratio %v", c.ratio)
	}
}

func TestFactorPercentMonotonic(t *testing.T) {
	prev := 0
	for r := 0.0; r <= 1.0; r += 0.01 {
		f := FactorPercent(r)
		assert.GreaterOrEqual(t, f, prev, "factor must not decrease at ratio %v", r)
		assert.Contains(t, []int{90, 100, 110, 125}, f)
		prev = f
	}
}

func TestBillableHoursRoundsUp(t *testing.T) {
	assert.Equal(t, int64(0), BillableHours(0))
	assert.Equal(t, int64(1), BillableHours(1*time.Minute))
	assert.Equal(t, int64(1), BillableHours(30*time.Minute))
	assert.Equal(t, int64(1), BillableHours(60*time.Minute))
	assert.Equal(t, int64(2), BillableHours(61*time.Minute))
	assert.Equal(t, int64(2), BillableHours(90*time.Minute))
	assert.Equal(t, int64(2), BillableHours(120*time.Minute))
	assert.Equal(t, int64(3), BillableHours(121*time.Minute))
	// sub-minute remainders are truncated before the ceil
	assert.Equal(t, int64(1), BillableHours(60*time.Minute+30*time.Second))
	assert.Equal(t, int64(0), BillableHours(-time.Hour))
}

func TestSettleCents(t *testing.T) {
	entry := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	// 90 minutes at factor 100: 10.00 * 2 * 1.00 = 20.00
	got := SettleCents(1000, entry, entry.Add(90*time.Minute), 100)
	assert.Equal(t, int64(2000), got)

	// 30 minutes at factor 90: 10.00 * 1 * 0.90 = 9.00
	got = SettleCents(1000, entry, entry.Add(30*time.Minute), 90)
	assert.Equal(t, int64(900), got)

	// 61 minutes bills two hours
	got = SettleCents(1000, entry, entry.Add(61*time.Minute), 110)
	assert.Equal(t, int64(2200), got)

	// exit before entry prices at zero
	got = SettleCents(1000, entry, entry.Add(-time.Minute), 125)
	assert.Equal(t, int64(0), got)
}
