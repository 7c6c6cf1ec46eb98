package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func aggregate(t *testing.T, ds *dataset.Dataset) KPIResult {
	t.Helper()
	return Aggregate(ds, ResolveAll(ds, DefaultRoleTable()), KPIOptions{})
}

func TestAggregateRoundsAfterSummation(t *testing.T) {
	ds := build(t, []string{"revenue"}, dataset.Row{"revenue": 10.005}, dataset.Row{"revenue": 10.005})
	k := aggregate(t, ds)
	assert.Equal(t, 20.01, k.TotalSales)
	assert.Equal(t, 2, k.TotalOrders)
}

func TestAggregateExcludesUnparsableRevenue(t *testing.T) {
	ds := build(t, []string{"customer_id", "sales"},
		dataset.Row{"customer_id": "a", "sales": "10"},
		dataset.Row{"customer_id": "b", "sales": "n/a"},
		dataset.Row{"customer_id": "c", "sales": nil},
		dataset.Row{"customer_id": "a", "sales": "30"},
	)
	k := aggregate(t, ds)
	assert.Equal(t, 2, k.TotalOrders)
	assert.Equal(t, 40.0, k.TotalSales)
	assert.Equal(t, 1, k.UniqueCustomers)
	assert.Equal(t, 100.0, k.RepeatCustomerRatePct)
	assert.Equal(t, 200.0, k.SalesGrowthPct)
}

func TestAggregateNoRowsHasNoNaN(t *testing.T) {
	ds := build(t, []string{"sales", "customer"}, dataset.Row{"sales": "x", "customer": "a"})
	k := aggregate(t, ds)
	for name, v := range map[string]float64{
		"aov":    k.AverageOrderValue,
		"repeat": k.RepeatCustomerRatePct,
		"growth": k.SalesGrowthPct,
		"total":  k.TotalSales,
	} {
		assert.Zero(t, v, name)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), name)
	}
	assert.Empty(t, k.TopProductsBySales)
}

func TestAggregateGrowthZeroFirstHalf(t *testing.T) {
	ds := build(t, []string{"sales"}, dataset.Row{"sales": 0}, dataset.Row{"sales": 50})
	k := aggregate(t, ds)
	assert.Zero(t, k.SalesGrowthPct)
	assert.Equal(t, 2, k.TotalOrders)
}

func TestTopProductsStableOnTies(t *testing.T) {
	ds := build(t, []string{"product", "sales"},
		dataset.Row{"product": "A", "sales": 100},
		dataset.Row{"product": "B", "sales": 100},
		dataset.Row{"product": "C", "sales": 50},
	)
	k := aggregate(t, ds)
	require.Len(t, k.TopProductsBySales, 3)
	var names []string
	for _, p := range k.TopProductsBySales {
		names = append(names, p.Product)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Equal(t, 3, k.ProductDiversity)
	assert.Equal(t, 40.0, k.TopProductSharePct)
}

func TestTopProductsCapAndUnknownLabel(t *testing.T) {
	var rows []dataset.Row
	for i, p := range []string{"a", "b", "c", "d", "e", "f", ""} {
		rows = append(rows, dataset.Row{"product": p, "sales": 10 + i})
	}
	k := aggregate(t, build(t, []string{"product", "sales"}, rows...))
	require.Len(t, k.TopProductsBySales, 5)
	assert.Equal(t, unknownProduct, k.TopProductsBySales[0].Product)
}

func TestQuantityDefaultsToOneWithoutColumn(t *testing.T) {
	ds := build(t, []string{"product", "sales"},
		dataset.Row{"product": "A", "sales": 1},
		dataset.Row{"product": "A", "sales": 1},
	)
	k := aggregate(t, ds)
	require.Len(t, k.TopProductsByQty, 1)
	assert.Equal(t, 2.0, k.TopProductsByQty[0].Value)
}

func TestAggregateIsIdempotent(t *testing.T) {
	ds := stepOrders(t)
	assert.Equal(t, aggregate(t, ds), aggregate(t, ds))
}

func TestAggregateExtendedKPIs(t *testing.T) {
	k := aggregate(t, stepOrders(t))
	assert.Equal(t, 2100.0, k.TotalSales)
	assert.Equal(t, 5, k.UniqueCustomers)
	assert.Equal(t, 420.0, k.CustomerLifetimeValue)
	assert.Equal(t, 2.8, k.AvgOrdersPerCustomer)
	assert.Equal(t, 100.0, k.SalesGrowthPct)
	assert.Equal(t, 14.0, k.TopProductsByQty[0].Value)
	assert.Zero(t, k.MomentumScore, "fewer than two full chunks")
}

// datedOrders returns one order per day starting 2024-01-01, listed newest
// first so the momentum window has to sort them.
func datedOrders(t *testing.T, amounts ...int) *dataset.Dataset {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]dataset.Row, 0, len(amounts)+1)
	for i := len(amounts) - 1; i >= 0; i-- {
		rows = append(rows, dataset.Row{
			"order_date":   start.AddDate(0, 0, i).Format("2006-01-02"),
			"order_amount": amounts[i],
		})
	}
	rows = append(rows, dataset.Row{"order_date": "not a date", "order_amount": 5000})
	return build(t, []string{"order_date", "order_amount"}, rows...)
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMomentumUsesLatestThirtyDatedOrders(t *testing.T) {
	var amounts []int
	amounts = append(amounts, repeat(1000, 5)...) // outside the window
	amounts = append(amounts, repeat(100, 10)...)
	amounts = append(amounts, repeat(150, 10)...)
	amounts = append(amounts, repeat(300, 10)...)

	k := aggregate(t, datedOrders(t, amounts...))
	// chunk totals 1000, 1500, 3000: growth 0.5 then 1.0
	assert.Equal(t, 0.75, k.MomentumScore)
}

func TestMomentumTwoChunks(t *testing.T) {
	var amounts []int
	amounts = append(amounts, repeat(100, 10)...)
	amounts = append(amounts, repeat(120, 10)...)
	amounts = append(amounts, repeat(900, 5)...) // 25 orders make only two full chunks

	k := aggregate(t, datedOrders(t, amounts...))
	assert.Equal(t, 0.2, k.MomentumScore)
}

func TestMomentumDecline(t *testing.T) {
	var amounts []int
	amounts = append(amounts, repeat(300, 10)...)
	amounts = append(amounts, repeat(200, 10)...)
	amounts = append(amounts, repeat(100, 10)...)

	k := aggregate(t, datedOrders(t, amounts...))
	// (-1/3 + -1/2) / 2
	assert.Equal(t, -0.4167, k.MomentumScore)
}

func TestRoundHalfTowardPositiveInfinity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.235", 1.24},
		{"-1.235", -1.23},
		{"-0.005", 0},
		{"-1.236", -1.24},
		{"2.5", 2.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round(decimal.RequireFromString(tt.in), 2), tt.in)
	}

	ds := build(t, []string{"sales"}, dataset.Row{"sales": "1000"}, dataset.Row{"sales": "999.95"})
	assert.Zero(t, aggregate(t, ds).SalesGrowthPct, "-0.005 rounds up to zero")
}
