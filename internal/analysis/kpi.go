package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/shopspring/decimal"
)

const unknownProduct = "Unknown Product"

// ProductMetric is one entry of a top-N breakdown.
type ProductMetric struct {
	Product string  `json:"product"`
	Value   float64 `json:"value"`
}

// KPIResult holds the summary metrics of a dataset. Currency and percentage
// values are rounded half-up to two decimals after aggregation.
type KPIResult struct {
	TotalSales            float64         `json:"total_sales"`
	TotalOrders           int             `json:"total_orders"`
	UniqueCustomers       int             `json:"unique_customers"`
	AverageOrderValue     float64         `json:"average_order_value"`
	RepeatCustomerRatePct float64         `json:"repeat_customer_rate_pct"`
	SalesGrowthPct        float64         `json:"sales_growth_pct"`
	TopProductsBySales    []ProductMetric `json:"top_products_by_sales"`
	TopProductsByQty      []ProductMetric `json:"top_products_by_qty"`

	CustomerLifetimeValue float64 `json:"customer_lifetime_value"`
	AvgOrdersPerCustomer  float64 `json:"avg_orders_per_customer"`
	ProductDiversity      int     `json:"product_diversity"`
	TopProductSharePct    float64 `json:"top_product_share_pct"`
	MomentumScore         float64 `json:"momentum_score"`
}

// KPIOptions tunes Aggregate.
type KPIOptions struct {
	TopN     int
	Location *time.Location
}

type order struct {
	amount   decimal.Decimal
	customer string
	product  string
	qty      decimal.Decimal
	at       time.Time
	dated    bool
}

// Aggregate computes KPIs over the rows whose revenue value parses as a
// number; rows with unparsable revenue are excluded from every metric.
// Quantity counts as 1 per row when the quantity role did not match a column
// or the cell is not numeric.
func Aggregate(ds *dataset.Dataset, roles RoleMap, opt KPIOptions) KPIResult {
	if opt.TopN <= 0 {
		opt.TopN = 5
	}
	if opt.Location == nil {
		opt.Location = time.Local
	}
	revCol := roles.Column(RoleRevenue)
	custCol := roles.Column(RoleCustomer)
	prodCol := roles.Column(RoleProduct)
	qtyCol := roles.Column(RoleQuantity)
	useQty := roles.Matched(RoleQuantity)
	dateCol := roles.Column(RoleDate)

	var orders []order
	for _, r := range ds.Rows {
		amt, ok := amount(r[revCol])
		if !ok {
			continue
		}
		o := order{
			amount:   amt,
			customer: strings.TrimSpace(dataset.Text(r[custCol])),
			product:  strings.TrimSpace(dataset.Text(r[prodCol])),
			qty:      decimal.NewFromInt(1),
		}
		if o.product == "" {
			o.product = unknownProduct
		}
		if useQty {
			if q, ok := amount(r[qtyCol]); ok {
				o.qty = q
			}
		}
		o.at, o.dated = dataset.Time(r[dateCol], opt.Location)
		orders = append(orders, o)
	}

	var k KPIResult
	n := len(orders)
	k.TotalOrders = n
	if n == 0 {
		return k
	}

	total := decimal.Zero
	perCustomer := make(map[string]int)
	customerRevenue := decimal.Zero
	customerOrders := 0
	var productOrder []string
	sales := make(map[string]decimal.Decimal)
	qty := make(map[string]decimal.Decimal)

	for _, o := range orders {
		total = total.Add(o.amount)
		if o.customer != "" {
			perCustomer[o.customer]++
			customerRevenue = customerRevenue.Add(o.amount)
			customerOrders++
		}
		if _, seen := sales[o.product]; !seen {
			productOrder = append(productOrder, o.product)
		}
		sales[o.product] = sales[o.product].Add(o.amount)
		qty[o.product] = qty[o.product].Add(o.qty)
	}

	k.TotalSales = round(total, 2)
	k.AverageOrderValue = round(total.Div(decimal.NewFromInt(int64(n))), 2)
	k.UniqueCustomers = len(perCustomer)
	if k.UniqueCustomers > 0 {
		repeat := 0
		for _, c := range perCustomer {
			if c > 1 {
				repeat++
			}
		}
		unique := decimal.NewFromInt(int64(k.UniqueCustomers))
		k.RepeatCustomerRatePct = round(decimal.NewFromInt(int64(repeat*100)).Div(unique), 2)
		k.CustomerLifetimeValue = round(customerRevenue.Div(unique), 2)
		k.AvgOrdersPerCustomer = round(decimal.NewFromInt(int64(customerOrders)).Div(unique), 2)
	}

	mid := n / 2
	first, second := decimal.Zero, decimal.Zero
	for i, o := range orders {
		if i < mid {
			first = first.Add(o.amount)
		} else {
			second = second.Add(o.amount)
		}
	}
	if !first.IsZero() {
		k.SalesGrowthPct = round(second.Sub(first).Div(first).Mul(decimal.NewFromInt(100)), 2)
	}

	k.ProductDiversity = len(productOrder)
	k.TopProductsBySales = topN(productOrder, sales, opt.TopN)
	k.TopProductsByQty = topN(productOrder, qty, opt.TopN)
	if !total.IsZero() && len(k.TopProductsBySales) > 0 {
		top := sales[k.TopProductsBySales[0].Product]
		k.TopProductSharePct = round(top.Div(total).Mul(decimal.NewFromInt(100)), 2)
	}
	k.MomentumScore = momentum(orders)
	return k
}

// topN sorts products by value descending; ties keep first-seen order.
func topN(seen []string, values map[string]decimal.Decimal, n int) []ProductMetric {
	names := append([]string(nil), seen...)
	sort.SliceStable(names, func(i, j int) bool {
		return values[names[i]].GreaterThan(values[names[j]])
	})
	if len(names) > n {
		names = names[:n]
	}
	out := make([]ProductMetric, len(names))
	for i, name := range names {
		out[i] = ProductMetric{Product: name, Value: round(values[name], 2)}
	}
	return out
}

const (
	momentumRows  = 30
	momentumChunk = 10
)

// momentum averages the relative change between consecutive 10-order chunks
// of the 30 most recent dated orders.
func momentum(orders []order) float64 {
	var dated []order
	for _, o := range orders {
		if o.dated {
			dated = append(dated, o)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].at.Before(dated[j].at) })
	if len(dated) > momentumRows {
		dated = dated[len(dated)-momentumRows:]
	}
	chunks := min(3, len(dated)/momentumChunk)
	if chunks < 2 {
		return 0
	}
	sum := func(c int) decimal.Decimal {
		s := decimal.Zero
		for _, o := range dated[c*momentumChunk : (c+1)*momentumChunk] {
			s = s.Add(o.amount)
		}
		return s
	}
	acc := decimal.Zero
	for c := 1; c < chunks; c++ {
		prev, cur := sum(c-1), sum(c)
		if prev.IsPositive() {
			acc = acc.Add(cur.Sub(prev).Div(prev))
		}
	}
	return round(acc.Div(decimal.NewFromInt(int64(chunks-1))), 4)
}

// amount parses a revenue-like cell exactly. Strings keep their decimal
// digits; other numeric kinds go through their shortest float form.
func amount(v any) (decimal.Decimal, bool) {
	f, ok := dataset.Number(v)
	if !ok {
		return decimal.Decimal{}, false
	}
	if s, isStr := v.(string); isStr {
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return decimal.NewFromFloat(f), true
}

// round rounds half toward positive infinity, so -0.005 becomes 0 and
// 0.005 becomes 0.01 at two places.
func round(d decimal.Decimal, places int32) float64 {
	return d.Shift(places).Add(half).Floor().Shift(-places).InexactFloat64()
}

var half = decimal.New(5, -1)
