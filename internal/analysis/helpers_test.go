package analysis

import (
	"fmt"
	"testing"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/anomaly"
	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func build(t *testing.T, header []string, rows ...dataset.Row) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Ingest(header, rows, "orders", dataset.SourceUpload,
		dataset.WithClock(func() time.Time { return epoch }),
		dataset.WithIDGenerator(func() string { return "ds-1" }))
	require.NoError(t, err)
	return ds
}

// stepOrders yields one order per day for 14 days: 100 for the first week,
// 200 for the second.
func stepOrders(t *testing.T) *dataset.Dataset {
	t.Helper()
	var rows []dataset.Row
	for i := 0; i < 14; i++ {
		amount := 100
		if i >= 7 {
			amount = 200
		}
		rows = append(rows, dataset.Row{
			"order_date":   fmt.Sprintf("2024-01-%02d", i+1),
			"customer_id":  fmt.Sprintf("c%d", i%5),
			"product_name": []string{"Widget", "Gadget"}[i%2],
			"quantity":     2,
			"order_amount": amount,
		})
	}
	return build(t, []string{"order_date", "customer_id", "product_name", "quantity", "order_amount"}, rows...)
}

func utcOptions() Options {
	o := DefaultOptions()
	o.Location = time.UTC
	return o
}

func stepAnomaly(i int) anomaly.Anomaly {
	return anomaly.Anomaly{Key: fmt.Sprintf("k%d", i), Metric: "sales", Explanation: "x", Severity: anomaly.SeverityMedium}
}
