package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultMarkdownSections(t *testing.T) {
	_, res := analyzeSteps(t)
	md := res.Markdown()
	var last int
	for _, section := range []string{"[DATASET SUMMARY]", "[COLUMNS]", "[KPIS]", "[TOP PRODUCTS]", "[TIME SERIES]", "[ANOMALIES]", "[INSIGHTS]", "[SUGGESTIONS]", "[NOTES]"} {
		i := strings.Index(md, section)
		require.GreaterOrEqual(t, i, 0, section)
		assert.Greater(t, i+1, last, "%s out of order", section)
		last = i
	}
	assert.Contains(t, md, "- Total sales: $2100.00")
	assert.Contains(t, md, "- revenue → order_amount\n")
	assert.Contains(t, md, "| 1 | Gadget | $1100.00 |")
}

func TestAlertsMarkdown(t *testing.T) {
	ds, res := analyzeSteps(t)
	a := NewAnalyzer(nil, utcOptions()).Alerts(ds, res, nil, fixedStamper())
	md := a.Markdown()
	assert.Contains(t, md, "Score: 80/100 (excellent)")
	assert.Contains(t, md, "[THRESHOLDS]\n- none")
	assert.Contains(t, md, "[critical] Unusual Activity on 2024-01-08")
}
