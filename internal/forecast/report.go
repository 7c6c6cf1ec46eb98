package forecast

import (
	"fmt"
	"strings"
)

// Markdown renders the forecast as a table.
func (f *Forecast) Markdown() string {
	var b strings.Builder
	b.WriteString("[FORECAST]\n")
	b.WriteString(fmt.Sprintf("Name: %s\n", f.Name))
	b.WriteString(fmt.Sprintf("Mode: %s, horizon %d, trained on %d buckets\n", f.Mode, f.Horizon, f.TrainedOn))
	b.WriteString(fmt.Sprintf("Accuracy: %.1f%%\n\n", f.Accuracy*100))
	b.WriteString("| Date | Value | Confidence |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, p := range f.Predictions {
		b.WriteString(fmt.Sprintf("| %s | %.2f | %.0f%% |\n", p.Date, p.Value, p.Confidence*100))
	}
	return b.String()
}
