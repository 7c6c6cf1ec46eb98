package dataset

import "time"

const (
	// SampleSize is how many leading rows type inference looks at.
	SampleSize = 100
	// matchThreshold must be strictly exceeded for a type to win.
	matchThreshold = 0.8
)

// InferType classifies column by sampling up to SampleSize rows. Candidate
// types are tried in the fixed order number, date, boolean; the first whose
// match ratio over non-missing values exceeds 0.8 wins, otherwise string.
// Numbers are checked before dates, so year-only values such as "2024"
// classify as number.
func InferType(sample []Row, column string) ColumnType {
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	values := make([]any, 0, len(sample))
	for _, r := range sample {
		v, ok := r[column]
		if !ok || IsMissing(v) {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return TypeString
	}

	ratio := func(match func(any) bool) float64 {
		n := 0
		for _, v := range values {
			if match(v) {
				n++
			}
		}
		return float64(n) / float64(len(values))
	}

	switch {
	case ratio(isNumber) > matchThreshold:
		return TypeNumber
	case ratio(isDate) > matchThreshold:
		return TypeDate
	case ratio(IsBoolToken) > matchThreshold:
		return TypeBoolean
	default:
		return TypeString
	}
}

func isNumber(v any) bool {
	_, ok := Number(v)
	return ok
}

func isDate(v any) bool {
	_, ok := Time(v, time.UTC)
	return ok
}
