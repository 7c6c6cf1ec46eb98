package timeseries

import "fmt"

// InsufficientDataError reports that an operation needs more buckets than it
// was given. Callers treat it as "not enough data yet", not as a failure.
type InsufficientDataError struct {
	Op   string
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need at least %d buckets, have %d", e.Op, e.Need, e.Have)
}

// Require returns an *InsufficientDataError when fewer than need points are available.
func Require(op string, have, need int) error {
	if have < need {
		return &InsufficientDataError{Op: op, Need: need, Have: have}
	}
	return nil
}
