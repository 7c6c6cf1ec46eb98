package dataset

import "fmt"

// MalformedInputError is returned when raw rows cannot form a dataset.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}
