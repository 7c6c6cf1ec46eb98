package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Stamper mints ids and creation times for generated records.
type Stamper struct {
	Now   func() time.Time
	NewID func() string
}

func (s Stamper) stamp() (string, time.Time) {
	now, newID := s.Now, s.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return newID(), now()
}
