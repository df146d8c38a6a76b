package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so validation against "now" is testable.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator produces message ids.
type IDGenerator interface {
	New() string
}

type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// datetime-local values, with and without seconds, read as UTC.
var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// parseScheduledTime accepts RFC 3339 timestamps and the browser's
// datetime-local format.
func parseScheduledTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if lt, lerr := time.ParseInLocation(layout, value, time.UTC); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, err
}
