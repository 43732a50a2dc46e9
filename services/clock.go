package services

import (
	"time"

	"github.com/cppla/snackstopper/models"
)

// Clock returns the current time in the application's time zone.
type Clock func() time.Time

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// Today is the calendar day key of the current time.
func (c Clock) Today() string {
	return models.DateKey(c())
}
