package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps outbound notifications. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for notification timestamps. Pass nil
// to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current UTC time from the domain clock.
func Now() time.Time {
	return clock.Now().UTC()
}
