package usecase

import "time"

// SystemClock is the wall clock. Times are UTC so schedule due dates and
// posting timestamps compare consistently.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
