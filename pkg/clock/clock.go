package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystem() Clock {
	return systemClock{}
}

// Now is UTC truncated to Mongo's millisecond precision so values read back
// from the store compare equal to the ones written.
func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type fixedClock struct {
	now time.Time
}

func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
