package services

import "time"

// Clock is the time source used to measure inference calls.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock. time.Now carries a monotonic reading, so
// durations measured with it are immune to wall-clock jumps.
var SystemClock Clock = systemClock{}

// TimeCall runs call and reports how long it took in whole milliseconds,
// rounded to nearest and never negative. On failure the error is returned
// unchanged and no duration is reported.
func TimeCall[T any](clock Clock, call func() (T, error)) (T, int64, error) {
	start := clock.Now()
	out, err := call()
	elapsed := clock.Now().Sub(start)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return out, durationToMillis(elapsed), nil
}

func durationToMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}
