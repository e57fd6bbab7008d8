package supervisor

import (
	"context"
	"time"
)

// retry polls a condition at a fixed interval up to a tick ceiling. It is
// shared by the start-confirmation and stop-escalation paths so neither
// can block indefinitely.
type retry struct {
	ticks     int
	interval  time.Duration
	exhausted func() // runs once when the ceiling is reached; may be nil
}

// wait evaluates cond once per tick until it returns true, returns an
// error, or the ceiling is reached. The first evaluation happens
// immediately so an already-satisfied condition does not pay a full tick.
func (r retry) wait(ctx context.Context, cond func() (bool, error)) (bool, error) {
	for i := 0; i < r.ticks; i++ {
		ok, err := cond()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(r.interval):
		}
	}
	if r.exhausted != nil {
		r.exhausted()
	}
	return false, nil
}
