// Package budget tracks the remaining wall-clock allowance of a single
// invocation. The invocation wrapper (CLI flag, function host) supplies the
// authoritative remaining time; everything that does deadline math queries it
// through the Budget interface.
package budget

import "time"

// Budget reports how much wall-clock time the current invocation has left.
type Budget interface {
	// Remaining returns the time left before the invocation is terminated.
	// Never negative; zero means the budget is exhausted.
	Remaining() time.Duration
}

// DeadlineBudget derives the remaining time from a fixed wall-clock deadline.
type DeadlineBudget struct {
	deadline time.Time
	now      func() time.Time
}

// UntilDeadline returns a Budget counting down to the given deadline.
func UntilDeadline(deadline time.Time) *DeadlineBudget {
	return &DeadlineBudget{deadline: deadline, now: time.Now}
}

// Starting returns a Budget with the given allowance measured from now.
func Starting(allowance time.Duration) *DeadlineBudget {
	return UntilDeadline(time.Now().Add(allowance))
}

func (b *DeadlineBudget) Remaining() time.Duration {
	if left := b.deadline.Sub(b.now()); left > 0 {
		return left
	}
	return 0
}

// Static is a Budget that always reports the same remaining time. Useful in
// tests and for dry runs that should never hit the budget floor.
type Static time.Duration

func (s Static) Remaining() time.Duration { return time.Duration(s) }
