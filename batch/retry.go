package batch

// A Policy decides whether a failed item gets another attempt. It is a pure
// value: the same (attemptsSoFar, Policy) always yields the same decision.
type Policy struct {
	// Enabled gates retrying entirely.
	Enabled bool
	// Attempts is the maximum number of retries after the first attempt, so
	// an item is attempted at most 1+Attempts times.
	Attempts int
}

// Allow reports whether another attempt is authorized after attemptsSoFar
// attempts have already been made.
func (p Policy) Allow(attemptsSoFar int) bool {
	return p.Enabled && attemptsSoFar <= p.Attempts
}
