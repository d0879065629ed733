package tool

// FailureTracker counts consecutive failures per exact command string.
// Once a command has failed the configured number of times in a row it
// is skipped until a success or a session reset clears the counter.
type FailureTracker struct {
	counts map[string]int
	limit  int
}

func NewFailureTracker(limit int) *FailureTracker {
	if limit <= 0 {
		limit = 2
	}
	return &FailureTracker{
		counts: make(map[string]int),
		limit:  limit,
	}
}

// Blocked reports whether the command has reached the failure limit.
func (f *FailureTracker) Blocked(command string) bool {
	return f.counts[command] >= f.limit
}

// RecordFailure increments the consecutive-failure count for command.
func (f *FailureTracker) RecordFailure(command string) {
	f.counts[command]++
}

// RecordSuccess resets the count for command.
func (f *FailureTracker) RecordSuccess(command string) {
	delete(f.counts, command)
}

// Reset clears all counters.
func (f *FailureTracker) Reset() {
	f.counts = make(map[string]int)
}
