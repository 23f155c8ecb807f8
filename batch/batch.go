// Package batch runs a set of download items through an Executor with bounded
// concurrency, per-item retry, and a complete final report.
package batch

import (
	"time"
)

// An Item is one downloadable unit within a batch. Immutable once created;
// identity is ID, which must be unique within the batch (resolvers assign
// 1-based positions).
type Item struct {
	ID          int
	DisplayName string
	// Ref is an opaque reference the Executor knows how to fetch, e.g. a
	// video ID or a direct URL.
	Ref string
}

// Status is the settled state of an item at the end of a batch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusSkipped means the batch was cancelled before the item reached an
	// executor; skipped items have zero attempts.
	StatusSkipped Status = "skipped"
)

// An AttemptOutcome records one Executor invocation against an Item. Created
// once, never mutated.
type AttemptOutcome struct {
	ItemID    int
	Attempt   int
	Path      string
	Err       error
	Kind      ErrorKind
	Timestamp time.Time
}

// Succeeded returns true if this attempt produced a download.
func (o AttemptOutcome) Succeeded() bool {
	return o.Err == nil
}

// An ItemResult is the per-item record the scheduler builds: every attempt
// made, plus the settled status. For items that reached an executor,
// len(Attempts) is between 1 and 1+RetryAttempts, and Status is
// StatusSuccess exactly when the last attempt succeeded.
type ItemResult struct {
	Item     Item
	Status   Status
	Attempts []AttemptOutcome
}

// Path returns the output path of the successful attempt, or "".
func (r ItemResult) Path() string {
	if r.Status != StatusSuccess || len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Path
}

// LastError returns the error of the most recent attempt, or nil.
func (r ItemResult) LastError() error {
	if len(r.Attempts) == 0 {
		return nil
	}
	return r.Attempts[len(r.Attempts)-1].Err
}

// LastErrorKind returns the error kind of the most recent attempt, or "".
func (r ItemResult) LastErrorKind() ErrorKind {
	if len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Kind
}
