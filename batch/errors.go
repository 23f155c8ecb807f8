package batch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed attempt. All kinds are recoverable per-item
// and eligible for retry; they exist so the report can say why an item failed.
type ErrorKind string

const (
	KindNetwork           ErrorKind = "network"
	KindFormatUnavailable ErrorKind = "format_unavailable"
	KindTranscode         ErrorKind = "transcode"
	KindIO                ErrorKind = "io"
	// KindInternal marks an unexpected executor failure (e.g. a recovered
	// panic); it never propagates beyond the item it happened on.
	KindInternal ErrorKind = "internal"
)

// A DownloadError is a classified failure from an Executor.
type DownloadError struct {
	Kind ErrorKind
	Err  error
}

func NewDownloadError(kind ErrorKind, err error) *DownloadError {
	return &DownloadError{Kind: kind, Err: err}
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from an error, defaulting to KindInternal for
// errors the executor didn't classify. Returns "" for nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
