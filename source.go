package ytgrab

import (
	"context"
	"fmt"

	"github.com/mwhitfield/ytgrab/batch"
)

// A Source is a matched URL that can enumerate the work it represents. A
// single video resolves to a batch of one item; a playlist resolves to an
// ordered batch of items.
type Source interface {
	// URL should return the canonical URL for this source. It is assumed that
	// the Provider.Match that created the Source would match this URL again.
	URL() string
	// Resolve should fetch enough metadata to enumerate the batch. Failure to
	// enumerate is fatal for the whole operation (no partial report), so
	// callers wrap it as a ResolutionError.
	Resolve(ctx context.Context) (*Batch, error)
}

// A Batch is the resolved output of a Source: the ordered items plus the
// executor that knows how to download each of them.
type Batch struct {
	// Title names the batch, e.g. the playlist title or the single video title.
	Title string
	Items []batch.Item
	// Executor downloads one item; it is driven by the batch scheduler.
	Executor batch.Executor
}

// A ResolutionError means the work could not even be enumerated. It aborts
// the batch before any scheduling begins.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolve matches a URL against the registry and resolves it, wrapping any
// failure as a ResolutionError.
func Resolve(ctx context.Context, registry *ProviderRegistry, url string) (*Batch, error) {
	source, err := registry.Match(url)
	if err != nil {
		return nil, &ResolutionError{URL: url, Err: err}
	}
	resolved, err := source.Resolve(ctx)
	if err != nil {
		return nil, &ResolutionError{URL: url, Err: err}
	}
	return resolved, nil
}
