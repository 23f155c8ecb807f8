package ytgrab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitfield/ytgrab/batch"
)

type stubSource struct {
	url   string
	batch *Batch
	err   error
}

func (s *stubSource) URL() string { return s.url }

func (s *stubSource) Resolve(ctx context.Context) (*Batch, error) {
	return s.batch, s.err
}

func matchPrefix(prefix string) MatchFunc {
	return func(s string) (Source, error) {
		if strings.HasPrefix(s, prefix) {
			return &stubSource{url: s}, nil
		}
		return nil, fmt.Errorf("no %v prefix", prefix)
	}
}

func TestRegistryAdd(t *testing.T) {
	assert := assert.New(t)
	registry := &ProviderRegistry{}

	assert.NoError(registry.Add(Provider{Name: "a", Match: matchPrefix("a:")}))
	assert.ErrorIs(registry.Add(Provider{Name: "a", Match: matchPrefix("a:")}), ErrDuplicateProvider)
	assert.ErrorIs(registry.Add(Provider{Match: matchPrefix("a:")}), ErrInvalidProvider)
	assert.ErrorIs(registry.Add(Provider{Name: "b"}), ErrInvalidProvider)
}

func TestRegistryMatchPriority(t *testing.T) {
	assert := assert.New(t)
	registry := &ProviderRegistry{}
	// Both match everything; priority decides which wins regardless of
	// registration order.
	registry.MustAdd(Provider{Name: "fallback", Match: matchPrefix("")}.WithPriority(PriorityLowest))
	registry.MustAdd(Provider{Name: "preferred", Match: matchPrefix("")})

	assert.Equal([]string{"preferred", "fallback"}, registry.List())

	source, err := registry.Match("anything")
	assert.NoError(err)
	assert.Equal("anything", source.URL())
}

func TestRegistryMatchAggregatesErrors(t *testing.T) {
	assert := assert.New(t)
	registry := &ProviderRegistry{}
	registry.MustAdd(Provider{Name: "a", Match: matchPrefix("a:")})
	registry.MustAdd(Provider{Name: "b", Match: matchPrefix("b:")})

	_, err := registry.Match("c:something")
	assert.Error(err)
	assert.Contains(err.Error(), "[a]")
	assert.Contains(err.Error(), "[b]")
}

func TestRegistryMatchEmpty(t *testing.T) {
	assert := assert.New(t)
	registry := &ProviderRegistry{}
	_, err := registry.Match("anything")
	assert.ErrorIs(err, ErrNoMatch)
}

func TestResolveWrapsMatchFailure(t *testing.T) {
	assert := assert.New(t)
	registry := &ProviderRegistry{}

	_, err := Resolve(context.Background(), registry, "anything")
	var resolutionErr *ResolutionError
	assert.ErrorAs(err, &resolutionErr)
	assert.Equal("anything", resolutionErr.URL)
	assert.ErrorIs(err, ErrNoMatch)
}

func TestResolveWrapsResolveFailure(t *testing.T) {
	assert := assert.New(t)
	cause := errors.New("metadata fetch failed")
	registry := &ProviderRegistry{}
	registry.MustAdd(Provider{Name: "failing", Match: func(s string) (Source, error) {
		return &stubSource{url: s, err: cause}, nil
	}})

	_, err := Resolve(context.Background(), registry, "anything")
	var resolutionErr *ResolutionError
	assert.ErrorAs(err, &resolutionErr)
	assert.ErrorIs(err, cause)
}

func TestResolveSuccess(t *testing.T) {
	assert := assert.New(t)
	want := &Batch{Title: "one video", Items: []batch.Item{{ID: 1, DisplayName: "one video"}}}
	registry := &ProviderRegistry{}
	registry.MustAdd(Provider{Name: "ok", Match: func(s string) (Source, error) {
		return &stubSource{url: s, batch: want}, nil
	}})

	resolved, err := Resolve(context.Background(), registry, "anything")
	assert.NoError(err)
	assert.Equal(want, resolved)
}
