package generic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert := assert.New(t)
	ok := Ok(42)
	assert.True(ok.IsOk())
	assert.False(ok.IsErr())
	assert.Equal(42, ok.Unwrap())
	assert.Equal(42, ok.UnwrapOr(0))

	err := Err[int](errors.New("nope"))
	assert.True(err.IsErr())
	assert.Equal(7, err.UnwrapOr(7))
	assert.Panics(func() { err.Unwrap() })

	value, e := NewResult(1, nil).Parts()
	assert.Equal(1, value)
	assert.NoError(e)
}

func TestUnwrapShortcuts(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("x", Unwrap("x", nil))
	assert.Panics(func() { Unwrap("", errors.New("bad")) })
	assert.NotPanics(func() { Unwrap_(nil) })
	assert.Panics(func() { Unwrap_(errors.New("bad")) })
	assert.Equal(3, Expect[int]("should work")(3, nil))
}
