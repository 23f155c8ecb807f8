package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyAllow(t *testing.T) {
	assert := assert.New(t)
	cases := []struct {
		name     string
		policy   Policy
		attempts int
		allow    bool
	}{
		{"disabled", Policy{Enabled: false, Attempts: 3}, 1, false},
		{"enabled within budget", Policy{Enabled: true, Attempts: 1}, 1, true},
		{"enabled at budget", Policy{Enabled: true, Attempts: 2}, 2, true},
		{"enabled over budget", Policy{Enabled: true, Attempts: 1}, 2, false},
		{"zero retries", Policy{Enabled: true, Attempts: 0}, 1, false},
	}
	for _, c := range cases {
		assert.Equal(c.allow, c.policy.Allow(c.attempts), c.name)
	}
}

func TestPolicyIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	p := Policy{Enabled: true, Attempts: 2}
	for i := 0; i < 10; i++ {
		assert.True(p.Allow(1))
		assert.False(p.Allow(3))
	}
}
