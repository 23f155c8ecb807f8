package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMP3Args(t *testing.T) {
	assert := assert.New(t)
	args := mp3Args("in.m4a", "out.mp3")
	assert.Equal([]string{"-i", "in.m4a", "-vn", "-acodec", "mp3", "-ab", "192k", "-y", "out.mp3"}, args)
}
