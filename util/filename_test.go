package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert := assert.New(t)
	cases := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{`What? A "Video": Part 1/2`, "What A Video Part 12"},
		{`a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(c.want, SanitizeFilename(c.in))
	}
}

func TestFilenameFromURLString(t *testing.T) {
	assert := assert.New(t)

	filename, err := FilenameFromURLString("https://example.com/media/video.mp4")
	assert.NoError(err)
	assert.Equal("video.mp4", filename)

	filename, err = FilenameFromURLString("https://example.com/video.mp4?token=abc")
	assert.NoError(err)
	assert.Equal("video.mp4", filename)

	for _, bad := range []string{
		"https://example.com/",
		"https://example.com",
		"https://example.com/..",
	} {
		_, err = FilenameFromURLString(bad)
		assert.ErrorIs(err, ErrNoFilename)
	}
}
