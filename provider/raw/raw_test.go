package raw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	assert := assert.New(t)
	config := NewConfig()

	source, err := config.Match("https://example.com/media/video.mp4")
	assert.NoError(err)
	assert.Equal("https://example.com/media/video.mp4", source.URL())

	for _, bad := range []string{
		"ftp://example.com/video.mp4",
		"https://example.com/page.html",
		"https://example.com/noextension",
		"https://example.com/",
	} {
		_, err := config.Match(bad)
		assert.Error(err, bad)
	}
}

func TestResolveSingleItem(t *testing.T) {
	assert := assert.New(t)
	config := NewConfig()
	source, err := config.Match("https://example.com/video.mp4")
	assert.NoError(err)

	batch, err := source.Resolve(context.Background())
	assert.NoError(err)
	assert.Equal("video.mp4", batch.Title)
	assert.Len(batch.Items, 1)
	assert.Equal(1, batch.Items[0].ID)
	assert.Equal("video.mp4", batch.Items[0].DisplayName)
	assert.NotNil(batch.Executor)
}
