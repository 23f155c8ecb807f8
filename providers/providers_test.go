package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwhitfield/ytgrab"
	_ "github.com/mwhitfield/ytgrab/providers"
)

func TestDefaultRegistry(t *testing.T) {
	assert := assert.New(t)

	// youtube registers at default priority, raw as the fallback.
	assert.Equal([]string{"youtube", "raw"}, ytgrab.DefaultProviderRegistry.List())

	source, err := ytgrab.DefaultProviderRegistry.Match("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	assert.NoError(err)
	assert.Equal("https://www.youtube.com/watch?v=dQw4w9WgXcQ", source.URL())

	source, err = ytgrab.DefaultProviderRegistry.Match("https://example.com/video.mp4")
	assert.NoError(err)
	assert.Equal("https://example.com/video.mp4", source.URL())

	_, err = ytgrab.DefaultProviderRegistry.Match("https://example.com/page.html")
	assert.Error(err)
}
