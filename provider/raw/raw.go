// Package raw provides a lowest-priority provider for direct media file URLs.
package raw

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/mwhitfield/ytgrab"
	"github.com/mwhitfield/ytgrab/batch"
	"github.com/mwhitfield/ytgrab/generic"
	"github.com/mwhitfield/ytgrab/util"
)

type Config struct {
	Protocols  generic.Set[string]
	Extensions generic.Set[string]
	TargetDir  string
}

func NewConfig() Config {
	return Config{
		Protocols: generic.NewSet(
			"http",
			"https",
		),
		Extensions: generic.NewSet(
			"flv",
			"m4a",
			"m4v",
			"mkv",
			"mp3",
			"mp4",
			"webm",
		),
		TargetDir: ".",
	}
}

func (c Config) Match(s string) (ytgrab.Source, error) {
	// Expect string to be a URL
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %v", parsedURL.Scheme)
	}
	filename, err := util.FilenameFromURL(parsedURL)
	if err != nil {
		return nil, err
	}
	extension := strings.TrimPrefix(path.Ext(filename), ".")
	if extension == "" {
		return nil, fmt.Errorf("no file extension found")
	}
	if !c.Extensions.Contains(extension) {
		return nil, fmt.Errorf("unknown file extension %v", extension)
	}
	return &source{config: c, url: s, filename: filename}, nil
}

func (c Config) Provider() ytgrab.Provider {
	return ytgrab.Provider{
		Name:  "raw",
		Match: c.Match,
	}
}

type source struct {
	config   Config
	url      string
	filename string
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Resolve(ctx context.Context) (*ytgrab.Batch, error) {
	return &ytgrab.Batch{
		Title: s.filename,
		Items: []batch.Item{
			{ID: 1, DisplayName: s.filename, Ref: s.url},
		},
		Executor: &executor{config: s.config, filename: s.filename},
	}, nil
}

type executor struct {
	config   Config
	filename string
}

func (e *executor) Execute(ctx context.Context, item batch.Item) (string, error) {
	builder := ytgrab.NewDownloadBuilder()
	builder.WithContext(ctx)
	builder.WithTargetPrefix(strings.TrimRight(e.config.TargetDir, "/") + "/")
	d, err := builder.Build()
	if err != nil {
		return "", batch.NewDownloadError(batch.KindIO, err)
	}
	defer d.Close()

	if err := d.SaveURL(e.filename, item.Ref); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return "", batch.NewDownloadError(batch.KindIO, err)
		}
		return "", batch.NewDownloadError(batch.KindNetwork, err)
	}
	return path.Join(e.config.TargetDir, e.filename), nil
}

func init() {
	ytgrab.DefaultProviderRegistry.MustAdd(
		NewConfig().Provider().WithPriority(ytgrab.PriorityLowest),
	)
}
