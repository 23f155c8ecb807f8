package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/mwhitfield/ytgrab"
	"github.com/mwhitfield/ytgrab/batch"
	"github.com/mwhitfield/ytgrab/internal/transcode"
	"github.com/mwhitfield/ytgrab/util"
)

// Config controls stream selection and target naming for YouTube downloads.
type Config struct {
	// Quality is "highest" or a label like "720p", "480p", "360p".
	Quality   string
	AudioOnly bool
	// AudioFormat is "mp4" or "mp3"; "mp3" requires ffmpeg and falls back to
	// the downloaded container when it is missing.
	AudioFormat string
	// TargetDir is the base output directory; playlists get a subdirectory
	// named after the playlist title.
	TargetDir string
	Naming    ytgrab.Naming
	// OnProgress receives byte-level progress per item, best-effort.
	OnProgress func(item batch.Item, downloaded int, expected int)
}

func DefaultConfig() Config {
	return Config{
		Quality:     "highest",
		AudioFormat: "mp4",
		TargetDir:   ".",
		Naming:      ytgrab.NewNaming(true),
	}
}

// New returns a youtube Provider with the given configuration.
func New(config Config) ytgrab.Provider {
	return ytgrab.Provider{Name: "youtube", Match: config.Match}
}

// Match accepts single-video and playlist YouTube URLs.
func (c Config) Match(s string) (ytgrab.Source, error) {
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if playlistID, err := extractPlaylistID(parsedURL); err == nil {
		return &source{config: c, playlistID: playlistID}, nil
	}
	videoID, err := extractVideoID(parsedURL)
	if err != nil {
		return nil, err
	}
	return &source{config: c, videoID: videoID}, nil
}

type source struct {
	config     Config
	videoID    string
	playlistID string
}

func (s *source) URL() string {
	if s.playlistID != "" {
		return fmt.Sprintf("https://www.youtube.com/playlist?list=%s", s.playlistID)
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Resolve(ctx context.Context) (*ytgrab.Batch, error) {
	client := &youtube.Client{}
	if s.playlistID != "" {
		return s.resolvePlaylist(ctx, client)
	}
	return s.resolveVideo(ctx, client)
}

func (s *source) resolveVideo(ctx context.Context, client *youtube.Client) (*ytgrab.Batch, error) {
	video, err := client.GetVideoContext(ctx, s.videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	return &ytgrab.Batch{
		Title: video.Title,
		Items: []batch.Item{
			{ID: 1, DisplayName: video.Title, Ref: video.ID},
		},
		Executor: &executor{
			config:    s.config,
			client:    client,
			targetDir: s.config.TargetDir,
		},
	}, nil
}

func (s *source) resolvePlaylist(ctx context.Context, client *youtube.Client) (*ytgrab.Batch, error) {
	playlist, err := client.GetPlaylistContext(ctx, s.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist info: %w", err)
	}
	if len(playlist.Videos) == 0 {
		return nil, errors.New("playlist is empty")
	}
	items := make([]batch.Item, 0, len(playlist.Videos))
	for i, entry := range playlist.Videos {
		items = append(items, batch.Item{
			ID:          i + 1,
			DisplayName: entry.Title,
			Ref:         entry.ID,
		})
	}
	// Playlist items download into a subdirectory named after the playlist.
	targetDir := path.Join(s.config.TargetDir, util.SanitizeFilename(playlist.Title))
	return &ytgrab.Batch{
		Title: playlist.Title,
		Items: items,
		Executor: &executor{
			config:    s.config,
			client:    client,
			targetDir: targetDir,
			indexed:   true,
		},
	}, nil
}

// executor downloads one item per invocation; the batch scheduler drives it
// concurrently, so it must not keep per-item state on itself.
type executor struct {
	config    Config
	client    *youtube.Client
	targetDir string
	indexed   bool
}

func (e *executor) Execute(ctx context.Context, item batch.Item) (string, error) {
	video, err := e.client.GetVideoContext(ctx, item.Ref)
	if err != nil {
		return "", batch.NewDownloadError(batch.KindNetwork, fmt.Errorf("failed to get video info: %w", err))
	}
	format, err := selectFormat(video, e.config.Quality, e.config.AudioOnly)
	if err != nil {
		return "", batch.NewDownloadError(batch.KindFormatUnavailable, err)
	}
	stream, size, err := e.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", batch.NewDownloadError(batch.KindNetwork, fmt.Errorf("failed to get stream: %w", err))
	}
	defer stream.Close()

	wantMP3 := e.config.AudioOnly && e.config.AudioFormat == "mp3"
	if wantMP3 && !transcode.Available() {
		zap.S().Named("youtube").Warnw("ffmpeg not found, keeping downloaded audio container", "item", item.ID)
		wantMP3 = false
	}

	ext := extensionFromMimeType(format.MimeType)
	filename, err := e.config.Naming.TargetPath(item, ext, e.indexed)
	if err != nil {
		return "", batch.NewDownloadError(batch.KindIO, err)
	}

	builder := ytgrab.NewDownloadBuilder()
	builder.WithContext(ctx)
	builder.WithTargetPrefix(strings.TrimRight(e.targetDir, "/") + "/")
	if e.config.OnProgress != nil {
		builder.WithProgressCallback(func(downloaded int, expected int) {
			e.config.OnProgress(item, downloaded, expected)
		})
	}
	d, err := builder.Build()
	if err != nil {
		return "", batch.NewDownloadError(batch.KindIO, err)
	}
	defer d.Close()

	d.AddExpectedBytes(int(size))
	if err := d.SaveStream(filename, stream); err != nil {
		return "", classifySaveError(err)
	}

	outPath := path.Join(e.targetDir, filename)
	if wantMP3 {
		mp3Path := strings.TrimSuffix(outPath, "."+ext) + ".mp3"
		if err := transcode.ToMP3(ctx, outPath, mp3Path); err != nil {
			return "", batch.NewDownloadError(batch.KindTranscode, err)
		}
		outPath = mp3Path
	}
	return outPath, nil
}

// classifySaveError splits stream-saving failures into filesystem problems
// and everything else (stream reads, cancellation), which count as network.
func classifySaveError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return batch.NewDownloadError(batch.KindIO, err)
	}
	return batch.NewDownloadError(batch.KindNetwork, err)
}

// selectFormat picks a stream matching the configured quality, preferring mp4
// containers. Audio-only picks the highest-bitrate audio stream.
func selectFormat(video *youtube.Video, quality string, audioOnly bool) (*youtube.Format, error) {
	if audioOnly {
		return selectAudioFormat(video)
	}
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("no stream with audio available")
	}
	candidates := make([]youtube.Format, 0, len(formats))
	for _, f := range formats {
		if strings.HasPrefix(f.MimeType, "video/mp4") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = formats
	}
	if quality == "" || quality == "highest" {
		best := 0
		for i := range candidates {
			if candidates[i].Bitrate > candidates[best].Bitrate {
				best = i
			}
		}
		return &candidates[best], nil
	}
	for i := range candidates {
		if candidates[i].QualityLabel == quality || strings.HasPrefix(candidates[i].QualityLabel, quality) {
			return &candidates[i], nil
		}
	}
	return nil, fmt.Errorf("no %s stream available", quality)
}

func selectAudioFormat(video *youtube.Video) (*youtube.Format, error) {
	var best *youtube.Format
	for _, prefix := range []string{"audio/mp4", "audio/"} {
		for i := range video.Formats {
			f := &video.Formats[i]
			if !strings.HasPrefix(f.MimeType, prefix) {
				continue
			}
			if best == nil || f.Bitrate > best.Bitrate {
				best = f
			}
		}
		if best != nil {
			return best, nil
		}
	}
	return nil, errors.New("no audio stream available")
}

func extensionFromMimeType(mimeType string) string {
	mimeType = strings.SplitN(mimeType, ";", 2)[0]
	parts := strings.SplitN(mimeType, "/", 2)
	if len(parts) != 2 {
		return "mp4"
	}
	return parts[1]
}

// Extract video ID from a YouTube URL.
//
// Allowed URL formats:
//		http(s?)://(www|m).youtube.com/(watch|details)?v={VIDEO_ID}
//		http(s?)://(www|m).youtube.com/v/{VIDEO_ID}
//		http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (string, error) {
	var id string
	switch url.Hostname() {
	case "www.youtube.com":
		fallthrough
	case "m.youtube.com":
		if strings.HasPrefix(url.Path, "/v/") {
			id = strings.SplitN(url.Path, "/", 3)[2]
		} else if url.Path == "/watch" || url.Path == "/details" {
			if url.Query().Has("v") {
				id = url.Query().Get("v")
			} else {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	return id, nil
}

// Extract playlist ID from a YouTube playlist URL
// (http(s?)://(www|m).youtube.com/playlist?list={PLAYLIST_ID}).
func extractPlaylistID(url *url.URL) (string, error) {
	switch url.Hostname() {
	case "www.youtube.com", "m.youtube.com":
	default:
		return "", fmt.Errorf("unrecognised hostname")
	}
	if url.Path != "/playlist" {
		return "", fmt.Errorf("not a playlist URL")
	}
	id := url.Query().Get("list")
	if id == "" {
		return "", fmt.Errorf("missing ?list= query parameter")
	}
	return id, nil
}

func init() {
	ytgrab.DefaultProviderRegistry.MustAdd(New(DefaultConfig()))
}
