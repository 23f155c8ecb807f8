package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mwhitfield/ytgrab"
	"github.com/mwhitfield/ytgrab/async"
	"github.com/mwhitfield/ytgrab/batch"
	"github.com/mwhitfield/ytgrab/internal/history"
	"github.com/mwhitfield/ytgrab/provider/raw"
	"github.com/mwhitfield/ytgrab/provider/youtube"
)

const version = "1.0.0"

var validQualities = map[string]bool{"highest": true, "720p": true, "480p": true, "360p": true}
var validAudioFormats = map[string]bool{"mp4": true, "mp3": true}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = ytgrab.WithLogger(ctx, logger)

	app := &cli.App{
		Name:      "ytgrab",
		Usage:     "download YouTube videos or playlists with concurrent and audio-only support",
		Version:   version,
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "save downloads to `DIR` (default: from config or \"downloads\")",
			},
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "video quality: highest, 720p, 480p, 360p (default: from config or \"highest\")",
			},
			&cli.BoolFlag{
				Name:  "prefix-index",
				Usage: "prefix playlist filenames with index (default: from config or true)",
			},
			&cli.BoolFlag{
				Name:  "retry",
				Usage: "retry failed downloads (default: from config or false)",
			},
			&cli.IntFlag{
				Name:  "retry-attempts",
				Usage: "number of retry attempts (default: from config or 1)",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "delay before each retry attempt (default: from config or 0)",
			},
			&cli.IntFlag{
				Name:  "max-concurrent",
				Usage: "maximum concurrent downloads (default: from config or 4)",
			},
			&cli.BoolFlag{
				Name:  "audio-only",
				Usage: "download audio only (default: from config or false)",
			},
			&cli.StringFlag{
				Name:  "audio-format",
				Usage: "audio format for audio-only downloads: mp4, mp3 (default: from config or \"mp4\")",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "load configuration from `PATH` instead of ~/" + ytgrab.DefaultConfigFilename,
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "record batches to history database at `PATH`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL argument", 2)
			}
			opts, err := resolveOptions(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			return run(ctx, c.Args().First(), opts)
		},
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "list past download batches",
				Action: func(c *cli.Context) error {
					opts, err := resolveOptions(c)
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					return listHistory(opts)
				},
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
	case <-ctx.Done():
		logger.Warn("interrupted, waiting for in-flight downloads")
		err = <-result
	}
	if err != nil {
		logger.Fatal(err.Error())
	}
}

// resolveOptions merges hardcoded defaults, the config file, and set CLI
// flags, in that order.
func resolveOptions(c *cli.Context) (ytgrab.Options, error) {
	opts := ytgrab.DefaultOptions()

	configPath := c.String("config")
	if configPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configPath = filepath.Join(home, ytgrab.DefaultConfigFilename)
		}
	}
	if configPath != "" {
		fileOpts, err := ytgrab.LoadOptionsFile(configPath)
		if err != nil {
			return opts, err
		}
		opts = opts.Merge(fileOpts)
	}
	opts = opts.Merge(flagOptions(c))

	if opts.HistoryPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.HistoryPath = filepath.Join(home, ".ytgrab", "history.db")
		}
	}
	return opts, validateOptions(opts)
}

func flagOptions(c *cli.Context) ytgrab.PartialOptions {
	var p ytgrab.PartialOptions
	if c.IsSet("output") {
		v := c.String("output")
		p.Output = &v
	}
	if c.IsSet("quality") {
		v := c.String("quality")
		p.Quality = &v
	}
	if c.IsSet("prefix-index") {
		v := c.Bool("prefix-index")
		p.PrefixIndex = &v
	}
	if c.IsSet("retry") {
		v := c.Bool("retry")
		p.Retry = &v
	}
	if c.IsSet("retry-attempts") {
		v := c.Int("retry-attempts")
		p.RetryAttempts = &v
	}
	if c.IsSet("retry-delay") {
		v := c.Duration("retry-delay")
		p.RetryDelay = &v
	}
	if c.IsSet("max-concurrent") {
		v := c.Int("max-concurrent")
		p.MaxConcurrent = &v
	}
	if c.IsSet("audio-only") {
		v := c.Bool("audio-only")
		p.AudioOnly = &v
	}
	if c.IsSet("audio-format") {
		v := c.String("audio-format")
		p.AudioFormat = &v
	}
	if c.IsSet("history") {
		v := c.String("history")
		p.HistoryPath = &v
	}
	return p
}

func validateOptions(opts ytgrab.Options) error {
	if !validQualities[opts.Quality] {
		return fmt.Errorf("invalid quality %q", opts.Quality)
	}
	if !validAudioFormats[opts.AudioFormat] {
		return fmt.Errorf("invalid audio format %q", opts.AudioFormat)
	}
	if opts.MaxConcurrent < 1 {
		return fmt.Errorf("max-concurrent must be at least 1")
	}
	if opts.RetryAttempts < 0 {
		return fmt.Errorf("retry-attempts must not be negative")
	}
	if opts.RetryDelay < 0 {
		return fmt.Errorf("retry-delay must not be negative")
	}
	return nil
}

func newRegistry(opts ytgrab.Options) *ytgrab.ProviderRegistry {
	registry := &ytgrab.ProviderRegistry{}
	registry.MustAdd(youtube.New(youtube.Config{
		Quality:     opts.Quality,
		AudioOnly:   opts.AudioOnly,
		AudioFormat: opts.AudioFormat,
		TargetDir:   opts.Output,
		Naming:      ytgrab.NewNaming(opts.PrefixIndex),
	}))
	rawConfig := raw.NewConfig()
	rawConfig.TargetDir = opts.Output
	registry.MustAdd(rawConfig.Provider().WithPriority(ytgrab.PriorityLowest))
	return registry
}

func run(ctx context.Context, url string, opts ytgrab.Options) error {
	logger := ytgrab.Logger(ctx).Sugar()
	logger.Infof("Downloading from %s into %s", url, opts.Output)

	startedAt := time.Now()
	resolved, err := ytgrab.Resolve(ctx, newRegistry(opts), url)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger.Infof("Resolved %q: %d item(s)", resolved.Title, len(resolved.Items))

	bar := progressbar.Default(int64(len(resolved.Items)), "downloading")
	scheduler := batch.NewScheduler(opts.SchedulerConfig(), resolved.Executor, &barObserver{bar: bar})
	report := scheduler.Run(ctx, resolved.Items)
	_ = bar.Finish()

	report.Log(logger)
	writeHistory(opts, url, resolved.Title, startedAt, report, logger)

	if !report.AllSucceeded() {
		return cli.Exit("", 1)
	}
	return nil
}

// barObserver advances the item progress bar as attempts succeed.
type barObserver struct {
	bar *progressbar.ProgressBar
}

func (o *barObserver) AttemptStarted(batch.Item, int) {}

func (o *barObserver) AttemptFinished(outcome batch.AttemptOutcome) {
	if outcome.Succeeded() {
		_ = o.bar.Add(1)
	}
}

func writeHistory(opts ytgrab.Options, url string, title string, startedAt time.Time, report *batch.Report, logger *zap.SugaredLogger) {
	if opts.HistoryPath == "" {
		return
	}
	store, err := history.Open(opts.HistoryPath)
	if err != nil {
		logger.Warnf("failed to open history database: %v", err)
		return
	}
	defer store.Close()
	if err := store.Write(history.NewEntry(url, title, startedAt, report)); err != nil {
		logger.Warnf("failed to record batch history: %v", err)
	}
}

func listHistory(opts ytgrab.Options) error {
	if opts.HistoryPath == "" {
		return cli.Exit("no history database configured", 2)
	}
	store, err := history.Open(opts.HistoryPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open history database: %v", err), 2)
	}
	defer store.Close()
	entries, err := store.List()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read history: %v", err), 2)
	}
	if len(entries) == 0 {
		fmt.Println("no batches recorded")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-40q total=%d succeeded=%d failed=%d skipped=%d\n",
			e.StartedAt.Local().Format("2006-01-02 15:04:05"), e.Title, e.Total, e.Succeeded, e.Failed, e.Skipped)
		fmt.Printf("    %s\n", e.URL)
	}
	return nil
}
