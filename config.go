package ytgrab

import (
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mwhitfield/ytgrab/batch"
	"github.com/mwhitfield/ytgrab/util"
)

// DefaultConfigFilename is looked up in the user's home directory when no
// --config flag is given.
const DefaultConfigFilename = ".ytgrab.yaml"

// Options is the fully resolved configuration for one invocation. Values are
// merged as: hardcoded defaults, then config file, then CLI flags.
type Options struct {
	Output        string
	Quality       string
	PrefixIndex   bool
	Retry         bool
	RetryAttempts int
	RetryDelay    time.Duration
	MaxConcurrent int
	AudioOnly     bool
	AudioFormat   string
	HistoryPath   string
}

func DefaultOptions() Options {
	return Options{
		Output:        "downloads",
		Quality:       "highest",
		PrefixIndex:   true,
		Retry:         false,
		RetryAttempts: 1,
		RetryDelay:    0,
		MaxConcurrent: 4,
		AudioOnly:     false,
		AudioFormat:   "mp4",
	}
}

// SchedulerConfig maps the resolved options onto the batch scheduler's knobs.
func (o Options) SchedulerConfig() batch.Config {
	return batch.Config{
		MaxConcurrent: o.MaxConcurrent,
		Retry:         batch.Policy{Enabled: o.Retry, Attempts: o.RetryAttempts},
		RetryDelay:    o.RetryDelay,
	}
}

// PartialOptions is one layer of configuration (a config file or the set CLI
// flags); nil fields mean "not specified at this layer".
type PartialOptions struct {
	Output        *string        `yaml:"output"`
	Quality       *string        `yaml:"quality"`
	PrefixIndex   *bool          `yaml:"prefix_index"`
	Retry         *bool          `yaml:"retry"`
	RetryAttempts *int           `yaml:"retry_attempts"`
	RetryDelay    *time.Duration `yaml:"retry_delay"`
	MaxConcurrent *int           `yaml:"max_concurrent"`
	AudioOnly     *bool          `yaml:"audio_only"`
	AudioFormat   *string        `yaml:"audio_format"`
	HistoryPath   *string        `yaml:"history"`
}

// Merge returns a copy of o with every specified field of p applied. Pure:
// neither receiver nor argument is modified.
func (o Options) Merge(p PartialOptions) Options {
	if p.Output != nil {
		o.Output = *p.Output
	}
	if p.Quality != nil {
		o.Quality = *p.Quality
	}
	if p.PrefixIndex != nil {
		o.PrefixIndex = *p.PrefixIndex
	}
	if p.Retry != nil {
		o.Retry = *p.Retry
	}
	if p.RetryAttempts != nil {
		o.RetryAttempts = *p.RetryAttempts
	}
	if p.RetryDelay != nil {
		o.RetryDelay = *p.RetryDelay
	}
	if p.MaxConcurrent != nil {
		o.MaxConcurrent = *p.MaxConcurrent
	}
	if p.AudioOnly != nil {
		o.AudioOnly = *p.AudioOnly
	}
	if p.AudioFormat != nil {
		o.AudioFormat = *p.AudioFormat
	}
	if p.HistoryPath != nil {
		o.HistoryPath = *p.HistoryPath
	}
	return o
}

// LoadOptionsFile reads a YAML config file layer. A missing file is not an
// error, it is just an empty layer.
func LoadOptionsFile(path string) (PartialOptions, error) {
	var p PartialOptions
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	} else if err != nil {
		return p, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse config file: %w", err)
	}
	return p, nil
}

const defaultNameTemplate = "{{.Title}}.{{.Ext}}"

// Naming decides the relative target filename for each item.
type Naming struct {
	// PrefixIndex prefixes playlist item filenames with their 1-based index.
	PrefixIndex bool
	template    *template.Template
}

func NewNaming(prefixIndex bool) Naming {
	return Naming{
		PrefixIndex: prefixIndex,
		template:    template.Must(template.New("target_file").Parse(defaultNameTemplate)),
	}
}

type nameTemplateArgs struct {
	Title string
	Ext   string
}

// TargetPath renders the sanitized filename for an item. indexed should be
// true for items that are part of a multi-item batch.
func (n Naming) TargetPath(item batch.Item, ext string, indexed bool) (string, error) {
	args := nameTemplateArgs{
		Title: util.SanitizeFilename(item.DisplayName),
		Ext:   strings.TrimPrefix(ext, "."),
	}
	builder := strings.Builder{}
	if err := n.template.Execute(&builder, &args); err != nil {
		return "", err
	}
	name := builder.String()
	if indexed && n.PrefixIndex {
		name = fmt.Sprintf("%02d_%s", item.ID, name)
	}
	return name, nil
}
