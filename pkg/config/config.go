package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/johnstilia/cmtgen/pkg/truncate"
)

const (
	// GlobalFileName lives in the user's home directory
	GlobalFileName = ".cmtgenrc"
	// ProjectFileName is looked up from the working directory upwards
	ProjectFileName = ".cmtgen.yaml"
	// EnvPrefix prefixes every environment override, e.g. CMTGEN_AI_MODEL
	EnvPrefix = "CMTGEN"
)

// Config represents the application configuration
type Config struct {
	// Model backend configuration
	AI struct {
		// Command is the generator program and its arguments
		Command        []string `yaml:"command" mapstructure:"command"`
		Provider       string   `yaml:"provider" mapstructure:"provider" validate:"required"`
		Model          string   `yaml:"model" mapstructure:"model"`
		Models         []string `yaml:"models,omitempty" mapstructure:"models"` // Known models; empty accepts any
		Temperature    float64  `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
		ReasoningDepth string   `yaml:"reasoning_depth" mapstructure:"reasoning_depth"` // off, minimal, low or high; unknown values mean low
		TimeoutSeconds int      `yaml:"timeout_seconds" mapstructure:"timeout_seconds" validate:"gte=1,lte=3600"`
		Retries        int      `yaml:"retries" mapstructure:"retries" validate:"gte=0,lte=10"`
		Debug          bool     `yaml:"debug,omitempty" mapstructure:"debug"` // Debug-level logging of prompts and replies
	} `yaml:"ai" mapstructure:"ai"`

	// Diff extraction and truncation
	Diff struct {
		ContextLines    int      `yaml:"context_lines" mapstructure:"context_lines" validate:"gte=0,lte=1000"`
		MaxLinesPerFile int      `yaml:"max_lines_per_file" mapstructure:"max_lines_per_file" validate:"gte=1"`
		MaxLineWidth    int      `yaml:"max_line_width" mapstructure:"max_line_width" validate:"gte=1"`
		Exclude         []string `yaml:"exclude,omitempty" mapstructure:"exclude"` // Extra glob patterns to leave out of the prompt
	} `yaml:"diff" mapstructure:"diff"`

	// Additional context to provide to the model
	Context struct {
		IncludeRecentCommits bool `yaml:"include_recent_commits" mapstructure:"include_recent_commits"`
		RecentCommitsCount   int  `yaml:"recent_commits_count" mapstructure:"recent_commits_count" validate:"gte=0,lte=100"`
		DocExcerptLines      int  `yaml:"doc_excerpt_lines" mapstructure:"doc_excerpt_lines" validate:"gte=0,lte=500"`
	} `yaml:"context" mapstructure:"context"`

	// Commit message rendering
	Commit struct {
		Template    string `yaml:"template" mapstructure:"template" validate:"required"`
		TemplateDir string `yaml:"template_dir,omitempty" mapstructure:"template_dir"`
		Hint        string `yaml:"hint,omitempty" mapstructure:"hint"`
	} `yaml:"commit" mapstructure:"commit"`

	// User interface configuration
	UI struct {
		MessageOnly bool `yaml:"message_only" mapstructure:"message_only"`   // Print only the final message
		NoDiffStats bool `yaml:"no_diff_stats" mapstructure:"no_diff_stats"` // Hide the change summary
		ShowRawDiff bool `yaml:"show_raw_diff" mapstructure:"show_raw_diff"` // Print the truncated diff sent to the model
	} `yaml:"ui" mapstructure:"ui"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{}

	// Default AI settings
	cfg.AI.Provider = "command"
	cfg.AI.Temperature = 0.3
	cfg.AI.ReasoningDepth = "low"
	cfg.AI.TimeoutSeconds = 120
	cfg.AI.Retries = 1

	// Default diff settings
	cfg.Diff.ContextLines = truncate.DefaultContextLines
	cfg.Diff.MaxLinesPerFile = truncate.DefaultMaxLinesPerFile
	cfg.Diff.MaxLineWidth = truncate.DefaultMaxLineWidth

	// Default context settings
	cfg.Context.IncludeRecentCommits = true
	cfg.Context.RecentCommitsCount = 10
	cfg.Context.DocExcerptLines = 30

	cfg.Commit.Template = "conventional"
	cfg.Commit.TemplateDir = defaultTemplateDir()

	return cfg
}

func defaultTemplateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cmtgen", "templates")
}

// Truncation returns the diff limits as a truncation config
func (c *Config) Truncation() truncate.Config {
	return truncate.Config{
		ContextLines:    c.Diff.ContextLines,
		MaxLinesPerFile: c.Diff.MaxLinesPerFile,
		MaxLineWidth:    c.Diff.MaxLineWidth,
	}
}

// ParseConfig parses a configuration from YAML data
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}

	return cfg, nil
}

// LoadConfigFromPath loads configuration from a single file.
// If the file doesn't exist, returns default configuration
func LoadConfigFromPath(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "reading %s", configPath)
	}

	return ParseConfig(data)
}

// SaveExampleConfig saves an example configuration to the given path
func SaveExampleConfig(path string) error {
	cfg := DefaultConfig()

	// Example values
	cfg.AI.Command = []string{"llm", "--no-stream", "-m", "gpt-4o-mini"}
	cfg.AI.Provider = "llm"
	cfg.AI.Model = "gpt-4o-mini"
	cfg.AI.Models = []string{"gpt-4o-mini", "gpt-4o", "claude-3-5-haiku"}
	cfg.Diff.Exclude = []string{"vendor/**", "**/*.pb.go"}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding example configuration")
	}

	withComments := `# cmtgen configuration file
# ai.command receives a JSON request on stdin and prints the commit message
# (JSON object or "type(scope): subject" text) on stdout.
# Every key can be overridden with CMTGEN_<SECTION>_<KEY>, e.g. CMTGEN_AI_MODEL.

` + string(data)

	if err := os.WriteFile(path, []byte(withComments), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
