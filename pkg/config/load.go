package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// WorkDir is where the project file search and .env lookup start
	WorkDir string
	// HomeDir holds the global file; empty uses the user's home directory
	HomeDir string
	// ConfigFile is an explicit file merged after the discovered ones
	ConfigFile string

	// Flags maps flag names in Flags to configuration keys. Only flags the
	// user actually set override the files and environment.
	Flags    *pflag.FlagSet
	FlagKeys map[string]string
}

// Load layers defaults, the global file, the nearest project file, an
// explicit file, CMTGEN_* environment variables and command-line flags,
// later layers winning.
func Load(opts LoadOptions) (*Config, error) {
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolving working directory")
		}
		opts.WorkDir = wd
	}

	if err := loadDotEnv(opts.WorkDir); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	for _, path := range configFiles(opts) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "reading configuration %s", path),
				"the file must be valid YAML",
			)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, opts.Flags, opts.FlagKeys); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}

	// A command given as one string in the environment is split on spaces
	if len(cfg.AI.Command) == 1 && strings.ContainsAny(cfg.AI.Command[0], " \t") {
		cfg.AI.Command = strings.Fields(cfg.AI.Command[0])
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides are seen even
// for keys no file mentions.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("ai.command", d.AI.Command)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.models", d.AI.Models)
	v.SetDefault("ai.temperature", d.AI.Temperature)
	v.SetDefault("ai.reasoning_depth", d.AI.ReasoningDepth)
	v.SetDefault("ai.timeout_seconds", d.AI.TimeoutSeconds)
	v.SetDefault("ai.retries", d.AI.Retries)
	v.SetDefault("ai.debug", d.AI.Debug)

	v.SetDefault("diff.context_lines", d.Diff.ContextLines)
	v.SetDefault("diff.max_lines_per_file", d.Diff.MaxLinesPerFile)
	v.SetDefault("diff.max_line_width", d.Diff.MaxLineWidth)
	v.SetDefault("diff.exclude", d.Diff.Exclude)

	v.SetDefault("context.include_recent_commits", d.Context.IncludeRecentCommits)
	v.SetDefault("context.recent_commits_count", d.Context.RecentCommitsCount)
	v.SetDefault("context.doc_excerpt_lines", d.Context.DocExcerptLines)

	v.SetDefault("commit.template", d.Commit.Template)
	v.SetDefault("commit.template_dir", d.Commit.TemplateDir)
	v.SetDefault("commit.hint", d.Commit.Hint)

	v.SetDefault("ui.message_only", d.UI.MessageOnly)
	v.SetDefault("ui.no_diff_stats", d.UI.NoDiffStats)
	v.SetDefault("ui.show_raw_diff", d.UI.ShowRawDiff)
}

// configFiles lists the existing files to merge, lowest precedence first
func configFiles(opts LoadOptions) []string {
	var files []string

	home := opts.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home != "" {
		if p := filepath.Join(home, GlobalFileName); isFile(p) {
			files = append(files, p)
		}
	}

	if p, ok := FindProjectFile(opts.WorkDir); ok {
		files = append(files, p)
	}

	if opts.ConfigFile != "" {
		files = append(files, opts.ConfigFile)
	}

	return files
}

// FindProjectFile returns the nearest .cmtgen.yaml at or above dir
func FindProjectFile(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, ProjectFileName)
		if isFile(p) {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// GlobalPath returns the location of the global configuration file
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving home directory")
	}
	return filepath.Join(home, GlobalFileName), nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	if flags == nil {
		return nil
	}
	var result error
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "binding --%s", name))
		}
	}
	return result
}

// loadDotEnv reads .env from dir without overriding variables already set
func loadDotEnv(dir string) error {
	p := filepath.Join(dir, ".env")
	if !isFile(p) {
		return nil
	}
	if err := godotenv.Load(p); err != nil {
		return errors.Wrapf(err, "reading %s", p)
	}
	return nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
