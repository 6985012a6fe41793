package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.Diff.ContextLines)
	assert.Equal(t, 2000, cfg.Diff.MaxLinesPerFile)
	assert.Equal(t, 500, cfg.Diff.MaxLineWidth)
	assert.True(t, cfg.Context.IncludeRecentCommits)
	assert.Equal(t, 10, cfg.Context.RecentCommitsCount)
	assert.Equal(t, "conventional", cfg.Commit.Template)
	assert.InDelta(t, 0.3, cfg.AI.Temperature, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := ParseConfig([]byte("diff:\n  context_lines: 5\nui:\n  message_only: true\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Diff.ContextLines)
	assert.Equal(t, 2000, cfg.Diff.MaxLinesPerFile)
	assert.True(t, cfg.UI.MessageOnly)
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	_, err := ParseConfig([]byte("diff: [unterminated"))
	assert.Error(t, err)
}

func TestLoadConfigFromMissingPath(t *testing.T) {
	cfg, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveExampleConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), GlobalFileName)
	require.NoError(t, SaveExampleConfig(path))

	cfg, err := LoadConfigFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"llm", "--no-stream", "-m", "gpt-4o-mini"}, cfg.AI.Command)
	assert.NoError(t, cfg.Validate())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadLayering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "sub", "dir")
	require.NoError(t, os.MkdirAll(work, 0o755))

	writeFile(t, filepath.Join(home, GlobalFileName), "ai:\n  model: global-model\n  retries: 3\ndiff:\n  context_lines: 12\n")
	writeFile(t, filepath.Join(project, ProjectFileName), "diff:\n  context_lines: 8\n  exclude: [\"gen/**\"]\n")

	t.Run("files", func(t *testing.T) {
		cfg, err := Load(LoadOptions{WorkDir: work, HomeDir: home})
		require.NoError(t, err)

		assert.Equal(t, "global-model", cfg.AI.Model)
		assert.Equal(t, 3, cfg.AI.Retries)
		assert.Equal(t, 8, cfg.Diff.ContextLines, "project file wins over global")
		assert.Equal(t, []string{"gen/**"}, cfg.Diff.Exclude)
		assert.Equal(t, 500, cfg.Diff.MaxLineWidth)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CMTGEN_DIFF_CONTEXT_LINES", "4")
		t.Setenv("CMTGEN_AI_COMMAND", "llm -m small")

		cfg, err := Load(LoadOptions{WorkDir: work, HomeDir: home})
		require.NoError(t, err)

		assert.Equal(t, 4, cfg.Diff.ContextLines)
		assert.Equal(t, []string{"llm", "-m", "small"}, cfg.AI.Command)
	})

	t.Run("flags", func(t *testing.T) {
		t.Setenv("CMTGEN_DIFF_CONTEXT_LINES", "4")

		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.Int("context-lines", 20, "")
		fs.String("model", "", "")
		require.NoError(t, fs.Parse([]string{"--context-lines", "2"}))

		cfg, err := Load(LoadOptions{
			WorkDir:  work,
			HomeDir:  home,
			Flags:    fs,
			FlagKeys: map[string]string{"context-lines": "diff.context_lines", "model": "ai.model"},
		})
		require.NoError(t, err)

		assert.Equal(t, 2, cfg.Diff.ContextLines)
		assert.Equal(t, "global-model", cfg.AI.Model, "unset flag does not override")
	})
}

func TestLoadDotEnv(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ".env"), "CMTGEN_CONTEXT_RECENT_COMMITS_COUNT=3\n")
	t.Cleanup(func() { os.Unsetenv("CMTGEN_CONTEXT_RECENT_COMMITS_COUNT") })

	cfg, err := Load(LoadOptions{WorkDir: work, HomeDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Context.RecentCommitsCount)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ProjectFileName), "diff: [oops")

	_, err := Load(LoadOptions{WorkDir: work, HomeDir: t.TempDir()})
	assert.ErrorContains(t, err, ProjectFileName)
}

func TestFindProjectFile(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	_, ok := FindProjectFile(deep)
	assert.False(t, ok)

	writeFile(t, filepath.Join(root, "a", ProjectFileName), "")
	p, ok := FindProjectFile(deep)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", ProjectFileName), p)
}

func TestValidateAcceptsAnyReasoningDepth(t *testing.T) {
	for _, depth := range []string{"none", "disabled", "min", "max", "HIGH", "extreme", ""} {
		t.Run(depth, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AI.ReasoningDepth = depth
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestTruncation(t *testing.T) {
	cfg, err := ParseConfig([]byte("diff:\n  context_lines: 7\n  max_lines_per_file: 300\n  max_line_width: 120\n"))
	require.NoError(t, err)

	got := cfg.Truncation()
	assert.Equal(t, 7, got.ContextLines)
	assert.Equal(t, 300, got.MaxLinesPerFile)
	assert.Equal(t, 120, got.MaxLineWidth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"negative context", func(c *Config) { c.Diff.ContextLines = -1 }, []string{"diff.context_lines"}},
		{"zero width", func(c *Config) { c.Diff.MaxLineWidth = 0 }, []string{"diff.max_line_width"}},
		{"temperature", func(c *Config) { c.AI.Temperature = 3 }, []string{"ai.temperature"}},
		{"several at once", func(c *Config) {
			c.Commit.Template = ""
			c.AI.Retries = 99
		}, []string{"commit.template", "ai.retries"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			for _, key := range tt.want {
				assert.Contains(t, err.Error(), key)
			}
		})
	}
}
