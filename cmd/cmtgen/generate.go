package main

import (
	"bufio"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/johnstilia/cmtgen/pkg/ai"
	"github.com/johnstilia/cmtgen/pkg/config"
	"github.com/johnstilia/cmtgen/pkg/git"
	"github.com/johnstilia/cmtgen/pkg/logger"
	"github.com/johnstilia/cmtgen/pkg/pipeline"
	"github.com/johnstilia/cmtgen/pkg/templates"
	"github.com/johnstilia/cmtgen/pkg/tokenizer"
)

const (
	// breakerFailures consecutive failed calls open the circuit for breakerCooldown
	breakerFailures = 3
	breakerCooldown = 30 * time.Second
	retryBackoff    = time.Second
)

// flagKeys maps generate flags onto configuration keys
var flagKeys = map[string]string{
	"debug":                "ai.debug",
	"model":                "ai.model",
	"temperature":          "ai.temperature",
	"reasoning":            "ai.reasoning_depth",
	"timeout":              "ai.timeout_seconds",
	"context-lines":        "diff.context_lines",
	"max-lines-per-file":   "diff.max_lines_per_file",
	"max-line-width":       "diff.max_line_width",
	"exclude":              "diff.exclude",
	"recent-commits-count": "context.recent_commits_count",
	"template":             "commit.template",
	"hint":                 "commit.hint",
	"message-only":         "ui.message_only",
	"no-diff-stats":        "ui.no_diff_stats",
	"show-raw-diff":        "ui.show_raw_diff",
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a commit message for the staged changes",
		Args:  cobra.NoArgs,
		RunE:  runGenerate,
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("message-only", "m", false, "Print only the final message")
	f.Bool("no-diff-stats", false, "Do not print the change summary")
	f.Bool("show-raw-diff", false, "Print the analysis and the truncated diff sent to the model")
	f.Int("context-lines", 0, "Unchanged lines around each hunk")
	f.Int("max-lines-per-file", 0, "Maximum diff lines per file")
	f.Int("max-line-width", 0, "Maximum characters per diff line")
	f.StringSlice("exclude", nil, "Extra glob patterns to leave out of the diff")
	f.String("model", "", "Model to request")
	f.Float64("temperature", 0, "Sampling temperature")
	f.String("reasoning", "", "Reasoning depth: off, minimal, low or high")
	f.Int("timeout", 0, "Seconds to wait for the model")
	f.String("hint", "", "Extra context for the model, e.g. the motivation for the change")
	f.StringP("template", "t", "", "Template used to render the message")
	f.Bool("no-recent-commits", false, "Leave recent commit subjects out of the prompt")
	f.Int("recent-commits-count", 0, "How many recent commit subjects to include")
	f.StringP("output", "o", "", "Also write the final message to this file")
}

// setup loads and validates the configuration and installs the logger.
// The returned function flushes the logger.
func setup(cmd *cobra.Command) (*config.Config, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configPath,
		Flags:      cmd.Flags(),
		FlagKeys:   flagKeys,
	})
	if err != nil {
		return nil, nil, err
	}
	if noHistory, err := cmd.Flags().GetBool("no-recent-commits"); err == nil && noHistory {
		cfg.Context.IncludeRecentCommits = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	_, flush, err := logger.Init(cfg.AI.Debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flush, nil
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	limits := cfg.Truncation()
	return pipeline.Options{
		ContextLines:         limits.ContextLines,
		MaxLinesPerFile:      limits.MaxLinesPerFile,
		MaxLineWidth:         limits.MaxLineWidth,
		RecentCommitsCount:   cfg.Context.RecentCommitsCount,
		IncludeRecentCommits: cfg.Context.IncludeRecentCommits,
		DocExcerptLines:      cfg.Context.DocExcerptLines,
		Hint:                 cfg.Commit.Hint,
		Exclude:              cfg.Diff.Exclude,
	}
}

func catalog(cfg *config.Config) ai.Catalog {
	c := ai.Catalog{Provider: cfg.AI.Provider, Models: cfg.AI.Models}
	if len(cfg.AI.Models) > 0 {
		c.Default = cfg.AI.Models[0]
	}
	return c
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, flush, err := setup(cmd)
	if err != nil {
		return err
	}
	defer flush()

	ctx := cmd.Context()
	log := otelzap.Ctx(ctx)
	out := newUI(cmd.OutOrStdout(), cmd.InOrStdin(), isTerminal(os.Stdout))

	// Fail on a bad model or template before touching the repository
	model, err := catalog(cfg).Resolve(cfg.AI.Model)
	if err != nil {
		return err
	}
	tm, err := templates.NewManager(cfg.Commit.TemplateDir)
	if err != nil {
		return err
	}
	if _, err := tm.Source(cfg.Commit.Template); err != nil {
		return err
	}

	repo, err := git.Open(".")
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, repo, pipelineOptions(cfg))
	if err != nil {
		return err
	}

	if !cfg.UI.MessageOnly {
		budget := tokenizer.NewCounter().Measure(cfg.AI.Provider, model, res.SystemPrompt, res.UserPrompt)
		if !cfg.UI.NoDiffStats {
			out.stats(res, budget)
		}
		if budget.Exceeded() {
			log.Warn("prompt exceeds the model's input budget",
				zap.Int("tokens", budget.Tokens), zap.Int("limit", budget.Limit))
		}
		if cfg.UI.ShowRawDiff {
			out.rawDiff(res)
		}
	}

	gen := ai.NewGuarded(cfg.AI.Provider, ai.NewCommandGenerator(cfg.AI.Provider, cfg.AI.Command), breakerFailures, breakerCooldown)
	opts := ai.Options{
		Model:       model,
		Temperature: cfg.AI.Temperature,
		Reasoning:   ai.ParseReasoningDepth(cfg.AI.ReasoningDepth),
	}
	policy := ai.Policy{
		Provider: cfg.AI.Provider,
		Timeout:  cfg.Timeout(),
		Retries:  cfg.AI.Retries,
		Backoff:  retryBackoff,
	}

	interactive := !cfg.UI.MessageOnly && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	output, _ := cmd.Flags().GetString("output")

	var hint string
	for {
		if !cfg.UI.MessageOnly {
			out.progress("Generating commit message…")
		}
		result, err := pipeline.Generate(ctx, gen, res, hint, opts, policy)
		if err != nil {
			return err
		}
		message, err := tm.Render(cfg.Commit.Template, result)
		if err != nil {
			return err
		}

		if !interactive {
			out.message(message, cfg.UI.MessageOnly)
			return writeOutput(output, message)
		}

		out.message(message, false)
		act, err := out.ask()
		if err != nil {
			return err
		}
		switch act {
		case actionAccept:
			if err := writeOutput(output, message); err != nil {
				return err
			}
			out.success("Message accepted")
			return nil
		case actionHint:
			if hint, err = out.readHint(); err != nil {
				return err
			}
		case actionQuit:
			out.warn("Aborted, no message kept")
			return nil
		}
	}
}

func writeOutput(path, message string) error {
	if path == "" {
		return nil
	}
	if err := os.WriteFile(path, []byte(message+"\n"), 0644); err != nil {
		return errors.Wrapf(err, "writing message to %s", path)
	}
	return nil
}

// readLine returns one trimmed line; EOF with no input is an error
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}
