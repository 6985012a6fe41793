// Package pipeline turns the staged change set into the prompts handed to
// the model and post-processes the reply.
package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/johnstilia/cmtgen/pkg/ai"
	"github.com/johnstilia/cmtgen/pkg/analysis"
	"github.com/johnstilia/cmtgen/pkg/commit"
	"github.com/johnstilia/cmtgen/pkg/filter"
	"github.com/johnstilia/cmtgen/pkg/git"
	"github.com/johnstilia/cmtgen/pkg/prompt"
	"github.com/johnstilia/cmtgen/pkg/truncate"
)

// Repository is what the pipeline reads from. *git.Repository implements it.
type Repository interface {
	StagedChangeSet(ctx context.Context, contextLines int) (*git.ChangeSet, error)
	RecentCommitSubjects(ctx context.Context, n int) ([]string, error)
	CurrentBranch(ctx context.Context) (name string, detached bool, err error)
	DocExcerpt(maxLines int) (string, bool)
}

// Options are the fully resolved inputs of one run
type Options struct {
	ContextLines    int
	MaxLinesPerFile int
	MaxLineWidth    int

	RecentCommitsCount   int
	IncludeRecentCommits bool
	DocExcerptLines      int

	// Hint is extra author context placed in the system prompt
	Hint string
	// Exclude adds glob patterns to the built-in filter
	Exclude []string
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{
		ContextLines:         truncate.DefaultContextLines,
		MaxLinesPerFile:      truncate.DefaultMaxLinesPerFile,
		MaxLineWidth:         truncate.DefaultMaxLineWidth,
		RecentCommitsCount:   10,
		IncludeRecentCommits: true,
		DocExcerptLines:      prompt.DocExcerptLines,
	}
}

// Result is everything one run produced
type Result struct {
	RunID string

	// Stats covers every staged file, excluded ones included
	Stats                git.Stats
	HasUnstagedRemainder bool
	Excluded             []string

	Truncation truncate.Config
	Tightened  bool
	DiffText   string

	Analysis         *analysis.Summary
	AnalysisMarkdown string

	Branch       string
	Sections     []prompt.Section
	UserPrompt   string
	SystemPrompt string
}

// Run extracts, filters, truncates and analyzes the staged changes and
// assembles the prompts. Failures reading optional context only drop the
// affected section.
func Run(ctx context.Context, repo Repository, opts Options) (*Result, error) {
	runID := uuid.NewString()
	logger := otelzap.Ctx(ctx)

	f, err := filter.New(opts.Exclude...)
	if err != nil {
		return nil, err
	}

	requested := truncate.Config{
		ContextLines:    opts.ContextLines,
		MaxLinesPerFile: opts.MaxLinesPerFile,
		MaxLineWidth:    opts.MaxLineWidth,
	}

	cs, err := repo.StagedChangeSet(ctx, requested.ContextLines)
	if err != nil {
		return nil, err
	}
	stats := cs.Stats()

	effective, tightened := truncate.Tighten(stats, requested)
	if tightened {
		logger.Info("large change set, tightening diff bounds",
			zap.String("run_id", runID),
			zap.Int("files", stats.FilesChanged),
			zap.Int("changes", stats.Changes()),
			zap.Int("context_lines", effective.ContextLines),
			zap.Int("max_lines_per_file", effective.MaxLinesPerFile))
	}
	if effective.ContextLines < requested.ContextLines {
		cs, err = repo.StagedChangeSet(ctx, effective.ContextLines)
		if err != nil {
			return nil, err
		}
	}

	kept, skipped := filter.Partition(f, cs.Files, func(fc git.FileChange) string { return fc.Path })
	if len(kept) == 0 {
		logger.Warn("every staged file is excluded from the diff", zap.String("run_id", runID), zap.Int("excluded", len(skipped)))
	}

	res := &Result{
		RunID:                runID,
		Stats:                cs.Stats(),
		HasUnstagedRemainder: cs.HasUnstagedRemainder,
		Truncation:           effective,
		Tightened:            tightened,
		DiffText:             truncate.Render(kept, effective),
		Analysis:             analysis.Analyze(kept, skipped),
	}
	for _, fc := range skipped {
		res.Excluded = append(res.Excluded, fc.Path)
	}
	res.AnalysisMarkdown = res.Analysis.Markdown()

	in := prompt.Input{
		Stats:                res.Stats,
		IncludeRecentCommits: opts.IncludeRecentCommits,
		Analysis:             res.AnalysisMarkdown,
		Diff:                 res.DiffText,
	}

	if opts.DocExcerptLines > 0 {
		if excerpt, ok := repo.DocExcerpt(opts.DocExcerptLines); ok {
			in.DocExcerpt = excerpt
		}
	}

	branch, detached, err := repo.CurrentBranch(ctx)
	switch {
	case err != nil:
		logger.Warn("could not read the current branch", zap.String("run_id", runID), zap.Error(err))
	case !detached:
		res.Branch = branch
		in.Branch = branch
	}

	if opts.RecentCommitsCount > 0 && prompt.ShouldIncludeRecentCommits(res.Stats, opts.IncludeRecentCommits) {
		subjects, err := repo.RecentCommitSubjects(ctx, opts.RecentCommitsCount)
		if err != nil {
			logger.Warn("could not read recent commits", zap.String("run_id", runID), zap.Error(err))
		}
		in.RecentCommits = subjects
	}

	res.Sections = prompt.Sections(in)
	res.UserPrompt = prompt.Build(in)
	res.SystemPrompt = prompt.System(opts.Hint)

	logger.Debug("prompt assembled",
		zap.String("run_id", runID),
		zap.Int("sections", len(res.Sections)),
		zap.Int("excluded", len(res.Excluded)),
		zap.Int("user_prompt_bytes", len(res.UserPrompt)))

	return res, nil
}

// Finalize normalizes a raw model reply before rendering
func Finalize(raw commit.StructuredResult) commit.StructuredResult {
	return commit.Finalize(raw)
}

// Generate asks gen for a message under the caller's policy and returns the
// finalized result. hint replaces the run's hint when not empty.
func Generate(ctx context.Context, gen ai.Generator, res *Result, hint string, opts ai.Options, policy ai.Policy) (commit.StructuredResult, error) {
	if res == nil {
		return commit.StructuredResult{}, errors.AssertionFailedf("generate called without a pipeline result")
	}

	system := res.SystemPrompt
	if hint != "" {
		system = prompt.System(hint)
	}

	raw, err := ai.Call(ctx, gen, system, res.UserPrompt, opts, policy)
	if err != nil {
		return commit.StructuredResult{}, err
	}

	otelzap.Ctx(ctx).Debug("model reply",
		zap.String("run_id", res.RunID),
		zap.String("type", string(raw.Type)),
		zap.String("subject", raw.Subject))

	return Finalize(raw), nil
}
