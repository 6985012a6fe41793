package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/johnstilia/cmtgen/pkg/ai"
	"github.com/johnstilia/cmtgen/pkg/analysis"
	"github.com/johnstilia/cmtgen/pkg/commit"
	"github.com/johnstilia/cmtgen/pkg/git"
)

type fakeRepo struct {
	files      []git.FileChange
	stageErr   error
	branch     string
	detached   bool
	branchErr  error
	history    []string
	historyErr error
	readme     string

	contextRequests []int
	historyCalls    int
}

func (r *fakeRepo) StagedChangeSet(_ context.Context, contextLines int) (*git.ChangeSet, error) {
	r.contextRequests = append(r.contextRequests, contextLines)
	if r.stageErr != nil {
		return nil, r.stageErr
	}
	return git.NewChangeSet(r.files, false), nil
}

func (r *fakeRepo) RecentCommitSubjects(_ context.Context, n int) ([]string, error) {
	r.historyCalls++
	if r.historyErr != nil {
		return nil, r.historyErr
	}
	return r.history[:min(n, len(r.history))], nil
}

func (r *fakeRepo) CurrentBranch(context.Context) (string, bool, error) {
	return r.branch, r.detached, r.branchErr
}

func (r *fakeRepo) DocExcerpt(int) (string, bool) {
	return r.readme, r.readme != ""
}

func modified(path string, ins, del int) git.FileChange {
	var lines []git.DiffLine
	for i := 0; i < del; i++ {
		lines = append(lines, git.DiffLine{Kind: git.Removal, Text: fmt.Sprintf("old %d", i)})
	}
	for i := 0; i < ins; i++ {
		lines = append(lines, git.DiffLine{Kind: git.Insertion, Text: fmt.Sprintf("new %d", i)})
	}
	return git.FileChange{
		Path: path, Kind: git.Modified, Insertions: ins, Deletions: del,
		Hunks: []git.Hunk{{Header: "@@ -1 +1 @@", Lines: lines}},
	}
}

func manyFiles(n, ins, del int) []git.FileChange {
	files := make([]git.FileChange, n)
	for i := range files {
		files[i] = git.FileChange{Path: fmt.Sprintf("src/file%03d.go", i), Kind: git.Modified, Insertions: ins, Deletions: del}
	}
	return files
}

type PipelineSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *PipelineSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *PipelineSuite) TestDocsOnlyChange() {
	repo := &fakeRepo{files: []git.FileChange{modified("README.md", 10, 2)}, branch: "main"}

	res, err := Run(s.ctx, repo, DefaultOptions())
	s.Require().NoError(err)

	s.Require().NotNil(res.Analysis.Suggestion)
	s.Equal(commit.Docs, res.Analysis.Suggestion.Type)
	s.Equal(analysis.Strong, res.Analysis.Suggestion.Confidence)
	s.Empty(res.Analysis.Scope)
	s.Equal(analysis.Docs, res.Analysis.Files[0].Category)
	s.NotContains(res.UserPrompt, "# Current Branch", "default branch is omitted")
	s.False(res.Tightened)
	s.Equal([]int{20}, repo.contextRequests)
}

func (s *PipelineSuite) TestNewSourceFileSuggestsFeat() {
	repo := &fakeRepo{files: []git.FileChange{
		{Path: "src/auth/login.rs", Kind: git.Added, Insertions: 35},
		{Path: "src/auth/mod.rs", Kind: git.Modified, Insertions: 2},
	}, branch: "feature/login"}

	res, err := Run(s.ctx, repo, DefaultOptions())
	s.Require().NoError(err)

	s.Require().NotNil(res.Analysis.Suggestion)
	s.Equal(commit.Feat, res.Analysis.Suggestion.Type)
	s.Equal(analysis.Weak, res.Analysis.Suggestion.Confidence)
	s.Contains(res.UserPrompt, "# Current Branch\n\nfeature/login")
}

func (s *PipelineSuite) TestLargeChangeSetIsTightened() {
	repo := &fakeRepo{files: manyFiles(120, 200, 9), history: []string{"feat: a", "fix: b"}}

	res, err := Run(s.ctx, repo, DefaultOptions())
	s.Require().NoError(err)

	s.Equal(120, res.Stats.FilesChanged)
	s.Greater(res.Stats.Changes(), 20000)
	s.True(res.Tightened)
	s.Equal(15, res.Truncation.ContextLines)
	s.Equal(500, res.Truncation.MaxLinesPerFile)
	s.Equal(500, res.Truncation.MaxLineWidth)
	s.Equal([]int{20, 15}, repo.contextRequests, "re-extracted with the tighter context")
	s.Contains(res.UserPrompt, "# Recent Commits\n\n- feat: a\n- fix: b")
}

func (s *PipelineSuite) TestHistoryOmittedForHugeChangeSet() {
	repo := &fakeRepo{files: manyFiles(160, 1, 1), history: []string{"feat: a"}}

	opts := DefaultOptions()
	opts.IncludeRecentCommits = true
	res, err := Run(s.ctx, repo, opts)
	s.Require().NoError(err)

	s.NotContains(res.UserPrompt, "# Recent Commits")
	s.Zero(repo.historyCalls)
}

func (s *PipelineSuite) TestHistoryToggle() {
	repo := &fakeRepo{files: []git.FileChange{modified("main.go", 1, 0)}, history: []string{"feat: a"}}

	opts := DefaultOptions()
	opts.IncludeRecentCommits = false
	res, err := Run(s.ctx, repo, opts)
	s.Require().NoError(err)
	s.NotContains(res.UserPrompt, "# Recent Commits")
	s.Zero(repo.historyCalls)
}

func (s *PipelineSuite) TestExcludedFilesStillCounted() {
	repo := &fakeRepo{files: []git.FileChange{
		modified("src/app.ts", 4, 1),
		modified("package-lock.json", 300, 120),
		modified("vendor/lib.go", 7, 0),
	}}

	opts := DefaultOptions()
	opts.Exclude = []string{"vendor/**"}
	res, err := Run(s.ctx, repo, opts)
	s.Require().NoError(err)

	s.Equal(git.Stats{FilesChanged: 3, Insertions: 311, Deletions: 121}, res.Stats)
	s.Equal(res.Stats, res.Analysis.Totals)
	s.ElementsMatch([]string{"package-lock.json", "vendor/lib.go"}, res.Excluded)
	s.Contains(res.DiffText, "src/app.ts")
	s.NotContains(res.DiffText, "package-lock.json")
	s.NotContains(res.DiffText, "vendor/lib.go")
	s.Len(res.Analysis.Files, 1)
}

func (s *PipelineSuite) TestOptionalContextFailuresAreSkipped() {
	repo := &fakeRepo{
		files:      []git.FileChange{modified("main.go", 1, 0)},
		branchErr:  errors.New("broken HEAD"),
		historyErr: errors.New("corrupt object"),
		readme:     "# Demo\nA tool.",
	}

	res, err := Run(s.ctx, repo, DefaultOptions())
	s.Require().NoError(err)

	s.NotContains(res.UserPrompt, "# Current Branch")
	s.NotContains(res.UserPrompt, "# Recent Commits")
	s.Contains(res.UserPrompt, "# Project Description\n\n# Demo\nA tool.")
	s.Contains(res.UserPrompt, "# Staged Changes")
}

func (s *PipelineSuite) TestDetachedHeadHasNoBranch() {
	repo := &fakeRepo{files: []git.FileChange{modified("main.go", 1, 0)}, detached: true}

	res, err := Run(s.ctx, repo, DefaultOptions())
	s.Require().NoError(err)
	s.Empty(res.Branch)
	s.NotContains(res.UserPrompt, "# Current Branch")
}

func (s *PipelineSuite) TestExtractionErrorAborts() {
	repo := &fakeRepo{stageErr: &git.NoChangesError{}}

	_, err := Run(s.ctx, repo, DefaultOptions())
	var noChanges *git.NoChangesError
	s.True(errors.As(err, &noChanges))
}

func (s *PipelineSuite) TestHintGoesToSystemPrompt() {
	repo := &fakeRepo{files: []git.FileChange{modified("main.go", 1, 0)}}

	opts := DefaultOptions()
	opts.Hint = "ticket ABC-1"
	res, err := Run(s.ctx, repo, opts)
	s.Require().NoError(err)

	s.Contains(res.SystemPrompt, "ticket ABC-1")
	s.NotContains(res.UserPrompt, "ticket ABC-1")
	s.NotEmpty(res.RunID)
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func TestFinalize(t *testing.T) {
	got := Finalize(commit.StructuredResult{Type: commit.Fix, Subject: "Fix Login Bug.", Scope: "General"})
	assert.Equal(t, "fix login bug", got.Subject)
	assert.Empty(t, got.Scope)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{files: []git.FileChange{modified("main.go", 1, 0)}}
	res, err := Run(ctx, repo, DefaultOptions())
	require.NoError(t, err)

	var seenSystem, seenUser string
	gen := ai.GeneratorFunc(func(_ context.Context, system, user string, _ ai.Options) (commit.StructuredResult, error) {
		seenSystem, seenUser = system, user
		return commit.StructuredResult{Type: commit.Feat, Subject: "Add Greeting.", Scope: "misc"}, nil
	})

	got, err := Generate(ctx, gen, res, "", ai.Options{}, ai.Policy{})
	require.NoError(t, err)
	assert.Equal(t, commit.StructuredResult{Type: commit.Feat, Subject: "add greeting"}, got)
	assert.Equal(t, res.SystemPrompt, seenSystem)
	assert.Equal(t, res.UserPrompt, seenUser)

	_, err = Generate(ctx, gen, res, "mention the greeting", ai.Options{}, ai.Policy{})
	require.NoError(t, err)
	assert.Contains(t, seenSystem, "mention the greeting")
}
