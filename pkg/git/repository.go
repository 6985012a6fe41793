package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// docCandidates are tried in order when looking for a project description
var docCandidates = []string{"README.md", "README", "README.rst", "README.txt", "readme.md"}

// ExecFunc builds the command used to invoke git
type ExecFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Repository is a handle on a git work tree. Discovery, branch and history
// are read through go-git; staged patches come from the git CLI.
type Repository struct {
	root string
	repo *gogit.Repository

	// Exec allows tests to replace process creation
	Exec ExecFunc
}

// Open finds the repository containing path, walking up parent directories.
func Open(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, newNoRepositoryError(path)
		}
		return nil, newOperationError("open", "", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no index to describe
		return nil, newNoRepositoryError(path)
	}

	return &Repository{
		root: wt.Filesystem.Root(),
		repo: repo,
		Exec: exec.CommandContext,
	}, nil
}

// Root returns the top-level directory of the work tree
func (r *Repository) Root() string {
	return r.root
}

// StagedChangeSet extracts the index-vs-HEAD change set with the given number
// of context lines around each hunk.
func (r *Repository) StagedChangeSet(ctx context.Context, contextLines int) (*ChangeSet, error) {
	logger := otelzap.Ctx(ctx)

	patch, err := r.git(ctx, "diff",
		"diff", "--cached", "--no-color", "--no-ext-diff", "-M",
		"--src-prefix=a/", "--dst-prefix=b/",
		fmt.Sprintf("--unified=%d", contextLines),
	)
	if err != nil {
		return nil, err
	}

	files, err := ParsePatch(patch)
	if err != nil {
		return nil, newOperationError("diff", "", err)
	}

	hasUnstaged, err := r.HasUnstagedChanges(ctx)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, newNoChangesError(hasUnstaged)
	}

	cs := NewChangeSet(files, hasUnstaged)
	logger.Debug("extracted staged changes",
		zap.Int("files", cs.FilesChanged),
		zap.Int("insertions", cs.Insertions),
		zap.Int("deletions", cs.Deletions),
		zap.Int("context_lines", contextLines),
		zap.Bool("unstaged_remainder", hasUnstaged))

	return cs, nil
}

// HasUnstagedChanges reports whether the work tree differs from the index
func (r *Repository) HasUnstagedChanges(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "diff", "diff", "--name-only", "--no-ext-diff")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CurrentBranch returns the checked-out branch name. Detached HEAD yields an
// empty name and detached == true. An unborn branch still reports its name.
func (r *Repository) CurrentBranch(ctx context.Context) (name string, detached bool, err error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, newOperationError("rev-parse", "", err)
	}

	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), false, nil
	}

	return "", true, nil
}

// RecentCommitSubjects returns the subject lines of up to n commits reachable
// from HEAD, newest first. An unborn branch has no history and returns nil.
func (r *Repository) RecentCommitSubjects(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, newOperationError("log", "", err)
	}

	iter, err := r.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, newOperationError("log", "", err)
	}
	defer iter.Close()

	subjects := make([]string, 0, n)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		subjects = append(subjects, strings.TrimSpace(subject))
		if len(subjects) >= n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, newOperationError("log", "", err)
	}

	return subjects, nil
}

// DocExcerpt returns the first maxLines lines of the project README, or
// false when none exists at the work tree root.
func (r *Repository) DocExcerpt(maxLines int) (string, bool) {
	for _, name := range docCandidates {
		excerpt, err := ReadExcerpt(filepath.Join(r.root, name), maxLines)
		if err == nil && strings.TrimSpace(excerpt) != "" {
			return excerpt, true
		}
	}
	return "", false
}

// ReadExcerpt reads at most maxLines lines from path
func ReadExcerpt(path string, maxLines int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < maxLines {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.Join(lines, "\n"), nil
}

// git runs a git subcommand at the work tree root and returns stdout
func (r *Repository) git(ctx context.Context, op string, args ...string) (string, error) {
	full := append([]string{"-C", r.root, "-c", "core.quotepath=off"}, args...)
	cmd := r.Exec(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", newOperationError(op, stderr.String(), err)
	}

	return stdout.String(), nil
}
