package git

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// NoRepositoryError is returned when the working directory is not inside a
// git work tree.
type NoRepositoryError struct {
	Path string
}

func (e *NoRepositoryError) Error() string {
	return fmt.Sprintf("not a git repository: %s", e.Path)
}

// NoChangesError is returned when the index holds no changes against HEAD.
type NoChangesError struct {
	HasUnstaged bool
}

func (e *NoChangesError) Error() string {
	if e.HasUnstaged {
		return "no staged changes (unstaged changes are present)"
	}
	return "nothing to commit - working tree is clean"
}

// GitOperationError wraps a failure of the underlying git machinery.
type GitOperationError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *GitOperationError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *GitOperationError) Unwrap() error {
	return e.Err
}

func newNoRepositoryError(path string) error {
	return errors.WithHint(
		errors.WithStack(&NoRepositoryError{Path: path}),
		"run cmtgen from inside a git working tree",
	)
}

func newNoChangesError(hasUnstaged bool) error {
	hint := "make some changes and stage them with 'git add'"
	if hasUnstaged {
		hint = "stage the changes you want to describe with 'git add'"
	}
	return errors.WithHint(errors.WithStack(&NoChangesError{HasUnstaged: hasUnstaged}), hint)
}

func newOperationError(op, stderr string, err error) error {
	return errors.WithStack(&GitOperationError{Op: op, Stderr: stderr, Err: err})
}
