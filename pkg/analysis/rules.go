package analysis

import (
	"fmt"

	"github.com/johnstilia/cmtgen/pkg/commit"
	"github.com/johnstilia/cmtgen/pkg/git"
)

// Confidence grades a suggested commit type
type Confidence int

const (
	Weak Confidence = iota
	Strong
)

func (c Confidence) String() string {
	if c == Strong {
		return "strong"
	}
	return "weak"
}

// Suggestion is a heuristic commit type with the reason it was chosen
type Suggestion struct {
	Type       commit.Type
	Confidence Confidence
	Reason     string
}

// rule is one row of the suggestion table. match returns the reason when
// the rule applies.
type rule struct {
	typ        commit.Type
	confidence Confidence
	match      func(files []File) (string, bool)
}

// rules are evaluated top to bottom; the first match wins. A new source file
// alongside a rename therefore suggests feat, not refactor.
var rules = []rule{
	{commit.Docs, Strong, allIn(Docs, "All changes are in documentation files")},
	{commit.CI, Strong, allIn(CI, "All changes are in CI/CD configuration")},
	{commit.Test, Strong, allIn(Test, "All changes are in test files")},
	{commit.Build, Strong, allIn(Build, "All changes are in build configuration")},
	{commit.Chore, Strong, allIn(Config, "All changes are in configuration/dependency files")},
	{commit.Refactor, Strong, allPureRenames},
	{commit.Feat, Weak, addedSource},
	{commit.Refactor, Weak, onlyRemovals},
}

// suggest runs the rule table
func suggest(files []File) *Suggestion {
	for _, r := range rules {
		if reason, ok := r.match(files); ok {
			return &Suggestion{Type: r.typ, Confidence: r.confidence, Reason: reason}
		}
	}
	return nil
}

func allIn(c Category, reason string) func([]File) (string, bool) {
	return func(files []File) (string, bool) {
		if len(files) == 0 {
			return "", false
		}
		for _, f := range files {
			if f.Category != c {
				return "", false
			}
		}
		return reason, true
	}
}

func allPureRenames(files []File) (string, bool) {
	if len(files) == 0 {
		return "", false
	}
	for _, f := range files {
		if !f.IsPureRename() {
			return "", false
		}
	}
	return fmt.Sprintf("All %d files were renamed without content changes", len(files)), true
}

func addedSource(files []File) (string, bool) {
	n := 0
	for _, f := range files {
		if f.Category == Source && f.Kind == git.Added {
			n++
		}
	}
	if n == 0 {
		return "", false
	}
	return fmt.Sprintf("%d new source files added", n), true
}

func onlyRemovals(files []File) (string, bool) {
	var insertions, deletions, deleted int
	for _, f := range files {
		insertions += f.Insertions
		deletions += f.Deletions
		if f.Kind == git.Deleted {
			deleted++
		}
	}
	if len(files) == 0 || insertions > 0 || (deletions == 0 && deleted == 0) {
		return "", false
	}
	return "Only removals, no lines added", true
}
