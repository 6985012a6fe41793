package analysis

import (
	"sort"
	"strings"

	"github.com/johnstilia/cmtgen/pkg/git"
)

// ScopeShare is the fraction of churn one component must exceed to become
// the suggested scope.
const ScopeShare = 0.8

// componentRoots are the top-level directories whose children are treated
// as monorepo components
var componentRoots = map[string]bool{"packages": true, "apps": true, "libs": true}

// File is a staged file with its category
type File struct {
	git.FileChange
	Category Category
}

// CategoryCounts aggregates the files of one category
type CategoryCounts struct {
	Files      int
	Added      int
	Modified   int
	Deleted    int
	Renamed    int
	Insertions int
	Deletions  int
}

// Summary is the analysis of the files that survive filtering. Totals cover
// the whole change set, excluded files included.
type Summary struct {
	Files      []File
	Excluded   []string
	Totals     git.Stats
	Categories map[Category]*CategoryCounts
	Suggestion *Suggestion
	Scope      string
	Notes      []string
}

// Analyze categorizes kept and derives the suggestions. excluded are the
// files dropped by the filter; they only contribute to the totals.
func Analyze(kept, excluded []git.FileChange) *Summary {
	s := &Summary{
		Categories: make(map[Category]*CategoryCounts),
	}

	for _, fc := range kept {
		f := File{FileChange: fc, Category: Categorize(fc.Path)}
		s.Files = append(s.Files, f)

		counts := s.Categories[f.Category]
		if counts == nil {
			counts = &CategoryCounts{}
			s.Categories[f.Category] = counts
		}
		counts.Files++
		counts.Insertions += fc.Insertions
		counts.Deletions += fc.Deletions
		switch fc.Kind {
		case git.Added:
			counts.Added++
		case git.Deleted:
			counts.Deleted++
		case git.Renamed:
			counts.Renamed++
		default:
			counts.Modified++
		}
	}

	s.Totals = git.NewChangeSet(append(append([]git.FileChange{}, kept...), excluded...), false).Stats()
	for _, fc := range excluded {
		s.Excluded = append(s.Excluded, fc.Path)
	}

	s.Suggestion = suggest(s.Files)
	s.Scope = suggestScope(s.Files)
	s.Notes = notes(s.Files, s.Suggestion)

	return s
}

// suggestScope names the packages/, apps/ or libs/ component holding more
// than ScopeShare of the churn.
func suggestScope(files []File) string {
	total := 0
	churn := make(map[string]int)
	for _, f := range files {
		total += f.Churn()
		parts := strings.Split(f.Path, "/")
		if len(parts) < 3 || !componentRoots[parts[0]] {
			continue
		}
		churn[parts[0]+"/"+parts[1]] += f.Churn()
	}
	if len(churn) == 0 || total == 0 {
		return ""
	}

	keys := make([]string, 0, len(churn))
	for k := range churn {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if float64(churn[k]) > ScopeShare*float64(total) {
			_, name, _ := strings.Cut(k, "/")
			return strings.ToLower(name)
		}
	}
	return ""
}

// notes add context the suggestion alone does not carry
func notes(files []File, sug *Suggestion) []string {
	var out []string

	renamed := 0
	hasSource := false
	for _, f := range files {
		if f.Kind == git.Renamed {
			renamed++
		}
		if f.Category == Source {
			hasSource = true
		}
	}
	if renamed > 0 && renamed < len(files) {
		out = append(out, "Renames mixed with other changes")
	}
	if sug == nil && hasSource {
		out = append(out, "Source code modified - analyze diff for fix/feat/refactor")
	}

	return out
}
