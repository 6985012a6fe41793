package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnstilia/cmtgen/pkg/git"
)

// TopFiles is how many files the markdown summary lists
const TopFiles = 20

var kindMarker = map[git.FileKind]string{
	git.Added:    "+",
	git.Deleted:  "-",
	git.Modified: "~",
	git.Renamed:  "→",
}

// Markdown renders the summary for the prompt
func (s *Summary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Change Summary\n%d files changed: +%d insertions, -%d deletions\n",
		s.Totals.FilesChanged, s.Totals.Insertions, s.Totals.Deletions)
	if len(s.Excluded) > 0 {
		fmt.Fprintf(&b, "%d files excluded from the diff (lock files, generated or binary assets)\n", len(s.Excluded))
	}

	b.WriteString("\n## Files by Category\n")
	for _, c := range Categories {
		counts, ok := s.Categories[c]
		if !ok || counts.Files == 0 {
			continue
		}
		var ops []string
		for _, op := range []struct {
			n     int
			label string
		}{
			{counts.Added, "added"},
			{counts.Modified, "modified"},
			{counts.Deleted, "deleted"},
			{counts.Renamed, "renamed"},
		} {
			if op.n > 0 {
				ops = append(ops, fmt.Sprintf("%d %s", op.n, op.label))
			}
		}
		fmt.Fprintf(&b, "- %s: %d files (%s) [+%d/-%d]\n",
			c, counts.Files, strings.Join(ops, ", "), counts.Insertions, counts.Deletions)
	}

	fmt.Fprintf(&b, "\n## Changed Files (top %d by churn)\n", TopFiles)
	files := append([]File(nil), s.Files...)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Churn() > files[j].Churn()
	})
	shown := min(TopFiles, len(files))
	for _, f := range files[:shown] {
		if f.OldPath != "" {
			fmt.Fprintf(&b, "%s %s → %s [%s]\n", kindMarker[f.Kind], f.OldPath, f.Path, f.Category)
		} else {
			fmt.Fprintf(&b, "%s %s [%s]\n", kindMarker[f.Kind], f.Path, f.Category)
		}
	}
	if len(files) > shown {
		fmt.Fprintf(&b, "+%d other files not listed\n", len(files)-shown)
	}

	b.WriteString("\n## Analysis Hints\n")
	switch {
	case s.Suggestion == nil:
		b.WriteString("No clear pattern detected - analyze the diff carefully\n")
	case s.Suggestion.Confidence == Strong:
		fmt.Fprintf(&b, "STRONG SIGNAL: This appears to be a '%s' commit\n", s.Suggestion.Type)
	default:
		fmt.Fprintf(&b, "POSSIBLE: This might be a '%s' commit\n", s.Suggestion.Type)
	}
	if s.Suggestion != nil {
		fmt.Fprintf(&b, "- %s\n", s.Suggestion.Reason)
	}
	for _, n := range s.Notes {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	if s.Scope != "" {
		fmt.Fprintf(&b, "- Most changes are in the '%s' component; consider it as the scope\n", s.Scope)
	}

	return b.String()
}
