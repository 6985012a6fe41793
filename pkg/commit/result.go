// Package commit holds the structured commit message returned by the model
// and the rules that normalize it before rendering.
package commit

import (
	"strings"
)

// Type is a conventional commit type
type Type string

const (
	Feat     Type = "feat"
	Fix      Type = "fix"
	Refactor Type = "refactor"
	Chore    Type = "chore"
	Docs     Type = "docs"
	Style    Type = "style"
	Test     Type = "test"
	Build    Type = "build"
	CI       Type = "ci"
	Perf     Type = "perf"
)

// Types lists every accepted type with a one-line description, in the order
// they are presented to the model.
var Types = []struct {
	Type        Type
	Description string
}{
	{Feat, "A new feature"},
	{Fix, "A bug fix"},
	{Refactor, "A code change that neither fixes a bug nor adds a feature"},
	{Perf, "A code change that improves performance"},
	{Style, "Changes that do not affect the meaning of the code (whitespace, formatting, etc)"},
	{Docs, "Documentation only changes"},
	{Test, "Adding missing tests or correcting existing tests"},
	{Build, "Changes that affect the build system or external dependencies"},
	{CI, "Changes to CI configuration files and scripts"},
	{Chore, "Other changes that don't modify source or test files"},
}

// typeCorrections maps common model misspellings to a valid type
var typeCorrections = map[string]Type{
	"feature":       Feat,
	"features":      Feat,
	"bugfix":        Fix,
	"hotfix":        Fix,
	"document":      Docs,
	"documentation": Docs,
	"doc":           Docs,
	"styling":       Style,
	"refactoring":   Refactor,
	"performance":   Perf,
	"testing":       Test,
	"tests":         Test,
	"building":      Build,
	"maintenance":   Chore,
}

// Valid reports whether t is one of the accepted types
func (t Type) Valid() bool {
	for _, known := range Types {
		if known.Type == t {
			return true
		}
	}
	return false
}

// ParseType lowercases s, fixes common misspellings and reports whether the
// result is a valid type.
func ParseType(s string) (Type, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, "!")
	if corrected, ok := typeCorrections[t]; ok {
		return corrected, true
	}
	return Type(t), Type(t).Valid()
}

// StructuredResult is the model's answer. Empty optional fields are absent.
type StructuredResult struct {
	Type     Type   `json:"type"`
	Subject  string `json:"subject"`
	Details  string `json:"details,omitempty"`
	Issues   string `json:"issues,omitempty"`
	Breaking string `json:"breaking,omitempty"`
	Scope    string `json:"scope,omitempty"`
}
