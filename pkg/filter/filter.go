// Package filter decides which staged paths are left out of the diff text.
package filter

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
)

// lockFileNames are dependency lock files matched on the lowercased base name
var lockFileNames = []string{
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
	"cargo.lock",
}

// builtinPatterns are matched against the lowercased, slash-separated path
var builtinPatterns = []string{
	// lock files
	"**.lock",
	// generated assets
	"**.map",
	"**.min.js",
	"**.min.css",
	// binary and media
	"**.png", "**.jpg", "**.jpeg", "**.gif", "**.webp",
	"**.avif", "**.bmp", "**.ico", "**.svg",
	// build output
	"dist/**",
	"build/**",
}

// Filter holds the compiled skip patterns. The zero value skips nothing;
// use New to get the built-in rules.
type Filter struct {
	builtin []glob.Glob
	names   map[string]struct{}
	extra   []glob.Glob
	// extraBase holds user patterns without a slash, matched on the base name
	extraBase []glob.Glob
}

// New compiles the built-in rules plus any extra user patterns. Extra
// patterns use glob syntax; those without a "/" match the file name only.
func New(extra ...string) (*Filter, error) {
	f := &Filter{names: make(map[string]struct{}, len(lockFileNames))}

	for _, p := range builtinPatterns {
		f.builtin = append(f.builtin, glob.MustCompile(p, '/'))
	}
	for _, n := range lockFileNames {
		f.names[n] = struct{}{}
	}

	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid exclude pattern %q", p)
		}
		if strings.Contains(p, "/") {
			f.extra = append(f.extra, g)
		} else {
			f.extraBase = append(f.extraBase, g)
		}
	}

	return f, nil
}

// Default returns a filter with only the built-in rules
func Default() *Filter {
	f, _ := New()
	return f
}

// IsSkippable reports whether path should be left out of the diff text.
// It depends only on the path.
func (f *Filter) IsSkippable(p string) bool {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
	lower := strings.ToLower(p)
	base := path.Base(lower)

	if _, ok := f.names[base]; ok {
		return true
	}
	for _, g := range f.builtin {
		if g.Match(lower) {
			return true
		}
	}

	for _, g := range f.extra {
		if g.Match(p) {
			return true
		}
	}
	for _, g := range f.extraBase {
		if g.Match(path.Base(p)) {
			return true
		}
	}

	return false
}

// Partition splits items into kept and skipped by their path, preserving order
func Partition[T any](f *Filter, items []T, pathOf func(T) string) (kept, skipped []T) {
	for _, it := range items {
		if f.IsSkippable(pathOf(it)) {
			skipped = append(skipped, it)
		} else {
			kept = append(kept, it)
		}
	}
	return kept, skipped
}
