// Package analysis derives heuristic hints from a staged change set: a
// category per file, a suggested commit type and an optional scope.
package analysis

import (
	"path"
	"strings"
)

// Category is the coarse purpose of a file
type Category string

const (
	Source Category = "source"
	Test   Category = "test"
	Docs   Category = "docs"
	Config Category = "config"
	CI     Category = "ci"
	Build  Category = "build"
	Other  Category = "other"
)

// Categories is the display order used in summaries
var Categories = []Category{Source, Test, Docs, Config, Build, CI, Other}

var sourceExtensions = toSet(
	"rs", "go", "py", "js", "ts", "tsx", "jsx", "mjs", "cjs", "java", "kt", "scala",
	"c", "cpp", "cc", "cxx", "h", "hpp", "cs", "rb", "php", "swift", "m", "mm",
	"zig", "nim", "lua", "r", "sql", "sh", "bash", "zsh", "fish", "ps1", "pl", "pm",
	"ex", "exs", "erl", "hrl", "hs", "ml", "mli", "fs", "fsi", "fsx",
	"clj", "cljs", "cljc", "elm", "vue", "svelte", "dart",
)

var testDirs = toSet("test", "tests", "spec")

var configExtensions = toSet("json", "yaml", "yml", "toml")

// Categorize assigns a category by path alone. The checks run in precedence
// order and the first match wins.
func Categorize(p string) Category {
	lower := strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	segments := strings.Split(lower, "/")
	name := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]
	ext := strings.TrimPrefix(path.Ext(name), ".")

	switch {
	case isTest(dirs, name):
		return Test
	case sourceExtensions[ext]:
		return Source
	case isDocs(dirs, name, ext):
		return Docs
	case isCI(lower, name):
		return CI
	case isBuild(name):
		return Build
	case configExtensions[ext] || name == "cargo.toml" || name == "package.json":
		return Config
	default:
		return Other
	}
}

func isTest(dirs []string, name string) bool {
	for _, d := range dirs {
		if testDirs[d] {
			return true
		}
	}
	return strings.Contains(name, "_test.") ||
		strings.Contains(name, ".test.") ||
		strings.Contains(name, ".spec.")
}

func isDocs(dirs []string, name, ext string) bool {
	if ext == "md" || ext == "rst" {
		return true
	}
	if strings.HasPrefix(name, "readme") || strings.HasPrefix(name, "changelog") {
		return true
	}
	for _, d := range dirs {
		if d == "docs" {
			return true
		}
	}
	return false
}

func isCI(lower, name string) bool {
	return strings.HasPrefix(lower, ".github/workflows/") ||
		name == ".gitlab-ci.yml" ||
		name == ".travis.yml"
}

func isBuild(name string) bool {
	return name == "dockerfile" ||
		name == "makefile" ||
		name == "cmakelists.txt" ||
		strings.HasPrefix(name, "build.")
}

func toSet(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
