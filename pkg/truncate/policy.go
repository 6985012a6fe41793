// Package truncate bounds the size of the diff text handed to the model.
package truncate

import (
	"github.com/johnstilia/cmtgen/pkg/git"
)

const (
	// DefaultContextLines is the unchanged-line window around each hunk
	DefaultContextLines = 20
	// DefaultMaxLinesPerFile caps the emitted hunk lines of a single file
	DefaultMaxLinesPerFile = 2000
	// DefaultMaxLineWidth caps the rune width of a single emitted line
	DefaultMaxLineWidth = 500

	// LargeFilesThreshold and LargeChangesThreshold trigger tightening
	LargeFilesThreshold   = 100
	LargeChangesThreshold = 20000

	// TightContextLines and TightMaxLinesPerFile are the upper bounds applied
	// to a large change set. There is no lower bound: a context window below
	// 8 lines stays as requested, since tightening never raises a bound.
	TightContextLines    = 15
	TightMaxLinesPerFile = 500

	// Ellipsis marks a line cut at the width cap
	Ellipsis = "…"
)

// Config holds the size bounds. All values are expected to be positive.
type Config struct {
	ContextLines    int
	MaxLinesPerFile int
	MaxLineWidth    int
}

// DefaultConfig returns the untightened bounds
func DefaultConfig() Config {
	return Config{
		ContextLines:    DefaultContextLines,
		MaxLinesPerFile: DefaultMaxLinesPerFile,
		MaxLineWidth:    DefaultMaxLineWidth,
	}
}

// IsLarge reports whether the change set is big enough to tighten the bounds
func IsLarge(s git.Stats) bool {
	return s.FilesChanged > LargeFilesThreshold || s.Changes() > LargeChangesThreshold
}

// Tighten applies the large-change-set bounds once. It only ever lowers a
// bound: a context window already below the tight range is left alone.
// The second return value reports whether tightening was triggered.
func Tighten(s git.Stats, cfg Config) (Config, bool) {
	if !IsLarge(s) {
		return cfg, false
	}

	out := cfg
	out.ContextLines = min(out.ContextLines, TightContextLines)
	out.MaxLinesPerFile = min(out.MaxLinesPerFile, TightMaxLinesPerFile)

	return out, true
}
