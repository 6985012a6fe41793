// Package prompt assembles the ordered user prompt and the system prompt.
package prompt

import (
	"fmt"
	"strings"

	"github.com/johnstilia/cmtgen/pkg/git"
)

const (
	// DocExcerptLines is how much of the project README is included
	DocExcerptLines = 30

	// HistoryFilesThreshold and HistoryChangesThreshold drop the recent
	// commits section for very large change sets
	HistoryFilesThreshold   = 150
	HistoryChangesThreshold = 50000
)

// defaultBranches carry no information about the change
var defaultBranches = map[string]bool{"main": true, "master": true}

// Input is everything the assembler needs. Empty fields produce no section.
type Input struct {
	DocExcerpt    string
	Branch        string
	RecentCommits []string
	// IncludeRecentCommits is the caller's toggle for the history section
	IncludeRecentCommits bool
	Stats                git.Stats
	Analysis             string
	Diff                 string
}

// Section is one titled block of the user prompt
type Section struct {
	Name  string
	Title string
	Body  string
}

// ShouldIncludeRecentCommits reports whether the history section may appear
// for a change set of the given size.
func ShouldIncludeRecentCommits(stats git.Stats, enabled bool) bool {
	if !enabled {
		return false
	}
	return stats.FilesChanged <= HistoryFilesThreshold && stats.Changes() <= HistoryChangesThreshold
}

// ShowBranch reports whether a branch name is worth including
func ShowBranch(name string) bool {
	return name != "" && name != "HEAD" && !defaultBranches[name]
}

// Sections returns the present sections in their fixed order: project
// documentation, branch, recent commits, analysis, diff.
func Sections(in Input) []Section {
	var out []Section
	add := func(name, title, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		out = append(out, Section{Name: name, Title: title, Body: body})
	}

	add("docs", "# Project Description", strings.TrimSpace(in.DocExcerpt))

	if ShowBranch(in.Branch) {
		add("branch", "# Current Branch", in.Branch)
	}

	if ShouldIncludeRecentCommits(in.Stats, in.IncludeRecentCommits) && len(in.RecentCommits) > 0 {
		var b strings.Builder
		for _, c := range in.RecentCommits {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		add("history", "# Recent Commits", strings.TrimRight(b.String(), "\n"))
	}

	if strings.TrimSpace(in.Analysis) != "" {
		add("analysis", "# Pre-Analysis of Changes",
			"The following analysis was generated automatically from the diff.\n"+
				"Use this to inform your commit type selection, but always verify by reading the actual diff.\n\n"+
				strings.TrimRight(in.Analysis, "\n"))
	}

	if strings.TrimSpace(in.Diff) != "" {
		add("diff", "# Staged Changes", "```diff\n"+strings.TrimRight(in.Diff, "\n")+"\n```")
	}

	return out
}

// Build joins the present sections into the user prompt
func Build(in Input) string {
	sections := Sections(in)
	if len(sections) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.Title+"\n\n"+s.Body)
	}
	return strings.Join(parts, "\n\n---\n\n") + "\n"
}
