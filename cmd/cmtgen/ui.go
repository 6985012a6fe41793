package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/johnstilia/cmtgen/pkg/pipeline"
	"github.com/johnstilia/cmtgen/pkg/tokenizer"
)

// Common color palette for consistent styling
var (
	colorPrimary = lipgloss.Color("#00afd7")
	colorSuccess = lipgloss.Color("#5fd700")
	colorWarning = lipgloss.Color("#ffaf00")
	colorError   = lipgloss.Color("#ff5f5f")
	colorMuted   = lipgloss.Color("#808080")
)

type styles struct {
	color   bool
	title   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, success: plain, warn: plain, err: plain, muted: plain, box: plain}
	}
	return styles{
		color:   true,
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		success: lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		warn:    lipgloss.NewStyle().Foreground(colorWarning),
		err:     lipgloss.NewStyle().Bold(true).Foreground(colorError),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type action int

const (
	actionAccept action = iota
	actionHint
	actionQuit
)

// parseAction accepts the first letter or the full word; empty accepts
func parseAction(s string) (action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a", "accept", "y", "yes":
		return actionAccept, true
	case "h", "hint":
		return actionHint, true
	case "q", "quit", "n", "no":
		return actionQuit, true
	default:
		return 0, false
	}
}

type ui struct {
	out io.Writer
	in  *bufio.Reader
	st  styles
}

func newUI(out io.Writer, in io.Reader, color bool) *ui {
	return &ui{out: out, in: bufio.NewReader(in), st: newStyles(color)}
}

// statsLines describes the change set; excluded files are still counted
func statsLines(res *pipeline.Result, budget tokenizer.Budget) []string {
	lines := []string{fmt.Sprintf("%d files changed, +%d -%d",
		res.Stats.FilesChanged, res.Stats.Insertions, res.Stats.Deletions)}

	if n := len(res.Excluded); n > 0 {
		lines = append(lines, fmt.Sprintf("%d excluded from the diff: %s", n, summarizePaths(res.Excluded, 3)))
	}
	if res.HasUnstagedRemainder {
		lines = append(lines, "unstaged changes are not included")
	}
	if res.Tightened {
		lines = append(lines, fmt.Sprintf("large change set: context %d lines, at most %d lines per file",
			res.Truncation.ContextLines, res.Truncation.MaxLinesPerFile))
	}
	if res.Analysis != nil && res.Analysis.Suggestion != nil {
		s := res.Analysis.Suggestion
		lines = append(lines, fmt.Sprintf("suggested type: %s (%s)", s.Type, s.Confidence))
	}
	lines = append(lines, fmt.Sprintf("prompt: ~%d tokens of %d", budget.Tokens, budget.Limit))

	return lines
}

func summarizePaths(paths []string, limit int) string {
	if len(paths) <= limit {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:limit], ", "), len(paths)-limit)
}

func (u *ui) stats(res *pipeline.Result, budget tokenizer.Budget) {
	fmt.Fprintln(u.out, u.st.title.Render("Staged changes"))
	for i, line := range statsLines(res, budget) {
		style := u.st.muted
		if i == 0 {
			style = lipgloss.NewStyle()
		}
		if strings.HasPrefix(line, "prompt:") && budget.Exceeded() {
			style = u.st.warn
		}
		fmt.Fprintln(u.out, "  "+style.Render(line))
	}
	fmt.Fprintln(u.out)
}

// rawDiff prints untouched text: styling would expand tabs
func (u *ui) rawDiff(res *pipeline.Result) {
	fmt.Fprintln(u.out, u.st.title.Render("Analysis"))
	fmt.Fprintln(u.out, res.AnalysisMarkdown)
	fmt.Fprintln(u.out, u.st.title.Render("Diff sent to the model"))
	fmt.Fprintln(u.out, res.DiffText)
}

func (u *ui) progress(msg string) {
	fmt.Fprintln(u.out, u.st.muted.Render(msg))
}

func (u *ui) success(msg string) {
	fmt.Fprintln(u.out, u.st.success.Render("✓ "+msg))
}

func (u *ui) warn(msg string) {
	fmt.Fprintln(u.out, u.st.warn.Render(msg))
}

// message prints the commit message; plain output carries nothing else
func (u *ui) message(msg string, plain bool) {
	if plain || !u.st.color {
		fmt.Fprintln(u.out, msg)
		return
	}
	fmt.Fprintln(u.out, u.st.box.Render(msg))
}

// ask repeats the question until it gets a known answer
func (u *ui) ask() (action, error) {
	for {
		fmt.Fprint(u.out, u.st.title.Render("[a]ccept / [h]int / [q]uit: "))
		line, err := readLine(u.in)
		if err != nil {
			return 0, err
		}
		if act, ok := parseAction(line); ok {
			return act, nil
		}
		fmt.Fprintln(u.out, u.st.warn.Render("please answer a, h or q"))
	}
}

func (u *ui) readHint() (string, error) {
	fmt.Fprint(u.out, u.st.title.Render("Hint: "))
	return readLine(u.in)
}
