package prompt

import (
	"fmt"
	"strings"

	"github.com/johnstilia/cmtgen/pkg/commit"
)

// conventionalRules is a condensed form of Conventional Commits 1.0.0
const conventionalRules = `Conventional Commits rules:

1. The subject line is <type>[optional scope]: <description>.
2. The description is written in the imperative mood, present tense, starts
   lowercase and has no trailing period.
3. A scope is a short noun naming the affected component. Leave it empty when
   no single component dominates the change.
4. Breaking changes are described in the "breaking" field.
5. Details are optional. When present they are short "- " bullets explaining
   what changed and why, and never repeat the subject.`

// replySchema describes the JSON object the model must return
const replySchema = `Reply with a single JSON object and nothing else:
{
  "type": "<one of the types above>",
  "scope": "<component or empty string>",
  "subject": "<imperative description, at most 72 characters>",
  "details": "<optional bullet list or empty string>",
  "issues": "<optional issue references such as #123, or empty string>",
  "breaking": "<optional description of a breaking change, or empty string>"
}`

// System returns the system prompt. hint is optional user guidance for this
// particular commit.
func System(hint string) string {
	parts := []string{
		"You are an expert developer who writes clear, concise git commit messages.",
		"Read the pre-analysis and the staged diff, then describe the change as a conventional commit.",
		conventionalRules,
		"Choose the type that best describes the change:\n" + typeList(),
		replySchema,
	}

	if hint = strings.TrimSpace(hint); hint != "" {
		parts = append(parts, fmt.Sprintf("Additional context from the author, take it into account:\n%s", hint))
	}

	return strings.Join(parts, "\n\n") + "\n"
}

func typeList() string {
	var b strings.Builder
	for _, t := range commit.Types {
		fmt.Fprintf(&b, "- %s: %s\n", t.Type, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
