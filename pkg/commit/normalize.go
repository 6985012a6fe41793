package commit

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// discardedScopes are placeholder scopes the model uses when it has none
var discardedScopes = map[string]bool{
	"":        true,
	"general": true,
	"misc":    true,
	"other":   true,
	"null":    true,
	"none":    true,
}

// absentValues are treated as a missing optional field
var absentValues = map[string]bool{
	"":     true,
	"null": true,
	"none": true,
	"n/a":  true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Finalize applies the normalization rules in order:
//  1. lowercase the start of the subject (see lowerSubject)
//  2. strip a single trailing period from the subject
//  3. normalize the scope, dropping placeholder values
//  4. drop detail bullets that repeat the subject
//
// It never fails, and Finalize(Finalize(r)) == Finalize(r).
func Finalize(r StructuredResult) StructuredResult {
	r.Subject = stripTrailingPeriod(lowerSubject(strings.TrimSpace(r.Subject)))
	r.Scope = normalizeScope(r.Scope)
	r.Details = dedupeDetails(r.Details, r.Subject)
	r.Issues = optional(r.Issues)
	r.Breaking = optional(r.Breaking)
	return r
}

// lowerSubject lowercases the first character of the subject and any word
// written in title case ("Login" but not "OAuth" or "API"), so a
// title-cased model reply reads like an imperative commit subject.
func lowerSubject(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if i == 0 || isTitleCase(w) {
			words[i] = lowerFirst(w)
		}
	}
	return strings.Join(words, " ")
}

func isTitleCase(w string) bool {
	first, size := utf8.DecodeRuneInString(w)
	if !unicode.IsUpper(first) {
		return false
	}
	for _, r := range w[size:] {
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func lowerFirst(w string) string {
	first, size := utf8.DecodeRuneInString(w)
	if first == utf8.RuneError || !unicode.IsUpper(first) {
		return w
	}
	return string(unicode.ToLower(first)) + w[size:]
}

// stripTrailingPeriod removes one trailing period that ends a word. An
// ellipsis or a detached period is left alone.
func stripTrailingPeriod(s string) string {
	trimmed, ok := strings.CutSuffix(s, ".")
	if !ok || trimmed == "" {
		return s
	}
	prev, _ := utf8.DecodeLastRuneInString(trimmed)
	if prev == '.' || unicode.IsSpace(prev) {
		return s
	}
	return trimmed
}

func normalizeScope(scope string) string {
	scope = strings.ToLower(strings.TrimSpace(scope))
	scope = whitespaceRe.ReplaceAllString(scope, "-")
	if discardedScopes[scope] {
		return ""
	}
	return scope
}

func optional(s string) string {
	s = strings.TrimSpace(s)
	if absentValues[strings.ToLower(s)] {
		return ""
	}
	return s
}

// dedupeDetails removes bullet lines whose text equals, contains or is
// contained in the subject, ignoring case and a trailing period. Containment
// is checked on whole words. A remainder that is only a placeholder is
// cleared.
func dedupeDetails(details, subject string) string {
	details = strings.TrimSpace(details)
	if absentValues[strings.ToLower(details)] {
		return ""
	}

	subj := foldForCompare(subject)
	var kept []string
	for _, line := range strings.Split(details, "\n") {
		if text, ok := bulletText(line); ok && nearDuplicate(foldForCompare(text), subj) {
			continue
		}
		kept = append(kept, strings.TrimRightFunc(line, unicode.IsSpace))
	}

	return optional(strings.Join(kept, "\n"))
}

func bulletText(line string) (string, bool) {
	t := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(t, marker) {
			return strings.TrimSpace(t[len(marker):]), true
		}
	}
	return "", false
}

func foldForCompare(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".")
	return whitespaceRe.ReplaceAllString(s, " ")
}

func nearDuplicate(bullet, subject string) bool {
	if bullet == "" || subject == "" {
		return false
	}
	return bullet == subject || containsWords(bullet, subject) || containsWords(subject, bullet)
}

// containsWords reports whether needle occurs in s as a run of whole words
func containsWords(s, needle string) bool {
	return strings.Contains(" "+s+" ", " "+needle+" ")
}
