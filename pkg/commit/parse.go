package commit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ValidationError reports a model reply that cannot be turned into a
// StructuredResult at all. Finalize never returns it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid model reply: " + e.Reason
	}
	return fmt.Sprintf("invalid model reply: %s: %s", e.Field, e.Reason)
}

// rawResult accepts the loose shapes models return: details as a list,
// scope as null, and so on.
type rawResult struct {
	Type     string          `json:"type"`
	Subject  string          `json:"subject"`
	Details  json.RawMessage `json:"details"`
	Body     json.RawMessage `json:"body"`
	Issues   json.RawMessage `json:"issues"`
	Breaking json.RawMessage `json:"breaking"`
	Scope    json.RawMessage `json:"scope"`
}

// ParseStructuredResult reads a model reply. It accepts bare JSON, JSON
// embedded in prose or a code fence, and falls back to a plain
// "type(scope): subject" message followed by a body.
func ParseStructuredResult(reply string) (StructuredResult, error) {
	var parseErr error

	// Try extracted JSON first, then the whole reply
	for _, candidate := range []string{extractJSON(reply), strings.TrimSpace(reply)} {
		if candidate == "" {
			continue
		}
		var raw rawResult
		if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
			parseErr = err
			continue
		}
		return fromRaw(raw)
	}

	msg, ok := parseTextMessage(reply)
	if !ok {
		reason := "no commit message found"
		if parseErr != nil {
			reason = "not JSON and no commit message found"
		}
		return StructuredResult{}, errors.WithStack(&ValidationError{Reason: reason})
	}

	return msg, nil
}

func fromRaw(raw rawResult) (StructuredResult, error) {
	t, ok := ParseType(raw.Type)
	if !ok {
		return StructuredResult{}, errors.WithStack(&ValidationError{
			Field:  "type",
			Reason: fmt.Sprintf("unknown commit type %q", raw.Type),
		})
	}
	if strings.TrimSpace(raw.Subject) == "" {
		return StructuredResult{}, errors.WithStack(&ValidationError{Field: "subject", Reason: "empty"})
	}

	details := flexibleText(raw.Details)
	if details == "" {
		details = flexibleText(raw.Body)
	}

	return StructuredResult{
		Type:     t,
		Subject:  raw.Subject,
		Details:  details,
		Issues:   flexibleText(raw.Issues),
		Breaking: flexibleText(raw.Breaking),
		Scope:    flexibleText(raw.Scope),
	}, nil
}

// flexibleText renders a JSON string, list of strings or null as text. Lists
// become "- " bullets.
func flexibleText(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(msg, &list); err == nil {
		lines := make([]string, 0, len(list))
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if !strings.HasPrefix(item, "- ") {
				item = "- " + item
			}
			lines = append(lines, item)
		}
		return strings.Join(lines, "\n")
	}

	// Booleans, numbers and null
	var v any
	if err := json.Unmarshal(msg, &v); err == nil && v != nil {
		if b, ok := v.(bool); ok && !b {
			return ""
		}
		return fmt.Sprint(v)
	}
	return ""
}

// extractJSON returns the first balanced {...} object in text, skipping
// braces inside JSON strings.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// parseTextMessage reads "type(scope)!: subject" on the first non-empty
// line and treats everything after the next blank line as details.
func parseTextMessage(text string) (StructuredResult, bool) {
	text = strings.ReplaceAll(text, "```", "")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return StructuredResult{}, false
	}

	head := strings.TrimSpace(lines[0])
	idx := strings.Index(head, ":")
	if idx <= 0 {
		return StructuredResult{}, false
	}

	typeScope := head[:idx]
	var msg StructuredResult
	msg.Subject = strings.TrimSpace(head[idx+1:])
	if msg.Subject == "" {
		return StructuredResult{}, false
	}

	if strings.HasSuffix(typeScope, "!") {
		typeScope = strings.TrimSuffix(typeScope, "!")
		msg.Breaking = msg.Subject
	}
	if open := strings.Index(typeScope, "("); open > 0 {
		if end := strings.Index(typeScope, ")"); end > open {
			msg.Scope = typeScope[open+1 : end]
			typeScope = typeScope[:open]
		}
	}

	t, ok := ParseType(typeScope)
	if !ok {
		return StructuredResult{}, false
	}
	msg.Type = t

	if len(lines) > 1 {
		msg.Details = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}

	return msg, true
}
