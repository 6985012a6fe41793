package git

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParsePatch splits a unified git patch into per-file changes. Insertion and
// deletion counters are taken from the hunk lines, so they always agree with
// the raw hunks.
func ParsePatch(patch string) ([]FileChange, error) {
	var files []FileChange
	var cur *FileChange
	var hunk *Hunk

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil && cur.Path != "" {
			files = append(files, *cur)
		}
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(patch))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git ") {
			flushFile()
			cur = &FileChange{Kind: Modified, Path: pathFromGitHeader(strings.TrimPrefix(line, "diff --git "))}
			continue
		}
		if cur == nil {
			// Anything before the first file header is noise
			continue
		}

		if hunk != nil {
			switch {
			case strings.HasPrefix(line, "+"):
				hunk.Lines = append(hunk.Lines, DiffLine{Kind: Insertion, Text: line[1:]})
				cur.Insertions++
				continue
			case strings.HasPrefix(line, "-"):
				hunk.Lines = append(hunk.Lines, DiffLine{Kind: Removal, Text: line[1:]})
				cur.Deletions++
				continue
			case strings.HasPrefix(line, " "):
				hunk.Lines = append(hunk.Lines, DiffLine{Kind: Context, Text: line[1:]})
				continue
			case line == "":
				hunk.Lines = append(hunk.Lines, DiffLine{Kind: Context})
				continue
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"
				continue
			}
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			flushHunk()
			hunk = parseHunkHeader(line)
		case strings.HasPrefix(line, "new file mode"):
			cur.Kind = Added
		case strings.HasPrefix(line, "deleted file mode"):
			cur.Kind = Deleted
		case strings.HasPrefix(line, "rename from "):
			cur.Kind = Renamed
			cur.OldPath = unquotePath(strings.TrimPrefix(line, "rename from "))
		case strings.HasPrefix(line, "rename to "):
			cur.Path = unquotePath(strings.TrimPrefix(line, "rename to "))
		case strings.HasPrefix(line, "--- "):
			if p := unquotePath(strings.TrimPrefix(line, "--- ")); p != "/dev/null" && cur.Kind == Deleted {
				cur.Path = strings.TrimPrefix(p, "a/")
			}
		case strings.HasPrefix(line, "+++ "):
			if p := unquotePath(strings.TrimPrefix(line, "+++ ")); p != "/dev/null" {
				cur.Path = strings.TrimPrefix(p, "b/")
			}
		case strings.HasPrefix(line, "Binary files "), line == "GIT binary patch":
			cur.Binary = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading patch")
	}
	flushFile()

	return files, nil
}

func parseHunkHeader(line string) *Hunk {
	h := &Hunk{Header: line, OldLines: 1, NewLines: 1}
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return h
	}
	h.OldStart, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		h.OldLines, _ = strconv.Atoi(m[2])
	}
	h.NewStart, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		h.NewLines, _ = strconv.Atoi(m[4])
	}
	return h
}

// pathFromGitHeader recovers the destination path from "a/<p> b/<p>". Paths
// containing " b/" are only resolved when both sides are identical; the
// ---/+++ and rename lines override the result when present.
func pathFromGitHeader(rest string) string {
	if strings.HasPrefix(rest, `"`) {
		if i := strings.Index(rest, `" `); i > 0 {
			return strings.TrimPrefix(unquotePath(rest[i+2:]), "b/")
		}
	}
	if strings.HasPrefix(rest, "a/") && (len(rest)-5)%2 == 0 {
		n := (len(rest) - 5) / 2
		if n > 0 && rest[2+n:5+n] == " b/" && rest[2:2+n] == rest[5+n:] {
			return rest[5+n:]
		}
	}
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+3:]
	}
	return ""
}

func unquotePath(p string) string {
	p = strings.TrimRight(p, "\t")
	if len(p) >= 2 && strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) {
		if s, err := strconv.Unquote(p); err == nil {
			return s
		}
	}
	return p
}
