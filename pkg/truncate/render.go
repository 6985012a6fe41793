package truncate

import (
	"strings"
	"unicode/utf8"

	"github.com/johnstilia/cmtgen/pkg/git"
)

// Render produces the diff text for files under cfg. The output depends only
// on its inputs. Hunk headers and bodies count toward the per-file cap; once
// it is reached the rest of the file is dropped without a marker.
func Render(files []git.FileChange, cfg Config) string {
	var b strings.Builder
	for _, f := range files {
		renderFile(&b, f, cfg)
	}
	return b.String()
}

func renderFile(b *strings.Builder, f git.FileChange, cfg Config) {
	old := f.Path
	if f.OldPath != "" {
		old = f.OldPath
	}
	writeLine(b, "diff --git a/"+old+" b/"+f.Path, cfg.MaxLineWidth)

	switch f.Kind {
	case git.Added:
		writeLine(b, "new file", cfg.MaxLineWidth)
	case git.Deleted:
		writeLine(b, "deleted file", cfg.MaxLineWidth)
	case git.Renamed:
		writeLine(b, "rename from "+f.OldPath, cfg.MaxLineWidth)
		writeLine(b, "rename to "+f.Path, cfg.MaxLineWidth)
	}
	if f.Binary {
		writeLine(b, "binary file, content not shown", cfg.MaxLineWidth)
		return
	}

	emitted := 0
	capped := func() bool {
		return cfg.MaxLinesPerFile > 0 && emitted >= cfg.MaxLinesPerFile
	}

	for _, h := range f.Hunks {
		if capped() {
			return
		}
		writeLine(b, h.Header, cfg.MaxLineWidth)
		emitted++

		for _, l := range h.Lines {
			if capped() {
				return
			}
			writeLine(b, l.Kind.Prefix()+l.Text, cfg.MaxLineWidth)
			emitted++
		}
	}
}

func writeLine(b *strings.Builder, line string, width int) {
	b.WriteString(CapWidth(line, width))
	b.WriteByte('\n')
}

// CapWidth cuts line to width runes and appends the ellipsis marker when it
// was longer. A non-positive width disables the cap.
func CapWidth(line string, width int) string {
	if width <= 0 || utf8.RuneCountInString(line) <= width {
		return line
	}

	n := 0
	for i := range line {
		if n == width {
			return line[:i] + Ellipsis
		}
		n++
	}
	return line
}
