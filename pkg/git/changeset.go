package git

// FileKind describes how a path changed between HEAD and the index
type FileKind int

const (
	// Modified is the default kind for a path present on both sides
	Modified FileKind = iota
	// Added marks a path that only exists in the index
	Added
	// Deleted marks a path that only exists in HEAD
	Deleted
	// Renamed marks a path detected as a rename of OldPath
	Renamed
)

// String returns the lowercase name of the kind
func (k FileKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "modified"
	}
}

// LineKind tags a single hunk line
type LineKind int

const (
	// Context is an unchanged line surrounding a change
	Context LineKind = iota
	// Insertion is a line present only in the index
	Insertion
	// Removal is a line present only in HEAD
	Removal
)

// Prefix returns the unified diff marker for the line kind
func (k LineKind) Prefix() string {
	switch k {
	case Insertion:
		return "+"
	case Removal:
		return "-"
	default:
		return " "
	}
}

// DiffLine is one line of a hunk body, without its marker
type DiffLine struct {
	Kind LineKind
	Text string
}

// Hunk is a contiguous region of a file diff
type Hunk struct {
	Header   string // full "@@ -a,b +c,d @@ section" line
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []DiffLine
}

// FileChange is one staged path together with its raw hunks
type FileChange struct {
	Path       string
	OldPath    string // only set for renames
	Kind       FileKind
	Binary     bool
	Insertions int
	Deletions  int
	Hunks      []Hunk
}

// Churn returns insertions plus deletions
func (f FileChange) Churn() int {
	return f.Insertions + f.Deletions
}

// IsPureRename reports whether the file was renamed without content changes
func (f FileChange) IsPureRename() bool {
	return f.Kind == Renamed && f.Churn() == 0
}

// Stats are the aggregate counters of a change set
type Stats struct {
	FilesChanged int
	Insertions   int
	Deletions    int
}

// Changes returns insertions plus deletions
func (s Stats) Changes() int {
	return s.Insertions + s.Deletions
}

// ChangeSet is the staged change set. It is not modified after extraction.
type ChangeSet struct {
	Files                []FileChange
	FilesChanged         int
	Insertions           int
	Deletions            int
	HasUnstagedRemainder bool
}

// NewChangeSet builds a change set from parsed files, summing the per-file
// counters into the aggregate statistics.
func NewChangeSet(files []FileChange, hasUnstaged bool) *ChangeSet {
	cs := &ChangeSet{
		Files:                files,
		FilesChanged:         len(files),
		HasUnstagedRemainder: hasUnstaged,
	}
	for _, f := range files {
		cs.Insertions += f.Insertions
		cs.Deletions += f.Deletions
	}
	return cs
}

// Stats returns the aggregate counters
func (cs *ChangeSet) Stats() Stats {
	return Stats{
		FilesChanged: cs.FilesChanged,
		Insertions:   cs.Insertions,
		Deletions:    cs.Deletions,
	}
}
