package htmldiff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ChangeType classifies a line within a hunk.
type ChangeType string

const (
	ChangeNormal ChangeType = "normal"
	ChangeInsert ChangeType = "insert"
	ChangeDelete ChangeType = "delete"
)

// FileType classifies a file-level diff.
type FileType string

const (
	FileModify FileType = "modify"
	FileAdd    FileType = "add"
	FileDelete FileType = "delete"
)

const devNull = "/dev/null"

// Change is one line of a hunk. Content excludes the leading marker.
// OldLineNumber is 0 for insertions and NewLineNumber is 0 for deletions.
type Change struct {
	Type          ChangeType
	Content       string
	OldLineNumber int
	NewLineNumber int
}

// Hunk is a contiguous region of changes with its surrounding context.
type Hunk struct {
	// Content is the "@@ -a,b +c,d @@" header line.
	Content  string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Changes  []Change
}

// File is the diff of one pair of inputs.
type File struct {
	OldPath     string
	NewPath     string
	OldRevision string
	NewRevision string
	Type        FileType
	Hunks       []Hunk
}

// Key identifies the file among siblings.
func (f File) Key() string {
	return f.OldRevision + "-" + f.NewRevision
}

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse reads unified diff text into files. Empty text yields no files.
// Lines outside of files and hunks that Parse does not recognize are
// skipped.
func Parse(text string) ([]File, error) {
	p := &parser{}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []File{}, nil
	}

	for n, line := range strings.Split(text, "\n") {
		if err := p.line(line); err != nil {
			return nil, fmt.Errorf("htmldiff: line %d: %w", n+1, err)
		}
	}
	p.flushFile()
	return p.files, nil
}

type parser struct {
	files []File
	file  *File
	hunk  *Hunk

	oldLine, newLine int
	oldLeft, newLeft int
}

func (p *parser) line(line string) error {
	if p.hunk != nil && (p.oldLeft > 0 || p.newLeft > 0) {
		if handled, err := p.change(line); handled || err != nil {
			return err
		}
	}

	switch {
	case strings.HasPrefix(line, "diff "):
		p.startFile()
	case strings.HasPrefix(line, "index "):
		if p.file == nil || len(p.file.Hunks) > 0 || p.hunk != nil {
			p.startFile()
		}
		revs := strings.Fields(strings.TrimPrefix(line, "index "))
		if len(revs) > 0 {
			if old, new, ok := strings.Cut(revs[0], ".."); ok {
				p.file.OldRevision, p.file.NewRevision = old, new
			}
		}
	case strings.HasPrefix(line, "--- "):
		if p.file == nil || len(p.file.Hunks) > 0 || p.hunk != nil {
			p.startFile()
		}
		p.file.OldPath = strings.TrimPrefix(line, "--- ")
	case strings.HasPrefix(line, "+++ "):
		if p.file == nil {
			p.startFile()
		}
		p.file.NewPath = strings.TrimPrefix(line, "+++ ")
	case strings.HasPrefix(line, "@@"):
		return p.startHunk(line)
	}
	return nil
}

func (p *parser) change(line string) (bool, error) {
	if line == "" {
		line = " "
	}
	c := Change{Content: line[1:]}

	switch line[0] {
	case ' ':
		c.Type = ChangeNormal
		c.OldLineNumber, c.NewLineNumber = p.oldLine, p.newLine
		p.oldLine++
		p.newLine++
		p.oldLeft--
		p.newLeft--
	case '-':
		c.Type = ChangeDelete
		c.OldLineNumber = p.oldLine
		p.oldLine++
		p.oldLeft--
	case '+':
		c.Type = ChangeInsert
		c.NewLineNumber = p.newLine
		p.newLine++
		p.newLeft--
	case '\\':
		// "\ No newline at end of file"
		return true, nil
	default:
		return false, nil
	}

	if p.oldLeft < 0 || p.newLeft < 0 {
		return true, fmt.Errorf("hunk %q has more lines than its header declares", p.hunk.Content)
	}
	p.hunk.Changes = append(p.hunk.Changes, c)
	return true, nil
}

func (p *parser) startFile() {
	p.flushFile()
	p.file = &File{Type: FileModify}
}

func (p *parser) flushHunk() {
	if p.hunk == nil {
		return
	}
	p.file.Hunks = append(p.file.Hunks, *p.hunk)
	p.hunk = nil
}

func (p *parser) flushFile() {
	if p.file == nil {
		return
	}
	p.flushHunk()
	switch {
	case p.file.OldPath == devNull:
		p.file.Type = FileAdd
	case p.file.NewPath == devNull:
		p.file.Type = FileDelete
	}
	p.files = append(p.files, *p.file)
	p.file = nil
}

func (p *parser) startHunk(line string) error {
	m := hunkHeader.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("malformed hunk header %q", line)
	}
	if p.file == nil {
		p.startFile()
	}
	p.flushHunk()

	h := &Hunk{
		Content:  line,
		OldStart: atoi(m[1], 0),
		OldLines: atoi(m[2], 1),
		NewStart: atoi(m[3], 0),
		NewLines: atoi(m[4], 1),
		Changes:  []Change{},
	}
	p.hunk = h
	p.oldLine, p.newLine = h.OldStart, h.NewStart
	p.oldLeft, p.newLeft = h.OldLines, h.NewLines
	return nil
}

// atoi parses a matched number, returning def for an absent group.
func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
