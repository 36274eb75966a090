// Package diff computes and validates unified diffs. It holds no state.
package diff

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// ErrInvalidDiff indicates a payload that is not a usable unified diff.
var ErrInvalidDiff = errors.New("invalid diff")

const contextLines = 3

// Hunk is one parsed hunk with its line accounting.
type Hunk struct {
	OrigStart int
	OrigLines int
	NewStart  int
	NewLines  int
	Added     int
	Removed   int
	// AddedText holds the added lines without their '+' prefix.
	AddedText []string
}

// FileChange groups the hunks of one file in a diff.
type FileChange struct {
	OrigName string
	NewName  string
	Hunks    []Hunk
}

// Parsed is the structured form of a validated diff.
type Parsed struct {
	Files   []FileChange
	Added   int
	Removed int
}

// HunkCount returns the number of hunks across all files.
func (p *Parsed) HunkCount() int {
	n := 0
	for _, f := range p.Files {
		n += len(f.Hunks)
	}
	return n
}

// Compute returns a unified diff turning oldContent into newContent. Both
// inputs are treated as line sequences; a missing trailing newline is
// normalised. Identical inputs produce an empty string.
func Compute(oldContent, newContent, label string) string {
	if label == "" {
		label = "file"
	}
	label = strings.TrimPrefix(label, "/")
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: "a/" + label,
		ToFile:   "b/" + label,
		Context:  contextLines,
	})
	if err != nil {
		// difflib only fails on writer errors, which a strings.Builder never returns.
		return ""
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

// Validate reports whether diffText parses into at least one hunk whose
// body agrees with its line-count header.
func Validate(diffText string) error {
	_, err := Parse(diffText)
	return err
}

// Valid is Validate as a predicate.
func Valid(diffText string) bool {
	return Validate(diffText) == nil
}

// Parse validates diffText and returns its structure.
func Parse(diffText string) (*Parsed, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDiff)
	}
	data := []byte(diffText)
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	var files []*godiff.FileDiff
	if bytes.HasPrefix(data, []byte("@@")) {
		hunks, err := godiff.ParseHunks(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDiff, err)
		}
		files = []*godiff.FileDiff{{Hunks: hunks}}
	} else {
		fds, err := godiff.ParseMultiFileDiff(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDiff, err)
		}
		files = fds
	}

	parsed := &Parsed{Files: make([]FileChange, 0, len(files))}
	for _, fd := range files {
		fc := FileChange{
			OrigName: trimSide(fd.OrigName),
			NewName:  trimSide(fd.NewName),
			Hunks:    make([]Hunk, 0, len(fd.Hunks)),
		}
		for i, h := range fd.Hunks {
			hunk, err := checkHunk(h)
			if err != nil {
				return nil, fmt.Errorf("%w: hunk %d: %v", ErrInvalidDiff, i+1, err)
			}
			parsed.Added += hunk.Added
			parsed.Removed += hunk.Removed
			fc.Hunks = append(fc.Hunks, hunk)
		}
		parsed.Files = append(parsed.Files, fc)
	}
	if parsed.HunkCount() == 0 {
		return nil, fmt.Errorf("%w: no hunks", ErrInvalidDiff)
	}
	return parsed, nil
}

func checkHunk(h *godiff.Hunk) (Hunk, error) {
	hunk := Hunk{
		OrigStart: int(h.OrigStartLine),
		OrigLines: int(h.OrigLines),
		NewStart:  int(h.NewStartLine),
		NewLines:  int(h.NewLines),
	}

	var orig, next int
	body := strings.TrimSuffix(string(h.Body), "\n")
	if body != "" {
		for _, line := range strings.Split(body, "\n") {
			if line == "" {
				orig++
				next++
				continue
			}
			switch line[0] {
			case ' ':
				orig++
				next++
			case '-':
				orig++
				hunk.Removed++
			case '+':
				next++
				hunk.Added++
				hunk.AddedText = append(hunk.AddedText, line[1:])
			case '\\':
			default:
				return Hunk{}, fmt.Errorf("unexpected line %q", line)
			}
		}
	}

	if orig != hunk.OrigLines || next != hunk.NewLines {
		return Hunk{}, fmt.Errorf("header -%d,%d +%d,%d does not match body (%d old, %d new lines)",
			hunk.OrigStart, hunk.OrigLines, hunk.NewStart, hunk.NewLines, orig, next)
	}
	return hunk, nil
}

func trimSide(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
