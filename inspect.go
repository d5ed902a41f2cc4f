package docxmerge

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fumiama/go-docx"
)

// Placeholder is one {{...}} found in a document's paragraphs.
type Placeholder struct {
	// Expr is the text between the braces, trimmed.
	Expr string
	// Paragraph is the 0-based index of the paragraph in reading order,
	// counting paragraphs inside table cells.
	Paragraph int
	// Split is set when the placeholder spans more than one run. Word
	// does this after edits or spell checks; the raw body XML then
	// contains markup inside the braces and does not compile.
	Split bool
}

var placeholderPattern = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)

// Inspect lists the placeholders of the Word document read from r.
func Inspect(r io.ReaderAt, size int64) ([]Placeholder, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveRead, err)
	}

	in := &inspector{}
	in.items(doc.Document.Body.Items)
	return in.found, nil
}

// InspectFile is Inspect for the document at path.
func InspectFile(path string) ([]Placeholder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Inspect(f, fi.Size())
}

type inspector struct {
	paragraph int
	found     []Placeholder
}

func (in *inspector) items(items []interface{}) {
	for _, item := range items {
		switch it := item.(type) {
		case *docx.Paragraph:
			in.para(it)
		case *docx.Table:
			in.table(it)
		}
	}
}

func (in *inspector) table(t *docx.Table) {
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				in.para(p)
			}
			for _, nested := range cell.Tables {
				in.table(nested)
			}
		}
	}
}

func (in *inspector) para(p *docx.Paragraph) {
	runs := runTexts(p)
	full := strings.Join(runs, "")

	// ends[i] is the offset in full where run i stops.
	ends := make([]int, len(runs))
	off := 0
	for i, r := range runs {
		off += len(r)
		ends[i] = off
	}

	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(full, -1) {
		in.found = append(in.found, Placeholder{
			Expr:      full[m[2]:m[3]],
			Paragraph: in.paragraph,
			Split:     runOf(ends, m[0]) != runOf(ends, m[1]-1),
		})
	}
	in.paragraph++
}

func runOf(ends []int, offset int) int {
	for i, end := range ends {
		if offset < end {
			return i
		}
	}
	return len(ends)
}

// runTexts returns the text of each run of p, in order.
func runTexts(p *docx.Paragraph) []string {
	var texts []string
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, runChild := range run.Children {
			if text, ok := runChild.(*docx.Text); ok {
				sb.WriteString(text.Text)
			}
		}
		texts = append(texts, sb.String())
	}
	return texts
}
