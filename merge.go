// Package docxmerge generates one document per data row from a Word or
// OpenDocument template whose body contains {{NAME}} placeholders.
package docxmerge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// extractDir is the working root subdirectory holding the unpacked template.
const extractDir = "tmp"

// Job describes one merge invocation.
//
// Row values are XML-escaped when they are inserted into the document
// body, so "Dupont & Fils" is written as "Dupont &amp; Fils" and the
// package stays well formed. WithRawValues turns this off. The file name
// pattern is never escaped.
type Job struct {
	// Template is the document package used as a model.
	Template string
	// Data is the delimited text file, header line first.
	Data string
	// Pattern renders each row's output file name, e.g. "{{NOM}}.docx".
	Pattern string
	// Convert requests a fixed-layout copy of every document.
	Convert bool
	// Table controls how Data is decoded.
	Table TableOptions
}

// Result describes what a merge left on disk.
type Result struct {
	// Dir is the working root holding every output file.
	Dir string
	// Documents lists the generated documents in row order.
	Documents []string
	// Converted lists the fixed-layout files that were produced.
	Converted []string
	// ConversionErrors holds the conversion failures that were skipped.
	ConversionErrors []error
}

// Merger generates one document per data row from a template.
type Merger struct {
	logger       *slog.Logger
	converter    Converter
	outputDir    string
	rawValues    bool
	convertFatal bool
	newID        func() string
}

// Option configures a Merger.
type Option func(*Merger)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithConverter sets the converter used when Job.Convert is set.
// The default drives LibreOffice.
func WithConverter(c Converter) Option {
	return func(m *Merger) {
		if c != nil {
			m.converter = c
		}
	}
}

// WithOutputDir creates working roots under dir instead of next to the
// template.
func WithOutputDir(dir string) Option {
	return func(m *Merger) {
		m.outputDir = strings.TrimSpace(dir)
	}
}

// WithRawValues inserts row values into the document body without XML
// escaping.
func WithRawValues(raw bool) Option {
	return func(m *Merger) {
		m.rawValues = raw
	}
}

// WithConvertErrorsFatal makes a failed conversion abort the merge.
func WithConvertErrorsFatal(fatal bool) Option {
	return func(m *Merger) {
		m.convertFatal = fatal
	}
}

// NewMerger creates a Merger. By default it XML-escapes body values
// (see WithRawValues), tolerates conversion failures and drives LibreOffice.
func NewMerger(opts ...Option) *Merger {
	m := &Merger{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		converter: &Office{},
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Merge runs job. On failure the returned Result still describes the
// documents written so far; they are left on disk. The extracted template
// tree is removed in every case, and so is the working root when no
// document was written.
func (m *Merger) Merge(ctx context.Context, job Job) (res *Result, err error) {
	pattern, err := Compile("pattern", job.Pattern)
	if err != nil {
		return nil, fmt.Errorf("filename pattern: %w", err)
	}
	table, err := ReadTableFile(job.Data, job.Table)
	if err != nil {
		return nil, err
	}

	root, err := m.workingRoot(job.Template)
	if err != nil {
		return nil, err
	}
	res = &Result{Dir: root}
	m.logger.Debug("working root created", "dir", root)

	tmp := filepath.Join(root, extractDir)
	defer func() {
		target := tmp
		if err != nil && len(res.Documents) == 0 {
			target = root
		}
		if rmErr := os.RemoveAll(target); rmErr != nil {
			m.logger.Warn("cleanup failed", "dir", target, "error", rmErr)
			return
		}
		m.logger.Debug("cleaned up", "dir", target)
	}()

	if err := Extract(job.Template, tmp); err != nil {
		return res, err
	}

	bodyEntry := BodyEntry(job.Template)
	bodyPath := filepath.Join(tmp, filepath.FromSlash(bodyEntry))
	raw, err := os.ReadFile(bodyPath)
	if err != nil {
		return res, fmt.Errorf("%w: %s has no %s: %v", ErrArchiveRead, job.Template, bodyEntry, err)
	}

	compile := CompileXML
	if m.rawValues {
		compile = Compile
	}
	body, err := compile(bodyEntry, string(raw))
	if err != nil {
		return res, fmt.Errorf("%s: %w", job.Template, err)
	}

	used := make(map[string]int, table.Len())
	for i := 0; i < table.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		row := i + 1
		rowErr := func(err error) error {
			return &RowError{Row: row, Line: table.Lines[i], Err: err}
		}

		vars := table.Vars(i)
		contents, err := body.Render(vars)
		if err != nil {
			return res, rowErr(err)
		}
		name, err := pattern.Render(vars)
		if err != nil {
			return res, rowErr(err)
		}
		if err := checkFilename(name); err != nil {
			return res, rowErr(err)
		}
		// Names differing only in case collide on case-insensitive filesystems.
		folded := strings.ToLower(name)
		if prev, ok := used[folded]; ok {
			return res, rowErr(fmt.Errorf("%w: %q already produced by row %d", ErrInvalidFilename, name, prev))
		}
		used[folded] = row

		if err := os.WriteFile(bodyPath, []byte(contents), 0o644); err != nil {
			return res, rowErr(fmt.Errorf("%w: %v", ErrArchiveWrite, err))
		}

		out := filepath.Join(root, name)
		if err := Build(tmp, out); err != nil {
			return res, rowErr(err)
		}
		res.Documents = append(res.Documents, out)
		m.logger.Info("document written", "row", row, "path", out)

		if !job.Convert {
			continue
		}
		converted, err := m.converter.Convert(ctx, out)
		if err != nil {
			if m.convertFatal {
				return res, rowErr(err)
			}
			m.logger.Warn("conversion failed", "row", row, "path", out, "error", err)
			res.ConversionErrors = append(res.ConversionErrors, rowErr(err))
			continue
		}
		res.Converted = append(res.Converted, converted)
		m.logger.Info("document converted", "row", row, "path", converted)
	}

	return res, nil
}

// workingRoot creates a uniquely named directory for one merge, named
// after the template.
func (m *Merger) workingRoot(template string) (string, error) {
	parent := m.outputDir
	if parent == "" {
		parent = filepath.Dir(template)
	}
	dir := filepath.Join(parent, baseLabel(template)+"-"+m.newID())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create working root: %w", err)
	}
	return dir, nil
}

// checkFilename accepts a single, plain path element.
func checkFilename(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidFilename)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case name == extractDir:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidFilename, name)
	}
	return nil
}
