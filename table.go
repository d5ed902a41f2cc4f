package docxmerge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Table is a fully read data file.
type Table struct {
	// Header holds the column names as written in the file.
	Header []string
	// Keys holds the normalized variable name of each column.
	Keys []string
	// Rows holds the data records, all len(Header) long.
	Rows [][]string
	// Lines holds the file line each record starts on.
	Lines []int
}

// TableOptions control how a data file is decoded.
type TableOptions struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
	// Encoding is a WHATWG encoding label ("utf-8", "windows-1252",
	// "iso-8859-1", "utf-16le", ...). Empty means UTF-8. A leading UTF-8
	// byte order mark is dropped.
	Encoding string
}

// ReadTableFile reads the data file at path.
func ReadTableFile(path string, opts TableOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTable(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadTable reads a header line followed by data records. Every record
// must have as many fields as the header, and no two header names may
// normalize to the same key.
func ReadTable(r io.Reader, opts TableOptions) (*Table, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, dec))
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header line", ErrMalformedRow)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedRow, err)
	}

	keys, err := NormalizeKeys(header)
	if err != nil {
		return nil, err
	}

	t := &Table{Header: header, Keys: keys}
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			return nil, &RowError{Row: row, Line: line, Err: fmt.Errorf("%w: %v", ErrMalformedRow, rowProblem(err, len(rec), len(header)))}
		}
		line, _ := cr.FieldPos(0)
		t.Rows = append(t.Rows, rec)
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}

func rowProblem(err error, got, want int) error {
	if errors.Is(err, csv.ErrFieldCount) {
		return fmt.Errorf("%d fields, header has %d", got, want)
	}
	return err
}

// Vars returns the variable mapping of data row i (0-based).
func (t *Table) Vars(i int) map[string]string {
	vars := make(map[string]string, len(t.Keys))
	for j, k := range t.Keys {
		vars[k] = t.Rows[i][j]
	}
	return vars
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

func decoder(label string) (transform.Transformer, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	switch label {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", label)
	}
	return enc.NewDecoder(), nil
}
