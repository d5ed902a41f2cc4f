package docxmerge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Converter produces a fixed-layout copy of a document. It returns the
// path of the file it wrote, next to the input.
type Converter interface {
	Convert(ctx context.Context, path string) (string, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, path string) (string, error)

func (f ConverterFunc) Convert(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Office converts documents to PDF with a headless LibreOffice.
type Office struct {
	// Binary is the soffice executable. Empty means look up "soffice",
	// then "libreoffice", on PATH.
	Binary string
	// Format is the target passed to --convert-to. Empty means "pdf".
	Format string
}

var officeBinaries = []string{"soffice", "libreoffice"}

func (o *Office) binary() (string, error) {
	candidates := officeBinaries
	if o.Binary != "" {
		candidates = []string{o.Binary}
	}
	for _, name := range candidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found", ErrConversionUnavailable, strings.Join(candidates, ", "))
}

func (o *Office) format() string {
	if o.Format == "" {
		return "pdf"
	}
	return o.Format
}

// Convert runs soffice --headless --convert-to on path.
func (o *Office) Convert(ctx context.Context, path string) (string, error) {
	bin, err := o.binary()
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	dir := filepath.Dir(abs)
	out := filepath.Join(dir, baseLabel(abs)+"."+o.format())

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", o.format(), "--outdir", dir, abs)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s: %v: %s", ErrConversionFailed, path, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
	}

	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("%w: %s: no output produced", ErrConversionFailed, path)
	}
	return out, nil
}
