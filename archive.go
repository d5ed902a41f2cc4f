package docxmerge

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

const (
	contentTypesEntry = "[Content_Types].xml"
	mimetypeEntry     = "mimetype"
)

// entryTime is stamped on every written entry so that building the same
// tree twice yields identical bytes.
var entryTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Extract unpacks every entry of the zip archive at src into dest,
// keeping relative paths. dest is created if needed.
func Extract(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		if zr != nil {
			zr.Close()
		}
		return fmt.Errorf("%w: open %s: %v", ErrArchiveRead, src, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveRead, err)
	}

	for _, f := range zr.File {
		if err := extractEntry(f, dest); err != nil {
			return fmt.Errorf("%w: %s: %s: %v", ErrArchiveRead, src, f.Name, err)
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	name := path.Clean(strings.ReplaceAll(f.Name, `\`, "/"))
	if !fs.ValidPath(name) {
		return fmt.Errorf("entry escapes archive root")
	}
	target := filepath.Join(dest, filepath.FromSlash(name))

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Build writes every regular file below src into a new zip archive at
// dest, named by its slash-separated path relative to src. An existing
// dest is overwritten.
//
// [Content_Types].xml (OOXML) or mimetype (OpenDocument, stored
// uncompressed) goes first, the rest follow in path order.
func Build(src, dest string) error {
	names, err := listFiles(src)
	if err != nil {
		return fmt.Errorf("%w: walk %s: %v", ErrArchiveWrite, src, err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveWrite, err)
	}

	zw := zip.NewWriter(out)
	for _, name := range names {
		if err := addEntry(zw, src, name); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("%w: %s: %s: %v", ErrArchiveWrite, dest, name, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("%w: %s: %v", ErrArchiveWrite, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchiveWrite, dest, err)
	}
	return nil
}

func listFiles(src string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(names, func(i, j int) bool {
		ri, rj := entryRank(names[i]), entryRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names, nil
}

func entryRank(name string) int {
	switch name {
	case mimetypeEntry:
		return 0
	case contentTypesEntry:
		return 1
	}
	return 2
}

func addEntry(zw *zip.Writer, src, name string) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	}
	if name == mimetypeEntry {
		hdr.Method = zip.Store
	}

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(src, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
