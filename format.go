package docxmerge

import (
	"path/filepath"
	"strings"
)

// Body entry locations inside the supported document packages.
const (
	WordBody     = "word/document.xml"
	OpenDocBody  = "content.xml"
	defaultLabel = "document"
)

// BodyEntry returns the archive entry holding the main text of the
// document at path, chosen by file extension. Unknown extensions are
// treated as Word documents.
func BodyEntry(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".odt", ".ott":
		return OpenDocBody
	}
	return WordBody
}

// baseLabel is the file name of path without its extension.
func baseLabel(path string) string {
	base := filepath.Base(path)
	label := strings.TrimSuffix(base, filepath.Ext(base))
	if label == "" || label == "." {
		return defaultLabel
	}
	return label
}
