package docxmerge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
)

// NormalizeKey turns a column header into a template variable name:
// transliterated to ASCII, uppercased, words joined by underscores.
//
//	"Nom du client" -> "NOM_DU_CLIENT"
//	"N° facture"    -> "NDEG_FACTURE"
//
// Headers without letters or digits normalize to "".
func NormalizeKey(header string) string {
	// Symbols are spelled out first ("°" -> "deg", "€" -> "EU"); whatever
	// punctuation is left separates words. Doing it here keeps slug's
	// language substitutions ("&" -> "and") out of variable names.
	cleaned := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return ' '
	}, unidecode.Unidecode(header))

	return strings.ReplaceAll(strings.ToUpper(slug.Make(cleaned)), "-", "_")
}

// NormalizeKeys normalizes every header and fails if two distinct headers
// end up with the same variable name.
func NormalizeKeys(headers []string) ([]string, error) {
	keys := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeKey(h)
		if j, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: columns %d (%q) and %d (%q) both map to %q",
				ErrAmbiguousColumn, j+1, headers[j], i+1, h, key)
		}
		seen[key] = i
		keys[i] = key
	}
	return keys, nil
}
