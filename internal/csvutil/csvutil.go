// Package csvutil contains the CSV reading helpers used by the sales loader.
// The reader is the standard library csv.Reader placed behind a BOM-aware
// UTF-8 decoder, so files exported from spreadsheet tools (which often start
// with a byte order mark) parse the same as plain UTF-8 exports.
package csvutil

import (
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const utf8BOM = "\uFEFF"

// IndexHeaders are the header spellings recognized as a leading row-index
// column. Dataframe exports write the index either with an empty header or
// as "Unnamed: 0" after a round trip.
var IndexHeaders = map[string]struct{}{
	"":           {},
	"unnamed: 0": {},
	"id":         {},
}

// NewReader returns a csv.Reader over r using comma as the field delimiter.
// A UTF-8 or UTF-16 byte order mark selects the matching decoder; otherwise
// input is read as UTF-8.
func NewReader(r io.Reader, comma rune) *csv.Reader {
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(dec)
	cr.Comma = comma
	cr.TrimLeadingSpace = true
	// The header fixes the width; csv.Reader enforces it for every row.
	cr.FieldsPerRecord = 0
	return cr
}

// NormalizeHeader lower-cases and trims a header cell and removes a stray BOM
// that survived decoding (e.g. a BOM inside a quoted first cell).
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, utf8BOM)
	return strings.ToLower(strings.TrimSpace(h))
}

// IndexColumns maps each required column name to its position in header.
// Matching is case-insensitive. Names not present in header are returned in
// missing, in the order they were requested.
func IndexColumns(header []string, required []string) (pos map[string]int, missing []string) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = i
	}

	pos = make(map[string]int, len(required))
	for _, name := range required {
		i, ok := seen[strings.ToLower(name)]
		if !ok {
			missing = append(missing, name)
			continue
		}
		pos[name] = i
	}
	return pos, missing
}

// HasIndexColumn reports whether the first header cell names a row-index
// column (see IndexHeaders).
func HasIndexColumn(header []string) bool {
	if len(header) == 0 {
		return false
	}
	_, ok := IndexHeaders[NormalizeHeader(header[0])]
	return ok
}
