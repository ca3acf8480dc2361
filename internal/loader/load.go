// Package loader implements the sales dataset loader: read the CSV into a
// RecordSet, normalize the date/time columns, then create the destination
// table and insert every record in one batched transaction.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"salesloader/internal/csvutil"
	"salesloader/internal/domain"
)

// RequiredColumns are the source headers every input file must carry.
var RequiredColumns = []string{"date", "time", "ticket_number", "article", "quantity", "unit_price"}

// RecordSet is the ordered, in-memory collection of sales read from one file.
type RecordSet struct {
	Path  string
	Sales []domain.Sale

	// HasIndex is true when ids came from a leading index column rather than
	// the row position.
	HasIndex bool

	// Fingerprint is the xxh3 hash of the raw input bytes.
	Fingerprint uint64
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Sales)
}

// Rows returns every record as a value slice aligned to domain.Columns.
func (rs *RecordSet) Rows() [][]any {
	out := make([][]any, 0, rs.Len())
	for _, s := range rs.Sales {
		out = append(out, s.Values())
	}
	return out
}

// Load reads a comma-delimited file at path.
func Load(path string) (*RecordSet, error) {
	return LoadFile(path, ',')
}

// LoadFile reads the file at path using comma as the delimiter. It fails
// with ErrIO when the file cannot be read and ErrParse when it is malformed.
func LoadFile(path string, comma rune) (*RecordSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Op: "read", Path: path, Err: err}
	}
	rs, err := Parse(bytes.NewReader(raw), path, comma)
	if err != nil {
		return nil, err
	}
	rs.Fingerprint = xxh3.Hash(raw)
	return rs, nil
}

// Parse reads a record set from r. name is only used in error messages.
//
// The header must contain RequiredColumns (any order, case-insensitive). If
// the first header cell names an index column the row ids are taken from it,
// otherwise ids are the 0-based row positions.
func Parse(r io.Reader, name string, comma rune) (*RecordSet, error) {
	cr := csvutil.NewReader(r, comma)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Error{Kind: ErrParse, Op: "read header", Path: name, Err: errors.New("empty input")}
	}
	if err != nil {
		return nil, parseErr(name, "read header", err)
	}

	pos, missing := csvutil.IndexColumns(header, RequiredColumns)
	if len(missing) > 0 {
		return nil, &Error{
			Kind: ErrParse,
			Op:   "read header",
			Path: name,
			Line: 1,
			Err:  fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")),
		}
	}
	hasIndex := csvutil.HasIndexColumn(header)

	rs := &RecordSet{Path: name, HasIndex: hasIndex}
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseErr(name, "read row", err)
		}
		line, _ := cr.FieldPos(0)

		s, err := buildSale(rec, pos, hasIndex, int64(i))
		if err != nil {
			return nil, &Error{Kind: ErrParse, Op: "read row", Path: name, Line: line, Err: err}
		}
		s.Line = line
		rs.Sales = append(rs.Sales, s)
	}
	return rs, nil
}

func buildSale(rec []string, pos map[string]int, hasIndex bool, rowPos int64) (domain.Sale, error) {
	field := func(name string) string { return strings.TrimSpace(rec[pos[name]]) }

	s := domain.Sale{
		Date:      field("date"),
		Time:      field("time"),
		Article:   field("article"),
		UnitPrice: field("unit_price"),
	}

	if hasIndex {
		id, err := parseNullableInt(strings.TrimSpace(rec[0]))
		if err != nil {
			return s, fmt.Errorf("id: %w", err)
		}
		s.ID = id
	} else {
		id := rowPos
		s.ID = &id
	}

	var err error
	if s.TicketNumber, err = parseNullableInt(field("ticket_number")); err != nil {
		return s, fmt.Errorf("ticket_number: %w", err)
	}
	if s.Quantity, err = parseNullableInt(field("quantity")); err != nil {
		return s, fmt.Errorf("quantity: %w", err)
	}
	return s, nil
}

// parseNullableInt parses an integer cell. Empty means NULL. Integral floats
// ("150040.0") are accepted because dataframe exports write integer columns
// that contained missing values that way.
func parseNullableInt(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= 1<<63 {
		return nil, fmt.Errorf("%q is not an integer", s)
	}
	v := int64(f)
	return &v, nil
}

func parseErr(name, op string, err error) error {
	e := &Error{Kind: ErrParse, Op: op, Path: name, Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		e.Line = pe.StartLine
	}
	return e
}
