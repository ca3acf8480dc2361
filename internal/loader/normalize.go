package loader

import (
	"time"

	"github.com/golang-sql/civil"

	"salesloader/internal/domain"
)

// NormalizeDate parses s with the strict year-month-day layout (zero-padded
// month and day) and renders it as a DATE literal, YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return "", err
	}
	return civil.DateOf(t).String(), nil
}

// NormalizeTime parses s as hour:minute (hour may be one or two digits,
// minutes exactly two) and renders it as a TIME literal, HH:MM:SS.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(domain.TimeLayout, s)
	if err != nil {
		return "", err
	}
	return civil.TimeOf(t).String(), nil
}

// NormalizeDateTime returns a copy of rs whose date and time fields are
// DATE/TIME literals. It is all-or-nothing: if any value fails to parse, no
// record set is returned and the error (kind ErrFormat) carries a
// *FormatError listing every rejected value. rs itself is never modified.
func NormalizeDateTime(rs *RecordSet) (*RecordSet, error) {
	out := &RecordSet{
		Path:        rs.Path,
		HasIndex:    rs.HasIndex,
		Fingerprint: rs.Fingerprint,
		Sales:       make([]domain.Sale, len(rs.Sales)),
	}

	var rejects []Reject
	for i, s := range rs.Sales {
		d, err := NormalizeDate(s.Date)
		if err != nil {
			rejects = append(rejects, Reject{Line: s.Line, Field: "date", Value: s.Date, Err: err})
		}
		tm, err := NormalizeTime(s.Time)
		if err != nil {
			rejects = append(rejects, Reject{Line: s.Line, Field: "time", Value: s.Time, Err: err})
		}
		s.Date, s.Time = d, tm
		out.Sales[i] = s
	}

	if len(rejects) > 0 {
		return nil, &Error{
			Kind: ErrFormat,
			Op:   "normalize",
			Path: rs.Path,
			Line: rejects[0].Line,
			Err:  &FormatError{Rejects: rejects},
		}
	}
	return out, nil
}
