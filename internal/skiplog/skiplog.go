// Package skiplog writes the rejects report: one CSV row per source value the
// loader refused, with per-reason counts kept for the summary log line.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Header is the first row of every rejects report.
var Header = []string{"reason", "line_number", "field", "value"}

// Stats appends rejected values to a CSV file and counts them per reason.
type Stats struct {
	path    string
	f       *os.File
	w       *csv.Writer
	reasons map[string]int
}

// New creates (or truncates) the report at path, creating missing parent
// directories, and writes the header row.
func New(path string) (*Stats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return &Stats{path: path, f: f, w: w, reasons: make(map[string]int)}, nil
}

// Add records one rejected value.
func (s *Stats) Add(reason string, lineNum int, field, value string) error {
	s.reasons[reason]++
	return s.w.Write([]string{reason, strconv.Itoa(lineNum), field, value})
}

// Total returns the number of rows added.
func (s *Stats) Total() int {
	n := 0
	for _, c := range s.reasons {
		n += c
	}
	return n
}

// Reasons returns the per-reason counts sorted by reason.
func (s *Stats) Reasons() []ReasonCount {
	out := make([]ReasonCount, 0, len(s.reasons))
	for r, c := range s.reasons {
		out = append(out, ReasonCount{Reason: r, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reason < out[j].Reason })
	return out
}

// ReasonCount pairs a reason with how often it was seen.
type ReasonCount struct {
	Reason string
	Count  int
}

// Path returns the report location.
func (s *Stats) Path() string { return s.path }

// Close flushes buffered rows and closes the file.
func (s *Stats) Close() error {
	s.w.Flush()
	werr := s.w.Error()
	cerr := s.f.Close()
	if werr != nil {
		return fmt.Errorf("flush %s: %w", s.path, werr)
	}
	return cerr
}
