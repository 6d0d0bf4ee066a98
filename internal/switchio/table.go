// Package switchio reads and writes the optimizer's tabular file conventions.
package switchio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Directory and file names shared by the preparer and the interpreter.
const (
	InputsDir  = "inputs"
	OutputsDir = "outputs"
	WrapperDir = "switchwrapper_inputs"

	ModulesFile = "modules.txt"
	VersionFile = "switch_inputs_version.txt"

	GridFile             = "grid.json"
	TimepointsFile       = "timepoints.csv"
	TimestampMapFile     = "timestamp_to_timepoints.csv"
	PeriodHoursFile      = "period_hours.csv"
	InputsVersion        = "2.0.6"
	missingValue         = "."
	timestampLayout      = "2006-01-02 15:04:05"
	timestampLayoutShort = "2006-01-02 15:04"
)

// Table is one CSV file held in memory.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(name string, header ...string) *Table {
	return &Table{Name: name, Header: header}
}

// Append adds a row. It panics if the row width does not match the header.
func (t *Table) Append(fields ...string) {
	if len(fields) != len(t.Header) {
		panic(fmt.Sprintf("%s: row has %d fields, header has %d", t.Name, len(fields), len(t.Header)))
	}
	t.Rows = append(t.Rows, fields)
}

// Column returns the index of a header column.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s: missing column %q", t.Name, name)
}

// Encode renders the table as CSV with a trailing newline.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// File is a non-CSV file written alongside the tables.
type File struct {
	Name string
	Data []byte
}

// WriteAll renders every table first and only then writes, so an encoding
// failure leaves dir untouched. A write failure part way through leaves the
// files already written in place. Table names may contain a subdirectory.
func WriteAll(dir string, tables []*Table, files []File) error {
	out := make([]File, 0, len(tables)+len(files))
	for _, t := range tables {
		data, err := t.Encode()
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Name, err)
		}
		out = append(out, File{Name: t.Name, Data: data})
	}
	out = append(out, files...)

	for _, f := range out {
		path := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create dir for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}

// ReadTable loads a CSV file with a header row.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: file has no header", path)
	}
	return &Table{Name: filepath.Base(path), Header: records[0], Rows: records[1:]}, nil
}

// FormatFloat renders the shortest decimal that round-trips, so rewriting the
// same inputs yields identical bytes.
func FormatFloat(x float64) string {
	if math.IsNaN(x) {
		return missingValue
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// ParseFloat accepts the optimizer's "." placeholder as NaN.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == missingValue || s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Missing is the optimizer's placeholder for an unset value.
func Missing() string { return missingValue }

// FormatTimestamp renders an hourly timestamp in UTC.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(timestampLayout)
}

// ParseTimestamp accepts the layouts profile and mapping files are written in.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{timestampLayout, time.RFC3339, timestampLayoutShort, "2006-01-02T15:04:05"} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
