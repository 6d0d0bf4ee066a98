package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
)

// LoadProfileCSV reads an hourly profile: the first column holds timestamps, every
// other header is an integer resource ID.
func LoadProfileCSV(path string) (*model.Profile, error) {
	t, err := switchio.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if len(t.Header) < 1 {
		return nil, fmt.Errorf("profile %s: empty header", path)
	}
	p := &model.Profile{
		Columns:    make([]int, len(t.Header)-1),
		Timestamps: make([]time.Time, 0, len(t.Rows)),
		Values:     make([][]float64, 0, len(t.Rows)),
	}
	for i, h := range t.Header[1:] {
		if p.Columns[i], err = strconv.Atoi(h); err != nil {
			return nil, fmt.Errorf("profile %s: column %q is not an integer id", path, h)
		}
	}
	for i, row := range t.Rows {
		ts, err := switchio.ParseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("profile %s row %d: %w", path, i+1, err)
		}
		vals := make([]float64, len(row)-1)
		for j, s := range row[1:] {
			if vals[j], err = switchio.ParseFloat(s); err != nil {
				return nil, fmt.Errorf("profile %s row %d column %s: %w", path, i+1, t.Header[j+1], err)
			}
		}
		p.Timestamps = append(p.Timestamps, ts)
		p.Values = append(p.Values, vals)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// LoadProfiles reads demand.csv, hydro.csv, solar.csv and wind.csv from dir. All
// four must exist.
func LoadProfiles(dir string) (model.Profiles, error) {
	var ps model.Profiles
	for _, kind := range model.ProfileKinds {
		p, err := LoadProfileCSV(filepath.Join(dir, string(kind)+".csv"))
		if err != nil {
			return model.Profiles{}, err
		}
		ps.Set(kind, p)
	}
	return ps, nil
}

// SaveProfileCSV writes a profile in the layout LoadProfileCSV reads.
func SaveProfileCSV(p *model.Profile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteProfileCSV(f, p); err != nil {
		f.Close()
		return fmt.Errorf("failed to write profile %s: %w", path, err)
	}
	return f.Close()
}

// WriteProfileCSV encodes a profile with a leading UTC timestamp column.
func WriteProfileCSV(out io.Writer, p *model.Profile) error {
	w := csv.NewWriter(out)
	header := make([]string, 0, len(p.Columns)+1)
	header = append(header, "UTC")
	for _, c := range p.Columns {
		header = append(header, strconv.Itoa(c))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, ts := range p.Timestamps {
		row := make([]string, 0, len(header))
		row = append(row, switchio.FormatTimestamp(ts))
		for _, v := range p.Values[i] {
			row = append(row, switchio.FormatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveScenario writes one period's expanded grid and every non-empty output
// profile under dir as grid.json and <name>.csv.
func SaveScenario(s *model.Scenario, dir string) error {
	if err := SaveGridJSON(s.Grid, filepath.Join(dir, "grid.json")); err != nil {
		return err
	}
	for _, name := range model.ScenarioOutputs {
		p := s.Output(name)
		if p == nil {
			continue
		}
		if err := SaveProfileCSV(p, filepath.Join(dir, name+".csv")); err != nil {
			return err
		}
	}
	return nil
}
