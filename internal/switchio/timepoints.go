package switchio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"switchwrapper/internal/model"
)

var (
	timepointsHeader   = []string{"timepoint_id", "timestamp", "timeseries", "ts_period", "ts_duration_of_tp", "weight"}
	timestampMapHeader = []string{"UTC", "timepoint"}
	periodHoursHeader  = []string{"ts_period", "represented_hours", "mapping_tolerance"}
)

// TimepointsTable encodes normalized timepoint metadata for the wrapper's own
// record of the mapping.
func TimepointsTable(name string, records []model.TimepointRecord) *Table {
	t := NewTable(name, timepointsHeader...)
	for _, r := range records {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = FormatTimestamp(r.Timestamp)
		}
		t.Append(
			strconv.Itoa(r.ID),
			ts,
			r.Timeseries,
			strconv.Itoa(r.Period),
			FormatFloat(r.DurationOfTP),
			FormatFloat(r.Weight),
		)
	}
	return t
}

// TimestampMapTable encodes the timestamp assignment, sorted by timestamp.
func TimestampMapTable(name string, assignments []model.TimestampAssignment) *Table {
	sorted := append([]model.TimestampAssignment(nil), assignments...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	t := NewTable(name, timestampMapHeader...)
	for _, a := range sorted {
		t.Append(FormatTimestamp(a.Timestamp), strconv.Itoa(a.Timepoint))
	}
	return t
}

// PeriodHoursTable records the represented hours the mapping was validated
// against, so the interpreter rebuilds it under the same rules.
func PeriodHoursTable(name string, hours map[int]float64, tolerance float64) *Table {
	periods := make([]int, 0, len(hours))
	for p := range hours {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	t := NewTable(name, periodHoursHeader...)
	for _, p := range periods {
		t.Append(strconv.Itoa(p), FormatFloat(hours[p]), FormatFloat(tolerance))
	}
	return t
}

// ReadTimepoints parses a timepoints file written by TimepointsTable. Only
// timepoint_id and ts_period are required.
func ReadTimepoints(path string) ([]model.TimepointRecord, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	idCol, err := t.Column("timepoint_id")
	if err != nil {
		return nil, err
	}
	periodCol, err := t.Column("ts_period")
	if err != nil {
		return nil, err
	}
	tsCol, _ := t.Column("timestamp")
	seriesCol, _ := t.Column("timeseries")
	durCol, _ := t.Column("ts_duration_of_tp")
	weightCol, _ := t.Column("weight")

	out := make([]model.TimepointRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		var r model.TimepointRecord
		if r.ID, err = strconv.Atoi(row[idCol]); err != nil {
			return nil, fmt.Errorf("%s row %d: timepoint_id: %w", t.Name, i+1, err)
		}
		if r.Period, err = strconv.Atoi(row[periodCol]); err != nil {
			return nil, fmt.Errorf("%s row %d: ts_period: %w", t.Name, i+1, err)
		}
		if tsCol >= 0 && row[tsCol] != "" {
			if r.Timestamp, err = ParseTimestamp(row[tsCol]); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
			}
		}
		if seriesCol >= 0 {
			r.Timeseries = row[seriesCol]
		}
		if r.DurationOfTP, err = optionalFloat(row, durCol); err != nil {
			return nil, fmt.Errorf("%s row %d: ts_duration_of_tp: %w", t.Name, i+1, err)
		}
		if r.Weight, err = optionalFloat(row, weightCol); err != nil {
			return nil, fmt.Errorf("%s row %d: weight: %w", t.Name, i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// ReadTimestampMap parses a timestamp assignment file.
func ReadTimestampMap(path string) ([]model.TimestampAssignment, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if len(t.Header) < 2 {
		return nil, fmt.Errorf("%s: want a timestamp and a timepoint column", t.Name)
	}
	out := make([]model.TimestampAssignment, 0, len(t.Rows))
	for i, row := range t.Rows {
		ts, err := ParseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", t.Name, i+1, err)
		}
		tp, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: timepoint: %w", t.Name, i+1, err)
		}
		out = append(out, model.TimestampAssignment{Timestamp: ts, Timepoint: tp})
	}
	return out, nil
}

// ReadPeriodHours parses a file written by PeriodHoursTable.
func ReadPeriodHours(path string) (map[int]float64, float64, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, 0, err
	}
	hours := map[int]float64{}
	tolerance := 0.0
	for i, row := range t.Rows {
		if len(row) < 3 {
			return nil, 0, fmt.Errorf("%s row %d: want %d columns", t.Name, i+1, len(periodHoursHeader))
		}
		p, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, 0, fmt.Errorf("%s row %d: ts_period: %w", t.Name, i+1, err)
		}
		if hours[p], err = ParseFloat(row[1]); err != nil {
			return nil, 0, fmt.Errorf("%s row %d: represented_hours: %w", t.Name, i+1, err)
		}
		if tolerance, err = ParseFloat(row[2]); err != nil {
			return nil, 0, fmt.Errorf("%s row %d: mapping_tolerance: %w", t.Name, i+1, err)
		}
	}
	return hours, tolerance, nil
}

func optionalFloat(row []string, col int) (float64, error) {
	if col < 0 || row[col] == "" {
		return 0, nil
	}
	return ParseFloat(row[col])
}

// WrapperPath joins a file name under the wrapper's own directory.
func WrapperPath(root, name string) string {
	return filepath.Join(root, WrapperDir, name)
}
