package data

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
)

// SyntheticOptions shapes a generated test case.
type SyntheticOptions struct {
	Start               time.Time
	Periods             []int
	HoursPerPeriod      int
	TimepointsPerPeriod int
}

// DefaultSyntheticOptions is two half-year periods of twelve timepoints each.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Start:               time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Periods:             []int{2030, 2040},
		HoursPerPeriod:      4380,
		TimepointsPerPeriod: 12,
	}
}

// SyntheticCase is a complete, consistent set of preparation inputs.
type SyntheticCase struct {
	Grid         *model.Grid
	Profiles     model.Profiles
	Timepoints   []model.TimepointRecord
	Mapping      []model.TimestampAssignment
	Periods      []model.InvestmentPeriod
	StorageBuses []int
}

// Synthetic builds a two-bus grid (a gas plant at bus 1, a wind plant at bus 2,
// one branch between them) with hourly profiles and a contiguous-block
// timepoint mapping. Each period's hours are split evenly across its
// timepoints; leftover hours go to the last one.
func Synthetic(opts SyntheticOptions) (*SyntheticCase, error) {
	if opts.TimepointsPerPeriod <= 0 || opts.HoursPerPeriod < opts.TimepointsPerPeriod {
		return nil, fmt.Errorf("need at least one hour per timepoint, got %d hours for %d timepoints", opts.HoursPerPeriod, opts.TimepointsPerPeriod)
	}
	grid := &model.Grid{
		Buses: []model.Bus{
			{ID: 1, ZoneID: 1, Pd: 60, BaseKV: 230, Lat: 40.0, Lon: -105.0},
			{ID: 2, ZoneID: 1, Pd: 40, BaseKV: 230, Lat: 40.5, Lon: -104.5},
		},
		Plants: []model.Plant{
			{ID: 1, BusID: 1, Type: "ng", Pmin: 20, Pmax: 200, C0: 300, C1: 25, C2: 0.01},
			{ID: 2, BusID: 2, Type: "wind", Pmin: 0, Pmax: 80},
		},
		Branches: []model.Branch{{ID: 1, FromBusID: 1, ToBusID: 2, RateA: 150, X: 0.05}},
	}

	c := &SyntheticCase{Grid: grid, StorageBuses: []int{2}}
	perTP := opts.HoursPerPeriod / opts.TimepointsPerPeriod
	var timestamps []time.Time
	for k, period := range opts.Periods {
		c.Periods = append(c.Periods, model.InvestmentPeriod{
			Year:             period,
			Start:            period,
			End:              period + 9,
			RepresentedHours: float64(opts.HoursPerPeriod),
		})
		for i := 0; i < opts.TimepointsPerPeriod; i++ {
			c.Timepoints = append(c.Timepoints, model.TimepointRecord{
				ID:           k*opts.TimepointsPerPeriod + i + 1,
				Timeseries:   fmt.Sprintf("%d_all", period),
				Period:       period,
				DurationOfTP: 1,
			})
		}
		for h := 0; h < opts.HoursPerPeriod; h++ {
			ts := opts.Start.Add(time.Duration(k*opts.HoursPerPeriod+h) * time.Hour)
			block := h / perTP
			if block >= opts.TimepointsPerPeriod {
				block = opts.TimepointsPerPeriod - 1
			}
			timestamps = append(timestamps, ts)
			c.Mapping = append(c.Mapping, model.TimestampAssignment{Timestamp: ts, Timepoint: k*opts.TimepointsPerPeriod + block + 1})
		}
	}

	demand := model.NewProfile(timestamps, []int{1})
	wind := model.NewProfile(timestamps, []int{2})
	for i := range timestamps {
		phase := 2 * math.Pi * float64(i%24) / 24
		demand.Values[i][0] = 100 + 20*math.Sin(phase)
		wind.Values[i][0] = 80 * (0.5 + 0.4*math.Cos(phase))
	}
	c.Profiles = model.Profiles{
		Demand: demand,
		Hydro:  model.NewProfile(timestamps, nil),
		Solar:  model.NewProfile(timestamps, nil),
		Wind:   wind,
	}
	return c, nil
}

// CaseFiles locates a case written by SaveCase.
type CaseFiles struct {
	Grid         string
	ProfilesDir  string
	Timepoints   string
	TimestampMap string
}

// SaveCase writes a case as the files the prepare entry points read: grid.json,
// profiles/<kind>.csv, timepoints.csv and timestamp_to_timepoints.csv.
func SaveCase(c *SyntheticCase, dir string) (CaseFiles, error) {
	files := CaseFiles{
		Grid:         filepath.Join(dir, "grid.json"),
		ProfilesDir:  filepath.Join(dir, "profiles"),
		Timepoints:   filepath.Join(dir, switchio.TimepointsFile),
		TimestampMap: filepath.Join(dir, switchio.TimestampMapFile),
	}
	if err := SaveGridJSON(c.Grid, files.Grid); err != nil {
		return CaseFiles{}, err
	}
	for _, kind := range model.ProfileKinds {
		p := c.Profiles.Get(kind)
		if p == nil {
			return CaseFiles{}, fmt.Errorf("case has no %s profile", kind)
		}
		if err := SaveProfileCSV(p, filepath.Join(files.ProfilesDir, string(kind)+".csv")); err != nil {
			return CaseFiles{}, err
		}
	}
	tables := []*switchio.Table{
		switchio.TimepointsTable(switchio.TimepointsFile, c.Timepoints),
		switchio.TimestampMapTable(switchio.TimestampMapFile, c.Mapping),
	}
	if err := switchio.WriteAll(dir, tables, nil); err != nil {
		return CaseFiles{}, err
	}
	return files, nil
}
