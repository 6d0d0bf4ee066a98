// Package timepoint holds the two-level lookup from hourly timestamps to
// representative timepoints and from timepoints to their period metadata.
package timepoint

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"switchwrapper/internal/model"
)

const (
	assignmentTable = "timestamp_to_timepoints"
	metadataTable   = "timepoints"
)

// Options controls construction-time validation.
type Options struct {
	// PeriodHours is the number of hours each period represents. Periods without
	// an entry default to model.HoursPerYear.
	PeriodHours map[int]float64
	// Tolerance is the allowed absolute difference, in hours, between the summed
	// weights of a period and its represented hours.
	Tolerance float64
}

// Timeseries groups timepoints sharing a grouping key (season, month, ...).
type Timeseries struct {
	Name         string
	Period       int
	DurationOfTP float64
	NumTPs       int
	// Hours is the number of timestamps mapped to the timeseries' timepoints.
	Hours float64
}

// ScaleToPeriod is the factor the optimizer multiplies a timeseries by so its
// timepoints stand in for every hour mapped to them.
func (ts Timeseries) ScaleToPeriod() float64 {
	return ts.Hours / (ts.DurationOfTP * float64(ts.NumTPs))
}

// Map is immutable once built by New.
type Map struct {
	records    map[int]model.TimepointRecord
	order      []int
	periods    []int
	byPeriod   map[int][]int
	timestamps map[int][]time.Time
	assigned   map[time.Time]int
	all        []time.Time
	series     []Timeseries
}

// New validates the assignment and metadata tables and builds the lookup.
func New(assignments []model.TimestampAssignment, records []model.TimepointRecord, opts Options) (*Map, error) {
	if len(records) == 0 {
		return nil, &model.MappingError{Table: metadataTable, Reason: "no timepoints declared"}
	}
	m := &Map{
		records:    make(map[int]model.TimepointRecord, len(records)),
		byPeriod:   map[int][]int{},
		timestamps: map[int][]time.Time{},
		assigned:   make(map[time.Time]int, len(assignments)),
	}

	for _, r := range records {
		id := strconv.Itoa(r.ID)
		if _, dup := m.records[r.ID]; dup {
			return nil, &model.MappingError{Table: metadataTable, ID: id, Reason: "timepoint declared more than once"}
		}
		if r.DurationOfTP < 0 || math.IsNaN(r.DurationOfTP) {
			return nil, &model.MappingError{Table: metadataTable, ID: id, Reason: "ts_duration_of_tp must be positive"}
		}
		if r.DurationOfTP == 0 {
			r.DurationOfTP = 1
		}
		if r.Timeseries == "" {
			r.Timeseries = strconv.Itoa(r.Period)
		}
		if !r.Timestamp.IsZero() {
			r.Timestamp = r.Timestamp.UTC()
		}
		m.records[r.ID] = r
		m.order = append(m.order, r.ID)
	}

	for _, a := range assignments {
		ts := a.Timestamp.UTC()
		if _, dup := m.assigned[ts]; dup {
			return nil, &model.MappingError{Table: assignmentTable, ID: ts.Format(time.RFC3339), Reason: "timestamp assigned more than once"}
		}
		if _, ok := m.records[a.Timepoint]; !ok {
			return nil, &model.MappingError{
				Table:  assignmentTable,
				ID:     ts.Format(time.RFC3339),
				Reason: fmt.Sprintf("references undeclared timepoint %d", a.Timepoint),
			}
		}
		m.assigned[ts] = a.Timepoint
		m.timestamps[a.Timepoint] = append(m.timestamps[a.Timepoint], ts)
		m.all = append(m.all, ts)
	}
	sortTimes(m.all)

	sort.Slice(m.order, func(i, j int) bool {
		ri, rj := m.records[m.order[i]], m.records[m.order[j]]
		if ri.Period != rj.Period {
			return ri.Period < rj.Period
		}
		return ri.ID < rj.ID
	})

	periodWeight := map[int]float64{}
	for _, id := range m.order {
		r := m.records[id]
		backing := m.timestamps[id]
		if len(backing) == 0 {
			return nil, &model.MappingError{Table: metadataTable, ID: strconv.Itoa(id), Reason: "no timestamps assigned; timepoint has zero weight"}
		}
		sortTimes(backing)
		weight := float64(len(backing))
		if r.Weight != 0 && r.Weight != weight {
			return nil, &model.MappingError{
				Table:  metadataTable,
				ID:     strconv.Itoa(id),
				Reason: fmt.Sprintf("declared weight %g does not match %d assigned timestamps", r.Weight, len(backing)),
			}
		}
		r.Weight = weight
		if r.Timestamp.IsZero() {
			r.Timestamp = backing[0]
		} else if tp, ok := m.assigned[r.Timestamp]; !ok || tp != id {
			return nil, &model.MappingError{
				Table:  metadataTable,
				ID:     strconv.Itoa(id),
				Reason: fmt.Sprintf("representative timestamp %s is not assigned to this timepoint", r.Timestamp.Format(time.RFC3339)),
			}
		}
		m.records[id] = r

		if _, seen := m.byPeriod[r.Period]; !seen {
			m.periods = append(m.periods, r.Period)
		}
		m.byPeriod[r.Period] = append(m.byPeriod[r.Period], id)
		periodWeight[r.Period] += weight
	}
	sort.Ints(m.periods)

	for _, p := range m.periods {
		want := float64(model.HoursPerYear)
		if h, ok := opts.PeriodHours[p]; ok {
			want = h
		}
		if math.Abs(periodWeight[p]-want) > opts.Tolerance {
			return nil, &model.MappingError{
				Table:  metadataTable,
				ID:     strconv.Itoa(p),
				Reason: fmt.Sprintf("period weights sum to %g hours, want %g", periodWeight[p], want),
			}
		}
	}

	series, err := m.buildTimeseries()
	if err != nil {
		return nil, err
	}
	m.series = series
	return m, nil
}

func (m *Map) buildTimeseries() ([]Timeseries, error) {
	index := map[string]int{}
	var out []Timeseries
	for _, id := range m.order {
		r := m.records[id]
		i, ok := index[r.Timeseries]
		if !ok {
			index[r.Timeseries] = len(out)
			out = append(out, Timeseries{Name: r.Timeseries, Period: r.Period, DurationOfTP: r.DurationOfTP})
			i = len(out) - 1
		}
		ts := &out[i]
		if ts.Period != r.Period || ts.DurationOfTP != r.DurationOfTP {
			return nil, &model.MappingError{
				Table:  metadataTable,
				ID:     r.Timeseries,
				Reason: "timeseries must map to exactly one ts_period and ts_duration_of_tp",
			}
		}
		ts.NumTPs++
		ts.Hours += r.Weight
	}
	return out, nil
}

// Timepoints returns every timepoint in canonical order (period, then id).
func (m *Map) Timepoints() []int {
	return append([]int(nil), m.order...)
}

// Periods returns the investment periods in ascending order.
func (m *Map) Periods() []int {
	return append([]int(nil), m.periods...)
}

// HasPeriod reports whether any timepoint belongs to period.
func (m *Map) HasPeriod(period int) bool {
	_, ok := m.byPeriod[period]
	return ok
}

// TimepointsFor returns the timepoints of a period in canonical order.
func (m *Map) TimepointsFor(period int) []int {
	return append([]int(nil), m.byPeriod[period]...)
}

// TimestampsFor returns the sorted timestamps backing a timepoint.
func (m *Map) TimestampsFor(timepoint int) []time.Time {
	return append([]time.Time(nil), m.timestamps[timepoint]...)
}

// TimestampsInPeriod returns every timestamp mapped into a period, sorted.
func (m *Map) TimestampsInPeriod(period int) []time.Time {
	var out []time.Time
	for _, tp := range m.byPeriod[period] {
		out = append(out, m.timestamps[tp]...)
	}
	sortTimes(out)
	return out
}

// Timestamps returns every assigned timestamp, sorted.
func (m *Map) Timestamps() []time.Time {
	return append([]time.Time(nil), m.all...)
}

// TimepointOf returns the timepoint a timestamp is assigned to.
func (m *Map) TimepointOf(ts time.Time) (int, bool) {
	tp, ok := m.assigned[ts.UTC()]
	return tp, ok
}

// Has reports whether timepoint is declared.
func (m *Map) Has(timepoint int) bool {
	_, ok := m.records[timepoint]
	return ok
}

// Weight is the number of hours a timepoint represents; zero if undeclared.
func (m *Map) Weight(timepoint int) float64 {
	return m.records[timepoint].Weight
}

// PeriodOf returns the investment period a timepoint belongs to.
func (m *Map) PeriodOf(timepoint int) (int, bool) {
	r, ok := m.records[timepoint]
	return r.Period, ok
}

// Representative returns the timestamp sample aggregation reads for a timepoint.
func (m *Map) Representative(timepoint int) time.Time {
	return m.records[timepoint].Timestamp
}

// Record returns the normalized metadata of a timepoint.
func (m *Map) Record(timepoint int) (model.TimepointRecord, bool) {
	r, ok := m.records[timepoint]
	return r, ok
}

// Timeseries returns the timeseries groups in canonical order.
func (m *Map) Timeseries() []Timeseries {
	return append([]Timeseries(nil), m.series...)
}

func sortTimes(ts []time.Time) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
}
