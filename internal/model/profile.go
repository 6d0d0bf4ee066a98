package model

import (
	"fmt"
	"time"
)

// ProfileKind names one of the four profile slots.
type ProfileKind string

const (
	KindDemand ProfileKind = "demand"
	KindHydro  ProfileKind = "hydro"
	KindSolar  ProfileKind = "solar"
	KindWind   ProfileKind = "wind"
)

// ProfileKinds lists the kinds in their canonical order.
var ProfileKinds = []ProfileKind{KindDemand, KindHydro, KindSolar, KindWind}

// IsCapacityFactor reports whether values of this kind are normalized to [0,1]
// before aggregation.
func (k ProfileKind) IsCapacityFactor() bool {
	return k == KindHydro || k == KindSolar || k == KindWind
}

// PlantTypes returns the plant types whose output a profile kind describes.
func (k ProfileKind) PlantTypes() []string {
	switch k {
	case KindHydro:
		return []string{"hydro"}
	case KindSolar:
		return []string{"solar"}
	case KindWind:
		return []string{"wind", "wind_offshore"}
	default:
		return nil
	}
}

// Profile is an hourly table: one row per timestamp, one column per resource
// (zone ID for demand, plant ID otherwise). Values is row-major.
type Profile struct {
	Timestamps []time.Time
	Columns    []int
	Values     [][]float64
}

// NewProfile builds an empty-valued profile of the given shape.
func NewProfile(timestamps []time.Time, columns []int) *Profile {
	values := make([][]float64, len(timestamps))
	for i := range values {
		values[i] = make([]float64, len(columns))
	}
	return &Profile{
		Timestamps: append([]time.Time(nil), timestamps...),
		Columns:    append([]int(nil), columns...),
		Values:     values,
	}
}

// Validate checks that the table is rectangular and has no duplicate keys.
// Timestamps are compared in UTC.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if len(p.Values) != len(p.Timestamps) {
		return fmt.Errorf("profile has %d rows but %d timestamps", len(p.Values), len(p.Timestamps))
	}
	for i, row := range p.Values {
		if len(row) != len(p.Columns) {
			return fmt.Errorf("profile row %d has %d values, want %d", i, len(row), len(p.Columns))
		}
	}
	hours := make(map[time.Time]bool, len(p.Timestamps))
	for _, ts := range p.Timestamps {
		ts = ts.UTC()
		if hours[ts] {
			return fmt.Errorf("profile timestamp %s is repeated", ts.Format(time.RFC3339))
		}
		hours[ts] = true
	}
	seen := make(map[int]bool, len(p.Columns))
	for _, c := range p.Columns {
		if seen[c] {
			return fmt.Errorf("profile column %d is duplicated", c)
		}
		seen[c] = true
	}
	return nil
}

// RowIndex maps each timestamp (in UTC) to its row.
func (p *Profile) RowIndex() map[time.Time]int {
	out := make(map[time.Time]int, len(p.Timestamps))
	for i, ts := range p.Timestamps {
		out[ts.UTC()] = i
	}
	return out
}

// ColumnIndex maps each column key to its position.
func (p *Profile) ColumnIndex() map[int]int {
	out := make(map[int]int, len(p.Columns))
	for i, c := range p.Columns {
		out[c] = i
	}
	return out
}

// Profiles holds exactly the four profiles the optimizer input needs.
type Profiles struct {
	Demand *Profile
	Hydro  *Profile
	Solar  *Profile
	Wind   *Profile
}

// Get returns the profile stored in the slot for kind.
func (ps Profiles) Get(kind ProfileKind) *Profile {
	switch kind {
	case KindDemand:
		return ps.Demand
	case KindHydro:
		return ps.Hydro
	case KindSolar:
		return ps.Solar
	case KindWind:
		return ps.Wind
	}
	return nil
}

// Set stores p in the slot for kind.
func (ps *Profiles) Set(kind ProfileKind, p *Profile) {
	switch kind {
	case KindDemand:
		ps.Demand = p
	case KindHydro:
		ps.Hydro = p
	case KindSolar:
		ps.Solar = p
	case KindWind:
		ps.Wind = p
	}
}

// TimepointProfile is a profile reduced to one row per timepoint.
type TimepointProfile struct {
	Timepoints []int
	Columns    []int
	Values     [][]float64
}
