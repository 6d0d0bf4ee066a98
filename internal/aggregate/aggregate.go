// Package aggregate reduces hourly profiles to one row per timepoint.
package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"switchwrapper/internal/model"
	"switchwrapper/internal/timepoint"
)

// Mode selects how a timepoint's value is derived from its backing hours.
type Mode string

const (
	// ModeSample takes the value at the timepoint's representative timestamp.
	ModeSample Mode = "sample"
	// ModeWeightedMean averages every backing timestamp, weighted by its hours.
	ModeWeightedMean Mode = "weighted-mean"
)

// capacityFactorSlack absorbs rounding in MW/Pmax normalization.
const capacityFactorSlack = 1e-9

// ParseMode accepts the config spelling of a mode; empty means sample.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSample:
		return ModeSample, nil
	case ModeWeightedMean:
		return ModeWeightedMean, nil
	}
	return "", fmt.Errorf("unknown aggregation mode %q (want %q or %q)", s, ModeSample, ModeWeightedMean)
}

// Modes assigns a mode to each profile kind.
type Modes map[model.ProfileKind]Mode

// DefaultModes samples every profile kind.
func DefaultModes() Modes {
	out := Modes{}
	for _, k := range model.ProfileKinds {
		out[k] = ModeSample
	}
	return out
}

// For returns the mode for kind, defaulting to sample.
func (m Modes) For(kind model.ProfileKind) Mode {
	if mode, ok := m[kind]; ok && mode != "" {
		return mode
	}
	return ModeSample
}

// Aggregate reduces p to one row per timepoint of tm, in canonical order.
//
// Every timestamp assigned in tm must be present in p. Values read from p must be
// finite, and capacity-factor kinds must additionally lie in [0,1].
func Aggregate(p *model.Profile, kind model.ProfileKind, tm *timepoint.Map, mode Mode) (*model.TimepointProfile, error) {
	table := string(kind)
	if p == nil {
		return nil, &model.ProfileAlignmentError{Table: table, Reason: "profile is missing"}
	}
	if err := p.Validate(); err != nil {
		return nil, &model.ProfileAlignmentError{Table: table, Reason: err.Error()}
	}
	rows := p.RowIndex()
	for _, ts := range tm.Timestamps() {
		if _, ok := rows[ts]; !ok {
			return nil, &model.ProfileAlignmentError{Table: table, ID: ts.Format(time.RFC3339), Reason: "timestamp required by the timepoint map is missing"}
		}
	}

	timepoints := tm.Timepoints()
	out := &model.TimepointProfile{
		Timepoints: timepoints,
		Columns:    append([]int(nil), p.Columns...),
		Values:     make([][]float64, len(timepoints)),
	}
	for i, tp := range timepoints {
		var (
			row []float64
			err error
		)
		switch mode {
		case ModeSample, "":
			row, err = sampleRow(p, kind, rows, tm.Representative(tp))
		case ModeWeightedMean:
			row, err = weightedMeanRow(p, kind, rows, tm.TimestampsFor(tp))
		default:
			return nil, fmt.Errorf("unknown aggregation mode %q", mode)
		}
		if err != nil {
			return nil, err
		}
		out.Values[i] = row
	}
	return out, nil
}

func sampleRow(p *model.Profile, kind model.ProfileKind, rows map[time.Time]int, ts time.Time) ([]float64, error) {
	src := p.Values[rows[ts]]
	for j, v := range src {
		if err := checkValue(kind, p.Columns[j], ts, v); err != nil {
			return nil, err
		}
	}
	return append([]float64(nil), src...), nil
}

func weightedMeanRow(p *model.Profile, kind model.ProfileKind, rows map[time.Time]int, backing []time.Time) ([]float64, error) {
	out := make([]float64, len(p.Columns))
	vals := make([]float64, len(backing))
	weights := make([]float64, len(backing))
	for j, col := range p.Columns {
		for k, ts := range backing {
			v := p.Values[rows[ts]][j]
			if err := checkValue(kind, col, ts, v); err != nil {
				return nil, err
			}
			vals[k] = v
			weights[k] = 1 // each backing timestamp is one hour
		}
		out[j] = stat.Mean(vals, weights)
	}
	return out, nil
}

func checkValue(kind model.ProfileKind, col int, ts time.Time, v float64) error {
	id := strconv.Itoa(col) + "@" + ts.Format(time.RFC3339)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &model.ProfileAlignmentError{Table: string(kind), ID: id, Reason: "value is not finite"}
	}
	if kind.IsCapacityFactor() && (v < -capacityFactorSlack || v > 1+capacityFactorSlack) {
		return &model.ProfileAlignmentError{Table: string(kind), ID: id, Reason: fmt.Sprintf("capacity factor %g outside [0,1]", v)}
	}
	return nil
}
