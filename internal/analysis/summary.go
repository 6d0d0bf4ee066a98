package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"switchwrapper/internal/model"
)

// PeriodSummary condenses one expanded scenario into headline numbers.
// Energies assume hourly rows, so a row sum in MW is an energy in MWh.
type PeriodSummary struct {
	Period int `json:"period"`
	Hours  int `json:"hours"`

	CapacityByType   map[string]float64 `json:"capacity_mw_by_type"`
	StoragePowerMW   float64            `json:"storage_power_mw"`
	StorageEnergyMWh float64            `json:"storage_energy_mwh"`

	DemandMWh        float64            `json:"demand_mwh"`
	GenerationMWh    float64            `json:"generation_mwh"`
	GenerationByType map[string]float64 `json:"generation_mwh_by_type"`
	PeakDemandMW     float64            `json:"peak_demand_mw"`

	// Price statistics over every bus and hour; zero when no duals were reported.
	HasPrices bool    `json:"has_prices"`
	MinLMP    float64 `json:"min_lmp"`
	MeanLMP   float64 `json:"mean_lmp"`
	MaxLMP    float64 `json:"max_lmp"`
	P05LMP    float64 `json:"p05_lmp"`
	P95LMP    float64 `json:"p95_lmp"`
}

func Summarize(s *model.Scenario) PeriodSummary {
	out := PeriodSummary{
		CapacityByType:   map[string]float64{},
		GenerationByType: map[string]float64{},
	}
	if s == nil {
		return out
	}
	out.Period = s.Period

	plantType := map[int]string{}
	if s.Grid != nil {
		for _, p := range s.Grid.Plants {
			plantType[p.ID] = p.Type
			out.CapacityByType[p.Type] += p.Pmax
		}
		for _, u := range s.Grid.Storage {
			out.StoragePowerMW += u.PowerMW
			out.StorageEnergyMWh += u.EnergyMWh
		}
	}

	if d := s.Profiles.Demand; d != nil {
		out.Hours = len(d.Timestamps)
		for _, row := range d.Values {
			total := sumRow(row)
			out.DemandMWh += total
			if total > out.PeakDemandMW {
				out.PeakDemandMW = total
			}
		}
	}

	if pg := s.PG; pg != nil {
		if out.Hours == 0 {
			out.Hours = len(pg.Timestamps)
		}
		for _, row := range pg.Values {
			for j, v := range row {
				out.GenerationMWh += v
				out.GenerationByType[plantType[pg.Columns[j]]] += v
			}
		}
	}

	if s.LMP != nil {
		out.summarizePrices(s.LMP)
	}
	return out
}

// SummarizeAll summarizes every period, ascending by period.
func SummarizeAll(scenarios map[int]*model.Scenario) []PeriodSummary {
	out := make([]PeriodSummary, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, Summarize(s))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period < out[j].Period
	})
	return out
}

func (p *PeriodSummary) summarizePrices(lmp *model.Profile) {
	vals := make([]float64, 0, len(lmp.Values)*len(lmp.Columns))
	for _, row := range lmp.Values {
		for _, v := range row {
			if !math.IsNaN(v) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return
	}
	sort.Float64s(vals)
	p.HasPrices = true
	p.MinLMP = vals[0]
	p.MaxLMP = vals[len(vals)-1]
	p.MeanLMP = stat.Mean(vals, nil)
	p.P05LMP = percentileSorted(vals, 0.05)
	p.P95LMP = percentileSorted(vals, 0.95)
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func sumRow(row []float64) float64 {
	total := 0.0
	for _, v := range row {
		total += v
	}
	return total
}
