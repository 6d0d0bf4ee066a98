package extract

import (
	"sort"
	"time"

	"switchwrapper/internal/model"
	"switchwrapper/internal/timepoint"
	"switchwrapper/internal/topology"
)

// expander fills full-resolution tables for one period. Every timestamp takes
// its timepoint's value unchanged.
type expander struct {
	tm         *timepoint.Map
	timestamps []time.Time
	timepoints []int // timepoint of each timestamp
}

func newExpander(tm *timepoint.Map, period int) *expander {
	e := &expander{tm: tm, timestamps: tm.TimestampsInPeriod(period)}
	e.timepoints = make([]int, len(e.timestamps))
	for i, ts := range e.timestamps {
		e.timepoints[i], _ = tm.TimepointOf(ts)
	}
	return e
}

// table builds a profile whose cell (timestamp, column) is value(column, timepoint).
func (e *expander) table(columns []int, value func(col, tp int) float64) *model.Profile {
	p := model.NewProfile(e.timestamps, columns)
	cache := map[int][]float64{}
	for i, tp := range e.timepoints {
		row, ok := cache[tp]
		if !ok {
			row = make([]float64, len(columns))
			for j, c := range columns {
				row[j] = value(c, tp)
			}
			cache[tp] = row
		}
		copy(p.Values[i], row)
	}
	return p
}

// inputs are the reduced-resolution inputs read back from the prepared files.
type inputs struct {
	loads   hourly // zone (bus) ID -> timepoint -> MW
	factors hourly // project ID -> timepoint -> capacity factor
}

func (e *expander) scenario(period int, g *model.Grid, in *inputs, d *decisions, storage []int) *model.Scenario {
	s := &model.Scenario{Period: period, Grid: g}

	s.Profiles.Demand = e.demand(g, in.loads)
	plants := g.PlantByID()
	for _, kind := range model.ProfileKinds {
		if !kind.IsCapacityFactor() {
			continue
		}
		ids := g.PlantIDsOfTypes(kind.PlantTypes()...)
		s.Profiles.Set(kind, e.table(ids, func(id, tp int) float64 {
			return in.factors.at(topology.PlantID(id), tp) * plants[id].Pmax
		}))
	}

	plantIDs := make([]int, 0, len(g.Plants))
	for _, p := range g.Plants {
		plantIDs = append(plantIDs, p.ID)
	}
	sort.Ints(plantIDs)
	s.PG = e.table(plantIDs, func(id, tp int) float64 {
		return d.dispatch.at(topology.PlantID(id), tp) + d.dispatch.at(topology.ExpansionID(id), tp)
	})

	if d.flows != nil {
		split := newFlowSplit(g)
		s.PF = e.table(split.branchIDs, func(id, tp int) float64 { return split.branch(id, tp, d.flows) })
		s.DCLinePF = e.table(split.dclineIDs, func(id, tp int) float64 { return split.dcline(id, tp, d.flows) })
	}

	if d.balance != nil {
		busIDs := make([]int, 0, len(g.Buses))
		for _, b := range g.Buses {
			busIDs = append(busIDs, b.ID)
		}
		sort.Ints(busIDs)
		s.LMP = e.table(busIDs, func(bus, tp int) float64 {
			return d.balance.at(topology.ZoneID(bus), tp) / e.tm.Weight(tp)
		})
	}

	if len(storage) > 0 {
		s.StorageDispatch = e.table(storage, func(bus, tp int) float64 {
			id := topology.StorageID(bus)
			return d.dispatch.at(id, tp) - d.charge.at(id, tp)
		})
		s.StorageSOC = e.table(storage, func(bus, tp int) float64 {
			return d.soc.at(topology.StorageID(bus), tp)
		})
	}
	return s
}

// demand sums each bus's load back into the grid's demand zones.
func (e *expander) demand(g *model.Grid, loads hourly) *model.Profile {
	members := map[int][]int{}
	for _, b := range g.Buses {
		members[b.ZoneID] = append(members[b.ZoneID], b.ID)
	}
	zones := make([]int, 0, len(members))
	for z := range members {
		zones = append(zones, z)
	}
	sort.Ints(zones)
	return e.table(zones, func(zone, tp int) float64 {
		total := 0.0
		for _, bus := range members[zone] {
			total += loads.at(topology.ZoneID(bus), tp)
		}
		return total
	})
}
