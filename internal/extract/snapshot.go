package extract

import (
	"fmt"
	"sort"

	"switchwrapper/internal/model"
	"switchwrapper/internal/topology"
)

// capacityTolerance absorbs solver noise when retirements exceed builds.
const capacityTolerance = 1e-6

// snapshot applies every investment decision up to and including period to a
// copy of the base grid. Builds are cumulative and additive; retirements, when
// present, are subtracted the same way.
func snapshot(base *model.Grid, d *decisions, cat *catalog, period int) (*model.Grid, error) {
	g := base.Clone()

	for i := range g.Plants {
		p := &g.Plants[i]
		existing, expansion := topology.PlantID(p.ID), topology.ExpansionID(p.ID)
		added := d.build.upTo(existing, period) + d.build.upTo(expansion, period)
		retired := d.retire.upTo(existing, period) + d.retire.upTo(expansion, period)
		pmax := p.Pmax + added - retired
		if pmax < -capacityTolerance {
			return nil, &model.InterpretationError{
				Table:  "RetireGen",
				ID:     existing,
				Reason: fmt.Sprintf("retirements leave %g MW in period %d", pmax, period),
			}
		}
		if pmax < 0 {
			pmax = 0
		}
		p.Pmax = pmax
	}

	for _, bus := range storageBuses(cat) {
		id := topology.StorageID(bus)
		power := d.build.upTo(id, period) - d.retire.upTo(id, period)
		energy := d.storageEnergy.upTo(id, period)
		if power > capacityTolerance {
			g.Storage = append(g.Storage, model.StorageUnit{BusID: bus, PowerMW: power, EnergyMWh: energy})
		}
	}

	upgradeBranches(g.Branches, d.buildTx, period)
	upgradeDCLines(g.DCLines, d.buildTx, period)
	return g, nil
}

func storageBuses(cat *catalog) []int {
	var out []int
	for _, ref := range cat.projects {
		if ref.Kind == topology.ProjectStorage {
			out = append(out, ref.ID)
		}
	}
	sort.Ints(out)
	return out
}

type busPair struct{ from, to int }

// upgradeBranches adds each directed parallel group's cumulative build to the
// group's total rating. Every branch in the group is scaled by the same ratio:
// rateA up and reactance down. Groups with an unlimited branch are untouched.
func upgradeBranches(branches []model.Branch, buildTx yearly, period int) {
	groups := map[busPair][]int{}
	for i, br := range branches {
		key := busPair{br.FromBusID, br.ToBusID}
		groups[key] = append(groups[key], i)
	}
	for _, members := range groups {
		upgrade, total, unlimited := 0.0, 0.0, false
		for _, i := range members {
			upgrade += buildTx.upTo(topology.ACLineID(branches[i].ID), period)
			total += branches[i].RateA
			if branches[i].RateA == 0 {
				unlimited = true
			}
		}
		if unlimited || upgrade == 0 {
			continue
		}
		ratio := (total + upgrade) / total
		for _, i := range members {
			branches[i].RateA *= ratio
			branches[i].X /= ratio
		}
	}
}

// upgradeDCLines scales each directed parallel group's Pmax by its cumulative
// build. A group with no capacity splits the build evenly.
func upgradeDCLines(lines []model.DCLine, buildTx yearly, period int) {
	groups := map[busPair][]int{}
	for i, dc := range lines {
		key := busPair{dc.FromBusID, dc.ToBusID}
		groups[key] = append(groups[key], i)
	}
	for _, members := range groups {
		upgrade, total := 0.0, 0.0
		for _, i := range members {
			upgrade += buildTx.upTo(topology.DCLineID(lines[i].ID), period)
			total += lines[i].Pmax
		}
		if upgrade == 0 {
			continue
		}
		if total == 0 {
			for _, i := range members {
				lines[i].Pmax = upgrade / float64(len(members))
			}
			continue
		}
		ratio := (total + upgrade) / total
		for _, i := range members {
			lines[i].Pmax *= ratio
		}
	}
}
