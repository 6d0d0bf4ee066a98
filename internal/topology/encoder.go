// Package topology maps grid entities onto the optimizer's entity tables.
package topology

import (
	"fmt"
	"sort"
	"strconv"

	"switchwrapper/internal/model"
)

// LoadZone is one optimizer load zone; every bus is its own zone.
type LoadZone struct {
	ID    string
	BusID int
	DBID  int
}

// Project is one row of the optimizer's generation project tables.
type Project struct {
	ID       string
	Kind     ProjectKind
	SourceID int // plant ID, or bus ID for storage
	ZoneID   string
	Tech     string

	EnergySource string
	HeatRate     float64 // MMBtu/MWh, zero for non-fuel sources
	IsVariable   bool
	IsBaseload   bool

	ExistingMW    float64 // predetermined capacity at the base year
	OvernightCost float64 // $/MW
	FixedOM       float64 // $/MW-yr
	VariableOM    float64 // $/MWh

	StorageEnergyCost float64 // $/MWh
	StorageEfficiency float64
	StoreToRelease    float64
}

// TransmissionLine is one optimizer transmission corridor.
type TransmissionLine struct {
	ID         string
	Kind       LineKind
	SourceID   int
	FromZone   string
	ToZone     string
	LengthKm   float64
	Efficiency float64
	ExistingMW float64
	Unlimited  bool
	DBID       int
}

// BusShare is a bus's share of its zone's demand.
type BusShare struct {
	BusID int
	Share float64
}

// Network is the encoded grid in optimizer terms. Every reference inside it
// resolves to a LoadZone.
type Network struct {
	LoadZones []LoadZone
	Projects  []Project
	Lines     []TransmissionLine
	// DemandShares maps a demand zone to the buses its demand is split across.
	DemandShares map[int][]BusShare
	// VariablePlants maps variable plant IDs to their Pmax.
	VariablePlants map[int]float64
	Fuels          map[string]bool
}

// Encode validates the grid's references and builds the optimizer entity set.
// A dangling reference fails with *model.TopologyError naming the entity; nothing
// is dropped.
func Encode(grid *model.Grid, storageBuses []int, a Assumptions) (*Network, error) {
	if grid == nil {
		return nil, &model.TopologyError{Table: "grid", Reason: "grid is nil"}
	}
	buses := map[int]model.Bus{}
	for _, b := range grid.Buses {
		if _, dup := buses[b.ID]; dup {
			return nil, &model.TopologyError{Table: "bus", ID: strconv.Itoa(b.ID), Reason: "duplicate bus id"}
		}
		buses[b.ID] = b
	}

	n := &Network{
		DemandShares:   map[int][]BusShare{},
		VariablePlants: map[int]float64{},
		Fuels:          map[string]bool{},
	}
	for _, f := range a.Fuels {
		n.Fuels[f] = true
	}

	busIDs := make([]int, 0, len(buses))
	for id := range buses {
		busIDs = append(busIDs, id)
	}
	sort.Ints(busIDs)
	for i, id := range busIDs {
		n.LoadZones = append(n.LoadZones, LoadZone{ID: ZoneID(id), BusID: id, DBID: i + 1})
	}
	n.DemandShares = demandShares(grid.Buses)

	if err := n.encodePlants(grid.Plants, buses, a); err != nil {
		return nil, err
	}
	if err := n.encodeStorage(storageBuses, buses, a); err != nil {
		return nil, err
	}
	if err := n.encodeLines(grid, buses, a); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) encodePlants(plants []model.Plant, buses map[int]model.Bus, a Assumptions) error {
	sorted := append([]model.Plant(nil), plants...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	variable := map[string]bool{}
	for _, k := range model.ProfileKinds {
		for _, t := range k.PlantTypes() {
			variable[t] = true
		}
	}

	var existing, expansion []Project
	for i, p := range sorted {
		id := strconv.Itoa(p.ID)
		if i > 0 && sorted[i-1].ID == p.ID {
			return &model.TopologyError{Table: "plant", ID: id, Reason: "duplicate plant id"}
		}
		if _, ok := buses[p.BusID]; !ok {
			return &model.TopologyError{Table: "plant", ID: id, Reason: fmt.Sprintf("references missing bus %d", p.BusID)}
		}
		if p.Pmax < 0 || p.Pmin > p.Pmax {
			return &model.TopologyError{Table: "plant", ID: id, Reason: fmt.Sprintf("invalid capacity Pmin=%g Pmax=%g", p.Pmin, p.Pmax)}
		}
		source, ok := a.EnergySourceByType[p.Type]
		if !ok {
			return &model.TopologyError{Table: "plant", ID: id, Reason: fmt.Sprintf("no energy source for plant type %q", p.Type)}
		}
		overnight, ok := a.InvestmentCostByType[p.Type]
		if !ok {
			return &model.TopologyError{Table: "plant", ID: id, Reason: fmt.Sprintf("no investment cost for plant type %q", p.Type)}
		}

		costAtMin, slope := LinearizeCost(p, a)
		fixedOM := 0.0
		if p.Pmax > 0 {
			fixedOM = costAtMin / p.Pmax
		}
		heatRate := 0.0
		if n.Fuels[source] {
			heatRate = a.HeatRateByType[p.Type]
		}
		base := Project{
			SourceID:      p.ID,
			ZoneID:        ZoneID(p.BusID),
			Tech:          p.Type,
			EnergySource:  source,
			HeatRate:      heatRate,
			IsVariable:    variable[p.Type],
			IsBaseload:    contains(a.BaseloadTypes, p.Type),
			OvernightCost: overnight,
			FixedOM:       fixedOM,
			VariableOM:    slope,
		}
		if base.IsVariable {
			n.VariablePlants[p.ID] = p.Pmax
		}

		ex := base
		ex.ID, ex.Kind, ex.ExistingMW = PlantID(p.ID), ProjectExisting, p.Pmax
		existing = append(existing, ex)

		cand := base
		cand.ID, cand.Kind = ExpansionID(p.ID), ProjectExpansion
		expansion = append(expansion, cand)
	}
	n.Projects = append(n.Projects, existing...)
	n.Projects = append(n.Projects, expansion...)
	return nil
}

func (n *Network) encodeStorage(storageBuses []int, buses map[int]model.Bus, a Assumptions) error {
	sorted := append([]int(nil), storageBuses...)
	sort.Ints(sorted)
	for i, b := range sorted {
		if i > 0 && sorted[i-1] == b {
			continue
		}
		if _, ok := buses[b]; !ok {
			return &model.TopologyError{Table: "storage_buses", ID: strconv.Itoa(b), Reason: "storage-eligible bus does not exist"}
		}
		n.Projects = append(n.Projects, Project{
			ID:                StorageID(b),
			Kind:              ProjectStorage,
			SourceID:          b,
			ZoneID:            ZoneID(b),
			Tech:              a.StorageTech,
			EnergySource:      a.StorageEnergySource,
			OvernightCost:     a.StoragePowerCostPerMW,
			StorageEnergyCost: a.StorageEnergyCostPerMWh,
			StorageEfficiency: a.StorageEfficiency,
			StoreToRelease:    a.StorageStoreToRelease,
		})
	}
	return nil
}

func (n *Network) encodeLines(grid *model.Grid, buses map[int]model.Bus, a Assumptions) error {
	branches := append([]model.Branch(nil), grid.Branches...)
	sort.Slice(branches, func(i, j int) bool { return branches[i].ID < branches[j].ID })
	for i, br := range branches {
		id := strconv.Itoa(br.ID)
		if i > 0 && branches[i-1].ID == br.ID {
			return &model.TopologyError{Table: "branch", ID: id, Reason: "duplicate branch id"}
		}
		from, ok := buses[br.FromBusID]
		if !ok {
			return &model.TopologyError{Table: "branch", ID: id, Reason: fmt.Sprintf("references missing from bus %d", br.FromBusID)}
		}
		to, ok := buses[br.ToBusID]
		if !ok {
			return &model.TopologyError{Table: "branch", ID: id, Reason: fmt.Sprintf("references missing to bus %d", br.ToBusID)}
		}
		if br.X == 0 {
			return &model.TopologyError{Table: "branch", ID: id, Reason: "reactance x must be non-zero"}
		}
		line := TransmissionLine{
			ID:         ACLineID(br.ID),
			Kind:       LineAC,
			SourceID:   br.ID,
			FromZone:   ZoneID(from.ID),
			ToZone:     ZoneID(to.ID),
			LengthKm:   haversineKm(from.Lat, from.Lon, to.Lat, to.Lon),
			Efficiency: branchEfficiency(from.BaseKV, to.BaseKV, a),
			ExistingMW: br.RateA,
		}
		if br.RateA == 0 {
			line.ExistingMW, line.Unlimited = a.UnlimitedCapacityMW, true
		}
		n.Lines = append(n.Lines, line)
	}

	dclines := append([]model.DCLine(nil), grid.DCLines...)
	sort.Slice(dclines, func(i, j int) bool { return dclines[i].ID < dclines[j].ID })
	for i, dc := range dclines {
		id := strconv.Itoa(dc.ID)
		if i > 0 && dclines[i-1].ID == dc.ID {
			return &model.TopologyError{Table: "dcline", ID: id, Reason: "duplicate dcline id"}
		}
		from, ok := buses[dc.FromBusID]
		if !ok {
			return &model.TopologyError{Table: "dcline", ID: id, Reason: fmt.Sprintf("references missing from bus %d", dc.FromBusID)}
		}
		to, ok := buses[dc.ToBusID]
		if !ok {
			return &model.TopologyError{Table: "dcline", ID: id, Reason: fmt.Sprintf("references missing to bus %d", dc.ToBusID)}
		}
		n.Lines = append(n.Lines, TransmissionLine{
			ID:         DCLineID(dc.ID),
			Kind:       LineDC,
			SourceID:   dc.ID,
			FromZone:   ZoneID(from.ID),
			ToZone:     ZoneID(to.ID),
			LengthKm:   haversineKm(from.Lat, from.Lon, to.Lat, to.Lon),
			Efficiency: a.DefaultBranchEfficiency,
			ExistingMW: dc.Pmax,
		})
	}
	for i := range n.Lines {
		n.Lines[i].DBID = i + 1
	}
	return nil
}

func branchEfficiency(fromKV, toKV float64, a Assumptions) float64 {
	if fromKV == toKV {
		if eff, ok := a.BranchEfficiencyByKV[fromKV]; ok {
			return eff
		}
	}
	return a.DefaultBranchEfficiency
}

// demandShares splits each zone's demand across its buses by Pd. A zone whose Pd
// sums to zero is split evenly.
func demandShares(buses []model.Bus) map[int][]BusShare {
	byZone := map[int][]model.Bus{}
	for _, b := range buses {
		byZone[b.ZoneID] = append(byZone[b.ZoneID], b)
	}
	out := make(map[int][]BusShare, len(byZone))
	for zone, members := range byZone {
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
		total := 0.0
		for _, b := range members {
			total += b.Pd
		}
		shares := make([]BusShare, len(members))
		for i, b := range members {
			share := 1 / float64(len(members))
			if total != 0 {
				share = b.Pd / total
			}
			shares[i] = BusShare{BusID: b.ID, Share: share}
		}
		out[zone] = shares
	}
	return out
}

// ProjectsByID indexes the network's projects.
func (n *Network) ProjectsByID() map[string]Project {
	out := make(map[string]Project, len(n.Projects))
	for _, p := range n.Projects {
		out[p.ID] = p
	}
	return out
}
