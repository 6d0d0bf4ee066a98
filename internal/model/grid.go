package model

import "sort"

// Grid is the caller-owned network description. The pipelines only read it;
// anything they change is done on a Clone.
type Grid struct {
	Buses    []Bus         `json:"bus"`
	Plants   []Plant       `json:"plant"`
	Branches []Branch      `json:"branch"`
	DCLines  []DCLine      `json:"dcline,omitempty"`
	Storage  []StorageUnit `json:"storage,omitempty"`
}

// Bus is a network node. ZoneID groups buses into the zones demand profiles are
// reported for.
type Bus struct {
	ID     int     `json:"bus_id"`
	ZoneID int     `json:"zone_id"`
	Pd     float64 `json:"Pd"`
	BaseKV float64 `json:"baseKV"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Plant is a generator. Cost is the quadratic cost curve c0 + c1*P + c2*P^2 ($/h).
type Plant struct {
	ID    int     `json:"plant_id"`
	BusID int     `json:"bus_id"`
	Type  string  `json:"type"`
	Pmin  float64 `json:"Pmin"`
	Pmax  float64 `json:"Pmax"`
	C0    float64 `json:"c0"`
	C1    float64 `json:"c1"`
	C2    float64 `json:"c2"`
}

// Branch is an AC line or transformer. RateA == 0 means unlimited.
type Branch struct {
	ID        int     `json:"branch_id"`
	FromBusID int     `json:"from_bus_id"`
	ToBusID   int     `json:"to_bus_id"`
	RateA     float64 `json:"rateA"`
	X         float64 `json:"x"`
}

type DCLine struct {
	ID        int     `json:"dcline_id"`
	FromBusID int     `json:"from_bus_id"`
	ToBusID   int     `json:"to_bus_id"`
	Pmax      float64 `json:"Pmax"`
}

// StorageUnit is storage capacity sited at a bus. Expanded grids get one unit per
// storage-eligible bus with non-zero built power.
type StorageUnit struct {
	BusID     int     `json:"bus_id"`
	PowerMW   float64 `json:"power_mw"`
	EnergyMWh float64 `json:"energy_mwh"`
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	return &Grid{
		Buses:    append([]Bus(nil), g.Buses...),
		Plants:   append([]Plant(nil), g.Plants...),
		Branches: append([]Branch(nil), g.Branches...),
		DCLines:  append([]DCLine(nil), g.DCLines...),
		Storage:  append([]StorageUnit(nil), g.Storage...),
	}
}

func (g *Grid) BusByID() map[int]Bus {
	out := make(map[int]Bus, len(g.Buses))
	for _, b := range g.Buses {
		out[b.ID] = b
	}
	return out
}

func (g *Grid) PlantByID() map[int]Plant {
	out := make(map[int]Plant, len(g.Plants))
	for _, p := range g.Plants {
		out[p.ID] = p
	}
	return out
}

// PlantIDsOfTypes returns the ascending IDs of plants whose type is in types.
func (g *Grid) PlantIDsOfTypes(types ...string) []int {
	want := make(map[string]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var ids []int
	for _, p := range g.Plants {
		if want[p.Type] {
			ids = append(ids, p.ID)
		}
	}
	sort.Ints(ids)
	return ids
}
