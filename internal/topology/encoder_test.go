package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchwrapper/internal/model"
)

func twoBusGrid() *model.Grid {
	return &model.Grid{
		Buses: []model.Bus{
			{ID: 1, ZoneID: 1, Pd: 30, BaseKV: 230, Lat: 40, Lon: -105},
			{ID: 2, ZoneID: 1, Pd: 10, BaseKV: 230, Lat: 41, Lon: -105},
		},
		Plants: []model.Plant{
			{ID: 7, BusID: 1, Type: "ng", Pmin: 10, Pmax: 100, C0: 50, C1: 20, C2: 0.01},
			{ID: 8, BusID: 2, Type: "wind", Pmax: 50},
		},
		Branches: []model.Branch{{ID: 3, FromBusID: 1, ToBusID: 2, RateA: 200, X: 0.1}},
	}
}

func TestEncodeBuildsStableIdentifiers(t *testing.T) {
	n, err := Encode(twoBusGrid(), []int{2}, DefaultAssumptions())
	require.NoError(t, err)

	require.Len(t, n.LoadZones, 2)
	assert.Equal(t, "1", n.LoadZones[0].ID)
	assert.Equal(t, "2", n.LoadZones[1].ID)

	var ids []string
	for _, p := range n.Projects {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"g7", "g8", "g7i", "g8i", "s2i"}, ids)

	byID := n.ProjectsByID()
	assert.Equal(t, 100.0, byID["g7"].ExistingMW)
	assert.Equal(t, 0.0, byID["g7i"].ExistingMW)
	assert.Equal(t, "NaturalGas", byID["g7"].EnergySource)
	assert.True(t, byID["g8"].IsVariable)
	assert.Equal(t, ProjectStorage, byID["s2i"].Kind)
	assert.Equal(t, "2", byID["s2i"].ZoneID)

	require.Len(t, n.Lines, 1)
	line := n.Lines[0]
	assert.Equal(t, "3ac", line.ID)
	assert.Equal(t, "1", line.FromZone)
	assert.Equal(t, "2", line.ToZone)
	assert.Equal(t, 0.97, line.Efficiency)
	assert.InDelta(t, 111.2, line.LengthKm, 0.1)
	assert.Equal(t, 200.0, line.ExistingMW)

	assert.Equal(t, map[int]float64{8: 50}, n.VariablePlants)
}

func TestEncodeDemandShares(t *testing.T) {
	n, err := Encode(twoBusGrid(), nil, DefaultAssumptions())
	require.NoError(t, err)
	assert.Equal(t, []BusShare{{BusID: 1, Share: 0.75}, {BusID: 2, Share: 0.25}}, n.DemandShares[1])

	g := twoBusGrid()
	g.Buses[0].Pd, g.Buses[1].Pd = 0, 0
	n, err = Encode(g, nil, DefaultAssumptions())
	require.NoError(t, err)
	assert.Equal(t, []BusShare{{BusID: 1, Share: 0.5}, {BusID: 2, Share: 0.5}}, n.DemandShares[1])
}

func TestEncodeUnlimitedBranch(t *testing.T) {
	g := twoBusGrid()
	g.Branches[0].RateA = 0
	n, err := Encode(g, nil, DefaultAssumptions())
	require.NoError(t, err)
	assert.True(t, n.Lines[0].Unlimited)
	assert.Equal(t, 99999.0, n.Lines[0].ExistingMW)
}

func TestEncodeDoesNotMutateGrid(t *testing.T) {
	g := twoBusGrid()
	before := g.Clone()
	_, err := Encode(g, []int{1}, DefaultAssumptions())
	require.NoError(t, err)
	assert.Equal(t, before, g)
}

func TestEncodeTopologyErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(g *model.Grid)
		storage []int
		table   string
		id      string
	}{
		{"plant on missing bus", func(g *model.Grid) { g.Plants[0].BusID = 99 }, nil, "plant", "7"},
		{"branch from missing bus", func(g *model.Grid) { g.Branches[0].FromBusID = 99 }, nil, "branch", "3"},
		{"branch to missing bus", func(g *model.Grid) { g.Branches[0].ToBusID = 99 }, nil, "branch", "3"},
		{"zero reactance", func(g *model.Grid) { g.Branches[0].X = 0 }, nil, "branch", "3"},
		{"duplicate bus", func(g *model.Grid) { g.Buses[1].ID = 1 }, nil, "bus", "1"},
		{"duplicate plant", func(g *model.Grid) { g.Plants[1].ID = 7 }, nil, "plant", "7"},
		{"unknown plant type", func(g *model.Grid) { g.Plants[0].Type = "fusion" }, nil, "plant", "7"},
		{"pmin above pmax", func(g *model.Grid) { g.Plants[0].Pmin = 500 }, nil, "plant", "7"},
		{"storage on missing bus", func(g *model.Grid) {}, []int{42}, "storage_buses", "42"},
		{"dcline to missing bus", func(g *model.Grid) {
			g.DCLines = []model.DCLine{{ID: 5, FromBusID: 1, ToBusID: 77, Pmax: 10}}
		}, nil, "dcline", "5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := twoBusGrid()
			tc.mutate(g)
			_, err := Encode(g, tc.storage, DefaultAssumptions())
			var topoErr *model.TopologyError
			require.True(t, errors.As(err, &topoErr), "got %v", err)
			assert.Equal(t, tc.table, topoErr.Table)
			assert.Equal(t, tc.id, topoErr.ID)
		})
	}
}

func TestLinearizeCost(t *testing.T) {
	a := DefaultAssumptions()

	// default types are linearized from zero output
	costAtMin, slope := LinearizeCost(model.Plant{Type: "ng", Pmin: 10, Pmax: 100, C0: 50, C1: 20, C2: 0.01}, a)
	assert.InDelta(t, 50.0, costAtMin, 1e-9)
	assert.InDelta(t, 21.0, slope, 1e-9)

	// coal keeps the grid's Pmin
	costAtMin, slope = LinearizeCost(model.Plant{Type: "coal", Pmin: 10, Pmax: 20, C0: 0, C1: 1, C2: 0}, a)
	assert.InDelta(t, 10.0, costAtMin, 1e-9)
	assert.InDelta(t, 1.0, slope, 1e-9)

	// a flat segment has zero slope
	_, slope = LinearizeCost(model.Plant{Type: "ng", Pmax: 0, C0: 5, C1: 2}, a)
	assert.Equal(t, 0.0, slope)
}
