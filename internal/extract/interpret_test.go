package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"switchwrapper/internal/data"
	"switchwrapper/internal/model"
	"switchwrapper/internal/prepare"
	"switchwrapper/internal/switchio"
)

// preparedFolder prepares the synthetic half-year case and writes a stub
// result set next to it.
func preparedFolder(t *testing.T, mutate func(c *data.SyntheticCase)) (string, *data.SyntheticCase) {
	t.Helper()
	c, err := data.Synthetic(data.DefaultSyntheticOptions())
	require.NoError(t, err)
	if mutate != nil {
		mutate(c)
	}
	opts := prepare.DefaultOptions()
	opts.Periods = c.Periods
	opts.BaseYear = 2025
	dir := t.TempDir()
	require.NoError(t, prepare.New(zap.NewNop(), opts).Prepare(c.Grid, c.Profiles, c.Timepoints, c.Mapping, c.StorageBuses, dir))
	require.NoError(t, WriteStubOutputs(dir))
	return dir, c
}

func writeVariable(t *testing.T, dir, name string, index []string, rows ...[]string) {
	t.Helper()
	tbl := switchio.VariableTable(name, index...)
	for _, r := range rows {
		tbl.Append(r...)
	}
	require.NoError(t, switchio.WriteAll(dir, []*switchio.Table{tbl}, nil))
}

func interpret(t *testing.T, dir string, opts Options) map[int]*model.Scenario {
	t.Helper()
	out, err := New(zap.NewNop(), opts).Interpret(dir)
	require.NoError(t, err)
	return out
}

func TestRoundTripKeepsTopology(t *testing.T) {
	dir, c := preparedFolder(t, func(c *data.SyntheticCase) {
		// bus 1, bus 2, generator A at bus 1, branch 1 between them
		c.Grid.Plants = c.Grid.Plants[:1]
		c.Profiles.Wind = model.NewProfile(c.Profiles.Wind.Timestamps, nil)
		c.StorageBuses = nil
	})
	scenarios := interpret(t, dir, Options{})
	require.Len(t, scenarios, 2)
	for period, s := range scenarios {
		assert.Equal(t, c.Grid.Buses, s.Grid.Buses, period)
		assert.Equal(t, c.Grid.Plants, s.Grid.Plants, period)
		assert.Equal(t, c.Grid.Branches, s.Grid.Branches, period)
		assert.Empty(t, s.Grid.Storage, period)
		assert.Nil(t, s.StorageSOC, period)
	}
}

func TestHalfYearExpandsEveryTimestamp(t *testing.T) {
	dir, _ := preparedFolder(t, nil)
	scenarios := interpret(t, dir, Options{})
	require.Len(t, scenarios, 2)
	require.Contains(t, scenarios, 2030)
	require.Contains(t, scenarios, 2040)

	for period, s := range scenarios {
		assert.Equal(t, period, s.Period)
		for _, p := range []*model.Profile{s.Profiles.Demand, s.Profiles.Hydro, s.Profiles.Solar, s.Profiles.Wind, s.PG, s.StorageDispatch, s.StorageSOC} {
			require.NotNil(t, p)
			assert.Len(t, p.Timestamps, 4380, period)
			assert.Len(t, p.Values, 4380, period)
		}
		require.NotNil(t, s.PF)
		assert.Equal(t, []int{1}, s.PF.Columns, period)
		assert.Len(t, s.PF.Values, 4380, period)
		require.NotNil(t, s.DCLinePF)
		assert.Empty(t, s.DCLinePF.Columns, period)
		assert.Nil(t, s.LMP)
	}

	s := scenarios[2030]
	assert.Equal(t, []int{1}, s.Profiles.Demand.Columns)
	// timepoint 1 samples hour 0 (demand 100, wind 72 MW) and every hour it
	// stands for takes that value unchanged
	for _, i := range []int{0, 100, 364} {
		assert.InDelta(t, 100.0, s.Profiles.Demand.Values[i][0], 1e-9)
		assert.InDelta(t, 72.0, s.Profiles.Wind.Values[i][0], 1e-9)
	}
	assert.Equal(t, []int{2}, s.Profiles.Wind.Columns)
	assert.Equal(t, []int{1, 2}, s.PG.Columns)
	assert.Equal(t, 4380, len(scenarios[2040].Profiles.Demand.Timestamps))
	assert.True(t, scenarios[2040].Profiles.Demand.Timestamps[0].After(s.Profiles.Demand.Timestamps[4379]))
}

func TestBuildsAreCumulative(t *testing.T) {
	dir, c := preparedFolder(t, nil)
	writeVariable(t, dir, switchio.VarBuildGen, []string{"GEN_BLD_YRS_1", "GEN_BLD_YRS_2"},
		[]string{"g1", "2025", "200"},
		[]string{"g1i", "2030", "10"},
		[]string{"g1i", "2040", "5"},
		[]string{"s2i", "2040", "20"},
	)
	writeVariable(t, dir, switchio.VarBuildStorageEnergy, []string{"STORAGE_GEN_BLD_YRS_1", "STORAGE_GEN_BLD_YRS_2"},
		[]string{"s2i", "2040", "80"},
	)
	scenarios := interpret(t, dir, Options{})

	assert.Equal(t, 210.0, scenarios[2030].Grid.Plants[0].Pmax)
	assert.Equal(t, 215.0, scenarios[2040].Grid.Plants[0].Pmax)
	assert.Equal(t, 80.0, scenarios[2040].Grid.Plants[1].Pmax)
	assert.Empty(t, scenarios[2030].Grid.Storage)
	assert.Equal(t, []model.StorageUnit{{BusID: 2, PowerMW: 20, EnergyMWh: 80}}, scenarios[2040].Grid.Storage)
	assert.Equal(t, 200.0, c.Grid.Plants[0].Pmax)
}

func TestRetirementsOnlyWhenAllowed(t *testing.T) {
	dir, _ := preparedFolder(t, nil)
	writeVariable(t, dir, switchio.VarRetireGen, []string{"GEN_BLD_YRS_1", "GEN_BLD_YRS_2"},
		[]string{"g1", "2040", "50"},
	)
	assert.Equal(t, 200.0, interpret(t, dir, Options{})[2040].Grid.Plants[0].Pmax)

	scenarios := interpret(t, dir, Options{AllowRetirement: true})
	assert.Equal(t, 200.0, scenarios[2030].Grid.Plants[0].Pmax)
	assert.Equal(t, 150.0, scenarios[2040].Grid.Plants[0].Pmax)

	writeVariable(t, dir, switchio.VarRetireGen, []string{"GEN_BLD_YRS_1", "GEN_BLD_YRS_2"},
		[]string{"g1", "2030", "500"},
	)
	_, err := New(nil, Options{AllowRetirement: true}).Interpret(dir)
	var interpErr *model.InterpretationError
	assert.True(t, errors.As(err, &interpErr), "got %v", err)
}

func TestTransmissionUpgradeScalesBranch(t *testing.T) {
	dir, _ := preparedFolder(t, nil)
	writeVariable(t, dir, switchio.VarBuildTx, []string{"TRANS_BLD_YRS_1", "TRANS_BLD_YRS_2"},
		[]string{"1ac", "2040", "150"},
	)
	scenarios := interpret(t, dir, Options{})
	assert.Equal(t, model.Branch{ID: 1, FromBusID: 1, ToBusID: 2, RateA: 150, X: 0.05}, scenarios[2030].Grid.Branches[0])
	assert.Equal(t, model.Branch{ID: 1, FromBusID: 1, ToBusID: 2, RateA: 300, X: 0.025}, scenarios[2040].Grid.Branches[0])
}

func TestFlowsPricesAndStorage(t *testing.T) {
	dir, _ := preparedFolder(t, nil)
	writeVariable(t, dir, switchio.VarDispatchTx, []string{"TRANS_TIMEPOINTS_1", "TRANS_TIMEPOINTS_2", "TRANS_TIMEPOINTS_3"},
		[]string{"1", "2", "1", "30"},
		[]string{"2", "1", "1", "10"},
		[]string{"2", "1", "13", "5"},
	)
	writeVariable(t, dir, switchio.DualZoneEnergyBalance, []string{"LOAD_ZONE", "TIMEPOINT"},
		[]string{"1", "1", "18250"},
		[]string{"2", "1", "."},
	)
	writeVariable(t, dir, switchio.VarDispatchGen, []string{"GEN_TPS_1", "GEN_TPS_2"},
		[]string{"g1", "1", "90"},
		[]string{"g1i", "1", "10"},
		[]string{"s2i", "1", "5"},
	)
	writeVariable(t, dir, switchio.VarChargeStorage, []string{"STORAGE_GEN_TPS_1", "STORAGE_GEN_TPS_2"},
		[]string{"s2i", "1", "2"},
	)
	writeVariable(t, dir, switchio.VarStateOfCharge, []string{"STORAGE_GEN_TPS_1", "STORAGE_GEN_TPS_2"},
		[]string{"s2i", "1", "40"},
	)
	scenarios := interpret(t, dir, Options{})
	s := scenarios[2030]

	require.NotNil(t, s.PF)
	assert.Equal(t, []int{1}, s.PF.Columns)
	assert.InDelta(t, 20.0, s.PF.Values[0][0], 1e-9)
	assert.InDelta(t, 0.0, s.PF.Values[365][0], 1e-9)
	assert.InDelta(t, -5.0, scenarios[2040].PF.Values[0][0], 1e-9)
	assert.Empty(t, s.DCLinePF.Columns)

	require.NotNil(t, s.LMP)
	assert.Equal(t, []int{1, 2}, s.LMP.Columns)
	assert.InDelta(t, 50.0, s.LMP.Values[0][0], 1e-9)

	assert.Equal(t, 100.0, s.PG.Values[0][0])
	assert.Equal(t, []int{2}, s.StorageDispatch.Columns)
	assert.Equal(t, 3.0, s.StorageDispatch.Values[0][0])
	assert.Equal(t, 40.0, s.StorageSOC.Values[0][0])
}

func TestInterpretationErrors(t *testing.T) {
	cases := []struct {
		name    string
		corrupt func(t *testing.T, dir string)
		table   string
	}{
		{"unknown timepoint", func(t *testing.T, dir string) {
			writeVariable(t, dir, switchio.VarDispatchGen, []string{"GEN_TPS_1", "GEN_TPS_2"}, []string{"g1", "999", "1"})
		}, switchio.VarDispatchGen},
		{"period missing from metadata", func(t *testing.T, dir string) {
			writeVariable(t, dir, switchio.VarBuildGen, []string{"GEN_BLD_YRS_1", "GEN_BLD_YRS_2"}, []string{"g1i", "2050", "1"})
		}, switchio.VarBuildGen},
		{"unknown project", func(t *testing.T, dir string) {
			writeVariable(t, dir, switchio.VarBuildGen, []string{"GEN_BLD_YRS_1", "GEN_BLD_YRS_2"}, []string{"g99i", "2030", "1"})
		}, switchio.VarBuildGen},
		{"unknown line", func(t *testing.T, dir string) {
			writeVariable(t, dir, switchio.VarBuildTx, []string{"TRANS_BLD_YRS_1", "TRANS_BLD_YRS_2"}, []string{"7ac", "2030", "1"})
		}, switchio.VarBuildTx},
		{"missing dispatch", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(switchio.VariablePath(dir, switchio.VarDispatchGen)))
		}, switchio.VarDispatchGen},
		{"missing state of charge with storage", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(switchio.VariablePath(dir, switchio.VarStateOfCharge)))
		}, switchio.VarStateOfCharge},
		{"missing charging with storage", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(switchio.VariablePath(dir, switchio.VarChargeStorage)))
		}, switchio.VarChargeStorage},
		{"missing transmission dispatch", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(switchio.VariablePath(dir, switchio.VarDispatchTx)))
		}, switchio.VarDispatchTx},
		{"missing mapping", func(t *testing.T, dir string) {
			require.NoError(t, os.Remove(filepath.Join(dir, switchio.WrapperDir, switchio.TimestampMapFile)))
		}, switchio.TimestampMapFile},
		{"malformed result", func(t *testing.T, dir string) {
			writeVariable(t, dir, switchio.VarDispatchGen, []string{"GEN_TPS_1"}, []string{"g1", "1"})
		}, switchio.VarDispatchGen},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir, _ := preparedFolder(t, nil)
			tc.corrupt(t, dir)
			out, err := New(nil, Options{}).Interpret(dir)
			assert.Nil(t, out)
			var interpErr *model.InterpretationError
			require.True(t, errors.As(err, &interpErr), "got %v", err)
			assert.Equal(t, tc.table, interpErr.Table)
		})
	}
}
