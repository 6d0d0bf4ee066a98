package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchwrapper/internal/aggregate"
	"switchwrapper/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
base_year: 2019
periods:
  - year: 2030
    represented_hours: 4380
  - year: 2040
    start: 2036
    end: 2045
storage_buses: [1, 2]
aggregation:
  demand: weighted-mean
investment:
  allow_retirement: true
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []model.InvestmentPeriod{
		{Year: 2030, Start: 2030, End: 2030, RepresentedHours: 4380},
		{Year: 2040, Start: 2036, End: 2045, RepresentedHours: 8760},
	}, c.InvestmentPeriods())

	opts := c.PrepareOptions()
	assert.Equal(t, 2019, opts.BaseYear)
	assert.Equal(t, aggregate.ModeWeightedMean, opts.Modes.For(model.KindDemand))
	assert.Equal(t, aggregate.ModeSample, opts.Modes.For(model.KindWind))
	assert.Equal(t, 0.079, opts.Assumptions.DiscountRate)

	assert.True(t, c.ExtractOptions().AllowRetirement)

	lo := c.LaunchOptions()
	assert.Equal(t, "gurobi", lo.Solver)
	assert.Equal(t, []string{"dual"}, lo.Suffixes)
	assert.True(t, lo.Verbose)
	assert.Equal(t, "switch", lo.Executable)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLaunchVerboseCanBeDisabled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "launch:\n  verbose: false\n  solver: cbc\n")
	c, err := Load(path)
	require.NoError(t, err)
	assert.False(t, c.LaunchOptions().Verbose)
	assert.Equal(t, "cbc", c.LaunchOptions().Solver)
}

func TestAssumptionsFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assumptions.yaml", `
trans_capital_cost_per_mw_km: 1000
investment_cost_by_type:
  fusion: 9000000
`)
	path := writeFile(t, dir, "config.yaml", "assumptions_file: assumptions.yaml\nfinancials:\n  discount_rate: 0.05\n")
	c, err := Load(path)
	require.NoError(t, err)

	a := c.Assumptions()
	assert.Equal(t, 1000.0, a.TransCapitalCostPerMWKm)
	assert.Equal(t, 9e6, a.InvestmentCostByType["fusion"])
	assert.Equal(t, 1.0e6, a.InvestmentCostByType["ng"], "unlisted keys keep their defaults")
	assert.Equal(t, 0.05, a.DiscountRate)
	assert.Equal(t, 0.029, a.InterestRate)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown mode":       "aggregation:\n  solar: median\n",
		"unknown kind":       "aggregation:\n  nuclear: sample\n",
		"duplicate period":   "periods:\n  - year: 2030\n  - year: 2030\n",
		"end before start":   "periods:\n  - year: 2030\n    start: 2030\n    end: 2020\n",
		"negative hours":     "periods:\n  - year: 2030\n    represented_hours: -1\n",
		"negative tolerance": "mapping_tolerance: -1\n",
		"bad log level":      "log:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "config.yaml", "assumptions_file: nowhere.yaml\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Empty(t, c.PrepareOptions().Periods)

	logger, err := NewLogger(c.Log)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
