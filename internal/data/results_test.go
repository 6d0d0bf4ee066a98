package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchwrapper/internal/model"
)

func TestResultStorePutGet(t *testing.T) {
	s := NewResultStore(time.Minute)
	scenarios := map[int]*model.Scenario{2030: {Period: 2030}}
	r := s.Put("/tmp/run", scenarios)

	got, ok := s.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, "/tmp/run", got.Source)
	assert.Same(t, scenarios[2030], got.Scenarios[2030])

	_, ok = s.Get("not-a-uuid")
	assert.False(t, ok)

	s.Delete(r.ID)
	_, ok = s.Get(r.ID)
	assert.False(t, ok)
}

func TestResultStoreExpiry(t *testing.T) {
	s := NewResultStore(time.Minute)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	r := s.Put("a", nil)
	s.Put("b", nil)
	assert.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Minute)
	_, ok := s.Get(r.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Prune())
	assert.Zero(t, s.Len())
}

func TestSaveScenarioSkipsAbsentTables(t *testing.T) {
	ts := []time.Time{time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	pg := model.NewProfile(ts, []int{1})
	pg.Values[0][0] = 42
	s := &model.Scenario{
		Period: 2030,
		Grid:   &model.Grid{Plants: []model.Plant{{ID: 1, Type: "ng", Pmax: 50}}},
		PG:     pg,
	}
	dir := t.TempDir()
	require.NoError(t, SaveScenario(s, dir))

	got, err := LoadProfileCSV(filepath.Join(dir, "pg.csv"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{42}}, got.Values)

	_, err = os.Stat(filepath.Join(dir, "lmp.csv"))
	assert.True(t, os.IsNotExist(err))

	g, err := LoadGridJSON(filepath.Join(dir, "grid.json"))
	require.NoError(t, err)
	assert.Equal(t, 50.0, g.Plants[0].Pmax)
}
