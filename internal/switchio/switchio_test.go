package switchio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchwrapper/internal/model"
)

func TestWriteAllAndReadTable(t *testing.T) {
	dir := t.TempDir()
	tbl := NewTable("inputs/load_zones.csv", "LOAD_ZONE", "dbid")
	tbl.Append("1", "1")
	tbl.Append("2", "2")

	require.NoError(t, WriteAll(dir, []*Table{tbl}, []File{{Name: "modules.txt", Data: []byte("switch_model\n")}}))

	raw, err := os.ReadFile(filepath.Join(dir, "inputs", "load_zones.csv"))
	require.NoError(t, err)
	assert.Equal(t, "LOAD_ZONE,dbid\n1,1\n2,2\n", string(raw))

	got, err := ReadTable(filepath.Join(dir, "inputs", "load_zones.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"LOAD_ZONE", "dbid"}, got.Header)
	assert.Equal(t, [][]string{{"1", "1"}, {"2", "2"}}, got.Rows)

	col, err := got.Column("dbid")
	require.NoError(t, err)
	assert.Equal(t, 1, col)
	_, err = got.Column("nope")
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "modules.txt"))
	assert.NoError(t, err)
}

func TestAppendPanicsOnWidthMismatch(t *testing.T) {
	tbl := NewTable("x.csv", "a", "b")
	assert.Panics(t, func() { tbl.Append("1") })
}

func TestFormatAndParseFloat(t *testing.T) {
	assert.Equal(t, "0.1", FormatFloat(0.1))
	assert.Equal(t, "1000000", FormatFloat(1e6))
	assert.Equal(t, ".", FormatFloat(math.NaN()))

	v, err := ParseFloat(".")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = ParseFloat(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

func TestParseTimestampLayouts(t *testing.T) {
	want := time.Date(2030, 6, 1, 13, 0, 0, 0, time.UTC)
	for _, s := range []string{"2030-06-01 13:00:00", "2030-06-01T13:00:00Z", "2030-06-01 13:00", "2030-06-01T15:00:00+02:00"} {
		got, err := ParseTimestamp(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}
	_, err := ParseTimestamp("June 1st")
	assert.Error(t, err)
}

func TestTimepointCodecsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.TimepointRecord{
		{ID: 1, Timestamp: t0, Timeseries: "winter", Period: 2030, DurationOfTP: 1, Weight: 2},
		{ID: 2, Timeseries: "summer", Period: 2030, DurationOfTP: 1},
	}
	assignments := []model.TimestampAssignment{
		{Timestamp: t0.Add(2 * time.Hour), Timepoint: 2},
		{Timestamp: t0, Timepoint: 1},
		{Timestamp: t0.Add(time.Hour), Timepoint: 1},
	}
	tables := []*Table{
		TimepointsTable(TimepointsFile, records),
		TimestampMapTable(TimestampMapFile, assignments),
		PeriodHoursTable(PeriodHoursFile, map[int]float64{2030: 3}, 0.5),
	}
	require.NoError(t, WriteAll(dir, tables, nil))

	gotRecords, err := ReadTimepoints(filepath.Join(dir, TimepointsFile))
	require.NoError(t, err)
	assert.Equal(t, records, gotRecords)

	gotMap, err := ReadTimestampMap(filepath.Join(dir, TimestampMapFile))
	require.NoError(t, err)
	require.Len(t, gotMap, 3)
	assert.True(t, t0.Equal(gotMap[0].Timestamp))
	assert.Equal(t, 2, gotMap[2].Timepoint)

	hours, tol, err := ReadPeriodHours(filepath.Join(dir, PeriodHoursFile))
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2030: 3}, hours)
	assert.Equal(t, 0.5, tol)
}

func TestReadVariable(t *testing.T) {
	dir := t.TempDir()
	tbl := NewTable("outputs/BuildGen.csv", "GEN_BLD_YRS_1", "GEN_BLD_YRS_2", "BuildGen")
	tbl.Append("g1i", "2030", "12.5")
	require.NoError(t, WriteAll(dir, []*Table{tbl}, nil))

	v, err := ReadVariable(dir, VarBuildGen, 2, true)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Index: []string{"g1i", "2030"}, Value: 12.5}}, v.Entries)

	_, err = ReadVariable(dir, VarBuildGen, 1, true)
	var interpErr *model.InterpretationError
	assert.True(t, errors.As(err, &interpErr))

	_, err = ReadVariable(dir, VarDispatchGen, 2, true)
	assert.True(t, errors.As(err, &interpErr))
	assert.Equal(t, VarDispatchGen, interpErr.Table)

	v, err = ReadVariable(dir, VarDispatchTx, 2, false)
	assert.NoError(t, err)
	assert.Nil(t, v)
}
