package extract

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
	"switchwrapper/internal/timepoint"
	"switchwrapper/internal/topology"
)

// yearly holds investment decisions: key -> period -> value.
type yearly map[string]map[int]float64

// upTo sums a key's values over every period up to and including period.
func (y yearly) upTo(key string, period int) float64 {
	total := 0.0
	for year, v := range y[key] {
		if year <= period {
			total += v
		}
	}
	return total
}

// hourly holds operational decisions: key -> timepoint -> value.
type hourly map[string]map[int]float64

func (h hourly) at(key string, tp int) float64 {
	return h[key][tp]
}

// catalog is what the interpreter knows about the prepared inputs.
type catalog struct {
	projects      map[string]topology.ProjectRef
	predetermined map[string]map[int]bool
	lines         map[string]topology.LineRef
	zones         map[string]bool
}

func (c *catalog) hasStorage() bool {
	for _, ref := range c.projects {
		if ref.Kind == topology.ProjectStorage {
			return true
		}
	}
	return false
}

type decisions struct {
	build         yearly
	retire        yearly
	storageEnergy yearly
	buildTx       yearly

	dispatch hourly
	charge   hourly
	soc      hourly
	balance  hourly // nil when no duals were reported
	flows    hourly // keyed "from,to"; nil when not reported
}

// decisionReader validates result files against the catalog and timepoint map.
type decisionReader struct {
	root string
	tm   *timepoint.Map
	cat  *catalog
}

func (r *decisionReader) readAll(allowRetirement bool) (*decisions, error) {
	var (
		d   decisions
		err error
	)
	if d.build, err = r.yearly(switchio.VarBuildGen, true, r.projectKey); err != nil {
		return nil, err
	}
	if allowRetirement {
		if d.retire, err = r.yearly(switchio.VarRetireGen, false, r.projectKey); err != nil {
			return nil, err
		}
	}
	storage := r.cat.hasStorage()
	if d.storageEnergy, err = r.yearly(switchio.VarBuildStorageEnergy, storage, r.projectKey); err != nil {
		return nil, err
	}
	if d.buildTx, err = r.yearly(switchio.VarBuildTx, len(r.cat.lines) > 0, r.lineKey); err != nil {
		return nil, err
	}
	if d.dispatch, err = r.hourly(switchio.VarDispatchGen, 2, true, false, r.projectKey); err != nil {
		return nil, err
	}
	if d.charge, err = r.hourly(switchio.VarChargeStorage, 2, storage, false, r.projectKey); err != nil {
		return nil, err
	}
	if d.soc, err = r.hourly(switchio.VarStateOfCharge, 2, storage, false, r.projectKey); err != nil {
		return nil, err
	}
	if d.balance, err = r.hourly(switchio.DualZoneEnergyBalance, 2, false, true, r.zoneKey); err != nil {
		return nil, err
	}
	if d.flows, err = r.hourly(switchio.VarDispatchTx, 3, len(r.cat.lines) > 0, false, r.zonePairKey); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *decisionReader) projectKey(table string, idx []string) (string, error) {
	if _, ok := r.cat.projects[idx[0]]; !ok {
		return "", &model.InterpretationError{Table: table, ID: idx[0], Reason: "unknown generation project"}
	}
	return idx[0], nil
}

func (r *decisionReader) lineKey(table string, idx []string) (string, error) {
	if _, ok := r.cat.lines[idx[0]]; !ok {
		return "", &model.InterpretationError{Table: table, ID: idx[0], Reason: "unknown transmission line"}
	}
	return idx[0], nil
}

func (r *decisionReader) zoneKey(table string, idx []string) (string, error) {
	if !r.cat.zones[idx[0]] {
		return "", &model.InterpretationError{Table: table, ID: idx[0], Reason: "unknown load zone"}
	}
	return idx[0], nil
}

func (r *decisionReader) zonePairKey(table string, idx []string) (string, error) {
	for _, z := range idx[:2] {
		if !r.cat.zones[z] {
			return "", &model.InterpretationError{Table: table, ID: z, Reason: "unknown load zone"}
		}
	}
	return pairKey(idx[0], idx[1]), nil
}

func pairKey(from, to string) string { return from + "," + to }

// yearly reads a (key, period) variable. Predetermined builds of existing
// projects are already part of the grid and are skipped.
func (r *decisionReader) yearly(name string, required bool, keyOf func(string, []string) (string, error)) (yearly, error) {
	v, err := switchio.ReadVariable(r.root, name, 2, required)
	if err != nil || v == nil {
		return yearly{}, err
	}
	out := yearly{}
	for _, e := range v.Entries {
		key, err := keyOf(name, e.Index)
		if err != nil {
			return nil, err
		}
		year, err := strconv.Atoi(e.Index[1])
		if err != nil {
			return nil, &model.InterpretationError{Table: name, ID: e.Index[1], Reason: "period is not an integer"}
		}
		if r.cat.predetermined[key][year] {
			continue
		}
		if !r.tm.HasPeriod(year) {
			return nil, &model.InterpretationError{Table: name, ID: strconv.Itoa(year), Reason: "period appears in decisions but not in timepoint metadata"}
		}
		if math.IsNaN(e.Value) {
			return nil, &model.InterpretationError{Table: name, ID: strings.Join(e.Index, ","), Reason: "value is missing"}
		}
		if out[key] == nil {
			out[key] = map[int]float64{}
		}
		out[key][year] += e.Value
	}
	return out, nil
}

// hourly reads a variable whose last index column is a timepoint. It returns nil
// when an optional file is absent.
func (r *decisionReader) hourly(name string, arity int, required, allowMissing bool, keyOf func(string, []string) (string, error)) (hourly, error) {
	v, err := switchio.ReadVariable(r.root, name, arity, required)
	if err != nil || v == nil {
		return nil, err
	}
	out := hourly{}
	for _, e := range v.Entries {
		key, err := keyOf(name, e.Index)
		if err != nil {
			return nil, err
		}
		tpField := e.Index[arity-1]
		tp, err := strconv.Atoi(tpField)
		if err != nil || !r.tm.Has(tp) {
			return nil, &model.InterpretationError{Table: name, ID: tpField, Reason: "timepoint is absent from the timepoint map"}
		}
		if math.IsNaN(e.Value) && !allowMissing {
			return nil, &model.InterpretationError{Table: name, ID: strings.Join(e.Index, ","), Reason: "value is missing"}
		}
		if out[key] == nil {
			out[key] = map[int]float64{}
		}
		out[key][tp] = e.Value
	}
	return out, nil
}

// readCatalog loads the project, line and zone identifiers written at
// preparation time.
func readCatalog(root string) (*catalog, error) {
	c := &catalog{
		projects:      map[string]topology.ProjectRef{},
		predetermined: map[string]map[int]bool{},
		lines:         map[string]topology.LineRef{},
		zones:         map[string]bool{},
	}

	info, err := readInputTable(root, "generation_projects_info.csv", "GENERATION_PROJECT")
	if err != nil {
		return nil, err
	}
	for _, row := range info.rows {
		ref, err := topology.ParseProjectID(row[0])
		if err != nil {
			return nil, &model.InterpretationError{Table: info.name, ID: row[0], Reason: err.Error()}
		}
		c.projects[row[0]] = ref
	}

	pre, err := readInputTable(root, "gen_build_predetermined.csv", "GENERATION_PROJECT", "build_year")
	if err != nil {
		return nil, err
	}
	for _, row := range pre.rows {
		year, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, &model.InterpretationError{Table: pre.name, ID: row[1], Reason: "build_year is not an integer"}
		}
		if c.predetermined[row[0]] == nil {
			c.predetermined[row[0]] = map[int]bool{}
		}
		c.predetermined[row[0]][year] = true
	}

	lines, err := readInputTable(root, "transmission_lines.csv", "TRANSMISSION_LINE")
	if err != nil {
		return nil, err
	}
	for _, row := range lines.rows {
		ref, err := topology.ParseLineID(row[0])
		if err != nil {
			return nil, &model.InterpretationError{Table: lines.name, ID: row[0], Reason: err.Error()}
		}
		c.lines[row[0]] = ref
	}

	zones, err := readInputTable(root, "load_zones.csv", "LOAD_ZONE")
	if err != nil {
		return nil, err
	}
	for _, row := range zones.rows {
		c.zones[row[0]] = true
	}
	return c, nil
}

type projectedTable struct {
	name string
	rows [][]string
}

// readInputTable reads inputs/<name> and projects it onto the given columns.
func readInputTable(root, name string, columns ...string) (*projectedTable, error) {
	t, err := switchio.ReadTable(filepath.Join(root, switchio.InputsDir, name))
	if err != nil {
		return nil, &model.InterpretationError{Table: name, Reason: fmt.Sprintf("prepared input is unreadable: %v", err)}
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		if idx[i], err = t.Column(c); err != nil {
			return nil, &model.InterpretationError{Table: name, Reason: err.Error()}
		}
	}
	out := &projectedTable{name: name, rows: make([][]string, len(t.Rows))}
	for i, row := range t.Rows {
		out.rows[i] = make([]string, len(idx))
		for j, k := range idx {
			out.rows[i][j] = row[k]
		}
	}
	return out, nil
}

// readInputSeries reads a (key, timepoint, value) input table such as loads.csv.
func readInputSeries(root, name string, tm *timepoint.Map, columns ...string) (hourly, error) {
	t, err := readInputTable(root, name, columns...)
	if err != nil {
		return nil, err
	}
	out := hourly{}
	for _, row := range t.rows {
		tp, err := strconv.Atoi(row[1])
		if err != nil || !tm.Has(tp) {
			return nil, &model.InterpretationError{Table: name, ID: row[1], Reason: "timepoint is absent from the timepoint map"}
		}
		v, err := switchio.ParseFloat(row[2])
		if err != nil {
			return nil, &model.InterpretationError{Table: name, ID: row[0], Reason: err.Error()}
		}
		if out[row[0]] == nil {
			out[row[0]] = map[int]float64{}
		}
		out[row[0]][tp] = v
	}
	return out, nil
}
