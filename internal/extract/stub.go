package extract

import (
	"sort"
	"strconv"

	"switchwrapper/internal/switchio"
	"switchwrapper/internal/topology"
)

// WriteStubOutputs writes a complete result set under root in which the
// optimizer built nothing and dispatched nothing. It stands in for a solve when
// checking that a prepared folder reads back cleanly.
func WriteStubOutputs(root string) error {
	tm, err := LoadTimepointMap(root)
	if err != nil {
		return err
	}
	cat, err := readCatalog(root)
	if err != nil {
		return err
	}

	projects := make([]string, 0, len(cat.projects))
	for id := range cat.projects {
		projects = append(projects, id)
	}
	sort.Strings(projects)
	lines := make([]string, 0, len(cat.lines))
	for id := range cat.lines {
		lines = append(lines, id)
	}
	sort.Strings(lines)
	pairs, err := linePairs(root)
	if err != nil {
		return err
	}

	build := switchio.VariableTable(switchio.VarBuildGen, "GEN_BLD_YRS_1", "GEN_BLD_YRS_2")
	energy := switchio.VariableTable(switchio.VarBuildStorageEnergy, "STORAGE_GEN_BLD_YRS_1", "STORAGE_GEN_BLD_YRS_2")
	dispatch := switchio.VariableTable(switchio.VarDispatchGen, "GEN_TPS_1", "GEN_TPS_2")
	charge := switchio.VariableTable(switchio.VarChargeStorage, "STORAGE_GEN_TPS_1", "STORAGE_GEN_TPS_2")
	soc := switchio.VariableTable(switchio.VarStateOfCharge, "STORAGE_GEN_TPS_1", "STORAGE_GEN_TPS_2")
	buildTx := switchio.VariableTable(switchio.VarBuildTx, "TRANS_BLD_YRS_1", "TRANS_BLD_YRS_2")
	flows := switchio.VariableTable(switchio.VarDispatchTx, "TRANS_TIMEPOINTS_1", "TRANS_TIMEPOINTS_2", "TRANS_TIMEPOINTS_3")

	for _, id := range projects {
		ref := cat.projects[id]
		for _, period := range tm.Periods() {
			if ref.Kind != topology.ProjectExisting {
				build.Append(id, strconv.Itoa(period), "0")
			}
			if ref.Kind == topology.ProjectStorage {
				energy.Append(id, strconv.Itoa(period), "0")
			}
		}
		for _, tp := range tm.Timepoints() {
			dispatch.Append(id, strconv.Itoa(tp), "0")
			if ref.Kind == topology.ProjectStorage {
				charge.Append(id, strconv.Itoa(tp), "0")
				soc.Append(id, strconv.Itoa(tp), "0")
			}
		}
	}
	for _, id := range lines {
		for _, period := range tm.Periods() {
			buildTx.Append(id, strconv.Itoa(period), "0")
		}
	}

	for _, pair := range pairs {
		for _, tp := range tm.Timepoints() {
			flows.Append(pair[0], pair[1], strconv.Itoa(tp), "0")
		}
	}

	tables := []*switchio.Table{build, dispatch, buildTx}
	if cat.hasStorage() {
		tables = append(tables, energy, charge, soc)
	}
	if len(pairs) > 0 {
		tables = append(tables, flows)
	}
	return switchio.WriteAll(root, tables, nil)
}

// linePairs lists the distinct (from, to) zone pairs joined by a line, in
// both directions, as the optimizer reports flows on each.
func linePairs(root string) ([][2]string, error) {
	lines, err := readInputTable(root, "transmission_lines.csv", "trans_lz1", "trans_lz2")
	if err != nil {
		return nil, err
	}
	seen := map[[2]string]bool{}
	var pairs [][2]string
	for _, row := range lines.rows {
		for _, p := range [][2]string{{row[0], row[1]}, {row[1], row[0]}} {
			if !seen[p] {
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs, nil
}
