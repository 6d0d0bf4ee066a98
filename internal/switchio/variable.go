package switchio

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"

	"switchwrapper/internal/model"
)

// Optimizer result files, one per variable or constraint, stored as
// outputs/<Name>.csv with the index columns first and the value last.
const (
	VarBuildGen           = "BuildGen"
	VarRetireGen          = "RetireGen"
	VarBuildStorageEnergy = "BuildStorageEnergy"
	VarBuildTx            = "BuildTx"
	VarDispatchGen        = "DispatchGen"
	VarDispatchTx         = "DispatchTx"
	VarChargeStorage      = "ChargeStorage"
	VarStateOfCharge      = "StateOfCharge"
	DualZoneEnergyBalance = "Zone_Energy_Balance"
)

// Entry is one indexed value of a result variable.
type Entry struct {
	Index []string
	Value float64
}

// Variable is a parsed result file.
type Variable struct {
	Name    string
	Arity   int
	Entries []Entry
}

// VariablePath returns where a result variable is stored under root.
func VariablePath(root, name string) string {
	return filepath.Join(root, OutputsDir, name+".csv")
}

// VariableTable starts a result file for name with the given index columns.
func VariableTable(name string, index ...string) *Table {
	header := append(append([]string(nil), index...), name)
	return NewTable(path.Join(OutputsDir, name+".csv"), header...)
}

// ReadVariable loads outputs/<name>.csv. A missing file is an
// *model.InterpretationError when required and (nil, nil) otherwise. Every row
// must have arity index columns followed by a numeric value.
func ReadVariable(root, name string, arity int, required bool) (*Variable, error) {
	file := VariablePath(root, name)
	t, err := ReadTable(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if required {
				return nil, &model.InterpretationError{Table: name, Reason: "required result file is missing: " + file}
			}
			return nil, nil
		}
		return nil, &model.InterpretationError{Table: name, Reason: err.Error()}
	}
	if len(t.Header) != arity+1 {
		return nil, &model.InterpretationError{
			Table:  name,
			Reason: fmt.Sprintf("want %d index columns and a value, header has %d columns", arity, len(t.Header)),
		}
	}
	v := &Variable{Name: name, Arity: arity, Entries: make([]Entry, 0, len(t.Rows))}
	for i, row := range t.Rows {
		val, err := ParseFloat(row[arity])
		if err != nil {
			return nil, &model.InterpretationError{Table: name, ID: fmt.Sprintf("row %d", i+1), Reason: err.Error()}
		}
		v.Entries = append(v.Entries, Entry{Index: append([]string(nil), row[:arity]...), Value: val})
	}
	return v, nil
}
