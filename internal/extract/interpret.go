// Package extract reads the optimizer's decisions back into one full-resolution
// scenario per investment period.
package extract

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"switchwrapper/internal/data"
	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
	"switchwrapper/internal/timepoint"
)

type Options struct {
	// AllowRetirement subtracts RetireGen from cumulative builds.
	AllowRetirement bool
}

type Interpreter struct {
	logger *zap.Logger
	opts   Options
}

func New(logger *zap.Logger, opts Options) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{logger: logger, opts: opts}
}

// Interpret rebuilds the timepoint map and base grid recorded under source at
// preparation time, validates the optimizer's result files against them and
// returns one scenario per period in the timepoint metadata. Nothing is
// returned unless every period is assembled.
func (in *Interpreter) Interpret(source string) (map[int]*model.Scenario, error) {
	log := in.logger.With(zap.String("source", source))
	out, err := in.interpret(source)
	if err != nil {
		log.Error("output interpretation failed", zap.Error(err))
		return nil, err
	}
	log.Info("interpreted optimizer outputs", zap.Int("periods", len(out)))
	return out, nil
}

func (in *Interpreter) interpret(source string) (map[int]*model.Scenario, error) {
	tm, err := LoadTimepointMap(source)
	if err != nil {
		return nil, err
	}
	grid, err := data.LoadGridJSON(switchio.WrapperPath(source, switchio.GridFile))
	if err != nil {
		return nil, &model.InterpretationError{Table: switchio.GridFile, Reason: err.Error()}
	}
	cat, err := readCatalog(source)
	if err != nil {
		return nil, err
	}

	r := &decisionReader{root: source, tm: tm, cat: cat}
	d, err := r.readAll(in.opts.AllowRetirement)
	if err != nil {
		return nil, err
	}

	var ins inputs
	if ins.loads, err = readInputSeries(source, "loads.csv", tm, "LOAD_ZONE", "TIMEPOINT", "zone_demand_mw"); err != nil {
		return nil, err
	}
	if ins.factors, err = readInputSeries(source, "variable_capacity_factors.csv", tm, "GENERATION_PROJECT", "timepoint", "gen_max_capacity_factor"); err != nil {
		return nil, err
	}

	storage := storageBuses(cat)
	scenarios := make(map[int]*model.Scenario, len(tm.Periods()))
	for _, period := range tm.Periods() {
		g, err := snapshot(grid, d, cat, period)
		if err != nil {
			return nil, err
		}
		scenarios[period] = newExpander(tm, period).scenario(period, g, &ins, d, storage)
		in.logger.Debug("assembled scenario",
			zap.Int("period", period),
			zap.Int("timestamps", len(scenarios[period].PG.Timestamps)),
			zap.Int("storage_units", len(g.Storage)),
		)
	}
	return scenarios, nil
}

// LoadTimepointMap rebuilds the timepoint map recorded under root by the
// preparer, validated under the same period hours and tolerance.
func LoadTimepointMap(root string) (*timepoint.Map, error) {
	records, err := switchio.ReadTimepoints(switchio.WrapperPath(root, switchio.TimepointsFile))
	if err != nil {
		return nil, wrapperError(switchio.TimepointsFile, err)
	}
	assignments, err := switchio.ReadTimestampMap(switchio.WrapperPath(root, switchio.TimestampMapFile))
	if err != nil {
		return nil, wrapperError(switchio.TimestampMapFile, err)
	}
	hours, tolerance, err := switchio.ReadPeriodHours(switchio.WrapperPath(root, switchio.PeriodHoursFile))
	if err != nil {
		return nil, wrapperError(switchio.PeriodHoursFile, err)
	}
	tm, err := timepoint.New(assignments, records, timepoint.Options{PeriodHours: hours, Tolerance: tolerance})
	if err != nil {
		return nil, &model.InterpretationError{Table: switchio.TimepointsFile, Reason: err.Error()}
	}
	return tm, nil
}

func wrapperError(table string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &model.InterpretationError{Table: table, Reason: "prepared mapping file is missing; was this folder prepared by this tool?"}
	}
	return &model.InterpretationError{Table: table, Reason: fmt.Sprintf("unreadable: %v", err)}
}
