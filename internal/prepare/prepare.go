// Package prepare turns a grid, its hourly profiles and a timepoint mapping into
// the optimizer's input file set.
package prepare

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"switchwrapper/internal/aggregate"
	"switchwrapper/internal/data"
	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
	"switchwrapper/internal/timepoint"
	"switchwrapper/internal/topology"
)

// Options are the modeling choices the inputs themselves do not carry.
type Options struct {
	Assumptions topology.Assumptions
	Modes       aggregate.Modes
	// Periods describes each investment period. When empty, one single-year
	// period representing model.HoursPerYear is derived per timepoint period.
	Periods   []model.InvestmentPeriod
	BaseYear  int
	Tolerance float64
}

// DefaultOptions samples every profile and uses the default assumptions.
func DefaultOptions() Options {
	return Options{
		Assumptions: topology.DefaultAssumptions(),
		Modes:       aggregate.DefaultModes(),
	}
}

type Preparer struct {
	logger *zap.Logger
	opts   Options
}

func New(logger *zap.Logger, opts Options) *Preparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preparer{logger: logger, opts: opts}
}

// Prepare validates every input, builds the full file set in memory and only
// then writes it under destination. Rerunning with identical arguments
// rewrites identical bytes. The grid and profiles are not modified.
func (p *Preparer) Prepare(
	grid *model.Grid,
	profiles model.Profiles,
	timepoints []model.TimepointRecord,
	mapping []model.TimestampAssignment,
	storageBuses []int,
	destination string,
) error {
	log := p.logger.With(zap.String("destination", destination))
	set, err := p.build(grid, profiles, timepoints, mapping, storageBuses)
	if err != nil {
		log.Error("input preparation failed", zap.Error(err))
		return err
	}
	if err := switchio.WriteAll(destination, set.tables, set.files); err != nil {
		log.Error("writing optimizer inputs failed", zap.Error(err))
		return err
	}
	log.Info("prepared optimizer inputs",
		zap.Int("periods", len(set.periods)),
		zap.Int("timepoints", len(set.tm.Timepoints())),
		zap.Int("projects", len(set.network.Projects)),
		zap.Int("lines", len(set.network.Lines)),
		zap.Int("files", len(set.tables)+len(set.files)),
	)
	return nil
}

type fileSet struct {
	tm      *timepoint.Map
	network *topology.Network
	periods []model.InvestmentPeriod
	tables  []*switchio.Table
	files   []switchio.File
}

func (p *Preparer) build(
	grid *model.Grid,
	profiles model.Profiles,
	timepoints []model.TimepointRecord,
	mapping []model.TimestampAssignment,
	storageBuses []int,
) (*fileSet, error) {
	hours := map[int]float64{}
	for _, ip := range p.opts.Periods {
		if ip.RepresentedHours > 0 {
			hours[ip.Year] = ip.RepresentedHours
		}
	}
	tm, err := timepoint.New(mapping, timepoints, timepoint.Options{PeriodHours: hours, Tolerance: p.opts.Tolerance})
	if err != nil {
		return nil, err
	}
	periods, err := p.resolvePeriods(tm)
	if err != nil {
		return nil, err
	}
	for _, ip := range periods {
		if _, ok := hours[ip.Year]; !ok {
			hours[ip.Year] = model.HoursPerYear
		}
	}

	network, err := topology.Encode(grid, storageBuses, p.opts.Assumptions)
	if err != nil {
		return nil, err
	}

	loads, err := p.busLoads(profiles.Demand, network, tm)
	if err != nil {
		return nil, err
	}
	factors := map[int][]float64{}
	for _, kind := range model.ProfileKinds {
		if !kind.IsCapacityFactor() {
			continue
		}
		if err := p.capacityFactors(kind, profiles.Get(kind), grid, tm, factors); err != nil {
			return nil, err
		}
	}
	for plant := range network.VariablePlants {
		if _, ok := factors[plant]; !ok {
			return nil, &model.ProfileAlignmentError{Table: "variable_capacity_factors", ID: strconv.Itoa(plant), Reason: "variable plant has no profile column"}
		}
	}

	baseYear := p.opts.BaseYear
	if baseYear == 0 {
		baseYear = periods[0].Start
	}
	b := tableBuilder{
		a:        p.opts.Assumptions,
		tm:       tm,
		network:  network,
		periods:  periods,
		baseYear: baseYear,
	}
	tables := b.inputTables(loads, factors)

	records := make([]model.TimepointRecord, 0, len(tm.Timepoints()))
	for _, id := range tm.Timepoints() {
		r, _ := tm.Record(id)
		records = append(records, r)
	}
	sorted := make([]model.TimestampAssignment, 0, len(mapping))
	for _, ts := range tm.Timestamps() {
		tp, _ := tm.TimepointOf(ts)
		sorted = append(sorted, model.TimestampAssignment{Timestamp: ts, Timepoint: tp})
	}
	tables = append(tables,
		switchio.TimepointsTable(wrapperName(switchio.TimepointsFile), records),
		switchio.TimestampMapTable(wrapperName(switchio.TimestampMapFile), sorted),
		switchio.PeriodHoursTable(wrapperName(switchio.PeriodHoursFile), hours, p.opts.Tolerance),
	)

	gridJSON, err := data.MarshalGrid(grid)
	if err != nil {
		return nil, err
	}
	files := []switchio.File{
		{Name: switchio.ModulesFile, Data: modulesFile(len(storageBuses) > 0)},
		{Name: inputName(switchio.VersionFile), Data: []byte(switchio.InputsVersion + "\n")},
		{Name: wrapperName(switchio.GridFile), Data: gridJSON},
	}
	return &fileSet{tm: tm, network: network, periods: periods, tables: tables, files: files}, nil
}

// resolvePeriods checks the configured periods against the timepoint periods,
// or derives single-year periods when none are configured.
func (p *Preparer) resolvePeriods(tm *timepoint.Map) ([]model.InvestmentPeriod, error) {
	if len(p.opts.Periods) == 0 {
		var out []model.InvestmentPeriod
		for _, year := range tm.Periods() {
			out = append(out, model.InvestmentPeriod{Year: year, Start: year, End: year, RepresentedHours: model.HoursPerYear})
		}
		return out, nil
	}
	configured := append([]model.InvestmentPeriod(nil), p.opts.Periods...)
	sort.Slice(configured, func(i, j int) bool { return configured[i].Year < configured[j].Year })
	seen := map[int]bool{}
	for _, ip := range configured {
		if seen[ip.Year] {
			return nil, &model.MappingError{Table: "periods", ID: strconv.Itoa(ip.Year), Reason: "period configured more than once"}
		}
		seen[ip.Year] = true
		if !tm.HasPeriod(ip.Year) {
			return nil, &model.MappingError{Table: "periods", ID: strconv.Itoa(ip.Year), Reason: "configured period has no timepoints"}
		}
	}
	for _, year := range tm.Periods() {
		if !seen[year] {
			return nil, &model.MappingError{Table: "periods", ID: strconv.Itoa(year), Reason: "timepoint period is not configured"}
		}
	}
	return configured, nil
}

// busLoads aggregates zone demand and splits it across each zone's buses.
// Result is keyed by bus, one value per timepoint in canonical order.
func (p *Preparer) busLoads(demand *model.Profile, network *topology.Network, tm *timepoint.Map) (map[int][]float64, error) {
	if demand == nil {
		return nil, &model.ProfileAlignmentError{Table: string(model.KindDemand), Reason: "profile is missing"}
	}
	present := map[int]bool{}
	for _, zone := range demand.Columns {
		if _, ok := network.DemandShares[zone]; !ok {
			return nil, &model.ProfileAlignmentError{Table: string(model.KindDemand), ID: strconv.Itoa(zone), Reason: "demand column for a zone with no buses"}
		}
		present[zone] = true
	}
	for zone := range network.DemandShares {
		if !present[zone] {
			return nil, &model.ProfileAlignmentError{Table: string(model.KindDemand), ID: strconv.Itoa(zone), Reason: "zone has no demand column"}
		}
	}

	reduced, err := aggregate.Aggregate(demand, model.KindDemand, tm, p.opts.Modes.For(model.KindDemand))
	if err != nil {
		return nil, err
	}
	out := map[int][]float64{}
	for j, zone := range reduced.Columns {
		for _, share := range network.DemandShares[zone] {
			vals := make([]float64, len(reduced.Timepoints))
			for i := range reduced.Timepoints {
				vals[i] = reduced.Values[i][j] * share.Share
			}
			out[share.BusID] = vals
		}
	}
	return out, nil
}

// capacityFactors normalizes a MW profile by each plant's Pmax, aggregates it
// and stores one factor per timepoint under the plant ID.
func (p *Preparer) capacityFactors(kind model.ProfileKind, profile *model.Profile, grid *model.Grid, tm *timepoint.Map, out map[int][]float64) error {
	if profile == nil {
		return &model.ProfileAlignmentError{Table: string(kind), Reason: "profile is missing"}
	}
	if err := profile.Validate(); err != nil {
		return &model.ProfileAlignmentError{Table: string(kind), Reason: err.Error()}
	}
	plants := grid.PlantByID()
	types := map[string]bool{}
	for _, t := range kind.PlantTypes() {
		types[t] = true
	}

	normalized := model.NewProfile(profile.Timestamps, profile.Columns)
	for j, col := range profile.Columns {
		plant, ok := plants[col]
		if !ok {
			return &model.ProfileAlignmentError{Table: string(kind), ID: strconv.Itoa(col), Reason: "column references a missing plant"}
		}
		if !types[plant.Type] {
			return &model.ProfileAlignmentError{Table: string(kind), ID: strconv.Itoa(col), Reason: fmt.Sprintf("plant type %q does not belong in the %s profile", plant.Type, kind)}
		}
		for i := range profile.Values {
			if plant.Pmax > 0 {
				normalized.Values[i][j] = profile.Values[i][j] / plant.Pmax
			} else {
				normalized.Values[i][j] = 0
			}
		}
	}

	reduced, err := aggregate.Aggregate(normalized, kind, tm, p.opts.Modes.For(kind))
	if err != nil {
		return err
	}
	for j, plant := range reduced.Columns {
		vals := make([]float64, len(reduced.Timepoints))
		for i := range reduced.Timepoints {
			vals[i] = reduced.Values[i][j]
		}
		out[plant] = vals
	}
	return nil
}
