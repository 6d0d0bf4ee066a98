package prepare

import (
	"path"
	"sort"
	"strconv"
	"strings"

	"switchwrapper/internal/model"
	"switchwrapper/internal/switchio"
	"switchwrapper/internal/timepoint"
	"switchwrapper/internal/topology"
)

const timepointLabelLayout = "2006010215"

var (
	baseModules = []string{
		"switch_model",
		"switch_model.timescales",
		"switch_model.financials",
		"switch_model.balancing.load_zones",
		"switch_model.energy_sources.properties",
		"switch_model.generators.core.build",
		"switch_model.generators.core.dispatch",
		"switch_model.generators.core.no_commit",
		"switch_model.energy_sources.fuel_costs.simple",
		"switch_model.transmission.transport.build",
		"switch_model.transmission.transport.dispatch",
	}
	storageModule   = "switch_model.generators.extensions.storage"
	reportingModule = "switch_model.reporting"
)

func inputName(name string) string   { return path.Join(switchio.InputsDir, name) }
func wrapperName(name string) string { return path.Join(switchio.WrapperDir, name) }

func modulesFile(withStorage bool) []byte {
	mods := append([]string(nil), baseModules...)
	if withStorage {
		mods = append(mods, storageModule)
	}
	mods = append(mods, reportingModule)
	return []byte(strings.Join(mods, "\n") + "\n")
}

// tableBuilder renders one optimizer input table per method. Every method
// iterates in a fixed order so repeated runs produce identical files.
type tableBuilder struct {
	a        topology.Assumptions
	tm       *timepoint.Map
	network  *topology.Network
	periods  []model.InvestmentPeriod
	baseYear int
}

func (b tableBuilder) inputTables(loads map[int][]float64, factors map[int][]float64) []*switchio.Table {
	return []*switchio.Table{
		b.financials(),
		b.fuels(),
		b.fuelCost(),
		b.nonFuelEnergySources(),
		b.generationProjectsInfo(),
		b.genBuildCosts(),
		b.genBuildPredetermined(),
		b.loadZones(),
		b.loads(loads),
		b.periodsTable(),
		b.timepoints(),
		b.timeseries(),
		b.transmissionLines(),
		b.transParams(),
		b.variableCapacityFactors(factors),
	}
}

func f(x float64) string { return switchio.FormatFloat(x) }

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (b tableBuilder) financials() *switchio.Table {
	t := switchio.NewTable(inputName("financials.csv"), "base_financial_year", "discount_rate", "interest_rate")
	t.Append(strconv.Itoa(b.baseYear), f(b.a.DiscountRate), f(b.a.InterestRate))
	return t
}

func (b tableBuilder) fuels() *switchio.Table {
	t := switchio.NewTable(inputName("fuels.csv"), "fuel", "co2_intensity", "upstream_co2_intensity")
	for _, fuel := range b.a.Fuels {
		t.Append(fuel, switchio.Missing(), switchio.Missing())
	}
	return t
}

func (b tableBuilder) fuelCost() *switchio.Table {
	t := switchio.NewTable(inputName("fuel_cost.csv"), "load_zone", "fuel", "period", "fuel_cost")
	for _, z := range b.network.LoadZones {
		for _, fuel := range b.a.Fuels {
			for _, ip := range b.periods {
				t.Append(z.ID, fuel, strconv.Itoa(ip.Year), f(b.a.FuelCostPerMMBtu[fuel]))
			}
		}
	}
	return t
}

func (b tableBuilder) nonFuelEnergySources() *switchio.Table {
	t := switchio.NewTable(inputName("non_fuel_energy_source.csv"), "energy_source")
	for _, s := range b.a.NonFuels {
		t.Append(s)
	}
	return t
}

func (b tableBuilder) generationProjectsInfo() *switchio.Table {
	t := switchio.NewTable(inputName("generation_projects_info.csv"),
		"GENERATION_PROJECT",
		"gen_tech",
		"gen_load_zone",
		"gen_connect_cost_per_mw",
		"gen_capacity_limit_mw",
		"gen_variable_om",
		"gen_max_age",
		"gen_min_build_capacity",
		"gen_scheduled_outage_rate",
		"gen_forced_outage_rate",
		"gen_is_variable",
		"gen_is_baseload",
		"gen_is_cogen",
		"gen_energy_source",
		"gen_full_load_heat_rate",
		"gen_storage_efficiency",
		"gen_store_to_release_ratio",
		"gen_dbid",
	)
	for i, p := range b.network.Projects {
		heatRate := switchio.Missing()
		if p.HeatRate > 0 {
			heatRate = f(p.HeatRate)
		}
		efficiency, ratio := switchio.Missing(), switchio.Missing()
		if p.Kind == topology.ProjectStorage {
			efficiency, ratio = f(p.StorageEfficiency), f(p.StoreToRelease)
		}
		t.Append(
			p.ID,
			p.Tech,
			p.ZoneID,
			"0",
			switchio.Missing(),
			f(p.VariableOM),
			f(b.a.MaxAgeYears),
			"0",
			"0",
			"0",
			boolFlag(p.IsVariable),
			boolFlag(p.IsBaseload),
			"0",
			p.EnergySource,
			heatRate,
			efficiency,
			ratio,
			strconv.Itoa(i+1),
		)
	}
	return t
}

// genBuildCosts lists existing plants once at the base year and every
// candidate once per investment period.
func (b tableBuilder) genBuildCosts() *switchio.Table {
	t := switchio.NewTable(inputName("gen_build_costs.csv"),
		"GENERATION_PROJECT", "build_year", "gen_overnight_cost", "gen_fixed_om", "gen_storage_energy_overnight_cost")
	for _, p := range b.network.Projects {
		energy := switchio.Missing()
		if p.Kind == topology.ProjectStorage {
			energy = f(p.StorageEnergyCost)
		}
		if p.Kind == topology.ProjectExisting {
			t.Append(p.ID, strconv.Itoa(b.baseYear), f(p.OvernightCost), f(p.FixedOM), energy)
			continue
		}
		for _, ip := range b.periods {
			t.Append(p.ID, strconv.Itoa(ip.Year), f(p.OvernightCost), f(p.FixedOM), energy)
		}
	}
	return t
}

func (b tableBuilder) genBuildPredetermined() *switchio.Table {
	t := switchio.NewTable(inputName("gen_build_predetermined.csv"), "GENERATION_PROJECT", "build_year", "gen_predetermined_cap")
	for _, p := range b.network.Projects {
		if p.Kind == topology.ProjectExisting {
			t.Append(p.ID, strconv.Itoa(b.baseYear), f(p.ExistingMW))
		}
	}
	return t
}

func (b tableBuilder) loadZones() *switchio.Table {
	t := switchio.NewTable(inputName("load_zones.csv"), "LOAD_ZONE", "dbid", "existing_local_td", "local_td_annual_cost_per_mw")
	for _, z := range b.network.LoadZones {
		t.Append(z.ID, strconv.Itoa(z.DBID), f(b.a.ExistingLocalTD), f(b.a.LocalTDAnnualCostPerMW))
	}
	return t
}

func (b tableBuilder) loads(byBus map[int][]float64) *switchio.Table {
	t := switchio.NewTable(inputName("loads.csv"), "LOAD_ZONE", "TIMEPOINT", "zone_demand_mw")
	timepoints := b.tm.Timepoints()
	for _, z := range b.network.LoadZones {
		vals := byBus[z.BusID]
		for i, tp := range timepoints {
			v := 0.0
			if vals != nil {
				v = vals[i]
			}
			t.Append(z.ID, strconv.Itoa(tp), f(v))
		}
	}
	return t
}

func (b tableBuilder) periodsTable() *switchio.Table {
	t := switchio.NewTable(inputName("periods.csv"), "INVESTMENT_PERIOD", "period_start", "period_end")
	for _, ip := range b.periods {
		t.Append(strconv.Itoa(ip.Year), strconv.Itoa(ip.Start), strconv.Itoa(ip.End))
	}
	return t
}

func (b tableBuilder) timepoints() *switchio.Table {
	t := switchio.NewTable(inputName("timepoints.csv"), "timepoint_id", "timestamp", "timeseries")
	for _, id := range b.tm.Timepoints() {
		r, _ := b.tm.Record(id)
		t.Append(strconv.Itoa(id), r.Timestamp.UTC().Format(timepointLabelLayout), r.Timeseries)
	}
	return t
}

func (b tableBuilder) timeseries() *switchio.Table {
	t := switchio.NewTable(inputName("timeseries.csv"),
		"TIMESERIES", "ts_period", "ts_duration_of_tp", "ts_num_tps", "ts_scale_to_period")
	for _, ts := range b.tm.Timeseries() {
		t.Append(ts.Name, strconv.Itoa(ts.Period), f(ts.DurationOfTP), strconv.Itoa(ts.NumTPs), f(ts.ScaleToPeriod()))
	}
	return t
}

func (b tableBuilder) transmissionLines() *switchio.Table {
	t := switchio.NewTable(inputName("transmission_lines.csv"),
		"TRANSMISSION_LINE",
		"trans_lz1",
		"trans_lz2",
		"trans_length_km",
		"trans_efficiency",
		"existing_trans_cap",
		"trans_dbid",
		"trans_new_build_allowed",
	)
	for _, l := range b.network.Lines {
		t.Append(l.ID, l.FromZone, l.ToZone, f(l.LengthKm), f(l.Efficiency), f(l.ExistingMW), strconv.Itoa(l.DBID), boolFlag(!l.Unlimited))
	}
	return t
}

func (b tableBuilder) transParams() *switchio.Table {
	t := switchio.NewTable(inputName("trans_params.csv"),
		"trans_capital_cost_per_mw_km", "trans_lifetime_yrs", "trans_fixed_om_fraction", "distribution_loss_rate")
	t.Append(f(b.a.TransCapitalCostPerMWKm), f(b.a.TransLifetimeYears), f(b.a.TransFixedOMFraction), f(b.a.DistributionLossRate))
	return t
}

// variableCapacityFactors gives an existing variable plant and its expansion
// candidate the same factor at every timepoint.
func (b tableBuilder) variableCapacityFactors(factors map[int][]float64) *switchio.Table {
	t := switchio.NewTable(inputName("variable_capacity_factors.csv"), "GENERATION_PROJECT", "timepoint", "gen_max_capacity_factor")
	plants := make([]int, 0, len(b.network.VariablePlants))
	for id := range b.network.VariablePlants {
		plants = append(plants, id)
	}
	sort.Ints(plants)
	timepoints := b.tm.Timepoints()
	for _, project := range []func(int) string{topology.PlantID, topology.ExpansionID} {
		for _, plant := range plants {
			for i, tp := range timepoints {
				t.Append(project(plant), strconv.Itoa(tp), f(factors[plant][i]))
			}
		}
	}
	return t
}
