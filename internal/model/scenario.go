package model

// Scenario is the full-resolution result for one investment period.
//
// Profiles carry the input profiles (demand by zone, hydro/solar/wind in MW by
// plant) expanded back to hourly resolution. The remaining tables are optimizer
// decisions expanded the same way; LMP is nil when no duals were reported.
type Scenario struct {
	Period   int
	Grid     *Grid
	Profiles Profiles

	PG              *Profile // plant ID columns, MW
	PF              *Profile // AC branch ID columns, MW
	DCLinePF        *Profile // DC line ID columns, MW
	LMP             *Profile // bus ID columns, $/MWh
	StorageDispatch *Profile // bus ID columns, MW (positive = discharge)
	StorageSOC      *Profile // bus ID columns, MWh
}

// ScenarioOutputs names the tables a Scenario carries, in the order they are
// written.
var ScenarioOutputs = []string{
	"demand", "hydro", "solar", "wind",
	"pg", "pf", "dcline_pf", "lmp", "storage_pg", "storage_e",
}

// Output returns the named table, or nil when it is absent.
func (s *Scenario) Output(name string) *Profile {
	switch name {
	case "demand":
		return s.Profiles.Demand
	case "hydro":
		return s.Profiles.Hydro
	case "solar":
		return s.Profiles.Solar
	case "wind":
		return s.Profiles.Wind
	case "pg":
		return s.PG
	case "pf":
		return s.PF
	case "dcline_pf":
		return s.DCLinePF
	case "lmp":
		return s.LMP
	case "storage_pg":
		return s.StorageDispatch
	case "storage_e":
		return s.StorageSOC
	}
	return nil
}
