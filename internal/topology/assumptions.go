package topology

// Assumptions are the modeling constants the grid itself does not carry.
// Costs are in dollars, capacities in MW, energy in MWh.
type Assumptions struct {
	DiscountRate float64 `yaml:"discount_rate"`
	InterestRate float64 `yaml:"interest_rate"`

	Fuels    []string `yaml:"fuels"`
	NonFuels []string `yaml:"non_fuels"`
	// FuelCostPerMMBtu is zero by default: the grid's cost curves already price
	// fuel into gen_variable_om.
	FuelCostPerMMBtu map[string]float64 `yaml:"fuel_cost_per_mmbtu"`

	EnergySourceByType   map[string]string  `yaml:"energy_source_by_type"`
	HeatRateByType       map[string]float64 `yaml:"heat_rate_by_type"`
	InvestmentCostByType map[string]float64 `yaml:"investment_cost_by_type"`
	BaseloadTypes        []string           `yaml:"baseload_types"`
	// PminFractionByType overrides Pmin as a fraction of Pmax when linearizing
	// cost curves; types listed in KeepPminTypes keep the grid's Pmin and every
	// other type uses the "default" entry.
	PminFractionByType map[string]float64 `yaml:"pmin_fraction_by_type"`
	KeepPminTypes      []string           `yaml:"keep_pmin_types"`
	MaxAgeYears        float64            `yaml:"max_age_years"`

	StorageTech             string  `yaml:"storage_tech"`
	StorageEnergySource     string  `yaml:"storage_energy_source"`
	StoragePowerCostPerMW   float64 `yaml:"storage_power_cost_per_mw"`
	StorageEnergyCostPerMWh float64 `yaml:"storage_energy_cost_per_mwh"`
	StorageEfficiency       float64 `yaml:"storage_efficiency"`
	StorageStoreToRelease   float64 `yaml:"storage_store_to_release_ratio"`

	ExistingLocalTD        float64 `yaml:"existing_local_td"`
	LocalTDAnnualCostPerMW float64 `yaml:"local_td_annual_cost_per_mw"`

	TransCapitalCostPerMWKm float64 `yaml:"trans_capital_cost_per_mw_km"`
	TransLifetimeYears      float64 `yaml:"trans_lifetime_yrs"`
	TransFixedOMFraction    float64 `yaml:"trans_fixed_om_fraction"`
	DistributionLossRate    float64 `yaml:"distribution_loss_rate"`
	// BranchEfficiencyByKV maps a line voltage to its efficiency; transformers and
	// unlisted voltages use DefaultBranchEfficiency.
	BranchEfficiencyByKV    map[float64]float64 `yaml:"branch_efficiency_by_kv"`
	DefaultBranchEfficiency float64             `yaml:"default_branch_efficiency"`
	// UnlimitedCapacityMW stands in for branches rated 0 (unlimited).
	UnlimitedCapacityMW float64 `yaml:"unlimited_capacity_mw"`
}

// DefaultAssumptions returns the constants used when the config does not
// override them.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		DiscountRate: 0.079,
		InterestRate: 0.029,

		Fuels:            []string{"Coal", "NaturalGas", "Uranium", "Oil"},
		NonFuels:         []string{"Wind", "Solar", "Water", "Geothermal", "Other", "Electricity"},
		FuelCostPerMMBtu: map[string]float64{},

		EnergySourceByType: map[string]string{
			"coal":          "Coal",
			"ng":            "NaturalGas",
			"nuclear":       "Uranium",
			"dfo":           "Oil",
			"hydro":         "Water",
			"solar":         "Solar",
			"wind":          "Wind",
			"wind_offshore": "Wind",
			"geothermal":    "Geothermal",
			"biomass":       "Other",
			"other":         "Other",
		},
		HeatRateByType: map[string]float64{
			"coal":    10.1,
			"ng":      7.6,
			"nuclear": 10.4,
			"dfo":     11.0,
		},
		InvestmentCostByType: map[string]float64{
			"coal":          4.0e6,
			"ng":            1.0e6,
			"nuclear":       6.5e6,
			"dfo":           1.0e6,
			"hydro":         5.3e6,
			"solar":         1.3e6,
			"wind":          1.5e6,
			"wind_offshore": 4.4e6,
			"geothermal":    4.0e6,
			"biomass":       4.1e6,
			"other":         3.0e6,
		},
		BaseloadTypes: []string{"nuclear", "geothermal"},
		PminFractionByType: map[string]float64{
			"default":    0,
			"geothermal": 0.95,
			"nuclear":    0.95,
		},
		KeepPminTypes: []string{"coal"},
		MaxAgeYears:   100,

		StorageTech:             "Storage",
		StorageEnergySource:     "Electricity",
		StoragePowerCostPerMW:   1.0e6,
		StorageEnergyCostPerMWh: 2.5e5,
		StorageEfficiency:       0.9,
		StorageStoreToRelease:   1,

		ExistingLocalTD:        99999,
		LocalTDAnnualCostPerMW: 0,

		TransCapitalCostPerMWKm: 621,
		TransLifetimeYears:      40,
		TransFixedOMFraction:    0,
		DistributionLossRate:    0,
		BranchEfficiencyByKV: map[float64]float64{
			115: 0.9,
			138: 0.94,
			161: 0.96,
			230: 0.97,
			345: 0.98,
			500: 0.99,
			765: 0.99,
		},
		DefaultBranchEfficiency: 0.99,
		UnlimitedCapacityMW:     99999,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
