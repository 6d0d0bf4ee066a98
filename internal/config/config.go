package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"switchwrapper/internal/aggregate"
	"switchwrapper/internal/extract"
	"switchwrapper/internal/launch"
	"switchwrapper/internal/model"
	"switchwrapper/internal/prepare"
	"switchwrapper/internal/topology"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	BaseYear         int               `yaml:"base_year"`
	Periods          []PeriodConfig    `yaml:"periods"`
	StorageBuses     []int             `yaml:"storage_buses"`
	MappingTolerance float64           `yaml:"mapping_tolerance"`
	Aggregation      map[string]string `yaml:"aggregation"`
	Investment       InvestmentConfig  `yaml:"investment"`
	Financials       FinancialsConfig  `yaml:"financials"`
	// Optional: load modeling assumptions from a separate YAML. Keys it sets
	// override the built-in defaults; financials override both.
	AssumptionsFile string       `yaml:"assumptions_file"`
	Launch          LaunchConfig `yaml:"launch"`
	Log             LogConfig    `yaml:"log"`

	assumptions topology.Assumptions
}

type PeriodConfig struct {
	Year             int     `yaml:"year"`
	Start            int     `yaml:"start"`
	End              int     `yaml:"end"`
	RepresentedHours float64 `yaml:"represented_hours"`
}

type InvestmentConfig struct {
	AllowRetirement bool `yaml:"allow_retirement"`
}

type FinancialsConfig struct {
	DiscountRate float64 `yaml:"discount_rate"`
	InterestRate float64 `yaml:"interest_rate"`
}

type LaunchConfig struct {
	Solver     string   `yaml:"solver"`
	Suffixes   []string `yaml:"suffixes"`
	Verbose    *bool    `yaml:"verbose"`
	Executable string   `yaml:"executable"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the config and its assumptions file, but does not apply
// defaults or validate.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	c.assumptions = topology.DefaultAssumptions()
	if c.AssumptionsFile != "" {
		assumptionsPath := c.AssumptionsFile
		if !filepath.IsAbs(assumptionsPath) {
			// Prefer paths relative to the config file, falling back to cwd.
			cand := filepath.Join(filepath.Dir(path), assumptionsPath)
			if _, err := os.Stat(cand); err == nil {
				assumptionsPath = cand
			}
		}
		if err := loadAssumptionsFile(assumptionsPath, &c.assumptions); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func loadAssumptionsFile(path string, into *topology.Assumptions) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read assumptions file: %w", err)
	}
	// Decoding over the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("failed to parse assumptions file: %w", err)
	}
	return nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.assumptions.Fuels == nil {
		c.assumptions = topology.DefaultAssumptions()
	}
	if c.Financials.DiscountRate == 0 {
		c.Financials.DiscountRate = c.assumptions.DiscountRate
	}
	if c.Financials.InterestRate == 0 {
		c.Financials.InterestRate = c.assumptions.InterestRate
	}
	for i := range c.Periods {
		p := &c.Periods[i]
		if p.Start == 0 {
			p.Start = p.Year
		}
		if p.End == 0 {
			p.End = p.Year
		}
		if p.RepresentedHours == 0 {
			p.RepresentedHours = model.HoursPerYear
		}
	}
	defaults := launch.DefaultOptions()
	if c.Launch.Solver == "" {
		c.Launch.Solver = defaults.Solver
	}
	if c.Launch.Suffixes == nil {
		c.Launch.Suffixes = defaults.Suffixes
	}
	if c.Launch.Verbose == nil {
		v := defaults.Verbose
		c.Launch.Verbose = &v
	}
	if c.Launch.Executable == "" {
		c.Launch.Executable = defaults.Executable
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.MappingTolerance < 0 {
		return errors.New("mapping_tolerance must be >= 0")
	}
	if _, err := c.Modes(); err != nil {
		return err
	}
	seen := map[int]bool{}
	for _, p := range c.Periods {
		if p.Year == 0 {
			return errors.New("periods[].year is required")
		}
		if seen[p.Year] {
			return fmt.Errorf("period %d is configured more than once", p.Year)
		}
		seen[p.Year] = true
		if p.End < p.Start {
			return fmt.Errorf("period %d: end %d is before start %d", p.Year, p.End, p.Start)
		}
		if p.RepresentedHours <= 0 {
			return fmt.Errorf("period %d: represented_hours must be > 0", p.Year)
		}
	}
	for _, b := range c.StorageBuses {
		if b < 0 {
			return fmt.Errorf("storage_buses: invalid bus id %d", b)
		}
	}
	if c.Financials.DiscountRate < 0 || c.Financials.InterestRate < 0 {
		return errors.New("financials rates must be >= 0")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Modes parses the per-kind aggregation settings; unset kinds sample.
func (c *Config) Modes() (aggregate.Modes, error) {
	modes := aggregate.DefaultModes()
	for key, value := range c.Aggregation {
		kind := model.ProfileKind(key)
		known := false
		for _, k := range model.ProfileKinds {
			known = known || k == kind
		}
		if !known {
			return nil, fmt.Errorf("aggregation: unknown profile kind %q", key)
		}
		mode, err := aggregate.ParseMode(value)
		if err != nil {
			return nil, fmt.Errorf("aggregation.%s: %w", key, err)
		}
		modes[kind] = mode
	}
	return modes, nil
}

// Assumptions returns the modeling constants with financial overrides applied.
func (c *Config) Assumptions() topology.Assumptions {
	a := c.assumptions
	if a.Fuels == nil {
		a = topology.DefaultAssumptions()
	}
	if c.Financials.DiscountRate != 0 {
		a.DiscountRate = c.Financials.DiscountRate
	}
	if c.Financials.InterestRate != 0 {
		a.InterestRate = c.Financials.InterestRate
	}
	return a
}

func (c *Config) InvestmentPeriods() []model.InvestmentPeriod {
	out := make([]model.InvestmentPeriod, 0, len(c.Periods))
	for _, p := range c.Periods {
		out = append(out, model.InvestmentPeriod{Year: p.Year, Start: p.Start, End: p.End, RepresentedHours: p.RepresentedHours})
	}
	return out
}

// PrepareOptions assumes a validated config.
func (c *Config) PrepareOptions() prepare.Options {
	modes, _ := c.Modes()
	return prepare.Options{
		Assumptions: c.Assumptions(),
		Modes:       modes,
		Periods:     c.InvestmentPeriods(),
		BaseYear:    c.BaseYear,
		Tolerance:   c.MappingTolerance,
	}
}

func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{AllowRetirement: c.Investment.AllowRetirement}
}

func (c *Config) LaunchOptions() launch.Options {
	opts := launch.DefaultOptions()
	opts.Solver = c.Launch.Solver
	opts.Suffixes = c.Launch.Suffixes
	if c.Launch.Verbose != nil {
		opts.Verbose = *c.Launch.Verbose
	}
	opts.Executable = c.Launch.Executable
	return opts
}
