package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"switchwrapper/internal/analysis"
	"switchwrapper/internal/config"
	"switchwrapper/internal/data"
	"switchwrapper/internal/extract"
	"switchwrapper/internal/launch"
	"switchwrapper/internal/prepare"
	"switchwrapper/internal/switchio"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "prepare":
		cmdPrepare(os.Args[2:])
	case "launch":
		cmdLaunch(os.Args[2:])
	case "extract":
		cmdExtract(os.Args[2:])
	case "synthetic":
		cmdSynthetic(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli prepare --grid grid.json --profiles profiles/ --timepoints timepoints.csv --mapping timestamp_to_timepoints.csv --out run/")
	fmt.Println("  cli launch --folder run/ [--solver cbc]")
	fmt.Println("  cli extract --folder run/ [--out results/]")
	fmt.Println("  cli synthetic --out case/   (then: cli prepare --config case/config.yaml ...)")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - every subcommand accepts --config config.yaml")
	fmt.Println("  - profiles/ must hold demand.csv, hydro.csv, solar.csv and wind.csv")
	fmt.Println("  - extract writes <out>/<period>/grid.json and one CSV per output table")
}

// setup loads the config (defaults when path is empty) and builds the logger.
func setup(path string) (*config.Config, *zap.Logger) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func cmdPrepare(args []string) {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	gridPath := fs.String("grid", "grid.json", "Path to grid JSON")
	profilesDir := fs.String("profiles", "profiles", "Directory holding demand/hydro/solar/wind CSVs")
	timepointsPath := fs.String("timepoints", "timepoints.csv", "Timepoint metadata CSV")
	mappingPath := fs.String("mapping", "timestamp_to_timepoints.csv", "Timestamp to timepoint CSV")
	storage := fs.String("storage-buses", "", "Optional: comma-separated storage bus ids (overrides config)")
	outDir := fs.String("out", "", "Destination folder")
	_ = fs.Parse(args)

	if *outDir == "" {
		fmt.Println("--out is required")
		os.Exit(2)
	}
	cfg, logger := setup(*cfgPath)
	defer logger.Sync()

	grid, err := data.LoadGridJSON(*gridPath)
	if err != nil {
		logger.Fatal("loading grid", zap.Error(err))
	}
	profiles, err := data.LoadProfiles(*profilesDir)
	if err != nil {
		logger.Fatal("loading profiles", zap.Error(err))
	}
	records, err := switchio.ReadTimepoints(*timepointsPath)
	if err != nil {
		logger.Fatal("loading timepoints", zap.Error(err))
	}
	mapping, err := switchio.ReadTimestampMap(*mappingPath)
	if err != nil {
		logger.Fatal("loading timestamp mapping", zap.Error(err))
	}
	storageBuses := cfg.StorageBuses
	if *storage != "" {
		if storageBuses, err = parseInts(*storage); err != nil {
			logger.Fatal("parsing --storage-buses", zap.Error(err))
		}
	}

	if err := prepare.New(logger, cfg.PrepareOptions()).Prepare(grid, profiles, records, mapping, storageBuses, *outDir); err != nil {
		logger.Fatal("prepare failed", zap.Error(err))
	}
	fmt.Printf("Wrote optimizer inputs for %d timepoints to %s\n", len(records), *outDir)
}

func cmdLaunch(args []string) {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	folder := fs.String("folder", "", "Prepared folder")
	solver := fs.String("solver", "", "Optional: solver name (overrides config)")
	suffixes := fs.String("suffixes", "", "Optional: comma-separated solver suffixes (overrides config)")
	quiet := fs.Bool("quiet", false, "Do not pass --verbose to the optimizer")
	_ = fs.Parse(args)

	if *folder == "" {
		fmt.Println("--folder is required")
		os.Exit(2)
	}
	cfg, logger := setup(*cfgPath)
	defer logger.Sync()

	opts := cfg.LaunchOptions()
	if *solver != "" {
		opts.Solver = *solver
	}
	if *suffixes != "" {
		opts.Suffixes = splitList(*suffixes)
	}
	if *quiet {
		opts.Verbose = false
	}
	opts.Stdout = os.Stdout
	opts.Stderr = os.Stderr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := launch.Launch(ctx, logger, *folder, opts); err != nil {
		logger.Fatal("launch failed", zap.Error(err))
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	folder := fs.String("folder", "", "Solved folder")
	outDir := fs.String("out", "", "Optional: write each period's grid and tables under this directory")
	retire := fs.Bool("allow-retirement", false, "Subtract RetireGen from builds (overrides config when set)")
	_ = fs.Parse(args)

	if *folder == "" {
		fmt.Println("--folder is required")
		os.Exit(2)
	}
	cfg, logger := setup(*cfgPath)
	defer logger.Sync()

	opts := cfg.ExtractOptions()
	if *retire {
		opts.AllowRetirement = true
	}
	scenarios, err := extract.New(logger, opts).Interpret(*folder)
	if err != nil {
		logger.Fatal("extract failed", zap.Error(err))
	}

	if *outDir != "" {
		periods := make([]int, 0, len(scenarios))
		for p := range scenarios {
			periods = append(periods, p)
		}
		sort.Ints(periods)
		for _, p := range periods {
			dir := filepath.Join(*outDir, strconv.Itoa(p))
			if err := data.SaveScenario(scenarios[p], dir); err != nil {
				logger.Fatal("writing scenario", zap.Int("period", p), zap.Error(err))
			}
			fmt.Printf("Wrote period %d to %s\n", p, dir)
		}
	}
	printSummaries(analysis.SummarizeAll(scenarios))
}

func cmdSynthetic(args []string) {
	fs := flag.NewFlagSet("synthetic", flag.ExitOnError)
	outDir := fs.String("out", "", "Directory to write the case into")
	periods := fs.String("periods", "2030,2040", "Comma-separated investment period years")
	hours := fs.Int("hours", 4380, "Hours per period")
	timepoints := fs.Int("timepoints", 12, "Timepoints per period")
	_ = fs.Parse(args)

	if *outDir == "" {
		fmt.Println("--out is required")
		os.Exit(2)
	}
	opts := data.DefaultSyntheticOptions()
	years, err := parseInts(*periods)
	if err != nil {
		fmt.Fprintf(os.Stderr, "--periods: %v\n", err)
		os.Exit(2)
	}
	opts.Periods = years
	opts.HoursPerPeriod = *hours
	opts.TimepointsPerPeriod = *timepoints

	c, err := data.Synthetic(opts)
	if err != nil {
		panic(err)
	}
	files, err := data.SaveCase(c, *outDir)
	if err != nil {
		panic(err)
	}
	cfgPath := filepath.Join(*outDir, "config.yaml")
	if err := saveSyntheticConfig(c, cfgPath); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %s, %s, %s and %s\n", files.Grid, files.ProfilesDir, files.Timepoints, files.TimestampMap)
	fmt.Printf("Wrote %s with the case's periods and storage buses\n", cfgPath)
}

// saveSyntheticConfig writes the minimal config a generated case needs: its
// periods represent fewer hours than a full year.
func saveSyntheticConfig(c *data.SyntheticCase, path string) error {
	out := struct {
		Periods      []config.PeriodConfig `yaml:"periods"`
		StorageBuses []int                 `yaml:"storage_buses"`
	}{StorageBuses: c.StorageBuses}
	for _, p := range c.Periods {
		out.Periods = append(out.Periods, config.PeriodConfig{
			Year:             p.Year,
			Start:            p.Start,
			End:              p.End,
			RepresentedHours: p.RepresentedHours,
		})
	}
	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, raw, 0644)
}

func printSummaries(summaries []analysis.PeriodSummary) {
	fmt.Printf("%-7s %-6s %-12s %-12s %-12s %-10s %-10s\n", "period", "hours", "demand MWh", "gen MWh", "capacity MW", "storage MW", "mean LMP")
	for _, s := range summaries {
		capacity := 0.0
		for _, mw := range s.CapacityByType {
			capacity += mw
		}
		lmp := "-"
		if s.HasPrices {
			lmp = fmt.Sprintf("%.2f", s.MeanLMP)
		}
		fmt.Printf("%-7d %-6d %-12.1f %-12.1f %-12.1f %-10.1f %-10s\n",
			s.Period, s.Hours, s.DemandMWh, s.GenerationMWh, capacity, s.StoragePowerMW, lmp)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	parts := splitList(s)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
