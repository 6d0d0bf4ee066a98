package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"switchwrapper/internal/analysis"
	"switchwrapper/internal/config"
	"switchwrapper/internal/data"
	"switchwrapper/internal/extract"
	"switchwrapper/internal/prepare"
)

// Demo:
// - Generate a two-bus synthetic case
// - Prepare an optimizer input folder from it
// - Stand in for the solve with an all-zero result set
// - Read the result back and summarize each period
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	outDir := flag.String("out", "", "Folder to prepare (default: a temp dir)")
	hours := flag.Int("hours", 4380, "Hours per period")
	timepoints := flag.Int("timepoints", 12, "Timepoints per period")
	keep := flag.Bool("keep", false, "Keep the prepared folder")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			panic(err)
		}
	}
	logger, err := config.NewLogger(config.LogConfig{Level: "warn", Development: true})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	opts := data.DefaultSyntheticOptions()
	opts.HoursPerPeriod = *hours
	opts.TimepointsPerPeriod = *timepoints
	c, err := data.Synthetic(opts)
	if err != nil {
		panic(err)
	}

	dir := *outDir
	if dir == "" {
		if dir, err = os.MkdirTemp("", "switchwrapper-demo-"); err != nil {
			panic(err)
		}
		if !*keep {
			defer os.RemoveAll(dir)
		}
	}

	prepOpts := cfg.PrepareOptions()
	if len(prepOpts.Periods) == 0 {
		prepOpts.Periods = c.Periods
	}
	if err := prepare.New(logger, prepOpts).Prepare(c.Grid, c.Profiles, c.Timepoints, c.Mapping, c.StorageBuses, dir); err != nil {
		logger.Fatal("prepare", zap.Error(err))
	}
	fmt.Printf("Prepared %d timepoints (%d hours) in %s\n", len(c.Timepoints), len(c.Mapping), dir)

	entries, err := os.ReadDir(filepath.Join(dir, "inputs"))
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		fmt.Printf("  inputs/%s\n", e.Name())
	}

	if err := extract.WriteStubOutputs(dir); err != nil {
		logger.Fatal("stub outputs", zap.Error(err))
	}
	scenarios, err := extract.New(logger, cfg.ExtractOptions()).Interpret(dir)
	if err != nil {
		logger.Fatal("extract", zap.Error(err))
	}

	fmt.Println()
	for _, s := range analysis.SummarizeAll(scenarios) {
		fmt.Printf("period %d: %d hours, demand %.1f MWh, peak %.1f MW, capacity %v, storage %.1f MW / %.1f MWh\n",
			s.Period, s.Hours, s.DemandMWh, s.PeakDemandMW, s.CapacityByType, s.StoragePowerMW, s.StorageEnergyMWh)
	}
	if *keep || *outDir != "" {
		fmt.Printf("\nDone. Folder kept at %s\n", dir)
	}
}
