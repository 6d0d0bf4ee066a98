// Package launch runs the external optimizer on a prepared folder.
package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"switchwrapper/internal/switchio"
)

// Options mirror the optimizer's command line.
type Options struct {
	Solver     string
	Suffixes   []string
	Verbose    bool
	Executable string
	// Stdout and Stderr receive the optimizer's output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOptions solves with gurobi, requests duals and runs verbosely.
func DefaultOptions() Options {
	return Options{
		Solver:     "gurobi",
		Suffixes:   []string{"dual"},
		Verbose:    true,
		Executable: "switch",
	}
}

// Args builds the optimizer's argument list.
func (o Options) Args() []string {
	args := []string{"solve"}
	if o.Solver != "" {
		args = append(args, "--solver", o.Solver)
	}
	if len(o.Suffixes) > 0 {
		args = append(args, "--suffixes", strings.Join(o.Suffixes, " "))
	}
	if o.Verbose {
		args = append(args, "--verbose")
	}
	return args
}

// ValidateFolder checks that folder is a directory with an inputs subdirectory.
func ValidateFolder(folder string) error {
	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("folder %s is not a directory", folder)
	}
	inputs := filepath.Join(folder, switchio.InputsDir)
	info, err = os.Stat(inputs)
	if err != nil {
		return fmt.Errorf("inputs folder %s: %w", inputs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inputs folder %s is not a directory", inputs)
	}
	return nil
}

// Launch runs the optimizer in folder and waits for it. A non-zero exit is an
// error; cancelling ctx kills the process.
func Launch(ctx context.Context, logger *zap.Logger, folder string, opts Options) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ValidateFolder(folder); err != nil {
		return err
	}
	executable := opts.Executable
	if executable == "" {
		executable = DefaultOptions().Executable
	}

	args := opts.Args()
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = folder
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	log := logger.With(zap.String("folder", folder), zap.String("executable", executable), zap.Strings("args", args))
	log.Info("launching optimizer")
	if err := cmd.Run(); err != nil {
		log.Error("optimizer failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", executable, strings.Join(args, " "), err)
	}
	log.Info("optimizer finished")
	return nil
}
