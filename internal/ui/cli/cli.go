// Package cli is the kextdiff command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/ports"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// exitError carries a process exit code out of a RunE handler. Step failures
// are already rendered; report is set for errors that still need printing.
type exitError struct {
	code   int
	err    error
	report bool
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error {
	return e.err
}

type rootOptions struct {
	configPath string
	verbose    bool
	stdout     io.Writer
	stderr     io.Writer
	factory    pipelineFactory
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Execute(ctx, args, os.Stdout, os.Stderr)
}

// Execute runs the command line with explicit streams.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	root := newRootCommand(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.report && exitErr.err != nil {
			fmt.Fprintln(stderr, failureStyle.Render("error:"), exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintln(stderr, failureStyle.Render("error:"), err)
	return 2
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "kextdiff",
		Short: "Compare two kernel-extension inventories",
		Long: titleStyle.Render("kextdiff") + `

kextdiff extracts kernel-extension descriptors (Info.plist files) from
extensions folders, stores each inventory as a JSON dataset, and compares
two datasets: counts, categories, library usage, versions and the bundle
ids present on only one side. Graphs are exported as GraphML, DOT and TSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.stderr, opts.verbose)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a kextdiff.toml config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newExtractCommand(opts),
		newCompareCommand(opts),
		newVisualizeCommand(opts),
		newCheckCommand(opts),
		newAllCommand(opts),
		newTraceCommand(opts),
		newWatchCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func configureLogging(w io.Writer, verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "kextdiff",
		Level:           level,
		ReportTimestamp: verbose,
	})
	slog.SetDefault(slog.New(handler))
}

// newPipeline loads the configuration and builds the pipeline.
func (o *rootOptions) newPipeline() (ports.Pipeline, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("detect working directory: %w", err)
	}
	cfg, path, err := loadConfig(o.configPath, cwd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		slog.Debug("loaded config", "path", path)
	} else {
		slog.Debug("no config file found, using defaults")
	}

	factory := o.factory
	if factory == nil {
		factory = newCorePipeline
	}
	return factory(cfg, o.stdout)
}

// loadConfig loads an explicit path, or the first default location that
// exists. With no file at all the built-in defaults apply.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, path, nil
	}

	for _, candidate := range discoverDefaultConfig(cwd) {
		cfg, err := config.Load(candidate)
		if err == nil {
			return cfg, candidate, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return nil, "", fmt.Errorf("load config %s: %w", candidate, err)
	}

	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, "", errors.Join(errs...)
	}
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) []string {
	return []string{
		filepath.Clean(filepath.Join(cwd, "kextdiff.toml")),
		filepath.Clean(filepath.Join(cwd, "data/config/kextdiff.toml")),
	}
}
