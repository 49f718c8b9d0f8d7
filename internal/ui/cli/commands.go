package cli

import (
	"fmt"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/shared/version"
	"log/slog"

	"github.com/spf13/cobra"
)

func newExtractCommand(opts *rootOptions) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Scan extensions folders and write dataset files",
		Long: `Scan the extensions roots of a dataset (or of every dataset that has roots)
and write its kexts_data.json and kexts_graph.graphml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			defer flushMetrics(a)

			var results []ports.StepResult
			if label != "" {
				results = []ports.StepResult{a.Extract(cmd.Context(), label)}
			} else {
				results = a.ExtractAll(cmd.Context())
				if len(results) == 0 {
					return setupError(fmt.Errorf("no dataset has extensions roots configured"))
				}
			}
			return finish(opts, results...)
		},
	}
	cmd.Flags().StringVarP(&label, "dataset", "d", "", "label of the dataset to extract (default: every dataset with roots)")
	return cmd
}

func newCompareCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Compare the two datasets and write the Markdown report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			defer flushMetrics(a)
			return finish(opts, a.Compare(cmd.Context()))
		},
	}
}

func newVisualizeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "visualize",
		Short: "Write GraphML, DOT and TSV graph exports for each dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			defer flushMetrics(a)
			return finish(opts, a.Visualize(cmd.Context()))
		},
	}
}

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List dataset files that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			return finish(opts, a.CheckFiles(cmd.Context()))
		},
	}
}

func newAllCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Extract, compare and visualize in one run",
		Long: `Extract every dataset that has extensions roots, then compare and visualize.
A failed extraction stops the run. Compare and visualize failures are
reported without changing the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			defer flushMetrics(a)

			results := a.RunAll(cmd.Context())
			renderResults(opts.stdout, results)
			for _, res := range results {
				if res.Step == ports.StepExtract && !res.OK {
					return &exitError{code: 1, err: res.Err}
				}
			}
			return nil
		},
	}
}

func newTraceCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <dataset> <from-bundle-id> <to-bundle-id>",
		Short: "Print the shortest link chain between two kexts of a dataset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			return finish(opts, a.Trace(cmd.Context(), args[0], args[1], args[2]))
		},
	}
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dataset>",
		Short: "Extract a dataset again whenever its descriptors change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newPipeline()
			if err != nil {
				return setupError(err)
			}
			defer closePipeline(a)
			defer flushMetrics(a)

			err = a.Watch(cmd.Context(), args[0], func(res ports.StepResult) {
				renderResults(opts.stdout, []ports.StepResult{res})
			})
			if err != nil {
				return setupError(err)
			}
			return nil
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the kextdiff version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "kextdiff %s\n", version.Version)
		},
	}
}

// setupError marks a failure to load the configuration or start a command.
// These exit 2 like usage errors.
func setupError(err error) error {
	return &exitError{code: 2, err: err, report: true}
}

// finish renders step results and fails the command if any step failed.
func finish(opts *rootOptions, results ...ports.StepResult) error {
	renderResults(opts.stdout, results)
	for _, res := range results {
		if !res.OK {
			return &exitError{code: 1, err: res.Err}
		}
	}
	return nil
}

func flushMetrics(a ports.Pipeline) {
	if err := a.FlushMetrics(); err != nil {
		slog.Warn("failed to write metrics", "error", err)
	}
}

func closePipeline(a ports.Pipeline) {
	if err := a.Close(); err != nil {
		slog.Warn("failed to close pipeline", "error", err)
	}
}
