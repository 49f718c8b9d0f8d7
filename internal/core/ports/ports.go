package ports

import (
	"context"
	"kextdiff/internal/engine/diff"
)

type Step string

const (
	StepExtract   Step = "extract"
	StepCompare   Step = "compare"
	StepVisualize Step = "visualize"
	StepCheck     Step = "check"
	StepTrace     Step = "trace"
)

// StepResult is the outcome of one pipeline step. Err is nil exactly when OK
// is true.
type StepResult struct {
	Step    Step
	Dataset string
	OK      bool
	Counts  map[string]int
	Paths   []string
	Missing []string
	Chain   []string
	Result  *diff.Result
	Err     error
}

// Pipeline is the driving port used by the command line.
type Pipeline interface {
	Extract(ctx context.Context, label string) StepResult
	ExtractAll(ctx context.Context) []StepResult
	Compare(ctx context.Context) StepResult
	Visualize(ctx context.Context) StepResult
	CheckFiles(ctx context.Context) StepResult
	Trace(ctx context.Context, label, from, to string) StepResult
	// Watch re-extracts a dataset whenever its descriptors change, until ctx
	// is done. Each extraction result is passed to onResult.
	Watch(ctx context.Context, label string, onResult func(StepResult)) error
	RunAll(ctx context.Context) []StepResult
	FlushMetrics() error
	Close() error
}
