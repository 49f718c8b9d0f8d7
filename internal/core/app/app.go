package app

import (
	"context"
	"fmt"
	"io"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/shared/observability"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Config *config.Config
	RunID  string
	// Out receives the console summary of a comparison.
	Out io.Writer
	Now func() time.Time
}

var _ ports.Pipeline = (*App)(nil)

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &App{
		Config: cfg,
		RunID:  uuid.NewString(),
		Out:    os.Stdout,
		Now:    time.Now,
	}, nil
}

// Close is a no-op; App holds no resources between steps.
func (a *App) Close() error {
	return nil
}

// RunAll extracts every dataset that has extensions roots, then compares and
// visualizes. A failed extraction stops the run; compare and visualize
// failures are reported and the run goes on.
func (a *App) RunAll(ctx context.Context) []ports.StepResult {
	var results []ports.StepResult
	for _, ds := range a.Config.Datasets {
		if len(ds.Roots) == 0 {
			slog.Info("dataset has no extensions roots, using existing data", "dataset", ds.Label)
			continue
		}
		res := a.Extract(ctx, ds.Label)
		results = append(results, res)
		if !res.OK {
			slog.Error("extraction failed, stopping", "dataset", ds.Label, "error", res.Err)
			return results
		}
	}

	results = append(results, a.Compare(ctx))
	results = append(results, a.Visualize(ctx))
	return results
}

// FlushMetrics writes the metrics textfile if one is configured.
func (a *App) FlushMetrics() error {
	path := a.Config.Observability.MetricsFile
	if path == "" {
		return nil
	}
	if err := observability.WriteMetricsFile(config.ResolveRelative(a.Config.Paths.OutputRoot, path)); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

func (a *App) runStep(ctx context.Context, step ports.Step, dataset string, fn func(ctx context.Context) ports.StepResult) ports.StepResult {
	attrs := []attribute.KeyValue{attribute.String("run.id", a.RunID)}
	if dataset != "" {
		attrs = append(attrs, attribute.String("dataset", dataset))
	}
	ctx, span := observability.Tracer.Start(ctx, "app."+string(step), trace.WithAttributes(attrs...))
	defer span.End()

	start := a.Now()
	var res ports.StepResult
	if err := ctx.Err(); err != nil {
		res = ports.StepResult{Err: err}
	} else {
		res = fn(ctx)
	}
	res.Step = step
	res.Dataset = dataset
	res.OK = res.Err == nil
	if res.Counts == nil {
		res.Counts = map[string]int{}
	}

	observability.StepDuration.WithLabelValues(string(step)).Observe(a.Now().Sub(start).Seconds())
	if !res.OK {
		observability.StepFailures.WithLabelValues(string(step)).Inc()
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return res
	}
	for key, n := range res.Counts {
		span.SetAttributes(attribute.Int("count."+key, n))
	}
	return res
}
