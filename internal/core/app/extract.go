package app

import (
	"context"
	"fmt"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/data/bundle"
	"kextdiff/internal/data/dataset"
	"kextdiff/internal/engine/category"
	"kextdiff/internal/engine/graph"
	"kextdiff/internal/shared/observability"
	"kextdiff/internal/shared/util"
	"kextdiff/internal/ui/report"
	"log/slog"
)

// Extract scans one dataset's extensions roots and writes its data file and
// GraphML graph.
func (a *App) Extract(ctx context.Context, label string) ports.StepResult {
	return a.runStep(ctx, ports.StepExtract, label, func(ctx context.Context) ports.StepResult {
		ds, ok := a.Config.DatasetByLabel(label)
		if !ok {
			return ports.StepResult{Err: errors.AddContext(
				errors.New(errors.CodeNotFound, fmt.Sprintf("unknown dataset %q", label)),
				errors.CtxOperation, string(ports.StepExtract),
			)}
		}
		if len(ds.Roots) == 0 {
			return ports.StepResult{Err: errors.AddContext(
				errors.New(errors.CodeValidationError, "dataset has no extensions roots to scan"),
				errors.CtxDataset, label,
			)}
		}
		return a.extract(ctx, ds)
	})
}

// ExtractAll runs Extract for every dataset with extensions roots.
func (a *App) ExtractAll(ctx context.Context) []ports.StepResult {
	var results []ports.StepResult
	for _, ds := range a.Config.Datasets {
		if len(ds.Roots) == 0 {
			continue
		}
		results = append(results, a.Extract(ctx, ds.Label))
	}
	return results
}

func (a *App) extract(ctx context.Context, ds config.Dataset) ports.StepResult {
	scanner, err := bundle.New(bundle.Options{
		Dataset:        ds.Label,
		Roots:          ds.Roots,
		DescriptorName: a.Config.Scan.DescriptorName,
		ExcludeDirs:    a.Config.Exclude.Dirs,
		ExcludeFiles:   a.Config.Exclude.Files,
	})
	if err != nil {
		return ports.StepResult{Err: errors.Wrap(err, errors.CodeValidationError, "invalid scanner options")}
	}

	scan, err := scanner.Scan(ctx)
	if err != nil {
		return ports.StepResult{Err: errors.AddContext(err, errors.CtxOperation, "scan")}
	}

	g := graph.Build(scan.Records, graph.WithParallelEdges(a.Config.Graph.ParallelEdges))
	records := g.Records()
	observability.RecordsExtracted.WithLabelValues(ds.Label).Set(float64(len(records)))
	if len(records) == 0 {
		return ports.StepResult{Err: errors.EmptyDataset(ds.Label)}
	}
	observability.GraphNodes.WithLabelValues(ds.Label).Set(float64(g.NodeCount()))
	observability.GraphEdges.WithLabelValues(ds.Label).Set(float64(g.EdgeCount()))

	paths := a.Config.ResolveDatasetPaths(ds)
	if err := dataset.Save(paths.Data, records); err != nil {
		return ports.StepResult{Err: errors.AddContext(err, errors.CtxDataset, ds.Label)}
	}

	graphML, err := report.NewGraphMLGenerator(g).Generate()
	if err != nil {
		return ports.StepResult{Err: err}
	}
	if err := util.WriteStringWithDirs(paths.GraphML, graphML, 0o644); err != nil {
		return ports.StepResult{Err: errors.AddContext(err, errors.CtxPath, paths.GraphML)}
	}

	counts := map[string]int{
		"descriptors": scan.Descriptors,
		"records":     len(records),
		"failures":    len(scan.Failures),
		"unindexable": scan.Unindexable,
		"edges":       g.EdgeCount(),
	}
	for c, n := range category.Tally(records) {
		counts["category."+string(c)] = n
	}

	slog.Info("extracted dataset",
		"dataset", ds.Label,
		"records", len(records),
		"failures", len(scan.Failures),
		"edges", g.EdgeCount(),
		"data", paths.Data,
	)
	return ports.StepResult{Counts: counts, Paths: []string{paths.Data, paths.GraphML}}
}

