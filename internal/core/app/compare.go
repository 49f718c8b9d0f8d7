package app

import (
	"context"
	"fmt"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/data/dataset"
	"kextdiff/internal/engine/diff"
	"kextdiff/internal/engine/graph"
	"kextdiff/internal/shared/util"
	"kextdiff/internal/shared/version"
	"kextdiff/internal/ui/report"
	"log/slog"
)

// Compare loads both datasets, diffs them and writes the Markdown report.
func (a *App) Compare(ctx context.Context) ports.StepResult {
	return a.runStep(ctx, ports.StepCompare, "", func(ctx context.Context) ports.StepResult {
		sides, err := a.loadSides()
		if err != nil {
			return ports.StepResult{Err: err}
		}
		dsA, dsB := a.Config.Datasets[0], a.Config.Datasets[1]
		gA, gB := sides[0], sides[1]

		res := diff.Compare(gA, gB)
		md, err := report.NewMarkdownGenerator().Generate(
			report.MarkdownReportData{
				Result: res,
				A:      report.Side{Title: dsA.DisplayTitle(), Graph: gA},
				B:      report.Side{Title: dsB.DisplayTitle(), Graph: gB},
			},
			report.MarkdownReportOptions{
				RunID:        a.RunID,
				Version:      version.Version,
				GeneratedAt:  a.Now().UTC(),
				PreviewLimit:        a.Config.Report.PreviewLimit,
				TopLinked:           a.Config.Report.TopLinked,
				CollapsibleSections: a.Config.Report.Collapsible,
				KeywordGroups:       keywordGroups(a.Config.Report.KeywordGroups),
			},
		)
		if err != nil {
			return ports.StepResult{Err: err}
		}

		path := a.Config.ReportPath()
		if err := util.WriteStringWithDirs(path, md, 0o644); err != nil {
			return ports.StepResult{Err: errors.AddContext(err, errors.CtxPath, path)}
		}
		if !a.Config.Report.Quiet && a.Out != nil {
			fmt.Fprint(a.Out, report.RenderSummary(res, dsA.DisplayTitle(), dsB.DisplayTitle()))
		}

		slog.Info("comparison report written",
			"path", path,
			"common", len(res.CommonIDs),
			"only_a", len(res.OnlyAIDs),
			"only_b", len(res.OnlyBIDs),
		)
		return ports.StepResult{
			Counts: map[string]int{
				"total_a":    res.TotalA,
				"total_b":    res.TotalB,
				"common":     len(res.CommonIDs),
				"only_a":     len(res.OnlyAIDs),
				"only_b":     len(res.OnlyBIDs),
				"edges_a":    res.EdgeTotals.A,
				"edges_b":    res.EdgeTotals.B,
				"versions_a": res.UniqueVersions.A,
				"versions_b": res.UniqueVersions.B,
			},
			Paths:  []string{path},
			Result: &res,
		}
	})
}

// Visualize writes GraphML, DOT and TSV exports for every dataset whose data
// file exists. Missing datasets are reported after the others are written.
func (a *App) Visualize(ctx context.Context) ports.StepResult {
	return a.runStep(ctx, ports.StepVisualize, "", func(ctx context.Context) ports.StepResult {
		var (
			paths []string
			errs  []error
		)
		counts := map[string]int{}
		for _, ds := range a.Config.Datasets {
			if err := ctx.Err(); err != nil {
				return ports.StepResult{Err: err}
			}
			g, err := a.loadGraph(ds)
			if err != nil {
				slog.Warn("skipping visualization", "dataset", ds.Label, "error", err)
				errs = append(errs, err)
				continue
			}
			written, err := a.writeGraphExports(ds, g)
			paths = append(paths, written...)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			counts["nodes."+ds.Label] = g.NodeCount()
			counts["edges."+ds.Label] = g.EdgeCount()
		}
		return ports.StepResult{Counts: counts, Paths: paths, Err: errors.Join(errs...)}
	})
}

// Trace finds the shortest link chain between two bundle ids of a dataset.
// It also counts the outgoing links of from and the kexts that link to to.
func (a *App) Trace(ctx context.Context, label, from, to string) ports.StepResult {
	return a.runStep(ctx, ports.StepTrace, label, func(ctx context.Context) ports.StepResult {
		ds, ok := a.Config.DatasetByLabel(label)
		if !ok {
			return ports.StepResult{Err: errors.New(errors.CodeNotFound, fmt.Sprintf("unknown dataset %q", label))}
		}
		g, err := a.loadGraph(ds)
		if err != nil {
			return ports.StepResult{Err: err}
		}
		for _, id := range []string{from, to} {
			if !g.Has(id) {
				return ports.StepResult{Err: errors.AddContext(
					errors.New(errors.CodeNotFound, "bundle id not in dataset"),
					errors.CtxBundleID, id,
				)}
			}
		}
		chain, ok := g.FindChain(from, to)
		if !ok {
			return ports.StepResult{Err: errors.New(errors.CodeNotFound, fmt.Sprintf("no link chain from %s to %s", from, to))}
		}
		return ports.StepResult{Chain: chain, Counts: map[string]int{
			"hops":       len(chain) - 1,
			"links_from": len(g.EdgesFrom(from)),
			"dependents": len(g.Dependents(to)),
		}}
	})
}

func keywordGroups(groups []config.KeywordGroup) []report.KeywordGroup {
	out := make([]report.KeywordGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, report.KeywordGroup{Title: g.Title, Keywords: g.Keywords})
	}
	return out
}

func (a *App) writeGraphExports(ds config.Dataset, g *graph.Graph) ([]string, error) {
	paths := a.Config.ResolveDatasetPaths(ds)

	graphML, err := report.NewGraphMLGenerator(g).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate GraphML output: %w", err)
	}
	dot, err := report.NewDOTGenerator(g, ds.DisplayTitle()).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate DOT output: %w", err)
	}
	tsv, err := report.NewTSVGenerator(g).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate TSV output: %w", err)
	}

	var written []string
	for _, artifact := range []struct{ path, content string }{
		{paths.GraphML, graphML},
		{paths.DOT, dot},
		{paths.TSV, tsv},
	} {
		if err := util.WriteStringWithDirs(artifact.path, artifact.content, 0o644); err != nil {
			return written, errors.AddContext(err, errors.CtxPath, artifact.path)
		}
		written = append(written, artifact.path)
	}
	slog.Info("graph exports written", "dataset", ds.Label, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return written, nil
}

func (a *App) loadGraph(ds config.Dataset) (*graph.Graph, error) {
	records, err := dataset.Load(ds.Label, a.Config.ResolveDatasetPaths(ds).Data)
	if err != nil {
		return nil, err
	}
	return graph.Build(records, graph.WithParallelEdges(a.Config.Graph.ParallelEdges)), nil
}

// loadSides loads the two compared datasets. Both are attempted so a run
// reports every missing file at once.
func (a *App) loadSides() ([2]*graph.Graph, error) {
	var sides [2]*graph.Graph
	if len(a.Config.Datasets) != 2 {
		return sides, errors.New(errors.CodeValidationError, fmt.Sprintf("exactly two datasets are required, got %d", len(a.Config.Datasets)))
	}
	var errs []error
	for i, ds := range a.Config.Datasets {
		g, err := a.loadGraph(ds)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sides[i] = g
	}
	return sides, errors.Join(errs...)
}
