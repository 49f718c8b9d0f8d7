package app

import (
	"context"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/shared/util"
)

// CheckFiles lists the dataset files a comparison needs that do not exist yet.
func (a *App) CheckFiles(ctx context.Context) ports.StepResult {
	return a.runStep(ctx, ports.StepCheck, "", func(ctx context.Context) ports.StepResult {
		var (
			missing []string
			present []string
			errs    []error
		)
		for i, path := range a.Config.RequiredFiles() {
			ds := a.Config.Datasets[i]
			if util.FileExists(path) {
				present = append(present, path)
				continue
			}
			missing = append(missing, path)
			errs = append(errs, errors.MissingDataset(ds.Label, path))
		}
		return ports.StepResult{
			Counts:  map[string]int{"present": len(present), "missing": len(missing)},
			Paths:   present,
			Missing: missing,
			Err:     errors.Join(errs...),
		}
	})
}
