package app

import (
	"context"
	"fmt"
	"kextdiff/internal/core/errors"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/core/watcher"
	"kextdiff/internal/shared/util"
	"log/slog"
	"os"
)

// Watch extracts a dataset once, then again whenever a descriptor under its
// extensions roots changes. Bursts of changes collapse into one extraction,
// and extractions are at least watch.min_interval apart. It returns nil when
// ctx is done.
func (a *App) Watch(ctx context.Context, label string, onResult func(ports.StepResult)) error {
	ds, ok := a.Config.DatasetByLabel(label)
	if !ok {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("unknown dataset %q", label))
	}

	var roots []string
	for _, root := range util.UniqueRoots(ds.Roots) {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			slog.Warn("extensions root does not exist, not watching it", "dataset", label, "root", root)
			continue
		}
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		return errors.AddContext(
			errors.New(errors.CodeValidationError, "dataset has no existing extensions roots to watch"),
			errors.CtxDataset, label,
		)
	}

	// one queued batch is enough: the next extraction rescans everything
	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:       a.Config.Watch.Debounce,
		DescriptorName: a.Config.Scan.DescriptorName,
		ExcludeDirs:    a.Config.Exclude.Dirs,
		ExcludeFiles:   a.Config.Exclude.Files,
	}, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "create watcher")
	}
	defer w.Close()

	if err := w.Watch(roots); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "watch extensions roots")
	}
	slog.Info("watching extensions roots", "dataset", label, "roots", roots)

	limiter := util.NewIntervalLimiter(a.Config.Watch.MinInterval)
	limiter.Allow()
	onResult(a.Extract(ctx, label))

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			slog.Info("descriptors changed, extracting again", "dataset", label, "changed", len(paths))
			onResult(a.Extract(ctx, label))
		}
	}
}
