package cli

import (
	"context"
	"errors"
	"io"
	coreapp "kextdiff/internal/core/app"
	"kextdiff/internal/core/config"
	"kextdiff/internal/core/ports"
	"kextdiff/internal/shared/observability"
	"kextdiff/internal/shared/version"
	"time"
)

const tracingShutdownTimeout = 5 * time.Second

// pipelineFactory builds the pipeline for a loaded config.
type pipelineFactory func(cfg *config.Config, out io.Writer) (ports.Pipeline, error)

func newCorePipeline(cfg *config.Config, out io.Writer) (ports.Pipeline, error) {
	a, err := coreapp.New(cfg)
	if err != nil {
		return nil, err
	}
	a.Out = out

	if cfg.Observability.OTLPEndpoint == "" {
		return a, nil
	}
	shutdown, err := observability.SetupTracing(context.Background(), cfg.Observability.OTLPEndpoint, version.Version)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return &tracedPipeline{Pipeline: a, shutdown: shutdown}, nil
}

// tracedPipeline flushes exported spans when the pipeline closes.
type tracedPipeline struct {
	ports.Pipeline
	shutdown func(context.Context) error
}

func (p *tracedPipeline) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()
	return errors.Join(p.Pipeline.Close(), p.shutdown(ctx))
}
