package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/drbushytop/ado-pipeline-preview/ado"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"io"
)

var ErrPipelineInvalid = errors.New("pipeline failed validation")

type previewer struct {
	cfg Config
	fs  afero.Fs
	log *zap.Logger
	out io.Writer
}

// run resolves the pipeline, submits the local file for preview and prints
// the outcome.
func (p *previewer) run(ctx context.Context) error {
	env, err := ado.NewAzureDevOpsEnvironment(p.cfg.connection(), p.cfg.Project,
		ado.WithTimeout(p.cfg.Timeout),
		ado.WithLogger(p.log),
	)
	if err != nil {
		return fmt.Errorf("run: failed to create environment: %w", err)
	}
	client := ado.NewValidationClient(*env)

	log := p.log.With(
		zap.String("organization", p.cfg.Organization),
		zap.String("project", p.cfg.Project),
	)

	log.Debug("resolving pipeline", zap.String("pipeline", p.cfg.PipelineName))
	resolution, err := client.ResolvePipeline(ctx, p.cfg.PipelineName)
	if err != nil {
		return err
	}
	pipeline, ok := resolution.Pipeline()
	if !ok {
		return fmt.Errorf("%w: %q in project %q", ado.ErrPipelineNotFound, p.cfg.PipelineName, p.cfg.Project)
	}
	log.Debug("resolved pipeline", zap.String("pipeline", pipeline.Name), zap.Int("pipelineId", pipeline.Id))

	yamlOverride, err := ado.ReadPipelineFile(p.fs, p.cfg.FileName)
	if err != nil {
		return err
	}

	opts := []ado.PreviewOption{
		ado.WithYamlOverride(yamlOverride),
		ado.WithRefName(p.cfg.Branch),
	}
	if p.cfg.PipelineVersion > 0 {
		opts = append(opts, ado.WithPipelineVersion(p.cfg.PipelineVersion))
	}

	result, err := client.PreviewPipeline(ctx, pipeline.Id, opts...)
	if err != nil {
		return err
	}

	if err := renderResult(p.out, p.cfg.Output, pipeline, result, p.cfg.ShowFinalYaml); err != nil {
		return fmt.Errorf("run: failed to write result: %w", err)
	}

	if !result.Valid() && p.cfg.FailOnInvalid {
		return ErrPipelineInvalid
	}
	return nil
}

// watch runs once, then again after every change to the file. Failures are
// logged and do not stop the loop.
func (p *previewer) watch(ctx context.Context) error {
	once := func(ctx context.Context) {
		if err := p.run(ctx); err != nil && ctx.Err() == nil {
			p.log.Error("preview failed", zap.Error(err))
		}
	}

	once(ctx)
	return watchFile(ctx, p.cfg.FileName, p.log, once)
}
