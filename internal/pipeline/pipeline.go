package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusetl/internal/exporter"
	"nexusetl/internal/nexus"
	"nexusetl/pkg/contracts/domain"
)

// Raw per-source tables written next to the merged output when enabled
var rawTableSources = []string{"pefa", "taxgap"}

// Pipeline is the end-to-end run: extraction, union & clean, classifier
// join, persistence. The pipeline is the sole writer of the output
// artifacts, once, at the end.
type Pipeline struct {
	manager    *Manager
	classifier *nexus.Classifier
	writer     *exporter.Writer
	logger     *slog.Logger
	tracer     trace.Tracer
	rawTables  bool
}

// New assembles a pipeline
func New(manager *Manager, classifier *nexus.Classifier, writer *exporter.Writer, logger *slog.Logger, tracer trace.Tracer, rawTables bool) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("pipeline")
	}
	return &Pipeline{
		manager:    manager,
		classifier: classifier,
		writer:     writer,
		logger:     logger,
		tracer:     tracer,
		rawTables:  rawTables,
	}
}

// Execute runs the whole pipeline. Per-source extraction failures are
// tolerated; a clean-step coercion failure or an export failure aborts.
func (p *Pipeline) Execute(ctx context.Context) error {
	run := p.manager.Run(ctx)

	successes := 0
	for _, res := range run.Results {
		if !res.Failed() {
			successes++
		}
	}
	if successes == 0 {
		return fmt.Errorf("all %d sources failed, nothing to union", len(run.Results))
	}

	observations := run.Union()
	p.logger.Info("combined nexus sources",
		slog.Int("rows", len(observations)),
		slog.Int("cols", observationColumns),
		slog.Int("sources_included", successes),
		slog.Int("sources_failed", len(run.Failures())))

	ctx, span := p.tracer.Start(ctx, "pipeline.clean")
	records, err := nexus.Clean(observations, p.logger)
	span.End()
	if err != nil {
		return fmt.Errorf("cleaning combined data: %w", err)
	}

	enriched := p.classifier.Join(records, p.logger)

	if err := p.persist(ctx, run, enriched); err != nil {
		return err
	}

	p.logger.Info("pipeline complete",
		slog.String("run_id", run.RunID),
		slog.Int("nexus_rows", len(enriched)),
		slog.Duration("elapsed", run.Duration))
	return nil
}

func (p *Pipeline) persist(ctx context.Context, run *RunResult, enriched []domain.EnrichedRecord) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.persist")
	defer span.End()

	if p.rawTables {
		for _, id := range rawTableSources {
			res := run.result(id)
			if res == nil || res.Failed() {
				continue
			}
			if err := p.writer.WriteObservations(ctx, id, res.Observations); err != nil {
				return fmt.Errorf("writing raw %s table: %w", id, err)
			}
		}
	}

	if err := p.writer.WriteNexus(ctx, enriched, p.classifier.Columns(), p.classifier.KeyColumn()); err != nil {
		return fmt.Errorf("writing nexus table: %w", err)
	}
	return nil
}

func (r *RunResult) result(sourceID string) *domain.SourceResult {
	for _, res := range r.Results {
		if res.SourceID == sourceID {
			return res
		}
	}
	return nil
}
