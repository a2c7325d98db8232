package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

// ErrNoRecords is returned when a run completes without a single usable row.
// Nothing is saved in that case.
var ErrNoRecords = errors.New("no records extracted")

// SourceExtractor yields the monthly payloads of one archive in archive order.
// Failures for individual payloads are yielded as errors and traversal continues.
type SourceExtractor interface {
	Extract(ctx context.Context, archive string) iter.Seq2[domain.SourceUnit, error]
}

// RecordDecoder turns one payload into rows.
type RecordDecoder interface {
	Rows(unit domain.SourceUnit) iter.Seq2[domain.Row, error]
}

// CollectionSaver persists the collections produced by a run.
type CollectionSaver interface {
	Save(ctx context.Context, collections domain.Collections) error
}

// MultiSaver saves to every saver in order and stops at the first failure.
type MultiSaver []CollectionSaver

func (m MultiSaver) Save(ctx context.Context, collections domain.Collections) error {
	for _, s := range m {
		if err := s.Save(ctx, collections); err != nil {
			return err
		}
	}
	return nil
}

// Options controls chunking and partitioning.
type Options struct {
	ChunkSize      int
	SeparateGroups bool
}

// Pipeline orchestrates the extract-decode-accumulate-save run.
type Pipeline struct {
	extractor SourceExtractor
	decoder   RecordDecoder
	saver     CollectionSaver
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
	last      atomic.Pointer[RunStatus]
}

// New creates a Pipeline with the given stages and observability.
func New(e SourceExtractor, d RecordDecoder, s CollectionSaver, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		extractor: e,
		decoder:   d,
		saver:     s,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the outcome of the most recent run, if any.
func (p *Pipeline) LastRun() (RunStatus, bool) {
	s := p.last.Load()
	if s == nil {
		return RunStatus{}, false
	}
	return *s, true
}

// Run processes the archives in the given order and saves the resulting
// collections. The context is checked between payloads; a cancelled run
// saves nothing.
func (p *Pipeline) Run(ctx context.Context, archives []string) (Report, error) {
	report, err := p.run(ctx, archives)
	if report.Finished.IsZero() && !report.Started.IsZero() {
		report.Finished = clock.Now()
	}
	p.last.Store(&RunStatus{Report: report, Err: err})
	return report, err
}

func (p *Pipeline) run(ctx context.Context, archives []string) (Report, error) {
	acc, err := NewAccumulator(p.opts.ChunkSize, p.opts.SeparateGroups, p.logger, p.metrics)
	if err != nil {
		return Report{}, err
	}

	report := newReport()
	p.logger.Info("pipeline started",
		"archives", len(archives),
		"chunk_size", p.opts.ChunkSize,
		"separate_groups", p.opts.SeparateGroups,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for _, archive := range archives {
		if err := p.processArchive(ctx, archive, acc, &report); err != nil {
			p.logger.Info("pipeline stopping", "reason", err)
			return report, err
		}
	}
	if err := ctx.Err(); err != nil {
		p.logger.Info("pipeline stopping", "reason", err)
		return report, err
	}

	collections := acc.Finish()
	stats := acc.Stats()
	report.Dropped = stats.Dropped
	report.Chunks = stats.Chunks
	report.EmptyChunks = stats.EmptyChunks
	for _, key := range collections.Keys() {
		report.Rows[key] = len(collections[key])
	}

	if collections.Len() == 0 {
		report.Finished = clock.Now()
		p.logger.Warn("no records extracted", "report", report)
		return report, ErrNoRecords
	}

	if err := p.saver.Save(ctx, collections); err != nil {
		report.Finished = clock.Now()
		return report, fmt.Errorf("save collections: %w", err)
	}
	for key, n := range report.Rows {
		p.metrics.RowsSaved.WithLabelValues(key).Add(float64(n))
	}

	report.Finished = clock.Now()
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "report", report)
	return report, nil
}

// processArchive feeds every payload of one archive into acc. It returns
// a non-nil error only when ctx is done.
func (p *Pipeline) processArchive(ctx context.Context, archive string, acc *Accumulator, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	report.Archives++

	hint, _ := domain.CategoryFromName(archive)
	p.logger.Info("processing archive", "archive", archive, "group_hint", hint.String())

	for unit, err := range p.extractor.Extract(ctx, archive) {
		if err != nil {
			report.SourceErrors = append(report.SourceErrors, err)
			p.metrics.SourceFailures.Inc()
			p.logger.Warn("source unit failed, skipping", "archive", archive, "error", err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.scanUnit(unit, acc, report)
	}
	return ctx.Err()
}

func (p *Pipeline) scanUnit(unit domain.SourceUnit, acc *Accumulator, report *Report) {
	start := clock.Now()
	report.SourceUnits++
	p.metrics.SourceUnits.Inc()

	windows := domain.WindowCount(len(unit.Data))
	synced, rows, failed := 0, 0, 0
	for row, err := range p.decoder.Rows(unit) {
		synced++
		if err != nil {
			failed++
			kind := errorKind(err)
			report.RecordErrors[kind]++
			p.metrics.RecordErrors.WithLabelValues(kind).Inc()
			p.logger.Debug("record decode failed, skipping", "unit", unit.Name, "error", err)
			continue
		}
		rows++
		acc.Add(row)
	}

	skipped := windows - synced
	report.Windows += windows
	report.SyncSkipped += skipped
	report.Records += rows
	p.metrics.RecordsExtracted.Add(float64(rows))
	p.metrics.SyncSkipped.Add(float64(skipped))
	p.metrics.UnitScanDuration.Observe(clock.Since(start).Seconds())

	if failed > 0 {
		p.logger.Warn("payload had undecodable records",
			"archive", unit.Archive, "unit", unit.Name, "errors", failed)
	}
	p.logger.Debug("payload scanned",
		"archive", unit.Archive,
		"unit", unit.Name,
		"group_hint", unit.Hint.String(),
		"windows", windows,
		"rows", rows,
		"sync_skipped", skipped,
		"buffered", acc.Buffered(),
	)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		return observability.KindUnknownCategory
	case errors.Is(err, domain.ErrMalformedRecord):
		return observability.KindMalformed
	default:
		return observability.KindOther
	}
}
