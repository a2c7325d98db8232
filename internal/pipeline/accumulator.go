package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

// AccumulatorStats summarises every chunk an Accumulator has flushed.
type AccumulatorStats struct {
	Accepted    int
	Dropped     int
	Chunks      int
	EmptyChunks int
}

// Accumulator buffers rows into fixed-size chunks and partitions each chunk
// by group. Memory held in the buffer never exceeds one chunk.
type Accumulator struct {
	chunkSize      int
	separateGroups bool
	logger         *slog.Logger
	metrics        *observability.Metrics

	buffer []domain.Row
	chunks map[string][][]domain.Row
	stats  AccumulatorStats
}

// NewAccumulator creates an Accumulator flushing every chunkSize rows. With
// separateGroups false every row lands under domain.MergedKey.
func NewAccumulator(chunkSize int, separateGroups bool, logger *slog.Logger, metrics *observability.Metrics) (*Accumulator, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	return &Accumulator{
		chunkSize:      chunkSize,
		separateGroups: separateGroups,
		logger:         logger,
		metrics:        metrics,
		buffer:         make([]domain.Row, 0, chunkSize),
		chunks:         make(map[string][][]domain.Row),
	}, nil
}

// Add appends a row, flushing a full chunk as soon as the buffer reaches
// the chunk size.
func (a *Accumulator) Add(row domain.Row) {
	a.buffer = append(a.buffer, row)
	if len(a.buffer) >= a.chunkSize {
		a.flush()
	}
}

// Finish flushes the remaining rows and returns the merged collections.
// The caller owns the result and the accumulator starts collecting anew.
// Stats are not reset.
func (a *Accumulator) Finish() domain.Collections {
	if len(a.buffer) > 0 {
		a.flush()
	}

	out := make(domain.Collections, len(a.chunks))
	for key, chunks := range a.chunks {
		n := 0
		for _, c := range chunks {
			n += len(c)
		}
		rows := make([]domain.Row, 0, n)
		for _, c := range chunks {
			rows = append(rows, c...)
		}
		out[key] = rows
	}

	a.chunks = make(map[string][][]domain.Row)
	return out
}

// Stats returns the counters accumulated so far.
func (a *Accumulator) Stats() AccumulatorStats {
	return a.stats
}

// Buffered is the number of rows waiting for the next flush.
func (a *Accumulator) Buffered() int {
	return len(a.buffer)
}

func (a *Accumulator) flush() {
	chunk := a.buffer
	a.buffer = make([]domain.Row, 0, a.chunkSize)

	kept := make(map[string][]domain.Row)
	total := 0
	for _, row := range chunk {
		if err := row.Validate(); err != nil {
			a.stats.Dropped++
			a.metrics.RecordsDropped.Inc()
			continue
		}
		key := domain.MergedKey
		if a.separateGroups {
			key = domain.GroupKey(row.DataGroup)
		}
		kept[key] = append(kept[key], row)
		total++
	}

	if total == 0 {
		a.stats.EmptyChunks++
		a.metrics.EmptyChunks.Inc()
		a.logger.Warn("chunk empty after filtering, skipping", "rows", len(chunk))
		return
	}

	for key, rows := range kept {
		a.chunks[key] = append(a.chunks[key], rows)
	}
	a.stats.Accepted += total
	a.stats.Chunks++
	a.metrics.ChunksFlushed.Inc()
	a.metrics.ChunkRows.Observe(float64(total))
	a.logger.Debug("chunk flushed", "rows", len(chunk), "kept", total, "keys", len(kept))
}
