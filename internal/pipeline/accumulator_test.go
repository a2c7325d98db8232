package pipeline_test

import (
	"log/slog"
	"testing"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedRows(t *testing.T) []domain.Row {
	t.Helper()
	var rows []domain.Row
	for i := range 20 {
		switch {
		case i%7 == 6:
			rows = append(rows, invalidRow(t, i))
		case i%2 == 0:
			rows = append(rows, makeRow(t, domain.Group3, 1960, 1+i%12, i))
		default:
			rows = append(rows, makeRow(t, domain.Group4, 1961, 1+i%12, i))
		}
	}
	return rows
}

func TestNewAccumulator_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := pipeline.NewAccumulator(size, true, slog.Default(), newTestMetrics())
		require.Error(t, err, "chunk size %d", size)
	}
}

func TestAccumulator_ChunkSizeDoesNotChangeResult(t *testing.T) {
	rows := mixedRows(t)

	var want domain.Collections
	for _, size := range []int{1, 2, 3, 7, 20, 1000} {
		acc, err := pipeline.NewAccumulator(size, true, slog.Default(), newTestMetrics())
		require.NoError(t, err)

		for _, row := range rows {
			acc.Add(row)
			assert.Less(t, acc.Buffered(), size, "buffer stays below chunk size")
		}
		got := acc.Finish()

		if want == nil {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("chunk size %d changed the result (-want +got):\n%s", size, diff)
		}
	}

	assert.Equal(t, []string{"3", "4"}, want.Keys())
	assert.Equal(t, 18, want.Len())
}

func TestAccumulator_PreservesOrderWithinKey(t *testing.T) {
	acc, err := pipeline.NewAccumulator(3, true, slog.Default(), newTestMetrics())
	require.NoError(t, err)

	rows := mixedRows(t)
	for _, row := range rows {
		acc.Add(row)
	}
	got := acc.Finish()

	var want []domain.Row
	for _, row := range rows {
		if row.Validate() == nil && row.DataGroup == domain.Group3 {
			want = append(want, row)
		}
	}
	if diff := cmp.Diff(want, got["3"]); diff != "" {
		t.Fatalf("group 3 rows out of order (-want +got):\n%s", diff)
	}
}

func TestAccumulator_DropsInvalidRows(t *testing.T) {
	metrics := newTestMetrics()
	acc, err := pipeline.NewAccumulator(5, true, slog.Default(), metrics)
	require.NoError(t, err)

	for _, row := range mixedRows(t) {
		acc.Add(row)
	}
	got := acc.Finish()

	stats := acc.Stats()
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 18, stats.Accepted)
	assert.Equal(t, 4, stats.Chunks)
	assert.Equal(t, 0, stats.EmptyChunks)
	assert.Equal(t, 18, got.Len())

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RecordsDropped), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(metrics.ChunksFlushed), 0)
}

func TestAccumulator_DropsRowsMissingEssentialFields(t *testing.T) {
	tests := []struct {
		name  string
		clear func(*domain.Row)
	}{
		{"year", func(r *domain.Row) { r.Year = nil }},
		{"month", func(r *domain.Row) { r.Month = nil }},
		{"data_group", func(r *domain.Row) { r.DataGroup = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := newTestMetrics()
			acc, err := pipeline.NewAccumulator(2, true, slog.Default(), metrics)
			require.NoError(t, err)

			bad := makeRow(t, domain.Group3, 1960, 1, 0)
			tt.clear(&bad)
			keep := makeRow(t, domain.Group4, 1960, 1, 1)

			acc.Add(bad)
			acc.Add(keep)
			got := acc.Finish()

			assert.Equal(t, []string{"4"}, got.Keys())
			assert.Equal(t, []domain.Row{keep}, got["4"])
			assert.Equal(t, 1, acc.Stats().Dropped)
			assert.Equal(t, 1, acc.Stats().Accepted)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.RecordsDropped), 0)
		})
	}
}

func TestAccumulator_SkipsEmptyChunk(t *testing.T) {
	metrics := newTestMetrics()
	acc, err := pipeline.NewAccumulator(2, true, slog.Default(), metrics)
	require.NoError(t, err)

	acc.Add(invalidRow(t, 0))
	acc.Add(invalidRow(t, 1))
	acc.Add(makeRow(t, domain.Group9, 2001, 5, 2))
	got := acc.Finish()

	stats := acc.Stats()
	assert.Equal(t, 1, stats.EmptyChunks)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, []string{"9"}, got.Keys())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EmptyChunks), 0)
}

func TestAccumulator_MergedMode(t *testing.T) {
	acc, err := pipeline.NewAccumulator(4, false, slog.Default(), newTestMetrics())
	require.NoError(t, err)

	rows := mixedRows(t)
	for _, row := range rows {
		acc.Add(row)
	}
	got := acc.Finish()

	require.Equal(t, []string{domain.MergedKey}, got.Keys())
	require.Len(t, got[domain.MergedKey], 18)
	assert.Equal(t, domain.Group3, got[domain.MergedKey][0].DataGroup)
	assert.Equal(t, domain.Group4, got[domain.MergedKey][1].DataGroup)
}

func TestAccumulator_FinishHandsOverCollections(t *testing.T) {
	acc, err := pipeline.NewAccumulator(10, true, slog.Default(), newTestMetrics())
	require.NoError(t, err)

	acc.Add(makeRow(t, domain.Group5, 1990, 2, 0))
	first := acc.Finish()
	require.Equal(t, 1, first.Len())

	second := acc.Finish()
	assert.Empty(t, second)
	assert.Equal(t, 1, first.Len(), "earlier result is not touched")
	assert.Equal(t, 1, acc.Stats().Accepted)
}

func TestAccumulator_EmptyFinish(t *testing.T) {
	acc, err := pipeline.NewAccumulator(10, true, slog.Default(), newTestMetrics())
	require.NoError(t, err)

	got := acc.Finish()
	assert.Empty(t, got)
	assert.Equal(t, pipeline.AccumulatorStats{}, acc.Stats())
}
