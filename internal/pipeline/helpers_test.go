package pipeline_test

import (
	"testing"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *observability.Metrics {
	// Unregistered metrics avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// makeRow builds a fully reported row; seq distinguishes rows in a collection.
func makeRow(t *testing.T, c domain.Category, year, month, seq int) domain.Row {
	t.Helper()
	var p domain.Physical
	p[1], p[2], p[8] = float64(year), float64(month), float64(c)
	p[4] = float64(seq)
	for slot := 10; slot < domain.SlotCount; slot++ {
		p[slot] = float64(slot)
	}
	row, err := domain.Materialize(p, c, "MSG1.test.gz", domain.MaterializeOptions{})
	require.NoError(t, err)
	return row
}

// invalidRow returns a row that fails validation.
func invalidRow(t *testing.T, seq int) domain.Row {
	t.Helper()
	row := makeRow(t, domain.Group3, 1960, 1, seq)
	row.Month = nil
	return row
}

// encodeRecord packs a record of group c with every data slot reported.
func encodeRecord(t *testing.T, c int, yearOffset, month int) []byte {
	t.Helper()
	var coded domain.Coded
	coded[1], coded[2], coded[3] = yearOffset, month, 2
	coded[4], coded[5] = 401, 201
	coded[8], coded[9] = c, 1
	for slot := 10; slot < 34; slot++ {
		coded[slot] = 2000 + slot
	}
	for slot := 34; slot < domain.SlotCount; slot++ {
		coded[slot] = 3
	}
	b, err := domain.Encode(coded)
	require.NoError(t, err)
	return b[:]
}

// payload concatenates records into one monthly payload.
func payload(records ...[]byte) []byte {
	var out []byte
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

// padding is a window without the sync marker.
func padding() []byte {
	return make([]byte, domain.RecordSize)
}
