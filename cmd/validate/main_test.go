package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

func makeRows(t *testing.T, c domain.Category, n int) []domain.Row {
	t.Helper()
	rows := make([]domain.Row, 0, n)
	for i := range n {
		var p domain.Physical
		p[1], p[2], p[3] = 1975, float64(1+i%12), 2
		p[4], p[5], p[8], p[9] = float64(i), 10.5, float64(c), 3
		for slot := 10; slot < domain.SlotCount; slot++ {
			p[slot] = domain.Missing
		}
		p[10] = 1.5
		row, err := domain.Materialize(p, c, "MSG1.1975.gz", domain.MaterializeOptions{})
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func TestValidDatasetPasses(t *testing.T) {
	ds := dataset{name: "store", collections: domain.Collections{
		"3": makeRows(t, domain.Group3, 5),
		"9": makeRows(t, domain.Group9, 2),
	}}

	for _, p := range []*phase{validateKeys(ds), validateSchema(ds), validateRanges(ds), validateKeyConsistency(ds)} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
	assert.Equal(t, 0, run([]dataset{ds}))
}

func TestValidateKeys(t *testing.T) {
	tests := []struct {
		name        string
		collections domain.Collections
		wantErrors  int
	}{
		{"groups", domain.Collections{"3": nil, "4": nil}, 0},
		{"merged", domain.Collections{domain.MergedKey: nil}, 0},
		{"empty", domain.Collections{}, 1},
		{"unknown key", domain.Collections{"8": nil, "x": nil}, 2},
		{"mixed", domain.Collections{domain.MergedKey: nil, "3": nil}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validateKeys(dataset{name: "t", collections: tt.collections})
			assert.Len(t, p.errors, tt.wantErrors, p.errors)
		})
	}
}

func TestValidateSchema_Failures(t *testing.T) {
	rows := makeRows(t, domain.Group4, 3)
	rows[0].Year = nil
	rows[1].SourceFile = ""
	rows[2].DataGroup = domain.Group5

	aux := makeRows(t, domain.Group6, 2)
	aux[0].Auxiliary = &domain.Auxiliary{}

	p := validateSchema(dataset{name: "t", collections: domain.Collections{"4": rows, "6": aux}})
	require.Len(t, p.errors, 4, p.errors)
	assert.Contains(t, p.errors[0], "year")
	assert.Contains(t, p.errors[1], "source_file")
	assert.Contains(t, p.errors[2], "G4 variables on a G5 row")
	assert.Contains(t, p.errors[3], "1 of 2 rows carry auxiliary")
}

func TestValidateRanges_Failures(t *testing.T) {
	rows := makeRows(t, domain.Group3, 1)
	year, month := 1700, 13
	rows[0].Year, rows[0].Month = &year, &month
	rows[0].Latitude = 91
	rows[0].Longitude = 360
	rows[0].Checksum = 16

	p := validateRanges(dataset{name: "t", collections: domain.Collections{"3": rows}})
	assert.Len(t, p.errors, 5, p.errors)
}

func TestValidateKeyConsistency(t *testing.T) {
	collections := domain.Collections{
		"3":              append(makeRows(t, domain.Group3, 2), makeRows(t, domain.Group7, 1)...),
		domain.MergedKey: makeRows(t, domain.Group9, 1),
	}
	p := validateKeyConsistency(dataset{name: "t", collections: collections})
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "3 row 2: data_group 7")
}

func TestValidateParity(t *testing.T) {
	g3 := makeRows(t, domain.Group3, 4)
	g9 := makeRows(t, domain.Group9, 2)

	merged := dataset{name: "store", collections: domain.Collections{
		domain.MergedKey: append(append([]domain.Row(nil), g3...), g9...),
	}}
	separated := dataset{name: "remote", collections: domain.Collections{"3": g3, "9": g9}}
	assert.True(t, validateParity(merged, separated).passed())

	short := dataset{name: "remote", collections: domain.Collections{"3": g3[:3], "9": g9}}
	p := validateParity(merged, short)
	assert.False(t, p.passed())
	assert.Contains(t, p.errors[0], "group 3: store has 4 rows, remote has 3")
}

func TestRunReportsFailure(t *testing.T) {
	ds := dataset{name: "store", collections: domain.Collections{}}
	assert.Equal(t, 1, run([]dataset{ds}))
}
