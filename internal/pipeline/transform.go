package pipeline

import (
	"iter"
	"path"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

// MSG1Decoder implements RecordDecoder on top of the stride scanner.
type MSG1Decoder struct {
	scanner domain.Scanner
}

// NewDecoder creates an MSG1Decoder. includeAuxiliary adds the slot 26-49
// columns to every row.
func NewDecoder(includeAuxiliary bool) *MSG1Decoder {
	return &MSG1Decoder{scanner: domain.Scanner{IncludeAuxiliary: includeAuxiliary}}
}

// Rows scans one payload. Rows carry the payload's base name as source_file.
func (d *MSG1Decoder) Rows(unit domain.SourceUnit) iter.Seq2[domain.Row, error] {
	return d.scanner.Rows(unit.Data, path.Base(unit.Name))
}
