package domain

import "iter"

// Scanner walks raw payloads in fixed 64-byte strides.
type Scanner struct {
	IncludeAuxiliary bool
}

// WindowCount is the number of full strides in a buffer of n bytes.
func WindowCount(n int) int {
	return n / RecordSize
}

// Rows yields every record in data. Windows without the sync marker are
// skipped, a trailing partial window is ignored, and a record that fails to
// decode is yielded as a *RecordError without ending the scan. The sequence
// may be ranged over more than once.
func (s Scanner) Rows(data []byte, source string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for off := 0; off+RecordSize <= len(data); off += RecordSize {
			window := data[off : off+RecordSize]
			if !HasSync(window) {
				continue
			}
			row, err := s.DecodeRow(window, source)
			if err != nil {
				err = &RecordError{Source: source, Offset: off, Err: err}
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// DecodeRow runs one record through decode, conversion and materialization.
// The group is taken from the record itself.
func (s Scanner) DecodeRow(record []byte, source string) (Row, error) {
	coded, err := Decode(record)
	if err != nil {
		return Row{}, err
	}
	c, err := ParseCategory(coded[8])
	if err != nil {
		return Row{}, err
	}
	table, err := Table(c)
	if err != nil {
		return Row{}, err
	}
	return Materialize(Convert(coded, table), c, source, MaterializeOptions{IncludeAuxiliary: s.IncludeAuxiliary})
}
