package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a record is not exactly RecordSize bytes.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownCategory is returned for group ids outside {3,4,5,6,7,9}.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrMissingEssentialField marks rows without year, month or data_group.
	ErrMissingEssentialField = errors.New("missing essential field")

	// ErrSlotRange is returned by Encode when a slot does not fit its bit width.
	ErrSlotRange = errors.New("slot value out of range")

	// ErrCollectionNotFound is returned by loaders for unknown collection keys.
	ErrCollectionNotFound = errors.New("collection not found")
)

// RecordError reports a single record that could not be decoded.
// The scan that produced it continues with the next stride.
type RecordError struct {
	Source string
	Offset int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s@%d: %v", e.Source, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// SourceError reports a source unit (one monthly payload) that could not be
// produced. The unit is skipped and the run continues.
type SourceError struct {
	Archive string
	Unit    string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("source %s: %v", e.Archive, e.Err)
	}
	return fmt.Sprintf("source %s/%s: %v", e.Archive, e.Unit, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
