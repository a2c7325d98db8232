package domain

import (
	"context"
	"maps"
	"slices"
)

// SourceUnit is one decompressed monthly payload.
type SourceUnit struct {
	Archive string
	Name    string
	Data    []byte

	// Hint is the group implied by the archive name, zero when unknown.
	// It is advisory only; decoding uses slot 8 of each record.
	Hint Category
}

// Collections maps a collection key (GroupKey or MergedKey) to its rows.
type Collections map[string][]Row

// Keys returns the collection keys in ascending order.
func (c Collections) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}

// Len returns the total number of rows across all collections.
func (c Collections) Len() int {
	n := 0
	for _, rows := range c {
		n += len(rows)
	}
	return n
}

// CollectionLoader retrieves a previously built collection by key.
type CollectionLoader interface {
	Load(ctx context.Context, key string) ([]Row, error)
}
