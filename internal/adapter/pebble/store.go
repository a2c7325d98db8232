// Package pebble persists row collections in a Pebble key-value store.
//
// Each collection key owns a manifest under "m/<key>" and its chunks under
// "c/<key>/<index>", where index is a big-endian uint32. Chunks hold
// zstd-compressed JSON lines and are verified against the xxhash64 checksum
// recorded in the manifest.
package pebble

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

const (
	manifestPrefix = "m/"
	chunkPrefix    = "c/"
)

// Options configures the store.
type Options struct {
	Path         string
	ChunkRows    int
	CacheSize    int64
	MaxOpenFiles int
}

type chunkInfo struct {
	Rows     int    `json:"rows"`
	Checksum uint64 `json:"checksum"`
}

type manifest struct {
	Key     string      `json:"key"`
	Rows    int         `json:"rows"`
	Chunks  []chunkInfo `json:"chunks"`
	SavedAt time.Time   `json:"saved_at"`
}

// Store implements pipeline.CollectionSaver and domain.CollectionLoader.
type Store struct {
	db        *pebble.DB
	chunkRows int
	logger    *slog.Logger
}

// Open creates or opens the store at opts.Path.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.ChunkRows <= 0 {
		return nil, fmt.Errorf("chunk rows must be positive, got %d", opts.ChunkRows)
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create store parent: %w", err)
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()

	db, err := pebble.Open(opts.Path, &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: opts.MaxOpenFiles,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", opts.Path, err)
	}

	return &Store{db: db, chunkRows: opts.ChunkRows, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored content of every key in collections. Each key is
// committed atomically; keys not present in collections are left untouched.
func (s *Store) Save(ctx context.Context, collections domain.Collections) error {
	for _, key := range collections.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.saveKey(key, collections[key]); err != nil {
			return fmt.Errorf("save collection %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) saveKey(key string, rows []domain.Row) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	lower := chunkKeyPrefix(key)
	if err := batch.DeleteRange(lower, prefixEnd(lower), nil); err != nil {
		return err
	}

	m := manifest{Key: key, Rows: len(rows), SavedAt: time.Now().UTC()}
	for i := 0; i < len(rows); i += s.chunkRows {
		end := min(i+s.chunkRows, len(rows))
		payload, sum, err := encodeChunk(rows[i:end])
		if err != nil {
			return err
		}
		if err := batch.Set(chunkKey(key, len(m.Chunks)), payload, nil); err != nil {
			return err
		}
		m.Chunks = append(m.Chunks, chunkInfo{Rows: end - i, Checksum: sum})
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := batch.Set(manifestKey(key), data, nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("collection saved", "key", key, "rows", len(rows), "chunks", len(m.Chunks))
	return nil
}

// Load returns the rows stored under key, in the order they were saved.
func (s *Store) Load(ctx context.Context, key string) ([]domain.Row, error) {
	m, err := s.manifest(key)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.Row, 0, m.Rows)
	for i, info := range m.Chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := s.loadChunk(key, i, info)
		if err != nil {
			return nil, fmt.Errorf("load collection %s chunk %d: %w", key, i, err)
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

func (s *Store) loadChunk(key string, index int, info chunkInfo) ([]domain.Row, error) {
	payload, closer, err := s.db.Get(chunkKey(key, index))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: missing", ErrCorruptChunk)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodeChunk(payload, info)
}

func (s *Store) manifest(key string) (manifest, error) {
	data, closer, err := s.db.Get(manifestKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return manifest{}, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, key)
	}
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest %s: %w", key, err)
	}
	defer closer.Close()

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("decode manifest %s: %w", key, err)
	}
	return m, nil
}

// Keys lists the stored collection keys in ascending order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	lower := []byte(manifestPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixEnd(lower),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys = append(keys, string(iter.Key()[len(manifestPrefix):]))
	}
	return keys, iter.Error()
}

// LoadAll loads every stored collection.
func (s *Store) LoadAll(ctx context.Context) (domain.Collections, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(domain.Collections, len(keys))
	for _, key := range keys {
		rows, err := s.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		out[key] = rows
	}
	return out, nil
}

func manifestKey(key string) []byte {
	return []byte(manifestPrefix + key)
}

func chunkKeyPrefix(key string) []byte {
	return []byte(chunkPrefix + key + "/")
}

func chunkKey(key string, index int) []byte {
	return binary.BigEndian.AppendUint32(chunkKeyPrefix(key), uint32(index))
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
