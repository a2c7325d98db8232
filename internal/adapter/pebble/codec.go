package pebble

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

// ErrCorruptChunk is returned when a stored chunk fails its checksum or
// does not decode to the recorded number of rows.
var ErrCorruptChunk = errors.New("corrupt chunk")

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return dec
	},
}

// encodeChunk writes rows as compressed JSON lines and returns the payload
// with its checksum.
func encodeChunk(rows []domain.Row) ([]byte, uint64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return nil, 0, fmt.Errorf("encode row %d: %w", i, err)
		}
	}

	zenc := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(zenc)
	payload := zenc.EncodeAll(buf.Bytes(), nil)

	return payload, xxhash.Sum64(payload), nil
}

// decodeChunk verifies and decodes a payload produced by encodeChunk.
func decodeChunk(payload []byte, info chunkInfo) ([]domain.Row, error) {
	if sum := xxhash.Sum64(payload); sum != info.Checksum {
		return nil, fmt.Errorf("%w: checksum %016x, want %016x", ErrCorruptChunk, sum, info.Checksum)
	}

	zdec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(zdec)
	raw, err := zdec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptChunk, err)
	}

	rows := make([]domain.Row, 0, info.Rows)
	dec := json.NewDecoder(bytes.NewReader(raw))
	for {
		var row domain.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrCorruptChunk, len(rows), err)
		}
		rows = append(rows, row)
	}
	if len(rows) != info.Rows {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrCorruptChunk, len(rows), info.Rows)
	}
	return rows, nil
}
