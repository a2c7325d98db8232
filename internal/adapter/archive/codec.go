package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Payload extensions recognised inside an archive.
const (
	ExtGzip = ".gz"
	ExtZstd = ".zst"
	ExtLZ4  = ".lz4"
	ExtS2   = ".s2"
)

// codec streams one compressed payload format.
type codec struct {
	decompress func(r io.Reader) ([]byte, error)
	compress   func(w io.Writer, data []byte) error
}

var codecs = map[string]codec{
	ExtGzip: {decompress: gunzip, compress: gzipTo},
	ExtZstd: {decompress: unzstd, compress: zstdTo},
	ExtLZ4:  {decompress: unlz4, compress: lz4To},
	ExtS2:   {decompress: uns2, compress: s2To},
}

// codecFor picks the codec from the entry's extension.
func codecFor(name string) (codec, bool) {
	c, ok := codecs[strings.ToLower(path.Ext(name))]
	return c, ok
}

// IsPayload reports whether an archive entry name carries a compressed payload.
func IsPayload(name string) bool {
	_, ok := codecFor(name)
	return ok
}

// zstdDecoderPool pools stream decoders; a decoder is reusable after Reset.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}
		return dec
	},
}

func gunzip(r io.Reader) ([]byte, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	return data, nil
}

func unzstd(r io.Reader) ([]byte, error) {
	dec := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	if err := dec.Reset(r); err != nil {
		return nil, fmt.Errorf("open zstd stream: %w", err)
	}
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("read zstd stream: %w", err)
	}
	return data, nil
}

func unlz4(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read lz4 stream: %w", err)
	}
	return data, nil
}

func uns2(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(s2.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read s2 stream: %w", err)
	}
	return data, nil
}

func gzipTo(w io.Writer, data []byte) error {
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func zstdTo(w io.Writer, data []byte) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func lz4To(w io.Writer, data []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

func s2To(w io.Writer, data []byte) error {
	zw := s2.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// Compress encodes data in the format implied by name's extension.
func Compress(name string, data []byte) ([]byte, error) {
	c, ok := codecFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPayload, name)
	}
	var buf bytes.Buffer
	if err := c.compress(&buf, data); err != nil {
		return nil, fmt.Errorf("compress %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes a payload in the format implied by name's extension.
func Decompress(name string, data []byte) ([]byte, error) {
	c, ok := codecFor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPayload, name)
	}
	return c.decompress(bytes.NewReader(data))
}
