// Package archive reads MSG.1 group archives: tar files whose entries are
// compressed monthly payloads of packed 64-byte records.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

// ErrUnsupportedPayload is returned for entries with no known compression.
var ErrUnsupportedPayload = errors.New("unsupported payload format")

// Reader implements pipeline.SourceExtractor over archives in a directory.
type Reader struct {
	dir    string
	logger *slog.Logger
}

// NewReader creates a Reader resolving relative archive names against dir.
func NewReader(dir string, logger *slog.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

func (r *Reader) path(archive string) string {
	if filepath.IsAbs(archive) {
		return archive
	}
	return filepath.Join(r.dir, archive)
}

// Extract yields every compressed payload of the archive in archive order.
// A payload that fails to decompress is yielded as a *domain.SourceError
// and traversal continues. An archive that cannot be opened, or whose tar
// stream is corrupt, yields a single error and ends.
func (r *Reader) Extract(ctx context.Context, archive string) iter.Seq2[domain.SourceUnit, error] {
	return func(yield func(domain.SourceUnit, error) bool) {
		f, err := os.Open(r.path(archive))
		if err != nil {
			yield(domain.SourceUnit{}, &domain.SourceError{Archive: archive, Err: fmt.Errorf("open archive: %w", err)})
			return
		}
		defer f.Close()

		hint, _ := domain.CategoryFromName(archive)
		tr := tar.NewReader(f)
		for ctx.Err() == nil {
			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(domain.SourceUnit{}, &domain.SourceError{Archive: archive, Err: fmt.Errorf("read tar: %w", err)})
				return
			}
			if hdr.Typeflag != tar.TypeReg {
				continue
			}
			c, ok := codecFor(hdr.Name)
			if !ok {
				r.logger.Debug("skipping archive entry", "archive", archive, "entry", hdr.Name)
				continue
			}

			data, err := c.decompress(tr)
			if err != nil {
				if !yield(domain.SourceUnit{}, &domain.SourceError{Archive: archive, Unit: hdr.Name, Err: err}) {
					return
				}
				continue
			}

			unit := domain.SourceUnit{Archive: archive, Name: hdr.Name, Data: data, Hint: hint}
			if !yield(unit, nil) {
				return
			}
		}
	}
}
