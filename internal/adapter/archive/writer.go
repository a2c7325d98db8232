package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"time"
)

// Writer builds an archive in the layout Reader expects.
type Writer struct {
	tw      *tar.Writer
	modTime time.Time
}

// NewWriter writes a tar stream to w. Entries are stamped with modTime.
func NewWriter(w io.Writer, modTime time.Time) *Writer {
	return &Writer{tw: tar.NewWriter(w), modTime: modTime}
}

// AddPayload compresses data according to name's extension and appends it.
func (w *Writer) AddPayload(name string, data []byte) error {
	compressed, err := Compress(name, data)
	if err != nil {
		return err
	}
	return w.AddRaw(name, compressed)
}

// AddRaw appends an entry verbatim.
func (w *Writer) AddRaw(name string, data []byte) error {
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(data)),
		ModTime:  w.modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("write tar entry %s: %w", name, err)
	}
	return nil
}

// AddDir appends a directory entry.
func (w *Writer) AddDir(name string) error {
	hdr := &tar.Header{Typeflag: tar.TypeDir, Name: name, Mode: 0o755, ModTime: w.modTime}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header %s: %w", name, err)
	}
	return nil
}

// Close finishes the tar stream. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.tw.Close()
}
