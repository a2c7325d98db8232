package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrOutputPathUnwritable is returned when the output location cannot be written.
	ErrOutputPathUnwritable = errors.New("output path not writable")

	// ErrArchiveNotFound is returned when no archive is configured or one is missing.
	ErrArchiveNotFound = errors.New("archive not found")
)

// Preflight checks the output location and the configured archives before
// any processing starts. On success OutputPath is absolute.
func (c *Config) Preflight() error {
	abs, err := filepath.Abs(c.OutputPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputPathUnwritable, c.OutputPath, err)
	}
	c.OutputPath = abs

	parent := filepath.Dir(abs)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrOutputPathUnwritable, parent, err)
	}
	if err := probeWritable(parent); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOutputPathUnwritable, parent, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("%w: %s: %w", ErrOutputPathUnwritable, abs, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s is not a directory", ErrOutputPathUnwritable, abs)
	default:
		if err := probeWritable(abs); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrOutputPathUnwritable, abs, err)
		}
	}

	if len(c.Archives) == 0 {
		return fmt.Errorf("%w: no %s in %s", ErrArchiveNotFound, ArchivePattern, c.ArchiveDir)
	}
	for _, name := range c.Archives {
		path := c.ArchivePath(name)
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrArchiveNotFound, path, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("%w: %s is not a regular file", ErrArchiveNotFound, path)
		}
	}
	return nil
}

// ArchivePath resolves an archive name against ArchiveDir.
func (c *Config) ArchivePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ArchiveDir, name)
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
