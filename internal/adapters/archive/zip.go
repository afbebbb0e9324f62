// Package archive writes BAR and appzip containers.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
)

// ErrFinalized is returned when an entry is added after Finalize.
var ErrFinalized = errors.New("archive already finalized")

// Zip is a zip container safe for concurrent appends. Each entry is written
// whole while holding the lock, so entries from concurrent writers never
// interleave.
type Zip struct {
	mu        sync.Mutex
	writer    *zip.Writer
	finalized bool
	modified  time.Time
}

// NewZip creates a container writing to w. Entries are deflated at the
// highest compression level.
func NewZip(w io.Writer) *Zip {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	return &Zip{writer: zw, modified: time.Now()}
}

// Append adds an entry holding data.
func (z *Zip) Append(name string, data []byte) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.finalized {
		return fmt.Errorf("failed to add %s: %w", name, ErrFinalized)
	}

	entry, err := z.writer.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: z.modified,
	})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}

	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	return nil
}

// File adds the file at path in fsys under name.
func (z *Zip) File(name string, fsys fs.FS, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	return z.Append(name, data)
}

// Finalize writes the central directory. No entries can be added afterwards.
func (z *Zip) Finalize() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.finalized {
		return ErrFinalized
	}

	z.finalized = true

	if err := z.writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	return nil
}
