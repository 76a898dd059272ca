package storage

import (
	"errors"
	"os"
)

// ErrInjected is returned by writers installed with WithFailingWrites.
var ErrInjected = errors.New("injected write failure")

// failingWriter writes the first half of every buffer and then fails.
type failingWriter struct {
	f *os.File
}

func (w failingWriter) WriteAt(p []byte, off int64) (int, error) {
	n, err := w.f.WriteAt(p[:len(p)/2], off)
	if err != nil {
		return n, err
	}
	return n, ErrInjected
}

func (w failingWriter) Truncate(size int64) error { return w.f.Truncate(size) }
func (w failingWriter) Sync() error               { return w.f.Sync() }

// WithFailingWrites makes every write to the entries file fail midway.
func WithFailingWrites() Option {
	return func(r *Repository) {
		r.writer = func(f *os.File) fileWriter { return failingWriter{f: f} }
	}
}
