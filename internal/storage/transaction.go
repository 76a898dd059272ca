package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	tempSuffix    = ".tmp"
	markerSuffix  = ".rewrite"
	rewriteSuffix = ".new"
)

// Transaction guards a single mutation of the entries file.
//
// Before an in-place append the file is copied byte for byte to
// "<path>.tmp". Before a whole-file rewrite only an empty marker
// "<path>.rewrite" is created, since the new content is built in
// "<path>.new" and renamed over the original. Either AcceptChanges or
// Restore ends the transaction.
type Transaction struct {
	path     string
	existed  bool
	snapshot bool
}

// PrepareForWrite starts a transaction on path. A stale temp file left by an
// interrupted run is overwritten. When path does not exist yet no snapshot
// is taken and Restore deletes whatever the write created.
func PrepareForWrite(path string, copyContents bool) (*Transaction, error) {
	tx := &Transaction{path: path}

	src, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Nothing to protect; leftover temp files would confuse recovery.
		for _, stale := range []string{path + tempSuffix, path + markerSuffix} {
			if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("storage error removing stale temp file: %w", err)
			}
		}
		return tx, nil
	case err != nil:
		return nil, fmt.Errorf("storage error opening %s: %w", path, err)
	}
	defer src.Close()
	tx.existed = true
	tx.snapshot = copyContents

	tmp, err := os.OpenFile(tx.TempPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage error creating temp file: %w", err)
	}
	if copyContents {
		if _, err := io.Copy(tmp, src); err != nil {
			tmp.Close()
			_ = os.Remove(tx.TempPath())
			return nil, fmt.Errorf("storage error writing snapshot: %w", err)
		}
		if err := tmp.Sync(); err != nil {
			tmp.Close()
			_ = os.Remove(tx.TempPath())
			return nil, fmt.Errorf("storage error syncing snapshot: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tx.TempPath())
		return nil, fmt.Errorf("storage error closing temp file: %w", err)
	}
	return tx, nil
}

// TempPath returns the path of the snapshot or marker file.
func (tx *Transaction) TempPath() string {
	if !tx.existed || tx.snapshot {
		return tx.path + tempSuffix
	}
	return tx.path + markerSuffix
}

// rewritePath returns the path a whole-file rewrite is built in.
func (tx *Transaction) rewritePath() string {
	return tx.path + rewriteSuffix
}

// AcceptChanges finalizes the write by deleting the snapshot or marker.
func (tx *Transaction) AcceptChanges() error {
	if err := os.Remove(tx.TempPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage error removing temp file: %w", err)
	}
	return nil
}

// Restore returns the file system to its state before PrepareForWrite.
func (tx *Transaction) Restore() error {
	_ = os.Remove(tx.rewritePath())

	if !tx.existed {
		if err := os.Remove(tx.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage error removing %s: %w", tx.path, err)
		}
		return nil
	}
	if tx.snapshot {
		if err := copyFile(tx.TempPath(), tx.path); err != nil {
			return fmt.Errorf("storage error restoring %s: %w", tx.path, err)
		}
	}
	return tx.AcceptChanges()
}

// Recover repairs the entries file after a write was interrupted by a crash.
// A rewrite marker is dropped together with the unfinished rewrite output,
// because rewrites only replace path by rename. A snapshot, even an empty
// one, is copied back over path. It reports whether either file was found.
func Recover(path string) (bool, error) {
	found := false

	markerPath := path + markerSuffix
	if _, err := os.Stat(markerPath); err == nil {
		found = true
		if err := os.Remove(path + rewriteSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return found, fmt.Errorf("storage error removing %s: %w", path+rewriteSuffix, err)
		}
		if err := os.Remove(markerPath); err != nil {
			return found, fmt.Errorf("storage error removing %s: %w", markerPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return found, fmt.Errorf("storage error checking %s: %w", markerPath, err)
	}

	tmpPath := path + tempSuffix
	if _, err := os.Stat(tmpPath); errors.Is(err, os.ErrNotExist) {
		return found, nil
	} else if err != nil {
		return found, fmt.Errorf("storage error checking %s: %w", tmpPath, err)
	}
	if err := copyFile(tmpPath, path); err != nil {
		return true, fmt.Errorf("storage error recovering %s: %w", path, err)
	}
	if err := os.Remove(tmpPath); err != nil {
		return true, fmt.Errorf("storage error removing %s: %w", tmpPath, err)
	}
	return true, nil
}

// copyFile overwrites dst with the contents of src and syncs it.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
