package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Tiliavir/dlog/internal/model"
)

// EntriesFile is the name of the entries file inside the dlog directory.
const EntriesFile = "entries"

var (
	// ErrInvalidEntry is returned when an entry that fails validation is
	// handed to a write operation.
	ErrInvalidEntry = errors.New("invalid entry: the start must be set, not after the end, and neither may lie in the future")
	// ErrIndexOutOfRange is returned by Overwrite and Remove for a position
	// past the first entry.
	ErrIndexOutOfRange = errors.New("no entry at the given position")
	// ErrNoLogFile is returned by Open when the entries file cannot be located.
	ErrNoLogFile = errors.New("could not determine the location of the entries file")
)

// Locator resolves the path of a named file in the dlog directory.
type Locator interface {
	File(name string) (string, error)
}

// fileWriter is the part of *os.File used to mutate the entries file.
type fileWriter interface {
	io.WriterAt
	Truncate(size int64) error
	Sync() error
}

// Repository reads and writes time entries in a single entries file.
// Entries are addressed by their position counted from the end of the file.
type Repository struct {
	path   string
	now    func() time.Time
	log    *zap.Logger
	writer func(*os.File) fileWriter
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used to validate entries.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) { r.log = l }
}

// New returns a repository for the entries file at path.
func New(path string, opts ...Option) *Repository {
	r := &Repository{
		path:   path,
		now:    time.Now,
		log:    zap.NewNop(),
		writer: func(f *os.File) fileWriter { return f },
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(zap.String("file", path))
	return r
}

// Open resolves the entries file through loc and returns its repository.
func Open(loc Locator, opts ...Option) (*Repository, error) {
	path, err := loc.File(EntriesFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoLogFile, err)
	}
	if path == "" {
		return nil, ErrNoLogFile
	}
	return New(path, opts...), nil
}

// Path returns the entries file path.
func (r *Repository) Path() string {
	return r.path
}

// Last returns the most recent entry, or the null entry if there is none.
func (r *Repository) Last() (model.Entry, error) {
	f, size, err := r.openRead()
	if err != nil || f == nil {
		return model.Entry{}, err
	}
	line, ok, err := LastNonEmptyLine(f, size)
	f.Close()
	if err != nil || !ok {
		return model.Entry{}, err
	}

	e, err := Parse(line)
	if err == nil {
		return e, nil
	}
	r.log.Debug("skipping unparseable last line", zap.Error(err))
	entries, err := r.ReadAll(1)
	if err != nil || len(entries) == 0 {
		return model.Entry{}, err
	}
	return entries[0], nil
}

// Get returns the entry index positions from the end, where 1 is the most
// recent entry. Index 0 is treated like 1. The null entry is returned when
// the log holds fewer entries.
func (r *Repository) Get(index int) (model.Entry, error) {
	if index < 0 {
		return model.Entry{}, nil
	}
	if index == 0 {
		index = 1
	}
	entries, err := r.ReadAll(index)
	if err != nil || len(entries) < index {
		return model.Entry{}, err
	}
	return entries[0], nil
}

// ReadAll returns entries oldest first. With limit 0 the whole file is read
// front to back; otherwise the file is scanned from the end and at most
// limit entries are returned. Blank and unparseable lines are skipped.
func (r *Repository) ReadAll(limit int) ([]model.Entry, error) {
	if limit <= 0 {
		return r.readForward()
	}
	return r.readBackward(limit)
}

func (r *Repository) readForward() ([]model.Entry, error) {
	f, _, err := r.openRead()
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()

	var entries []model.Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isBlank(line) {
			continue
		}
		e, err := Parse(line)
		if err != nil {
			r.log.Debug("skipping unparseable line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *Repository) readBackward(limit int) ([]model.Entry, error) {
	f, size, err := r.openRead()
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()
	if size == 0 {
		return nil, nil
	}

	entries := make([]model.Entry, 0, min(limit, 64))
	sc := NewScanner(f, size)
	for len(entries) < limit {
		line, bos, err := sc.PreviousLine()
		if err != nil {
			return nil, fmt.Errorf("storage error reading %s: %w", r.path, err)
		}
		if !isBlank(line) {
			e, err := Parse(line)
			if err != nil {
				r.log.Debug("skipping unparseable line", zap.Int64("offset", sc.Offset()), zap.Error(err))
			} else {
				entries = append(entries, e)
			}
		}
		if bos {
			break
		}
	}
	slices.Reverse(entries)
	return entries, nil
}

// Append writes e after the last entry. The file is snapshotted first and
// restored if any part of the write fails.
func (r *Repository) Append(e model.Entry) error {
	line := Serialize(e, r.now())
	if line == "" {
		return ErrInvalidEntry
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	tx, err := PrepareForWrite(r.path, true)
	if err != nil {
		return err
	}
	if err := r.appendLine(line); err != nil {
		return r.rollback(tx, err)
	}
	return tx.AcceptChanges()
}

func (r *Repository) appendLine(line string) error {
	f, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("storage error opening %s: %w", r.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("storage error reading %s: %w", r.path, err)
	}
	off, needNewline, err := insertionPoint(f, info.Size())
	if err != nil {
		return err
	}

	data := make([]byte, 0, len(line)+2)
	if needNewline {
		data = append(data, '\n')
	}
	data = append(data, line...)
	data = append(data, '\n')

	w := r.writer(f)
	if _, err := w.WriteAt(data, off); err != nil {
		return fmt.Errorf("storage error writing %s: %w", r.path, err)
	}
	if err := w.Truncate(off + int64(len(data))); err != nil {
		return fmt.Errorf("storage error truncating %s: %w", r.path, err)
	}
	if err := w.Sync(); err != nil {
		return fmt.Errorf("storage error syncing %s: %w", r.path, err)
	}
	return f.Close()
}

// insertionPoint returns the offset right after the terminator of the last
// non-blank line, so trailing blank lines are reused. needNewline is set
// when that line has no terminator.
func insertionPoint(f io.ReaderAt, size int64) (int64, bool, error) {
	if size == 0 {
		return 0, false, nil
	}
	sc := NewScanner(f, size)
	for {
		line, bos, err := sc.PreviousLine()
		if err != nil {
			return 0, false, fmt.Errorf("storage error scanning entries: %w", err)
		}
		if !isBlank(line) {
			end := sc.Offset() + int64(len(line))
			if end >= size {
				return end, true, nil
			}
			term := make([]byte, 2)
			n, err := f.ReadAt(term, end)
			if n == 0 {
				return 0, false, fmt.Errorf("storage error scanning entries: %w", err)
			}
			if term[0] == '\r' && n == 2 && term[1] == '\n' {
				return end + 2, false, nil
			}
			return end + 1, false, nil
		}
		if bos {
			return 0, false, nil
		}
	}
}

// Overwrite replaces the entry index positions from the end (1 is the most
// recent, 0 is treated like 1) with e, or deletes it when e is null. The
// whole file is rewritten.
func (r *Repository) Overwrite(index int, e model.Entry) error {
	if !e.Null() && !e.Valid(r.now()) {
		return ErrInvalidEntry
	}
	entries, err := r.ReadAll(0)
	if err != nil {
		return err
	}
	if index == 0 {
		index = 1
	}
	if index < 1 || index > len(entries) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(entries))
	}

	pos := len(entries) - index
	if e.Null() {
		entries = slices.Delete(entries, pos, pos+1)
	} else {
		entries[pos] = e
	}
	return r.Rewrite(entries)
}

// Remove deletes the entry index positions from the end.
func (r *Repository) Remove(index int) error {
	return r.Overwrite(index, model.Entry{})
}

// Rewrite replaces the file content with entries, oldest first. Null
// entries are dropped. The new content is written to a sibling file and
// renamed over the original.
func (r *Repository) Rewrite(entries []model.Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		if e.Null() {
			continue
		}
		buf.WriteString(encode(e))
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	tx, err := PrepareForWrite(r.path, false)
	if err != nil {
		return err
	}
	if err := r.writeFile(tx.rewritePath(), buf.Bytes()); err != nil {
		return r.rollback(tx, err)
	}
	if err := os.Rename(tx.rewritePath(), r.path); err != nil {
		return r.rollback(tx, fmt.Errorf("storage error renaming rewritten file: %w", err))
	}
	return tx.AcceptChanges()
}

func (r *Repository) writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("storage error creating %s: %w", path, err)
	}
	defer f.Close()

	w := r.writer(f)
	if _, err := w.WriteAt(data, 0); err != nil {
		return fmt.Errorf("storage error writing %s: %w", path, err)
	}
	if err := w.Sync(); err != nil {
		return fmt.Errorf("storage error syncing %s: %w", path, err)
	}
	return f.Close()
}

func (r *Repository) rollback(tx *Transaction, cause error) error {
	r.log.Debug("rolling back write", zap.Error(cause))
	if err := tx.Restore(); err != nil {
		r.log.Error("restoring entries file failed", zap.Error(err))
		return errors.Join(cause, err)
	}
	return cause
}

// openRead opens the entries file for reading. A missing file yields a nil
// file and no error.
func (r *Repository) openRead() (*os.File, int64, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("storage error opening %s: %w", r.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("storage error reading %s: %w", r.path, err)
	}
	return f, info.Size(), nil
}
