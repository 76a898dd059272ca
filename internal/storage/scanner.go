package storage

import (
	"fmt"
	"io"
)

const scanChunkSize = 4096

// Scanner walks lines of a file backwards, starting at end-of-file.
//
// The scanner reads the file through an io.ReaderAt into a window that
// slides towards offset 0, so memory use is bounded by the window and the
// longest line rather than the file size.
//
// Lines are terminated by "\n" or "\r\n"; the terminator is never part of
// the returned line. A terminator at the very end of the file belongs to the
// last line, so "a\nb\n" holds the lines "a" and "b" while "a\n\n" holds
// "a" and "".
type Scanner struct {
	r      io.ReaderAt
	size   int64
	cursor int64

	// window holds file bytes [winStart, winStart+len(window)).
	window   []byte
	winStart int64
	chunk    int

	started bool
}

// NewScanner returns a scanner over the first size bytes of r with its
// cursor at end-of-file.
func NewScanner(r io.ReaderAt, size int64) *Scanner {
	return &Scanner{r: r, size: size, cursor: size, chunk: scanChunkSize}
}

// Offset returns the cursor: the byte offset at which the most recently
// returned line starts.
func (s *Scanner) Offset() int64 {
	return s.cursor
}

// Seek moves the cursor to offset and resets the beginning-of-file state.
func (s *Scanner) Seek(offset int64) error {
	if offset < 0 || offset > s.size {
		return fmt.Errorf("seek to %d outside [0, %d]", offset, s.size)
	}
	s.cursor = offset
	s.started = false
	return nil
}

// PreviousLine returns the line before the cursor and moves the cursor to
// that line's first byte. bos reports that the cursor arrived at offset 0.
//
// A scanner positioned at offset 0 that has not returned any line yet wraps
// around and returns the last line of the file. Once a walk has reached
// offset 0, further calls return "" with bos set.
func (s *Scanner) PreviousLine() (string, bool, error) {
	if s.cursor == 0 {
		if s.started || s.size == 0 {
			return "", true, nil
		}
		s.cursor = s.size
	}
	s.started = true

	pos := s.cursor

	// Consume the terminator of the line we are about to return.
	b, err := s.byteAt(pos - 1)
	if err != nil {
		return "", false, err
	}
	if b == '\n' {
		pos--
		if pos > 0 {
			if b, err = s.byteAt(pos - 1); err != nil {
				return "", false, err
			}
			if b == '\r' {
				pos--
			}
		}
	}

	end := pos
	for pos > 0 {
		if b, err = s.byteAt(pos - 1); err != nil {
			return "", false, err
		}
		if b == '\n' {
			break
		}
		pos--
	}

	line, err := s.slice(pos, end)
	if err != nil {
		return "", false, err
	}
	s.cursor = pos
	return line, pos == 0, nil
}

// byteAt returns the byte at off, sliding the window back when needed.
func (s *Scanner) byteAt(off int64) (byte, error) {
	if off < s.winStart || off >= s.winStart+int64(len(s.window)) {
		if err := s.fill(off); err != nil {
			return 0, err
		}
	}
	return s.window[off-s.winStart], nil
}

// fill loads the chunk ending just after off.
func (s *Scanner) fill(off int64) error {
	end := off + 1
	start := end - int64(s.chunk)
	if start < 0 {
		start = 0
	}
	if cap(s.window) < int(end-start) {
		s.window = make([]byte, end-start)
	}
	s.window = s.window[:end-start]
	n, err := s.r.ReadAt(s.window, start)
	if n < len(s.window) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading entries at offset %d: %w", start, err)
	}
	s.winStart = start
	return nil
}

// slice returns the bytes [from, to) as a string.
func (s *Scanner) slice(from, to int64) (string, error) {
	if from == to {
		return "", nil
	}
	if from >= s.winStart && to <= s.winStart+int64(len(s.window)) {
		return string(s.window[from-s.winStart : to-s.winStart]), nil
	}
	buf := make([]byte, to-from)
	if _, err := s.r.ReadAt(buf, from); err != nil && err != io.EOF {
		return "", fmt.Errorf("reading entries at offset %d: %w", from, err)
	}
	return string(buf), nil
}

// LastLine returns the last line of the first size bytes of r. An empty
// file yields ok == false.
func LastLine(r io.ReaderAt, size int64) (string, bool, error) {
	if size == 0 {
		return "", false, nil
	}
	line, _, err := NewScanner(r, size).PreviousLine()
	if err != nil {
		return "", false, err
	}
	return line, true, nil
}

// LastNonEmptyLine returns the last line that is not blank, skipping
// trailing blank lines. ok is false when the file holds no such line.
func LastNonEmptyLine(r io.ReaderAt, size int64) (string, bool, error) {
	if size == 0 {
		return "", false, nil
	}
	sc := NewScanner(r, size)
	for {
		line, bos, err := sc.PreviousLine()
		if err != nil {
			return "", false, err
		}
		if !isBlank(line) {
			return line, true, nil
		}
		if bos {
			return "", false, nil
		}
	}
}

func isBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}
