package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDataDir is returned when the dlog data directory cannot be resolved.
var ErrDataDir = errors.New("cannot determine the dlog data directory")

// Locator resolves files inside the dlog data directory.
type Locator struct {
	dir string
}

// NewLocator resolves the data directory and creates it if needed.
//
// The directory is taken from $DLOG_PATH, which must name an existing
// directory. Otherwise $XDG_DATA_HOME/dlog is used, falling back to
// ~/.config/dlog.
func NewLocator() (Locator, error) {
	if p := os.Getenv("DLOG_PATH"); p != "" {
		info, err := os.Stat(p)
		if err != nil {
			return Locator{}, fmt.Errorf("%w: DLOG_PATH: %w", ErrDataDir, err)
		}
		if !info.IsDir() {
			return Locator{}, fmt.Errorf("%w: DLOG_PATH %s is not a directory", ErrDataDir, p)
		}
		return Locator{dir: p}, nil
	}

	dir, err := defaultDataDir()
	if err != nil {
		return Locator{}, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Locator{}, fmt.Errorf("creating data directory: %w", err)
	}
	return Locator{dir: dir}, nil
}

// LocatorAt returns a locator rooted at dir without consulting the
// environment.
func LocatorAt(dir string) Locator {
	return Locator{dir: dir}
}

func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dlog"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: no home directory", ErrDataDir)
	}
	return filepath.Join(home, ".config", "dlog"), nil
}

// Dir returns the data directory.
func (l Locator) Dir() string {
	return l.dir
}

// File returns the path of name inside the data directory.
func (l Locator) File(name string) (string, error) {
	if l.dir == "" {
		return "", ErrDataDir
	}
	return filepath.Join(l.dir, name), nil
}
