// Package pager pipes long command output through the user's pager.
package pager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"
)

// Disabled is the pager setting that turns paging off.
const Disabled = "-"

const fallback = "less -R"

// Command returns the pager command line: configured, then $PAGER, then
// "less -R". It returns "" when paging is disabled.
func Command(configured string) string {
	if configured == Disabled {
		return ""
	}
	if c := strings.TrimSpace(configured); c != "" {
		return c
	}
	if c := strings.TrimSpace(os.Getenv("PAGER")); c != "" {
		return c
	}
	return fallback
}

// Pager is an output destination that may be backed by a pager process.
type Pager struct {
	io.Writer
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Open starts the pager for out. Output that is not a terminal, or an empty
// command, is written to out directly.
func Open(out io.Writer, command string) (*Pager, error) {
	f, ok := out.(*os.File)
	if command == "" || !ok || !isatty.IsTerminal(f.Fd()) {
		return &Pager{Writer: out}, nil
	}

	args := strings.Fields(command)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = f
	cmd.Stderr = os.Stderr
	if _, set := os.LookupEnv("LESS"); !set {
		cmd.Env = append(os.Environ(), "LESS=FRX")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("starting pager: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &Pager{Writer: out}, nil
		}
		return nil, fmt.Errorf("starting pager %q: %w", command, err)
	}
	return &Pager{Writer: stdin, cmd: cmd, stdin: stdin}, nil
}

// Paging reports whether output goes to a pager process.
func (p *Pager) Paging() bool {
	return p.cmd != nil
}

// Close flushes the output and waits for the pager to exit.
func (p *Pager) Close() error {
	if p.cmd == nil {
		return nil
	}
	if err := p.stdin.Close(); err != nil {
		return err
	}
	return p.cmd.Wait()
}
