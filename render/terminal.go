package render

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// TerminalSize returns the dimensions of the terminal attached to f.
func TerminalSize(f *os.File) (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("getting terminal size: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	_, err := unix.IoctlGetTermios(int(f.Fd()), ioctlGetTermios)
	return err == nil
}

// Terminal handles raw mode for single-key prompts.
type Terminal struct {
	f        *os.File
	original unix.Termios
}

// NewTerminal creates a terminal controller for the given file.
func NewTerminal(f *os.File) (*Terminal, error) {
	termios, err := unix.IoctlGetTermios(int(f.Fd()), ioctlGetTermios)
	if err != nil {
		return nil, err
	}
	return &Terminal{f: f, original: *termios}, nil
}

// EnterRawMode puts the terminal into raw mode for direct character input.
func (t *Terminal) EnterRawMode() error {
	raw := t.original
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(int(t.f.Fd()), ioctlSetTermios, &raw)
}

// RestoreMode restores the original terminal mode.
func (t *Terminal) RestoreMode() error {
	return unix.IoctlSetTermios(int(t.f.Fd()), ioctlSetTermios, &t.original)
}

// ReadKey reads one key press in raw mode. Ctrl-C reads as 3.
func (t *Terminal) ReadKey() (byte, error) {
	if err := t.EnterRawMode(); err != nil {
		return 0, err
	}
	defer t.RestoreMode()

	buf := make([]byte, 1)
	if _, err := t.f.Read(buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

const (
	ClearLine  = "\033[2K"
	CursorHide = "\033[?25l"
	CursorShow = "\033[?25h"
)
