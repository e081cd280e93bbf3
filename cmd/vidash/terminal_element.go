package main

import (
	"fmt"
	"io"
	"sync"

	"vidash/internal/playback"
)

// terminalElement is the player surface. Fullscreen switches the terminal to
// its alternate screen buffer and is unavailable when output is not a terminal.
type terminalElement struct {
	mu         sync.Mutex
	out        io.Writer
	tty        bool
	fullscreen bool
}

func newTerminalElement(out io.Writer) *terminalElement {
	return &terminalElement{out: out, tty: isTerminalWriter(out)}
}

func (e *terminalElement) RequestFullscreen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.tty {
		return playback.ErrFullscreenUnsupported
	}
	if e.fullscreen {
		return nil
	}
	if _, err := fmt.Fprint(e.out, ansiAltScreenOn+ansiClearScreen); err != nil {
		return err
	}
	e.fullscreen = true
	return nil
}

func (e *terminalElement) ExitFullscreen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.fullscreen {
		return nil
	}
	e.fullscreen = false
	_, err := fmt.Fprint(e.out, ansiAltScreenOff)
	return err
}
