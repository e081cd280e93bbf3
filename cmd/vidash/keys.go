package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

type specialKey int

const (
	keyNone specialKey = iota
	keyEnter
	keyEscape
	keyBackspace
	keyArrowLeft
	keyArrowRight
	keyArrowUp
	keyArrowDown
	keyInterrupt
)

type keyEvent struct {
	r       rune
	special specialKey
}

// keyReader decodes keystrokes from a terminal switched to raw mode.
type keyReader struct {
	file  *os.File
	state *term.State
	in    *bufio.Reader
}

var errNotTerminal = errors.New("interactive mode requires a terminal")

func isTerminalReader(r io.Reader) bool {
	file, ok := r.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func openKeyReader(r io.Reader) (*keyReader, error) {
	file, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return nil, errNotTerminal
	}
	state, err := term.MakeRaw(int(file.Fd()))
	if err != nil {
		return nil, err
	}
	return &keyReader{file: file, state: state, in: bufio.NewReader(file)}, nil
}

func (k *keyReader) restore() {
	if k != nil && k.state != nil {
		_ = term.Restore(int(k.file.Fd()), k.state)
	}
}

// events streams decoded keys until the reader fails. The goroutine exits
// with the process when the terminal never produces another byte.
func (k *keyReader) events() <-chan keyEvent {
	ch := make(chan keyEvent, 16)
	go func() {
		defer close(ch)
		for {
			ev, err := decodeKey(k.in)
			if err != nil {
				return
			}
			ch <- ev
		}
	}()
	return ch
}

func decodeKey(in *bufio.Reader) (keyEvent, error) {
	r, _, err := in.ReadRune()
	if err != nil {
		return keyEvent{}, err
	}
	switch r {
	case '\r', '\n':
		return keyEvent{special: keyEnter}, nil
	case 0x7f, 0x08:
		return keyEvent{special: keyBackspace}, nil
	case 0x03:
		return keyEvent{special: keyInterrupt}, nil
	case 0x1b:
		if in.Buffered() == 0 {
			return keyEvent{special: keyEscape}, nil
		}
		next, _, err := in.ReadRune()
		if err != nil || next != '[' {
			return keyEvent{special: keyEscape}, err
		}
		final, _, err := in.ReadRune()
		if err != nil {
			return keyEvent{special: keyEscape}, err
		}
		switch final {
		case 'C':
			return keyEvent{special: keyArrowRight}, nil
		case 'D':
			return keyEvent{special: keyArrowLeft}, nil
		case 'A':
			return keyEvent{special: keyArrowUp}, nil
		case 'B':
			return keyEvent{special: keyArrowDown}, nil
		}
		return keyEvent{special: keyNone}, nil
	}
	return keyEvent{r: r}, nil
}

// rawText converts newlines for a terminal in raw mode.
func rawText(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

const (
	ansiClearScreen  = "\x1b[H\x1b[2J"
	ansiClearLine    = "\r\x1b[2K"
	ansiAltScreenOn  = "\x1b[?1049h"
	ansiAltScreenOff = "\x1b[?1049l"
)
