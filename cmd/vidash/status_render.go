package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusError
)

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusError: {"ERROR", text.Colors{text.FgRed, text.Bold}},
}

var headerColors = text.Colors{text.FgCyan, text.Bold}

// renderStatusLine formats one doctor result as "  Label:  [OK] detail".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-16s [%s]", label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = headerColors.Sprint(lines[i])
		}
	}
	return lines
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// shouldColorize honours NO_COLOR on top of the terminal check.
func shouldColorize(w io.Writer) bool {
	return os.Getenv("NO_COLOR") == "" && isTerminalWriter(w)
}

// progressBar draws fraction as a fixed-width bar.
func progressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(min(max(fraction, 0), 1)*float64(width) + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
