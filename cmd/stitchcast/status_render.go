package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

// statusStyles is indexed by statusKind.
var statusStyles = [...]struct {
	tag  string
	ansi string
}{
	statusInfo:  {tag: "INFO", ansi: "\x1b[34m"},
	statusOK:    {tag: "OK", ansi: "\x1b[32m"},
	statusWarn:  {tag: "WARN", ansi: "\x1b[33m"},
	statusError: {tag: "ERROR", ansi: "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

const labelColumn = 16

var titleCaser = cases.Title(language.English)

func paint(s string, kind statusKind, colorize bool) string {
	if !colorize || int(kind) >= len(statusStyles) {
		return s
	}
	return statusStyles[kind].ansi + s + ansiReset
}

// renderStatusLine formats "  Label:           [TAG] message".
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	tag := "INFO"
	if int(kind) < len(statusStyles) {
		tag = statusStyles[kind].tag
	}
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(label + ":")
	if pad := labelColumn - len(label) - 1; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	fmt.Fprintf(&b, " [%s]", tag)
	if message != "" {
		b.WriteString(" " + message)
	}
	return paint(b.String(), kind, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(heading, statusInfo, colorize),
		paint(strings.Repeat("-", len(heading)), statusInfo, colorize),
	}
}

// modeLabel renders a mode or outcome name for display ("recording" -> "Recording").
func modeLabel(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "-"
	}
	return titleCaser.String(name)
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
