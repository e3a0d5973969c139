// Package errors renders a single diagnostic with a source-line caret
// view, for human-readable CLI output.
package errors

import (
	"fmt"
	"strings"

	"github.com/o3lang/o3c/internal/diag"
)

// Formatter renders diagnostics against a single source file's text.
type Formatter struct {
	Source string
	File   string
}

// NewFormatter builds a Formatter for the given file and its source text.
func NewFormatter(file, source string) *Formatter {
	return &Formatter{Source: source, File: file}
}

// Format renders d with a file:line:column header, the offending source
// line, and a caret pointing at the column. If color is true, ANSI codes
// highlight the caret and message.
func (f *Formatter) Format(d diag.Diagnostic, color bool) string {
	var sb strings.Builder

	if f.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", strings.ToUpper(string(d.Severity)), f.File, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at line %d:%d\n", strings.ToUpper(string(d.Severity)), d.Pos.Line, d.Pos.Column)
	}

	if line := f.sourceLine(d.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+d.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if d.Code != "" {
		fmt.Fprintf(&sb, " [%s]", d.Code)
	}
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (f *Formatter) sourceLine(lineNum int) string {
	if f.Source == "" {
		return ""
	}
	lines := strings.Split(f.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders every diagnostic in order, one per paragraph.
func (f *Formatter) FormatAll(diagnostics []diag.Diagnostic, color bool) string {
	parts := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		parts[i] = f.Format(d, color)
	}
	return strings.Join(parts, "\n")
}
