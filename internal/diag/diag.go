// Package diag implements the diagnostics bus: the merge-and-sort stage
// that every other stage's diagnostic list flows through on its way to
// the output bundle.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/o3lang/o3c/internal/source"
)

// Severity orders fatal < error < warning < note < ignored < other, the
// ranking used to break sort ties between diagnostics at the same
// position.
type Severity string

const (
	Fatal   Severity = "fatal"
	Error   Severity = "error"
	Warning Severity = "warning"
	Note    Severity = "note"
	Ignored Severity = "ignored"
)

func (s Severity) rank() int {
	switch strings.ToLower(string(s)) {
	case "fatal":
		return 0
	case "error":
		return 1
	case "warning":
		return 2
	case "note":
		return 3
	case "ignored":
		return 4
	default:
		return 5
	}
}

// Diagnostic is a single typed message produced by any pipeline stage.
type Diagnostic struct {
	Severity Severity
	Pos      source.Position
	Message  string
	Code     string // optional, form O3[A-Z][0-9]{3}
}

// New builds a Diagnostic with the given severity, code, and message.
func New(sev Severity, pos source.Position, code, message string) Diagnostic {
	return Diagnostic{Severity: sev, Pos: pos, Message: message, Code: code}
}

// Raw renders d in the boundary format `severity:line:column: message [CODE]`.
// When Code is empty the trailing "[CODE]" suffix is omitted.
func (d Diagnostic) Raw() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d:%d: %s", d.Severity, d.Pos.Line, d.Pos.Column, d.Message)
	if d.Code != "" {
		fmt.Fprintf(&sb, " [%s]", d.Code)
	}
	return sb.String()
}

// sortKey is the parsed key used to order diagnostics, independent of how
// the message text itself is worded.
type sortKey struct {
	line, column, severityRank int
	code, message, raw         string
}

func keyOf(d Diagnostic) sortKey {
	return sortKey{
		line:         d.Pos.Line,
		column:       d.Pos.Column,
		severityRank: d.Severity.rank(),
		code:         d.Code,
		message:      d.Message,
		raw:          d.Raw(),
	}
}

// Merge concatenates the given diagnostic lists (in the order lexer,
// parser, sema are expected to be passed), applies the stable sort
// described in spec §4.4 — (line, column, severity-rank, code, message,
// raw) — and collapses adjacent exact duplicates.
func Merge(lists ...[]Diagnostic) []Diagnostic {
	var all []Diagnostic
	for _, l := range lists {
		all = append(all, l...)
	}
	return Normalize(all)
}

// Normalize sorts diagnostics and collapses adjacent exact duplicates,
// without first concatenating multiple lists. Exposed separately so a
// single stage's list can be normalized on its own.
func Normalize(diagnostics []Diagnostic) []Diagnostic {
	keys := make([]sortKey, len(diagnostics))
	for i, d := range diagnostics {
		keys[i] = keyOf(d)
	}

	indices := make([]int, len(diagnostics))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		a, b := keys[indices[i]], keys[indices[j]]
		if a.line != b.line {
			return a.line < b.line
		}
		if a.column != b.column {
			return a.column < b.column
		}
		if a.severityRank != b.severityRank {
			return a.severityRank < b.severityRank
		}
		if a.code != b.code {
			return a.code < b.code
		}
		if a.message != b.message {
			return a.message < b.message
		}
		return a.raw < b.raw
	})

	out := make([]Diagnostic, 0, len(diagnostics))
	var lastRaw string
	haveLast := false
	for _, idx := range indices {
		d := diagnostics[idx]
		raw := keys[idx].raw
		if haveLast && raw == lastRaw {
			continue
		}
		out = append(out, d)
		lastRaw = raw
		haveLast = true
	}
	return out
}

// Blocks reports whether a stage's diagnostics list is non-empty — per
// spec, any non-empty prior-stage list causes every later stage to be
// skipped rather than merely downgraded.
func Blocks(diagnostics []Diagnostic) bool {
	return len(diagnostics) > 0
}
