// Package source holds the position type shared by every pipeline stage,
// kept dependency-free so both the lexer and the diagnostics bus can
// import it without creating a cycle.
package source

// Position is a 1-based (line, column) location in source text.
type Position struct {
	Line   int
	Column int
}
