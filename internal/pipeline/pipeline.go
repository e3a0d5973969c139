// Package pipeline wires lexer, parser, semantic analysis, IR emission,
// and manifest shaping into a single pull-then-push entry point: any
// non-empty diagnostics list from a stage skips every stage downstream
// of it.
package pipeline

import (
	"github.com/o3lang/o3c/internal/diag"
	"github.com/o3lang/o3c/internal/ir"
	"github.com/o3lang/o3c/internal/lexer"
	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/manifest"
	"github.com/o3lang/o3c/internal/parser"
	"github.com/o3lang/o3c/internal/semantic"
)

// Options carries the caller-configurable inputs: the message-send
// argument bound and the runtime-dispatch ABI boundary.
type Options struct {
	MaxMessageSendArgs      int
	RuntimeDispatchSymbol   string
	RuntimeDispatchArgSlots int
}

// DefaultOptions returns the standard message-send and dispatch bounds.
func DefaultOptions() Options {
	return Options{
		MaxMessageSendArgs:      4,
		RuntimeDispatchSymbol:   lower.DefaultSymbol,
		RuntimeDispatchArgSlots: lower.DefaultArgSlots,
	}
}

// Result is the pipeline's output bundle.
type Result struct {
	Diagnostics []diag.Diagnostic
	IR          string
	Manifest    string
}

// Compile runs the full pipeline over source. filename is used only for
// diagnostic formatting by callers (the pipeline itself carries no file
// I/O); it is not otherwise interpreted.
func Compile(source, filename string, opts Options) Result {
	_ = filename

	contract, err := lower.TryNormalizeLoweringContract(opts.RuntimeDispatchSymbol, opts.RuntimeDispatchArgSlots)
	if err != nil {
		return Result{Diagnostics: []diag.Diagnostic{
			diag.New(diag.Fatal, lexer.Position{Line: 1, Column: 1}, "O3L300", err.Error()),
		}}
	}

	program, parseDiags := parser.Parse(source)
	if diag.Blocks(diag.Normalize(parseDiags)) {
		return Result{Diagnostics: diag.Normalize(parseDiags)}
	}

	semOpts := semantic.DefaultOptions()
	semOpts.MaxMessageSendArgs = opts.MaxMessageSendArgs
	surface, semDiags := semantic.Analyze(program, semOpts)
	if diag.Blocks(diag.Normalize(semDiags)) {
		return Result{Diagnostics: diag.Normalize(semDiags)}
	}

	irResult := ir.Emit(program, surface, contract)
	if len(irResult.Diagnostics) > 0 {
		return Result{Diagnostics: diag.Normalize(irResult.Diagnostics)}
	}

	m := manifest.Build(program, surface, contract)
	manifestText, err := manifest.Marshal(m)
	if err != nil {
		return Result{Diagnostics: []diag.Diagnostic{
			diag.New(diag.Fatal, lexer.Position{Line: 1, Column: 1}, "O3L301", "manifest encoding failed: "+err.Error()),
		}}
	}

	return Result{IR: irResult.IR, Manifest: manifestText}
}
