// Package semantic implements the analyzer: building the symbol
// surface, validating function bodies, and proving definite return, plus
// a separate pure-contract fixed point. Each stage is a Pass run in
// order by a PassManager over a Context shared across the whole run.
package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/diag"
)

// Pass is one stage of semantic analysis. A pass records diagnostics on
// ctx rather than returning them; the return error is reserved for fatal
// internal failures, which this analyzer never produces.
type Pass interface {
	Name() string
	Run(program *ast.Program, ctx *Context) error
}

// PassManager runs passes in order over a shared Context.
type PassManager struct {
	passes []Pass
}

// NewPassManager builds a manager over the given passes, in run order.
func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{passes: passes}
}

// RunAll runs every pass in order. Analysis keeps going across passes
// even once a pass has recorded diagnostics — only a real internal error
// stops the pipeline early, since whether to "skip downstream stages" on
// non-empty diagnostics is the pipeline's decision, not the analyzer's.
func (pm *PassManager) RunAll(program *ast.Program, ctx *Context) error {
	for _, pass := range pm.passes {
		if err := pass.Run(program, ctx); err != nil {
			return err
		}
	}
	return nil
}

// Analyze runs the full semantic pipeline (symbol surface, body
// validation, definite-return, pure-contract) and returns the resulting
// surface plus every diagnostic recorded along the way.
func Analyze(program *ast.Program, opts Options) (*SymbolSurface, []diag.Diagnostic) {
	ctx := NewContext(opts)
	pm := NewPassManager(
		&SymbolSurfacePass{},
		&BodyValidationPass{},
		&DefiniteReturnPass{},
		&PureContractPass{},
	)
	// A fatal error here would mean an internal bug, not a source
	// problem; none of the passes below ever return one.
	_ = pm.RunAll(program, ctx)
	ctx.Surface.Built = true
	return ctx.Surface, ctx.Diagnostics
}
