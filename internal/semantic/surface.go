package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/types"
)

// FunctionInfo is the signature record Pass 1 builds for each function
// name, reused by call-site validation and the pure-contract analysis.
type FunctionInfo struct {
	Arity      int
	ParamTypes []types.Scalar
	ReturnType types.Scalar
	Defined    bool // has a body (not a prototype-only declaration)
	Pure       bool // OR across every occurrence's `pure` annotation
	Decl       *ast.FunctionDecl
}

// SymbolSurface is the semantic product Pass 1 builds: the name→type
// map for globals and the name→signature map for functions, consumed by
// Pass 2/3 and (independently re-derived where needed) by IR emission.
type SymbolSurface struct {
	Globals   map[string]types.Scalar
	Functions map[string]*FunctionInfo
	Built     bool
}

// NewSymbolSurface returns an empty, unbuilt surface.
func NewSymbolSurface() *SymbolSurface {
	return &SymbolSurface{
		Globals:   make(map[string]types.Scalar),
		Functions: make(map[string]*FunctionInfo),
	}
}
