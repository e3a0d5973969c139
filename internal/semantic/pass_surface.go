package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/constfold"
	"github.com/o3lang/o3c/internal/types"
)

// SymbolSurfacePass is Pass 1: it builds the SymbolSurface from every
// global and function declaration in source order.
type SymbolSurfacePass struct{}

func (p *SymbolSurfacePass) Name() string { return "symbol-surface" }

func (p *SymbolSurfacePass) Run(program *ast.Program, ctx *Context) error {
	for _, g := range program.Globals {
		p.defineGlobal(g, ctx)
	}
	for _, fn := range program.Functions {
		p.defineFunction(fn, ctx)
	}
	return nil
}

func (p *SymbolSurfacePass) defineGlobal(g *ast.GlobalDecl, ctx *Context) {
	if _, isFunc := ctx.Surface.Functions[g.Name]; isFunc {
		ctx.errorAt(g, "O3S200", "duplicate top-level name: "+g.Name)
	} else if _, isGlobal := ctx.Surface.Globals[g.Name]; isGlobal {
		ctx.errorAt(g, "O3S200", "duplicate top-level name: "+g.Name)
	}
	ctx.Surface.Globals[g.Name] = types.I32
	ctx.currentScope().Define(g.Name, types.I32)

	if v, ok := constfold.Eval(g.Init, ctx.globalConstEnv); ok {
		ctx.globalConstEnv[g.Name] = v
	} else {
		ctx.errorAt(g, "O3S210", "global initializer is not constant-foldable: "+g.Name)
	}
}

func (p *SymbolSurfacePass) defineFunction(fn *ast.FunctionDecl, ctx *Context) {
	if _, isGlobal := ctx.Surface.Globals[fn.Name]; isGlobal {
		ctx.errorAt(fn, "O3S200", "duplicate top-level name: "+fn.Name)
		return
	}

	paramTypes := make([]types.Scalar, len(fn.Params))
	for i, param := range fn.Params {
		paramTypes[i] = paramScalar(param)
	}
	retType := types.Void
	if fn.ReturnType != nil {
		retType = fn.ReturnType.LoweredScalar()
	}

	existing, ok := ctx.Surface.Functions[fn.Name]
	if !ok {
		ctx.Surface.Functions[fn.Name] = &FunctionInfo{
			Arity:      len(fn.Params),
			ParamTypes: paramTypes,
			ReturnType: retType,
			Defined:    !fn.IsPrototype,
			Pure:       fn.Pure,
			Decl:       fn,
		}
		return
	}

	if !signaturesCompatible(existing, paramTypes, retType) {
		ctx.errorAt(fn, "O3S206", "conflicting signature for function: "+fn.Name)
		return
	}
	if existing.Defined && !fn.IsPrototype {
		ctx.errorAt(fn, "O3S200", "duplicate definition of function: "+fn.Name)
		return
	}
	existing.Pure = existing.Pure || fn.Pure
	if !fn.IsPrototype {
		existing.Defined = true
		existing.Decl = fn
	}
}

func paramScalar(p ast.Param) types.Scalar {
	if p.Type == nil {
		return types.Unknown
	}
	return p.Type.LoweredScalar()
}

func signaturesCompatible(existing *FunctionInfo, paramTypes []types.Scalar, retType types.Scalar) bool {
	if existing.ReturnType != retType || len(existing.ParamTypes) != len(paramTypes) {
		return false
	}
	for i := range paramTypes {
		if existing.ParamTypes[i] != paramTypes[i] {
			return false
		}
	}
	return true
}
