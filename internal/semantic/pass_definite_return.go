package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/constfold"
	"github.com/o3lang/o3c/internal/types"
)

// DefiniteReturnPass is Pass 3: it proves that every control path through
// a non-void function ends in `return`. It uses a small
// "static-scalar environment" of compile-time-known let bindings and
// globals to resolve conditions it can prove statically.
type DefiniteReturnPass struct{}

func (p *DefiniteReturnPass) Name() string { return "definite-return" }

func (p *DefiniteReturnPass) Run(program *ast.Program, ctx *Context) error {
	for _, fn := range program.Functions {
		if fn.Body == nil {
			continue
		}
		if isVoidReturn(fn) {
			continue
		}
		env := staticEnvFor(fn, ctx)
		if !blockAlwaysReturns(fn.Body, env) {
			ctx.errorAt(fn, "O3S205", "missing return path in function: "+fn.Name)
		}
	}
	return nil
}

func isVoidReturn(fn *ast.FunctionDecl) bool {
	return fn.ReturnType == nil || fn.ReturnType.LoweredScalar() == types.Void
}

// staticEnv is the compile-time-known scalar environment definite-return
// analysis consults to resolve statically-known conditions: globals that
// folded to a constant, plus function-local `let` bindings whose
// initializer is constant and that are never reassigned, shadowed, or
// used as a switch condition.
type staticEnv map[string]int32

// staticEnvFor seeds env from ctx.globalConstEnv, then layers in any
// function-local `let` at the top level of the body whose value is
// eligible per the rule above.
func staticEnvFor(fn *ast.FunctionDecl, ctx *Context) staticEnv {
	env := make(staticEnv, len(ctx.globalConstEnv))
	for name, v := range ctx.globalConstEnv {
		env[name] = v
	}

	reassigned := make(map[string]bool)
	shadowed := make(map[string]bool)
	usedAsSwitchCond := make(map[string]bool)
	collectLetHazards(fn.Body, reassigned, shadowed, usedAsSwitchCond, make(map[string]bool))

	for _, stmt := range fn.Body.Body {
		let, ok := stmt.(*ast.LetStmt)
		if !ok {
			continue
		}
		if reassigned[let.Name] || shadowed[let.Name] || usedAsSwitchCond[let.Name] {
			continue
		}
		if v, ok := constfold.Eval(let.Value, env); ok {
			env[let.Name] = v
		}
	}
	return env
}

// collectLetHazards walks the whole body once, recording every name that
// is reassigned anywhere, every name shadowed by a nested `let` of the
// same name, and every name used directly as a switch condition —
// disqualifying it from the static-scalar environment.
func collectLetHazards(stmt ast.Stmt, reassigned, shadowed, usedAsSwitchCond map[string]bool, topLevelNames map[string]bool) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		nested := make(map[string]bool, len(topLevelNames))
		for k := range topLevelNames {
			nested[k] = true
		}
		for _, inner := range s.Body {
			if let, ok := inner.(*ast.LetStmt); ok {
				if topLevelNames[let.Name] {
					shadowed[let.Name] = true
				}
				nested[let.Name] = true
			}
			collectLetHazards(inner, reassigned, shadowed, usedAsSwitchCond, nested)
		}
	case *ast.LetStmt:
		// handled by the caller for shadow detection; nothing else to do
	case *ast.AssignStmt:
		reassigned[s.Name] = true
	case *ast.IfStmt:
		collectLetHazards(s.Then, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
		if s.Else != nil {
			collectLetHazards(s.Else, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
		}
	case *ast.WhileStmt:
		collectLetHazards(s.Body, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
	case *ast.DoWhileStmt:
		collectLetHazards(s.Body, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
	case *ast.ForStmt:
		if let, ok := s.Init.(*ast.LetStmt); ok && topLevelNames[let.Name] {
			shadowed[let.Name] = true
		}
		if s.Init != nil {
			collectLetHazards(s.Init, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
		}
		if s.Step != nil {
			collectLetHazards(s.Step, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
		}
		collectLetHazards(s.Body, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
	case *ast.SwitchStmt:
		if ident, ok := s.Cond.(*ast.IdentExpr); ok {
			usedAsSwitchCond[ident.Name] = true
		}
		for _, c := range s.Cases {
			for _, inner := range c.Body {
				if let, ok := inner.(*ast.LetStmt); ok && topLevelNames[let.Name] {
					shadowed[let.Name] = true
				}
				collectLetHazards(inner, reassigned, shadowed, usedAsSwitchCond, topLevelNames)
			}
		}
	}
}

// blockAlwaysReturns reports whether every control path through block
// ends in `return`.
func blockAlwaysReturns(block *ast.BlockStmt, env staticEnv) bool {
	for _, stmt := range block.Body {
		if stmtAlwaysReturns(stmt, env) {
			return true
		}
	}
	return false
}

func stmtAlwaysReturns(stmt ast.Stmt, env staticEnv) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return blockAlwaysReturns(s, env)
	case *ast.IfStmt:
		if v, ok := constfold.Eval(s.Cond, env); ok {
			if v != 0 {
				return stmtAlwaysReturns(s.Then, env)
			}
			return s.Else != nil && stmtAlwaysReturns(s.Else, env)
		}
		if s.Else == nil {
			return false
		}
		return stmtAlwaysReturns(s.Then, env) && stmtAlwaysReturns(s.Else, env)
	case *ast.WhileStmt:
		if v, ok := constfold.Eval(s.Cond, env); ok && v != 0 {
			return stmtAlwaysReturns(s.Body, env)
		}
		return false
	case *ast.ForStmt:
		if s.Cond == nil {
			return stmtAlwaysReturns(s.Body, env)
		}
		if v, ok := constfold.Eval(s.Cond, env); ok && v != 0 {
			return stmtAlwaysReturns(s.Body, env)
		}
		return false
	case *ast.DoWhileStmt:
		// the body runs at least once regardless of the condition
		return stmtAlwaysReturns(s.Body, env)
	case *ast.SwitchStmt:
		return switchAlwaysReturns(s, env)
	default:
		return false
	}
}

func switchAlwaysReturns(s *ast.SwitchStmt, env staticEnv) bool {
	if v, ok := constfold.Eval(s.Cond, env); ok {
		for i, c := range s.Cases {
			if !c.IsDefault && c.Value == v {
				return armAlwaysReturnsOrFallsThrough(s.Cases, i, env)
			}
		}
		for i, c := range s.Cases {
			if c.IsDefault {
				return armAlwaysReturnsOrFallsThrough(s.Cases, i, env)
			}
		}
		return false
	}

	sawDefault := false
	for i, c := range s.Cases {
		if c.IsDefault {
			sawDefault = true
		}
		if !armAlwaysReturnsOrFallsThrough(s.Cases, i, env) {
			return false
		}
	}
	return sawDefault
}

// armAlwaysReturnsOrFallsThrough reports whether the case at index i
// either itself always returns, or falls through to a subsequent arm
// that does (no fall-through possible out of the final arm).
func armAlwaysReturnsOrFallsThrough(cases []ast.SwitchCase, i int, env staticEnv) bool {
	for idx := i; idx < len(cases); idx++ {
		if caseBodyAlwaysReturns(cases[idx].Body, env) {
			return true
		}
		if len(cases[idx].Body) > 0 {
			// a non-empty arm that does not always return is a dead end,
			// not a fall-through candidate
			return false
		}
	}
	return false
}

func caseBodyAlwaysReturns(body []ast.Stmt, env staticEnv) bool {
	for _, stmt := range body {
		if stmtAlwaysReturns(stmt, env) {
			return true
		}
	}
	return false
}
