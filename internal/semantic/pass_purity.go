package semantic

import (
	"sort"
	"strings"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lexer"
	"github.com/o3lang/o3c/internal/types"
)

// PureContractPass is the separate fixed-point impurity analysis: every
// defined function is scanned for direct impurity witnesses (a write to
// a name resolving to a global, or any message send); impurity then
// propagates through the call graph to any function annotated `pure`
// that turns out not to be, reported as O3S215 with a deterministic
// cause token and the earliest causal location.
type PureContractPass struct{}

func (p *PureContractPass) Name() string { return "pure-contract" }

type impurityWitness struct {
	Cause string
	Pos   lexer.Position
	Has   bool
}

type callSite struct {
	Callee string
	Pos    lexer.Position
}

type funcPurityInfo struct {
	Name            string
	DirectWitnesses []impurityWitness
	Calls           []callSite
	Impure          bool
	Cause           impurityWitness
}

func (p *PureContractPass) Run(program *ast.Program, ctx *Context) error {
	infos := make(map[string]*funcPurityInfo)
	var order []string
	for _, fn := range program.Functions {
		if fn.Body == nil {
			continue
		}
		if _, exists := infos[fn.Name]; exists {
			continue // a conflicting redefinition was already reported by O3S200/O3S206
		}
		info := &funcPurityInfo{Name: fn.Name}
		ctx.pushScope(ScopeFunction)
		for _, param := range fn.Params {
			ctx.currentScope().Define(param.Name, types.Unknown)
		}
		walkStmtForPurity(fn.Body, ctx, info)
		ctx.popScope()
		infos[fn.Name] = info
		order = append(order, fn.Name)
	}
	sort.Strings(order)

	for changed := true; changed; {
		changed = false
		for _, name := range order {
			info := infos[name]
			if info.Impure {
				continue
			}
			if cause, ok := earliestImpurityCause(info, infos, ctx.Surface); ok {
				info.Impure = true
				info.Cause = cause
				changed = true
			}
		}
	}

	for _, name := range order {
		info := infos[name]
		fnInfo := ctx.Surface.Functions[name]
		if fnInfo == nil || !fnInfo.Pure || !info.Impure {
			continue
		}
		msg := "pure function '" + name + "' is not provably pure (cause: " + info.Cause.Cause + ")"
		if detail := traceImpurityDetail(info.Cause, infos, map[string]bool{name: true}); detail != "" {
			msg += "; detail: " + detail
		}
		ctx.errorAt(fnInfo.Decl, "O3S215", msg)
	}
	return nil
}

// earliestImpurityCause evaluates whether info is impure given the
// current (possibly still-growing) impure set, returning the minimum by
// (line, column) among its direct witnesses and its impure-propagating
// call sites.
func earliestImpurityCause(info *funcPurityInfo, infos map[string]*funcPurityInfo, surface *SymbolSurface) (impurityWitness, bool) {
	var best impurityWitness
	consider := func(w impurityWitness) {
		if !best.Has || isEarlier(w.Pos, best.Pos) {
			best = w
		}
	}

	for _, w := range info.DirectWitnesses {
		consider(w)
	}
	for _, c := range info.Calls {
		fi, ok := surface.Functions[c.Callee]
		if !ok {
			consider(impurityWitness{Cause: "unannotated-extern-call:" + c.Callee, Pos: c.Pos, Has: true})
			continue
		}
		if !fi.Defined {
			if !fi.Pure {
				consider(impurityWitness{Cause: "unannotated-extern-call:" + c.Callee, Pos: c.Pos, Has: true})
			}
			continue
		}
		if callee, ok := infos[c.Callee]; ok && callee.Impure {
			consider(impurityWitness{Cause: "impure-callee:" + c.Callee, Pos: c.Pos, Has: true})
		}
	}
	return best, best.Has
}

func isEarlier(a, b lexer.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// traceImpurityDetail follows an impure-callee chain down to the direct
// witness that ultimately caused it, guarding against call cycles with
// visited.
func traceImpurityDetail(w impurityWitness, infos map[string]*funcPurityInfo, visited map[string]bool) string {
	if !strings.HasPrefix(w.Cause, "impure-callee:") {
		return ""
	}
	name := strings.TrimPrefix(w.Cause, "impure-callee:")
	if visited[name] {
		return name
	}
	visited[name] = true
	callee, ok := infos[name]
	if !ok || !callee.Cause.Has {
		return name
	}
	if nested := traceImpurityDetail(callee.Cause, infos, visited); nested != "" {
		return name + "->" + nested
	}
	return name + ":" + callee.Cause.Cause
}

func purityScopedStmt(stmt ast.Stmt, ctx *Context, info *funcPurityInfo) {
	if block, ok := stmt.(*ast.BlockStmt); ok {
		ctx.pushScope(ScopeBlock)
		for _, inner := range block.Body {
			walkStmtForPurity(inner, ctx, info)
		}
		ctx.popScope()
		return
	}
	ctx.pushScope(ScopeBlock)
	walkStmtForPurity(stmt, ctx, info)
	ctx.popScope()
}

func walkStmtForPurity(stmt ast.Stmt, ctx *Context, info *funcPurityInfo) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		walkExprForPurity(s.Value, ctx, info)
		ctx.currentScope().Define(s.Name, types.Unknown)

	case *ast.AssignStmt:
		if ctx.currentScope().ResolvesToGlobal(s.Name) {
			info.DirectWitnesses = append(info.DirectWitnesses, impurityWitness{Cause: "global-write", Pos: s.Pos(), Has: true})
		}
		if s.Value != nil {
			walkExprForPurity(s.Value, ctx, info)
		}

	case *ast.ReturnStmt:
		if s.Value != nil {
			walkExprForPurity(s.Value, ctx, info)
		}

	case *ast.ExprStmt:
		walkExprForPurity(s.Value, ctx, info)

	case *ast.IfStmt:
		walkExprForPurity(s.Cond, ctx, info)
		purityScopedStmt(s.Then, ctx, info)
		if s.Else != nil {
			purityScopedStmt(s.Else, ctx, info)
		}

	case *ast.WhileStmt:
		walkExprForPurity(s.Cond, ctx, info)
		purityScopedStmt(s.Body, ctx, info)

	case *ast.DoWhileStmt:
		purityScopedStmt(s.Body, ctx, info)
		walkExprForPurity(s.Cond, ctx, info)

	case *ast.ForStmt:
		ctx.pushScope(ScopeBlock)
		if s.Init != nil {
			walkStmtForPurity(s.Init, ctx, info)
		}
		if s.Cond != nil {
			walkExprForPurity(s.Cond, ctx, info)
		}
		purityScopedStmt(s.Body, ctx, info)
		if s.Step != nil {
			walkStmtForPurity(s.Step, ctx, info)
		}
		ctx.popScope()

	case *ast.SwitchStmt:
		walkExprForPurity(s.Cond, ctx, info)
		for _, c := range s.Cases {
			ctx.pushScope(ScopeBlock)
			for _, inner := range c.Body {
				walkStmtForPurity(inner, ctx, info)
			}
			ctx.popScope()
		}

	case *ast.BlockStmt:
		ctx.pushScope(ScopeBlock)
		for _, inner := range s.Body {
			walkStmtForPurity(inner, ctx, info)
		}
		ctx.popScope()
	}
}

func walkExprForPurity(expr ast.Expr, ctx *Context, info *funcPurityInfo) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		walkExprForPurity(e.Left, ctx, info)
		walkExprForPurity(e.Right, ctx, info)
	case *ast.UnaryExpr:
		walkExprForPurity(e.Operand, ctx, info)
	case *ast.ConditionalExpr:
		walkExprForPurity(e.Cond, ctx, info)
		walkExprForPurity(e.Then, ctx, info)
		walkExprForPurity(e.Else, ctx, info)
	case *ast.CallExpr:
		info.Calls = append(info.Calls, callSite{Callee: e.Name, Pos: e.Pos()})
		for _, arg := range e.Args {
			walkExprForPurity(arg, ctx, info)
		}
	case *ast.MessageSendExpr:
		info.DirectWitnesses = append(info.DirectWitnesses, impurityWitness{Cause: "message-send", Pos: e.Pos(), Has: true})
		walkExprForPurity(e.Receiver, ctx, info)
		for _, arg := range e.Args {
			walkExprForPurity(arg, ctx, info)
		}
	}
}
