// Package ir lowers a validated AST+SymbolSurface to textual LLVM-style
// IR. It is only ever invoked on a program that
// the lexer/parser/semantic stages produced zero diagnostics for; any
// failure here is reported as an O3L300-class diagnostic in a
// "post-pipeline" sub-list rather than mixed into the main bus.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/constfold"
	"github.com/o3lang/o3c/internal/diag"
	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/semantic"
	"github.com/o3lang/o3c/internal/types"
)

// FunctionEffect is the per-function effect record item 5 of §4.5
// describes: whether a function writes a global or sends a message
// directly, which functions it calls, and the fixed-point-promoted
// impure flag.
type FunctionEffect struct {
	WritesGlobal bool
	SendsMessage bool
	Calls        []string
	Impure       bool
}

// Result is the emitter's output: the IR text plus any post-pipeline
// diagnostics (non-empty only on internal emission failure).
type Result struct {
	IR          string
	Diagnostics []diag.Diagnostic
	Effects     map[string]FunctionEffect
}

// Emit lowers program (already validated against surface) under contract
// to textual IR.
func Emit(program *ast.Program, surface *semantic.SymbolSurface, contract lower.Contract) Result {
	e := &emitter{
		program:  program,
		surface:  surface,
		contract: contract,
	}
	return e.run()
}

type emitter struct {
	program  *ast.Program
	surface  *semantic.SymbolSurface
	contract lower.Contract

	globalEnv      map[string]int32
	mutableGlobals map[string]bool
	provenNil      map[string]bool
	selectors      []string
	selectorIndex  map[string]int
	effects        map[string]FunctionEffect

	buf strings.Builder
}

func (e *emitter) run() Result {
	e.resolveGlobals()
	e.findMutableGlobals()
	e.collectSelectors()
	e.computeEffects()

	e.emitHeader()
	e.emitGlobals()
	e.emitSelectors()
	e.emitPrototypes()

	emitted := make(map[string]bool)
	for _, fn := range e.program.Functions {
		if fn.Body == nil || emitted[fn.Name] {
			continue
		}
		emitted[fn.Name] = true
		e.emitFunction(fn)
	}

	e.emitEntryPoint()

	return Result{IR: e.buf.String(), Effects: e.effects}
}

func (e *emitter) resolveGlobals() {
	e.globalEnv = make(map[string]int32, len(e.program.Globals))
	e.provenNil = make(map[string]bool)
	for _, g := range e.program.Globals {
		v, ok := constfold.Eval(g.Init, e.globalEnv)
		if !ok {
			v = 0
		}
		e.globalEnv[g.Name] = v
		if isProvenNil(g.Init, e.globalEnv) {
			e.provenNil[g.Name] = true
		}
	}
}

// isProvenNil reports whether expr is syntactically nil, or a
// conditional whose statically-resolved branch is nil.
func isProvenNil(expr ast.Expr, env map[string]int32) bool {
	if constfold.IsNilLiteral(expr) {
		return true
	}
	cond, ok := expr.(*ast.ConditionalExpr)
	if !ok {
		return false
	}
	v, ok := constfold.Eval(cond.Cond, env)
	if !ok {
		return false
	}
	if v != 0 {
		return isProvenNil(cond.Then, env)
	}
	return isProvenNil(cond.Else, env)
}

// findMutableGlobals scans every defined function for assignment targets
// that resolve to a global (not shadowed by a parameter or local), the
// same shadow-aware resolution the semantic pass uses.
func (e *emitter) findMutableGlobals() {
	e.mutableGlobals = make(map[string]bool)
	for _, fn := range e.program.Functions {
		if fn.Body == nil {
			continue
		}
		locals := []map[string]bool{{}}
		for _, param := range fn.Params {
			locals[0][param.Name] = true
		}
		scanAssignTargets(fn.Body, locals, e.globalEnv, e.mutableGlobals)
	}
}

func scanAssignTargets(stmt ast.Stmt, locals []map[string]bool, globals map[string]int32, mutable map[string]bool) {
	shadowed := func(name string) bool {
		for _, scope := range locals {
			if scope[name] {
				return true
			}
		}
		return false
	}
	push := func() []map[string]bool { return append(locals, map[string]bool{}) }

	switch s := stmt.(type) {
	case *ast.LetStmt:
		locals[len(locals)-1][s.Name] = true
	case *ast.AssignStmt:
		if _, isGlobal := globals[s.Name]; isGlobal && !shadowed(s.Name) {
			mutable[s.Name] = true
		}
	case *ast.BlockStmt:
		inner := push()
		for _, st := range s.Body {
			scanAssignTargets(st, inner, globals, mutable)
		}
	case *ast.IfStmt:
		scanAssignTargets(s.Then, push(), globals, mutable)
		if s.Else != nil {
			scanAssignTargets(s.Else, push(), globals, mutable)
		}
	case *ast.WhileStmt:
		scanAssignTargets(s.Body, push(), globals, mutable)
	case *ast.DoWhileStmt:
		scanAssignTargets(s.Body, push(), globals, mutable)
	case *ast.ForStmt:
		inner := push()
		if s.Init != nil {
			scanAssignTargets(s.Init, inner, globals, mutable)
		}
		if s.Step != nil {
			scanAssignTargets(s.Step, inner, globals, mutable)
		}
		scanAssignTargets(s.Body, inner, globals, mutable)
	case *ast.SwitchStmt:
		for _, c := range s.Cases {
			inner := push()
			for _, st := range c.Body {
				scanAssignTargets(st, inner, globals, mutable)
			}
		}
	}
}

// collectSelectors walks every defined function for message-send
// selectors, assigning deterministic indices in lexicographic order.
func (e *emitter) collectSelectors() {
	seen := make(map[string]bool)
	for _, fn := range e.program.Functions {
		if fn.Body == nil {
			continue
		}
		collectSelectorsFromStmt(fn.Body, seen)
	}
	e.selectors = make([]string, 0, len(seen))
	for sel := range seen {
		e.selectors = append(e.selectors, sel)
	}
	sort.Strings(e.selectors)
	e.selectorIndex = make(map[string]int, len(e.selectors))
	for i, sel := range e.selectors {
		e.selectorIndex[sel] = i
	}
}

func collectSelectorsFromStmt(stmt ast.Stmt, seen map[string]bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		collectSelectorsFromExpr(s.Value, seen)
	case *ast.AssignStmt:
		if s.Value != nil {
			collectSelectorsFromExpr(s.Value, seen)
		}
	case *ast.ReturnStmt:
		if s.Value != nil {
			collectSelectorsFromExpr(s.Value, seen)
		}
	case *ast.ExprStmt:
		collectSelectorsFromExpr(s.Value, seen)
	case *ast.IfStmt:
		collectSelectorsFromExpr(s.Cond, seen)
		collectSelectorsFromStmt(s.Then, seen)
		if s.Else != nil {
			collectSelectorsFromStmt(s.Else, seen)
		}
	case *ast.WhileStmt:
		collectSelectorsFromExpr(s.Cond, seen)
		collectSelectorsFromStmt(s.Body, seen)
	case *ast.DoWhileStmt:
		collectSelectorsFromStmt(s.Body, seen)
		collectSelectorsFromExpr(s.Cond, seen)
	case *ast.ForStmt:
		if s.Init != nil {
			collectSelectorsFromStmt(s.Init, seen)
		}
		if s.Cond != nil {
			collectSelectorsFromExpr(s.Cond, seen)
		}
		if s.Step != nil {
			collectSelectorsFromStmt(s.Step, seen)
		}
		collectSelectorsFromStmt(s.Body, seen)
	case *ast.SwitchStmt:
		collectSelectorsFromExpr(s.Cond, seen)
		for _, c := range s.Cases {
			for _, inner := range c.Body {
				collectSelectorsFromStmt(inner, seen)
			}
		}
	case *ast.BlockStmt:
		for _, inner := range s.Body {
			collectSelectorsFromStmt(inner, seen)
		}
	}
}

func collectSelectorsFromExpr(expr ast.Expr, seen map[string]bool) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		collectSelectorsFromExpr(e.Left, seen)
		collectSelectorsFromExpr(e.Right, seen)
	case *ast.UnaryExpr:
		collectSelectorsFromExpr(e.Operand, seen)
	case *ast.ConditionalExpr:
		collectSelectorsFromExpr(e.Cond, seen)
		collectSelectorsFromExpr(e.Then, seen)
		collectSelectorsFromExpr(e.Else, seen)
	case *ast.CallExpr:
		for _, arg := range e.Args {
			collectSelectorsFromExpr(arg, seen)
		}
	case *ast.MessageSendExpr:
		seen[e.Selector] = true
		collectSelectorsFromExpr(e.Receiver, seen)
		for _, arg := range e.Args {
			collectSelectorsFromExpr(arg, seen)
		}
	}
}

// computeEffects builds the per-function effect table and its
// fixed-point impure closure, returned in Result.Effects (the manifest
// reports the semantic surface's `pure` annotation, not this table).
func (e *emitter) computeEffects() {
	e.effects = make(map[string]FunctionEffect)
	var order []string
	for _, fn := range e.program.Functions {
		if fn.Body == nil {
			continue
		}
		if _, exists := e.effects[fn.Name]; exists {
			continue
		}
		writesGlobal, sendsMessage, calls := scanEffects(fn.Body, e.globalEnv)
		e.effects[fn.Name] = FunctionEffect{WritesGlobal: writesGlobal, SendsMessage: sendsMessage, Calls: calls}
		order = append(order, fn.Name)
	}
	sort.Strings(order)

	for changed := true; changed; {
		changed = false
		for _, name := range order {
			eff := e.effects[name]
			if eff.Impure {
				continue
			}
			impure := eff.WritesGlobal || eff.SendsMessage
			if !impure {
				for _, callee := range eff.Calls {
					if info, ok := e.surface.Functions[callee]; ok {
						if !info.Defined && !info.Pure {
							impure = true
							break
						}
						if calleeEff, ok := e.effects[callee]; ok && calleeEff.Impure {
							impure = true
							break
						}
					}
				}
			}
			if impure {
				eff.Impure = true
				e.effects[name] = eff
				changed = true
			}
		}
	}
}

func scanEffects(body *ast.BlockStmt, globals map[string]int32) (writesGlobal, sendsMessage bool, calls []string) {
	locals := []map[string]bool{{}}
	seenCalls := make(map[string]bool)
	var walkStmt func(ast.Stmt, []map[string]bool)
	var walkExpr func(ast.Expr)
	shadowed := func(locals []map[string]bool, name string) bool {
		for _, scope := range locals {
			if scope[name] {
				return true
			}
		}
		return false
	}

	walkExpr = func(expr ast.Expr) {
		switch e := expr.(type) {
		case *ast.BinaryExpr:
			walkExpr(e.Left)
			walkExpr(e.Right)
		case *ast.UnaryExpr:
			walkExpr(e.Operand)
		case *ast.ConditionalExpr:
			walkExpr(e.Cond)
			walkExpr(e.Then)
			walkExpr(e.Else)
		case *ast.CallExpr:
			if !seenCalls[e.Name] {
				seenCalls[e.Name] = true
				calls = append(calls, e.Name)
			}
			for _, arg := range e.Args {
				walkExpr(arg)
			}
		case *ast.MessageSendExpr:
			sendsMessage = true
			walkExpr(e.Receiver)
			for _, arg := range e.Args {
				walkExpr(arg)
			}
		}
	}
	walkStmt = func(stmt ast.Stmt, locals []map[string]bool) {
		switch s := stmt.(type) {
		case *ast.LetStmt:
			walkExpr(s.Value)
			locals[len(locals)-1][s.Name] = true
		case *ast.AssignStmt:
			if _, isGlobal := globals[s.Name]; isGlobal && !shadowed(locals, s.Name) {
				writesGlobal = true
			}
			if s.Value != nil {
				walkExpr(s.Value)
			}
		case *ast.ReturnStmt:
			if s.Value != nil {
				walkExpr(s.Value)
			}
		case *ast.ExprStmt:
			walkExpr(s.Value)
		case *ast.IfStmt:
			walkExpr(s.Cond)
			walkStmt(s.Then, append(locals, map[string]bool{}))
			if s.Else != nil {
				walkStmt(s.Else, append(locals, map[string]bool{}))
			}
		case *ast.WhileStmt:
			walkExpr(s.Cond)
			walkStmt(s.Body, append(locals, map[string]bool{}))
		case *ast.DoWhileStmt:
			walkStmt(s.Body, append(locals, map[string]bool{}))
			walkExpr(s.Cond)
		case *ast.ForStmt:
			inner := append(locals, map[string]bool{})
			if s.Init != nil {
				walkStmt(s.Init, inner)
			}
			if s.Cond != nil {
				walkExpr(s.Cond)
			}
			walkStmt(s.Body, inner)
			if s.Step != nil {
				walkStmt(s.Step, inner)
			}
		case *ast.SwitchStmt:
			walkExpr(s.Cond)
			for _, c := range s.Cases {
				inner := append(locals, map[string]bool{})
				for _, st := range c.Body {
					walkStmt(st, inner)
				}
			}
		case *ast.BlockStmt:
			inner := append(locals, map[string]bool{})
			for _, st := range s.Body {
				walkStmt(st, inner)
			}
		}
	}
	walkStmt(body, locals)
	return
}

func (e *emitter) emitHeader() {
	boundary := lower.BuildIRBoundary(e.contract)
	for _, line := range boundary {
		e.buf.WriteString(line)
		e.buf.WriteByte('\n')
	}
	fmt.Fprintf(&e.buf,
		"; frontend_profile: module=%s globals=%d functions=%d protocols=%d interfaces=%d implementations=%d\n",
		e.program.ModuleName, len(e.program.Globals), len(e.program.Functions),
		len(e.program.Protocols), len(e.program.Interfaces), len(e.program.Implementations))
	e.buf.WriteByte('\n')
}

func (e *emitter) emitGlobals() {
	for _, g := range e.program.Globals {
		fmt.Fprintf(&e.buf, "@%s = global i32 %d, align 4\n", g.Name, e.globalEnv[g.Name])
	}
	if len(e.program.Globals) > 0 {
		e.buf.WriteByte('\n')
	}
}

func (e *emitter) emitSelectors() {
	for i, sel := range e.selectors {
		escaped, length := escapeSelectorLiteral(sel)
		fmt.Fprintf(&e.buf, "@.sel.%d = private unnamed_addr constant [%d x i8] c\"%s\"\n", i, length, escaped)
	}
	if len(e.selectors) > 0 {
		e.buf.WriteByte('\n')
	}
}

// escapeSelectorLiteral renders sel plus a trailing NUL the way LLVM's
// c"..." string constant syntax expects.
func escapeSelectorLiteral(sel string) (string, int) {
	var sb strings.Builder
	for i := 0; i < len(sel); i++ {
		ch := sel[i]
		if ch == '"' || ch == '\\' {
			fmt.Fprintf(&sb, "\\%02X", ch)
			continue
		}
		sb.WriteByte(ch)
	}
	sb.WriteString("\\00")
	return sb.String(), len(sel) + 1
}

func (e *emitter) emitPrototypes() {
	var names []string
	for name, info := range e.surface.Functions {
		if !info.Defined {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		info := e.surface.Functions[name]
		fmt.Fprintf(&e.buf, "declare %s @%s(%s)\n", llvmType(info.ReturnType), name, llvmParamTypes(info.ParamTypes))
	}
	if len(names) > 0 {
		e.buf.WriteByte('\n')
	}
}

func llvmType(t types.Scalar) string {
	switch t {
	case types.Bool:
		return "i1"
	case types.Void:
		return "void"
	default:
		return "i32"
	}
}

func llvmParamTypes(params []types.Scalar) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = llvmType(p)
	}
	return strings.Join(parts, ", ")
}

func (e *emitter) emitEntryPoint() {
	e.buf.WriteByte('\n')
	if info, ok := e.surface.Functions["main"]; ok && info.Defined && info.Arity == 0 {
		e.buf.WriteString("define i32 @main.entry() {\nentry:\n")
		if info.ReturnType == types.Void {
			fmt.Fprintf(&e.buf, "  call void @main()\n  ret i32 0\n}\n")
		} else {
			fmt.Fprintf(&e.buf, "  %%r = call %s @main()\n", llvmType(info.ReturnType))
			if info.ReturnType == types.Bool {
				e.buf.WriteString("  %rw = zext i1 %r to i32\n  ret i32 %rw\n}\n")
			} else {
				e.buf.WriteString("  ret i32 %r\n}\n")
			}
		}
		return
	}

	e.buf.WriteString("define i32 @main.entry() {\nentry:\n")
	if len(e.program.Globals) == 0 {
		e.buf.WriteString("  ret i32 0\n}\n")
		return
	}
	acc := fmt.Sprintf("%%g0 = load i32, i32* @%s, align 4\n", e.program.Globals[0].Name)
	e.buf.WriteString("  " + acc)
	for i := 1; i < len(e.program.Globals); i++ {
		fmt.Fprintf(&e.buf, "  %%g%d = load i32, i32* @%s, align 4\n", i, e.program.Globals[i].Name)
		fmt.Fprintf(&e.buf, "  %%sum%d = add i32 %%g%d, %%g%d\n", i, i-1, i)
	}
	last := len(e.program.Globals) - 1
	if last == 0 {
		e.buf.WriteString("  ret i32 %g0\n}\n")
	} else {
		fmt.Fprintf(&e.buf, "  ret i32 %%sum%d\n}\n", last)
	}
}
