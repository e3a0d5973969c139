package ir

import (
	"fmt"
	"strings"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/constfold"
	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/types"
)

// slotEntry is a local's (or parameter's) spilled stack slot: the alloca
// register and the scalar type it holds.
type slotEntry struct {
	reg string
	typ types.Scalar
}

type loopLabel = string

// fctx is the per-function lowering state: temp/label counters, the
// slot map for locals/params, the break/continue label stacks, and a
// global-proof-invalidation flag that flips false the instant any call
// or message send is emitted, since either may mutate a global the rest
// of the function was relying on a stale proof about.
type fctx struct {
	e       *emitter
	fn      *ast.FunctionDecl
	retType types.Scalar

	tmp int
	lbl int

	slots map[string]slotEntry

	// constEnv holds the statically-known value of every local whose
	// initializer const-folds, keyed the same as slots; it feeds the
	// proven-non-nil receiver check alongside the emitter's globalEnv.
	// Any assignment to a local drops it from this map.
	constEnv map[string]int32

	breakStack    []loopLabel
	continueStack []loopLabel

	curLabel          string
	terminated        bool
	globalProofsValid bool

	buf strings.Builder
}

func (f *fctx) newTemp() string {
	f.tmp++
	return fmt.Sprintf("%%t%d", f.tmp)
}

func (f *fctx) newLabel(prefix string) string {
	f.lbl++
	return fmt.Sprintf("%s.%d", prefix, f.lbl)
}

func (f *fctx) emit(format string, args ...any) {
	fmt.Fprintf(&f.buf, format, args...)
}

func (f *fctx) openLabel(name string) {
	f.buf.WriteString(name)
	f.buf.WriteString(":\n")
	f.curLabel = name
	f.terminated = false
}

func (f *fctx) invalidateGlobalProofs() {
	f.globalProofsValid = false
}

func (f *fctx) snapshotSlots() map[string]slotEntry {
	cp := make(map[string]slotEntry, len(f.slots))
	for k, v := range f.slots {
		cp[k] = v
	}
	return cp
}

func (f *fctx) snapshotConstEnv() map[string]int32 {
	cp := make(map[string]int32, len(f.constEnv))
	for k, v := range f.constEnv {
		cp[k] = v
	}
	return cp
}

// mergedConstEnv combines the emitter's global constant table with this
// function's locally folded constants, locals taking priority by name.
func (f *fctx) mergedConstEnv() map[string]int32 {
	env := make(map[string]int32, len(f.e.globalEnv)+len(f.constEnv))
	for k, v := range f.e.globalEnv {
		env[k] = v
	}
	for k, v := range f.constEnv {
		env[k] = v
	}
	return env
}

// provenNonNilReceiverValue reports whether expr const-folds to a known
// nonzero value under the current constant environment, returning that
// value for direct use as an IR literal operand.
func (f *fctx) provenNonNilReceiverValue(expr ast.Expr) (int32, bool) {
	v, ok := constfold.Eval(expr, f.mergedConstEnv())
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// toBool narrows an i32 value to i1 (via icmp ne 0); a Bool value passes
// through unchanged.
func (f *fctx) toBool(val string, typ types.Scalar) string {
	if typ == types.Bool {
		return val
	}
	reg := f.newTemp()
	f.emit("  %s = icmp ne i32 %s, 0\n", reg, val)
	return reg
}

// toI32 widens an i1 value to i32 (via zext); an I32 value passes
// through unchanged.
func (f *fctx) toI32(val string, typ types.Scalar) string {
	if typ == types.I32 {
		return val
	}
	reg := f.newTemp()
	f.emit("  %s = zext i1 %s to i32\n", reg, val)
	return reg
}

func (e *emitter) emitFunction(fn *ast.FunctionDecl) {
	info := e.surface.Functions[fn.Name]
	f := &fctx{
		e:                 e,
		fn:                fn,
		retType:           info.ReturnType,
		slots:             make(map[string]slotEntry),
		constEnv:          make(map[string]int32),
		curLabel:          "entry",
		globalProofsValid: true,
	}

	paramDecls := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		paramDecls[i] = llvmType(info.ParamTypes[i]) + " %arg." + param.Name
	}
	fmt.Fprintf(&e.buf, "define %s @%s(%s) {\n", llvmType(info.ReturnType), fn.Name, strings.Join(paramDecls, ", "))

	f.buf.WriteString("entry:\n")
	for i, param := range fn.Params {
		t := info.ParamTypes[i]
		lt := llvmType(t)
		reg := "%local." + param.Name
		f.emit("  %s = alloca %s, align 4\n", reg, lt)
		f.emit("  store %s %%arg.%s, %s* %s, align 4\n", lt, param.Name, lt, reg)
		f.slots[param.Name] = slotEntry{reg: reg, typ: t}
	}

	f.lowerBlock(fn.Body)

	if !f.terminated {
		if info.ReturnType == types.Void {
			f.emit("  ret void\n")
		} else {
			f.emit("  ret %s 0\n", llvmType(info.ReturnType))
		}
	}

	e.buf.WriteString(f.buf.String())
	e.buf.WriteString("}\n\n")
}

func (f *fctx) lowerBlock(block *ast.BlockStmt) {
	saved := f.snapshotSlots()
	savedConst := f.snapshotConstEnv()
	for _, stmt := range block.Body {
		if f.terminated {
			break
		}
		f.lowerStmt(stmt)
	}
	f.slots = saved
	f.constEnv = savedConst
}

// lowerScopedStmt runs stmt in its own slot scope, reusing lowerBlock's
// own snapshot when stmt is already a block.
func (f *fctx) lowerScopedStmt(stmt ast.Stmt) {
	if block, ok := stmt.(*ast.BlockStmt); ok {
		f.lowerBlock(block)
		return
	}
	saved := f.snapshotSlots()
	savedConst := f.snapshotConstEnv()
	f.lowerStmt(stmt)
	f.slots = saved
	f.constEnv = savedConst
}

func (f *fctx) lowerStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		val, typ := f.lowerExpr(s.Value)
		lt := llvmType(typ)
		reg := fmt.Sprintf("%%local.%s.%d", s.Name, f.tmp)
		f.tmp++
		f.emit("  %s = alloca %s, align 4\n", reg, lt)
		f.emit("  store %s %s, %s* %s, align 4\n", lt, val, lt, reg)
		f.slots[s.Name] = slotEntry{reg: reg, typ: typ}
		if v, ok := constfold.Eval(s.Value, f.mergedConstEnv()); ok {
			f.constEnv[s.Name] = v
		} else {
			delete(f.constEnv, s.Name)
		}

	case *ast.AssignStmt:
		f.lowerAssign(s)

	case *ast.ReturnStmt:
		if s.Value == nil {
			f.emit("  ret void\n")
		} else {
			val, typ := f.lowerExpr(s.Value)
			var coerced string
			if f.retType == types.Bool {
				coerced = f.toBool(val, typ)
			} else {
				coerced = f.toI32(val, typ)
			}
			f.emit("  ret %s %s\n", llvmType(f.retType), coerced)
		}
		f.terminated = true

	case *ast.IfStmt:
		f.lowerIf(s)
	case *ast.WhileStmt:
		f.lowerWhile(s)
	case *ast.DoWhileStmt:
		f.lowerDoWhile(s)
	case *ast.ForStmt:
		f.lowerFor(s)
	case *ast.SwitchStmt:
		f.lowerSwitch(s)
	case *ast.BlockStmt:
		f.lowerBlock(s)
	case *ast.ExprStmt:
		f.lowerExpr(s.Value)

	case *ast.BreakStmt:
		if n := len(f.breakStack); n > 0 {
			f.emit("  br label %%%s\n", f.breakStack[n-1])
		} else {
			f.emit("  ret i32 0\n")
		}
		f.terminated = true

	case *ast.ContinueStmt:
		if n := len(f.continueStack); n > 0 {
			f.emit("  br label %%%s\n", f.continueStack[n-1])
		} else {
			f.emit("  ret i32 0\n")
		}
		f.terminated = true

	case *ast.EmptyStmt:
		// nothing to lower
	}
}

func (f *fctx) lowerIf(s *ast.IfStmt) {
	condVal, condTyp := f.lowerExpr(s.Cond)
	condBool := f.toBool(condVal, condTyp)

	thenLabel := f.newLabel("if.then")
	mergeLabel := f.newLabel("if.end")
	elseLabel := mergeLabel
	if s.Else != nil {
		elseLabel = f.newLabel("if.else")
	}
	f.emit("  br i1 %s, label %%%s, label %%%s\n", condBool, thenLabel, elseLabel)

	f.openLabel(thenLabel)
	f.lowerScopedStmt(s.Then)
	if !f.terminated {
		f.emit("  br label %%%s\n", mergeLabel)
	}

	if s.Else != nil {
		f.openLabel(elseLabel)
		f.lowerScopedStmt(s.Else)
		if !f.terminated {
			f.emit("  br label %%%s\n", mergeLabel)
		}
	}

	f.openLabel(mergeLabel)
}

func (f *fctx) lowerWhile(s *ast.WhileStmt) {
	condLabel := f.newLabel("while.cond")
	bodyLabel := f.newLabel("while.body")
	endLabel := f.newLabel("while.end")

	f.emit("  br label %%%s\n", condLabel)
	f.openLabel(condLabel)
	condVal, condTyp := f.lowerExpr(s.Cond)
	condBool := f.toBool(condVal, condTyp)
	f.emit("  br i1 %s, label %%%s, label %%%s\n", condBool, bodyLabel, endLabel)

	f.openLabel(bodyLabel)
	f.breakStack = append(f.breakStack, endLabel)
	f.continueStack = append(f.continueStack, condLabel)
	f.lowerScopedStmt(s.Body)
	f.breakStack = f.breakStack[:len(f.breakStack)-1]
	f.continueStack = f.continueStack[:len(f.continueStack)-1]
	if !f.terminated {
		f.emit("  br label %%%s\n", condLabel)
	}

	f.openLabel(endLabel)
}

func (f *fctx) lowerDoWhile(s *ast.DoWhileStmt) {
	bodyLabel := f.newLabel("do.body")
	condLabel := f.newLabel("do.cond")
	endLabel := f.newLabel("do.end")

	f.emit("  br label %%%s\n", bodyLabel)
	f.openLabel(bodyLabel)
	f.breakStack = append(f.breakStack, endLabel)
	f.continueStack = append(f.continueStack, condLabel)
	f.lowerScopedStmt(s.Body)
	f.breakStack = f.breakStack[:len(f.breakStack)-1]
	f.continueStack = f.continueStack[:len(f.continueStack)-1]
	if !f.terminated {
		f.emit("  br label %%%s\n", condLabel)
	}

	f.openLabel(condLabel)
	condVal, condTyp := f.lowerExpr(s.Cond)
	condBool := f.toBool(condVal, condTyp)
	f.emit("  br i1 %s, label %%%s, label %%%s\n", condBool, bodyLabel, endLabel)

	f.openLabel(endLabel)
}

func (f *fctx) lowerFor(s *ast.ForStmt) {
	saved := f.snapshotSlots()
	savedConst := f.snapshotConstEnv()
	if s.Init != nil {
		f.lowerStmt(s.Init)
	}

	condLabel := f.newLabel("for.cond")
	bodyLabel := f.newLabel("for.body")
	stepLabel := f.newLabel("for.step")
	endLabel := f.newLabel("for.end")

	f.emit("  br label %%%s\n", condLabel)
	f.openLabel(condLabel)
	if s.Cond != nil {
		condVal, condTyp := f.lowerExpr(s.Cond)
		condBool := f.toBool(condVal, condTyp)
		f.emit("  br i1 %s, label %%%s, label %%%s\n", condBool, bodyLabel, endLabel)
	} else {
		f.emit("  br label %%%s\n", bodyLabel)
	}

	f.openLabel(bodyLabel)
	f.breakStack = append(f.breakStack, endLabel)
	f.continueStack = append(f.continueStack, stepLabel)
	f.lowerScopedStmt(s.Body)
	f.breakStack = f.breakStack[:len(f.breakStack)-1]
	f.continueStack = f.continueStack[:len(f.continueStack)-1]
	if !f.terminated {
		f.emit("  br label %%%s\n", stepLabel)
	}

	f.openLabel(stepLabel)
	if s.Step != nil {
		f.lowerStmt(s.Step)
	}
	if !f.terminated {
		f.emit("  br label %%%s\n", condLabel)
	}

	f.openLabel(endLabel)
	f.slots = saved
	f.constEnv = savedConst
}

func (f *fctx) lowerSwitch(s *ast.SwitchStmt) {
	condVal, condTyp := f.lowerExpr(s.Cond)
	cond32 := f.toI32(condVal, condTyp)

	endLabel := f.newLabel("switch.end")
	caseLabels := make([]string, len(s.Cases))
	defaultLabel := endLabel
	var nonDefault []int
	for i, c := range s.Cases {
		caseLabels[i] = f.newLabel("switch.case")
		if c.IsDefault {
			defaultLabel = caseLabels[i]
		} else {
			nonDefault = append(nonDefault, i)
		}
	}

	if len(nonDefault) == 0 {
		f.emit("  br label %%%s\n", defaultLabel)
	}
	for idx, ci := range nonDefault {
		c := s.Cases[ci]
		cmpReg := f.newTemp()
		f.emit("  %s = icmp eq i32 %s, %d\n", cmpReg, cond32, c.Value)
		falseLabel := defaultLabel
		last := idx == len(nonDefault)-1
		if !last {
			falseLabel = f.newLabel("switch.check")
		}
		f.emit("  br i1 %s, label %%%s, label %%%s\n", cmpReg, caseLabels[ci], falseLabel)
		if !last {
			f.openLabel(falseLabel)
		}
	}

	f.breakStack = append(f.breakStack, endLabel)
	for i, c := range s.Cases {
		f.openLabel(caseLabels[i])
		for _, inner := range c.Body {
			if f.terminated {
				break
			}
			f.lowerStmt(inner)
		}
		if !f.terminated {
			if i+1 < len(s.Cases) {
				f.emit("  br label %%%s\n", caseLabels[i+1])
			} else {
				f.emit("  br label %%%s\n", endLabel)
			}
		}
	}
	f.breakStack = f.breakStack[:len(f.breakStack)-1]

	f.openLabel(endLabel)
}

func (f *fctx) lowerAssign(s *ast.AssignStmt) {
	slot, isLocal := f.slots[s.Name]
	var targetTyp types.Scalar
	var ptr string
	if isLocal {
		targetTyp = slot.typ
		ptr = slot.reg
	} else {
		targetTyp = types.I32
		ptr = "@" + s.Name
	}

	switch s.Op {
	case "=":
		val, typ := f.lowerExpr(s.Value)
		var coerced string
		if targetTyp == types.Bool {
			coerced = f.toBool(val, typ)
		} else {
			coerced = f.toI32(val, typ)
		}
		f.storeTo(ptr, targetTyp, coerced)
	case "++", "--":
		cur := f.loadFrom(ptr, targetTyp)
		op := "add"
		if s.Op == "--" {
			op = "sub"
		}
		reg := f.newTemp()
		f.emit("  %s = %s i32 %s, 1\n", reg, op, cur)
		f.storeTo(ptr, targetTyp, reg)
	default:
		cur := f.loadFrom(ptr, targetTyp)
		val, typ := f.lowerExpr(s.Value)
		val32 := f.toI32(val, typ)
		opcode, _ := lower.TryGetCompoundAssignmentBinaryOpcode(s.Op)
		reg := f.newTemp()
		f.emit("  %s = %s i32 %s, %s\n", reg, opcode, cur, val32)
		f.storeTo(ptr, targetTyp, reg)
	}

	if isLocal {
		delete(f.constEnv, s.Name)
	} else {
		f.invalidateGlobalProofs()
	}
}

func (f *fctx) loadFrom(ptr string, typ types.Scalar) string {
	reg := f.newTemp()
	lt := llvmType(typ)
	f.emit("  %s = load %s, %s* %s, align 4\n", reg, lt, lt, ptr)
	return reg
}

func (f *fctx) storeTo(ptr string, typ types.Scalar, val string) {
	lt := llvmType(typ)
	f.emit("  store %s %s, %s* %s, align 4\n", lt, val, lt, ptr)
}

func (f *fctx) lowerExpr(expr ast.Expr) (string, types.Scalar) {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return fmt.Sprintf("%d", e.Value), types.I32
	case *ast.BoolExpr:
		if e.Value {
			return "1", types.Bool
		}
		return "0", types.Bool
	case *ast.NilExpr:
		return "0", types.I32
	case *ast.IdentExpr:
		return f.lowerIdent(e)
	case *ast.UnaryExpr:
		return f.lowerUnary(e)
	case *ast.BinaryExpr:
		return f.lowerBinary(e)
	case *ast.ConditionalExpr:
		return f.lowerConditional(e)
	case *ast.CallExpr:
		return f.lowerCall(e)
	case *ast.MessageSendExpr:
		return f.lowerMessageSend(e)
	}
	return "0", types.I32
}

func (f *fctx) lowerIdent(e *ast.IdentExpr) (string, types.Scalar) {
	if slot, ok := f.slots[e.Name]; ok {
		return f.loadFrom(slot.reg, slot.typ), slot.typ
	}
	reg := f.newTemp()
	f.emit("  %s = load i32, i32* @%s, align 4\n", reg, e.Name)
	return reg, types.I32
}

func (f *fctx) lowerUnary(e *ast.UnaryExpr) (string, types.Scalar) {
	val, typ := f.lowerExpr(e.Operand)
	switch e.Op {
	case "!":
		b := f.toBool(val, typ)
		reg := f.newTemp()
		f.emit("  %s = xor i1 %s, true\n", reg, b)
		return reg, types.Bool
	case "-":
		v := f.toI32(val, typ)
		reg := f.newTemp()
		f.emit("  %s = sub i32 0, %s\n", reg, v)
		return reg, types.I32
	case "~":
		v := f.toI32(val, typ)
		reg := f.newTemp()
		f.emit("  %s = xor i32 %s, -1\n", reg, v)
		return reg, types.I32
	default: // "+"
		return f.toI32(val, typ), types.I32
	}
}

var comparisonPredicates = map[string]string{
	"==": "eq", "!=": "ne", "<": "slt", "<=": "sle", ">": "sgt", ">=": "sge",
}

func (f *fctx) lowerBinary(e *ast.BinaryExpr) (string, types.Scalar) {
	switch e.Op {
	case "&&", "||":
		return f.lowerShortCircuit(e)
	}

	if pred, ok := comparisonPredicates[e.Op]; ok {
		lval, ltyp := f.lowerExpr(e.Left)
		rval, rtyp := f.lowerExpr(e.Right)
		l32 := f.toI32(lval, ltyp)
		r32 := f.toI32(rval, rtyp)
		reg := f.newTemp()
		f.emit("  %s = icmp %s i32 %s, %s\n", reg, pred, l32, r32)
		return reg, types.Bool
	}

	lval, ltyp := f.lowerExpr(e.Left)
	rval, rtyp := f.lowerExpr(e.Right)
	l32 := f.toI32(lval, ltyp)
	r32 := f.toI32(rval, rtyp)
	opcode, _ := lower.BinaryOpcodeFor(e.Op)
	reg := f.newTemp()
	f.emit("  %s = %s i32 %s, %s\n", reg, opcode, l32, r32)
	return reg, types.I32
}

func (f *fctx) lowerShortCircuit(e *ast.BinaryExpr) (string, types.Scalar) {
	lval, ltyp := f.lowerExpr(e.Left)
	lbool := f.toBool(lval, ltyp)

	rhsLabel := f.newLabel("sc.rhs")
	mergeLabel := f.newLabel("sc.merge")
	if e.Op == "&&" {
		f.emit("  br i1 %s, label %%%s, label %%%s\n", lbool, rhsLabel, mergeLabel)
	} else {
		f.emit("  br i1 %s, label %%%s, label %%%s\n", lbool, mergeLabel, rhsLabel)
	}
	leftPred := f.curLabel

	f.openLabel(rhsLabel)
	rval, rtyp := f.lowerExpr(e.Right)
	rbool := f.toBool(rval, rtyp)
	f.emit("  br label %%%s\n", mergeLabel)
	rhsPred := f.curLabel

	f.openLabel(mergeLabel)
	shortValue := "0"
	if e.Op == "||" {
		shortValue = "1"
	}
	reg := f.newTemp()
	f.emit("  %s = phi i1 [ %s, %%%s ], [ %s, %%%s ]\n", reg, shortValue, leftPred, rbool, rhsPred)
	return reg, types.Bool
}

// lowerConditional always widens to i32: the common-scalar rule ("I32 if
// mixed") is applied uniformly since i32 losslessly represents the i1
// case too, which avoids having to retroactively coerce an already
// lowered, already-terminated branch block.
func (f *fctx) lowerConditional(e *ast.ConditionalExpr) (string, types.Scalar) {
	condVal, condTyp := f.lowerExpr(e.Cond)
	condBool := f.toBool(condVal, condTyp)

	thenLabel := f.newLabel("cond.then")
	elseLabel := f.newLabel("cond.else")
	mergeLabel := f.newLabel("cond.merge")
	f.emit("  br i1 %s, label %%%s, label %%%s\n", condBool, thenLabel, elseLabel)

	f.openLabel(thenLabel)
	thenVal, thenTyp := f.lowerExpr(e.Then)
	thenVal32 := f.toI32(thenVal, thenTyp)
	f.emit("  br label %%%s\n", mergeLabel)
	thenPred := f.curLabel

	f.openLabel(elseLabel)
	elseVal, elseTyp := f.lowerExpr(e.Else)
	elseVal32 := f.toI32(elseVal, elseTyp)
	f.emit("  br label %%%s\n", mergeLabel)
	elsePred := f.curLabel

	f.openLabel(mergeLabel)
	reg := f.newTemp()
	f.emit("  %s = phi i32 [ %s, %%%s ], [ %s, %%%s ]\n", reg, thenVal32, thenPred, elseVal32, elsePred)
	return reg, types.I32
}

func (f *fctx) lowerCall(e *ast.CallExpr) (string, types.Scalar) {
	info := f.e.surface.Functions[e.Name]
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		val, typ := f.lowerExpr(arg)
		want := types.I32
		if info != nil && i < len(info.ParamTypes) {
			want = info.ParamTypes[i]
		}
		var coerced string
		if want == types.Bool {
			coerced = f.toBool(val, typ)
		} else {
			coerced = f.toI32(val, typ)
		}
		parts[i] = llvmType(want) + " " + coerced
	}

	retType := types.I32
	if info != nil {
		retType = info.ReturnType
	}

	if retType == types.Void {
		f.emit("  call void @%s(%s)\n", e.Name, strings.Join(parts, ", "))
		f.invalidateGlobalProofs()
		return "0", types.Void
	}

	reg := f.newTemp()
	f.emit("  %s = call %s @%s(%s)\n", reg, llvmType(retType), e.Name, strings.Join(parts, ", "))
	f.invalidateGlobalProofs()
	return reg, retType
}

func (f *fctx) lowerMessageSend(e *ast.MessageSendExpr) (string, types.Scalar) {
	if _, isNilLiteral := e.Receiver.(*ast.NilExpr); isNilLiteral ||
		(f.globalProofsValid && isReceiverProvenNil(e.Receiver, f.e.provenNil, f.slots)) {
		return "0", types.I32
	}

	if f.globalProofsValid {
		if v, ok := f.provenNonNilReceiverValue(e.Receiver); ok {
			argVals, selPtrReg := f.lowerMessageArgs(e)
			reg := f.emitDispatchCall(fmt.Sprintf("%d", v), argVals, selPtrReg)
			f.invalidateGlobalProofs()
			return reg, types.I32
		}
	}

	recvVal, recvTyp := f.lowerExpr(e.Receiver)
	recv32 := f.toI32(recvVal, recvTyp)
	argVals, selPtrReg := f.lowerMessageArgs(e)

	cmpReg := f.newTemp()
	f.emit("  %s = icmp ne i32 %s, 0\n", cmpReg, recv32)
	dispatchLabel := f.newLabel("msg.dispatch")
	nilLabel := f.newLabel("msg.nil")
	mergeLabel := f.newLabel("msg.merge")
	f.emit("  br i1 %s, label %%%s, label %%%s\n", cmpReg, dispatchLabel, nilLabel)

	f.openLabel(dispatchLabel)
	callReg := f.emitDispatchCall(recv32, argVals, selPtrReg)
	f.emit("  br label %%%s\n", mergeLabel)
	dispatchPred := f.curLabel

	f.openLabel(nilLabel)
	f.emit("  br label %%%s\n", mergeLabel)
	nilPred := f.curLabel

	f.openLabel(mergeLabel)
	reg := f.newTemp()
	f.emit("  %s = phi i32 [ %s, %%%s ], [ 0, %%%s ]\n", reg, callReg, dispatchPred, nilPred)
	f.invalidateGlobalProofs()
	return reg, types.I32
}

// lowerMessageArgs lowers the (zero-padded, slot-capped) argument list
// and the selector-string pointer ahead of the receiver's nil check:
// argument expressions are evaluated unconditionally, matching message
// sends whose arguments may carry their own effects regardless of
// whether the receiver turns out to be nil.
func (f *fctx) lowerMessageArgs(e *ast.MessageSendExpr) (argVals []string, selPtrReg string) {
	argVals = make([]string, f.e.contract.ArgSlots)
	for i := 0; i < f.e.contract.ArgSlots; i++ {
		if i < len(e.Args) {
			v, t := f.lowerExpr(e.Args[i])
			argVals[i] = f.toI32(v, t)
		} else {
			argVals[i] = "0"
		}
	}

	selIdx := f.e.selectorIndex[e.Selector]
	selLen := len(e.Selector) + 1
	selPtrReg = f.newTemp()
	f.emit("  %s = getelementptr inbounds [%d x i8], [%d x i8]* @.sel.%d, i32 0, i32 0\n", selPtrReg, selLen, selLen, selIdx)
	return argVals, selPtrReg
}

// emitDispatchCall emits the runtime-dispatch call itself given an
// already-lowered i32 receiver operand (a register or a literal), the
// lowered argument list, and the selector pointer register.
func (f *fctx) emitDispatchCall(recv32 string, argVals []string, selPtrReg string) string {
	argParts := make([]string, 0, 2+len(argVals))
	argParts = append(argParts, "i32 "+recv32, "i8* "+selPtrReg)
	for _, v := range argVals {
		argParts = append(argParts, "i32 "+v)
	}
	reg := f.newTemp()
	f.emit("  %s = call i32 @%s(%s)\n", reg, f.e.contract.RuntimeDispatchSymbol, strings.Join(argParts, ", "))
	return reg
}

// isReceiverProvenNil checks the syntactic forms the emitter can prove
// nil at compile time: a literal `nil`, or a direct reference to a
// global already proven nil by its initializer.
func isReceiverProvenNil(expr ast.Expr, provenNil map[string]bool, slots map[string]slotEntry) bool {
	switch e := expr.(type) {
	case *ast.NilExpr:
		return true
	case *ast.IdentExpr:
		if _, isLocal := slots[e.Name]; isLocal {
			return false
		}
		return provenNil[e.Name]
	}
	return false
}
