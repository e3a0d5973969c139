package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/types"
)

// BodyValidationPass is Pass 2: it type-checks every defined `fn` body
// against the symbol surface Pass 1 built. Container
// (@interface/@implementation/@protocol) method bodies are parsed and
// counted into the manifest but are never walked here.
type BodyValidationPass struct{}

func (p *BodyValidationPass) Name() string { return "body-validation" }

func (p *BodyValidationPass) Run(program *ast.Program, ctx *Context) error {
	for _, fn := range program.Functions {
		if fn.Body == nil {
			continue
		}
		ctx.currentFunction = fn
		ctx.pushScope(ScopeFunction)
		for _, param := range fn.Params {
			ctx.currentScope().Define(param.Name, paramScalar(param))
		}
		validateBlock(fn.Body, ctx)
		ctx.popScope()
		ctx.currentFunction = nil
	}
	return nil
}

func validateBlock(block *ast.BlockStmt, ctx *Context) {
	ctx.pushScope(ScopeBlock)
	for _, stmt := range block.Body {
		validateStmt(stmt, ctx)
	}
	ctx.popScope()
}

// validateScopedStmt runs stmt in its own child scope, reusing the
// block's own scope when stmt is already a block (so a branch/loop/switch
// arm gets exactly one new scope, not two).
func validateScopedStmt(stmt ast.Stmt, ctx *Context) {
	if block, ok := stmt.(*ast.BlockStmt); ok {
		validateBlock(block, ctx)
		return
	}
	ctx.pushScope(ScopeBlock)
	validateStmt(stmt, ctx)
	ctx.popScope()
}

func validateStmt(stmt ast.Stmt, ctx *Context) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		if ctx.currentScope().DefinedHere(s.Name) {
			ctx.errorAt(s, "O3S201", "duplicate declaration in scope: "+s.Name)
		}
		valType := exprType(s.Value, ctx)
		ctx.currentScope().Define(s.Name, valType)

	case *ast.AssignStmt:
		targetType, ok := ctx.currentScope().Lookup(s.Name)
		if !ok {
			ctx.errorAt(s, "O3S214", "assignment to undefined name: "+s.Name)
			if s.Value != nil {
				exprType(s.Value, ctx)
			}
			return
		}
		switch s.Op {
		case "=":
			valType := exprType(s.Value, ctx)
			if !assignCompatible(targetType, valType, s.Value) {
				ctx.errorAt(s, "O3S206", "type mismatch in assignment to "+s.Name)
			}
		case "++", "--":
			if !i32Compatible(targetType) {
				ctx.errorAt(s, "O3S206", "increment/decrement target must be i32: "+s.Name)
			}
		default:
			if !i32Compatible(targetType) {
				ctx.errorAt(s, "O3S206", "compound assignment target must be i32: "+s.Name)
			}
			valType := exprType(s.Value, ctx)
			if !i32Compatible(valType) {
				ctx.errorAt(s, "O3S206", "compound assignment value must be i32")
			}
		}

	case *ast.ReturnStmt:
		retType := types.Void
		if ctx.currentFunction.ReturnType != nil {
			retType = ctx.currentFunction.ReturnType.LoweredScalar()
		}
		if retType == types.Void {
			if s.Value != nil {
				ctx.errorAt(s, "O3S211", "return with a value in a void function")
			}
			return
		}
		if s.Value == nil {
			ctx.errorAt(s, "O3S211", "missing return value")
			return
		}
		valType := exprType(s.Value, ctx)
		if !assignCompatible(retType, valType, s.Value) {
			ctx.errorAt(s, "O3S211", "return type mismatch")
		}

	case *ast.IfStmt:
		condType := exprType(s.Cond, ctx)
		if !boolCompatible(condType) {
			ctx.errorAt(s.Cond, "O3S206", "if condition must be bool-compatible")
		}
		validateScopedStmt(s.Then, ctx)
		if s.Else != nil {
			validateScopedStmt(s.Else, ctx)
		}

	case *ast.WhileStmt:
		condType := exprType(s.Cond, ctx)
		if !boolCompatible(condType) {
			ctx.errorAt(s.Cond, "O3S206", "while condition must be bool-compatible")
		}
		ctx.loopDepth++
		validateScopedStmt(s.Body, ctx)
		ctx.loopDepth--

	case *ast.DoWhileStmt:
		ctx.loopDepth++
		validateScopedStmt(s.Body, ctx)
		ctx.loopDepth--
		condType := exprType(s.Cond, ctx)
		if !boolCompatible(condType) {
			ctx.errorAt(s.Cond, "O3S206", "do-while condition must be bool-compatible")
		}

	case *ast.ForStmt:
		ctx.pushScope(ScopeBlock)
		if s.Init != nil {
			validateStmt(s.Init, ctx)
		}
		if s.Cond != nil {
			condType := exprType(s.Cond, ctx)
			if !boolCompatible(condType) {
				ctx.errorAt(s.Cond, "O3S206", "for condition must be bool-compatible")
			}
		}
		ctx.loopDepth++
		validateScopedStmt(s.Body, ctx)
		ctx.loopDepth--
		if s.Step != nil {
			validateStmt(s.Step, ctx)
		}
		ctx.popScope()

	case *ast.SwitchStmt:
		condType := exprType(s.Cond, ctx)
		if !boolCompatible(condType) {
			ctx.errorAt(s.Cond, "O3S206", "switch condition must be bool-compatible")
		}
		ctx.switchDepth++
		seen := make(map[int32]bool)
		sawDefault := false
		for _, c := range s.Cases {
			if c.IsDefault {
				if sawDefault {
					ctx.errorAtPos(c.CasePos, "O3S206", "duplicate default case")
				}
				sawDefault = true
			} else {
				if seen[c.Value] {
					ctx.errorAtPos(c.CasePos, "O3S206", "duplicate case label")
				}
				seen[c.Value] = true
			}
			ctx.pushScope(ScopeBlock)
			for _, bodyStmt := range c.Body {
				validateStmt(bodyStmt, ctx)
			}
			ctx.popScope()
		}
		ctx.switchDepth--

	case *ast.BlockStmt:
		validateBlock(s, ctx)

	case *ast.ExprStmt:
		exprType(s.Value, ctx)

	case *ast.BreakStmt:
		if !ctx.inLoop() && !ctx.inSwitch() {
			ctx.errorAt(s, "O3S212", "break outside a loop or switch")
		}

	case *ast.ContinueStmt:
		if !ctx.inLoop() {
			ctx.errorAt(s, "O3S213", "continue outside a loop")
		}

	case *ast.EmptyStmt:
		// nothing to check
	}
}

// exprType computes the type of expr, recording any diagnostic the
// expression's shape violates along the way.
func exprType(expr ast.Expr, ctx *Context) types.Scalar {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return types.I32
	case *ast.BoolExpr:
		return types.Bool
	case *ast.NilExpr:
		return types.I32
	case *ast.IdentExpr:
		if t, ok := ctx.currentScope().Lookup(e.Name); ok {
			return t
		}
		if _, ok := ctx.Surface.Functions[e.Name]; ok {
			ctx.errorAt(e, "O3S206", "function name used as a value: "+e.Name)
			return types.Unknown
		}
		ctx.errorAt(e, "O3S202", "undefined identifier: "+e.Name)
		return types.Unknown
	case *ast.UnaryExpr:
		return unaryType(e, ctx)
	case *ast.BinaryExpr:
		return binaryType(e, ctx)
	case *ast.ConditionalExpr:
		condType := exprType(e.Cond, ctx)
		if !boolCompatible(condType) {
			ctx.errorAt(e.Cond, "O3S206", "conditional's test must be bool-compatible")
		}
		thenType := exprType(e.Then, ctx)
		elseType := exprType(e.Else, ctx)
		if thenType == elseType {
			return thenType
		}
		return types.I32
	case *ast.CallExpr:
		return callType(e, ctx)
	case *ast.MessageSendExpr:
		return messageSendType(e, ctx)
	}
	return types.Unknown
}

func unaryType(e *ast.UnaryExpr, ctx *Context) types.Scalar {
	operandType := exprType(e.Operand, ctx)
	switch e.Op {
	case "!":
		if !boolCompatible(operandType) {
			ctx.errorAt(e, "O3S206", "'!' operand must be bool-compatible")
		}
		return types.Bool
	default: // "-", "+", "~"
		if !i32Compatible(operandType) {
			ctx.errorAt(e, "O3S206", "'"+e.Op+"' operand must be i32")
		}
		return types.I32
	}
}

func binaryType(e *ast.BinaryExpr, ctx *Context) types.Scalar {
	switch e.Op {
	case "+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>":
		leftType := exprType(e.Left, ctx)
		rightType := exprType(e.Right, ctx)
		if !i32Compatible(leftType) || !i32Compatible(rightType) {
			ctx.errorAt(e, "O3S206", "'"+e.Op+"' operands must be i32")
		}
		return types.I32
	case "==", "!=":
		leftType := exprType(e.Left, ctx)
		rightType := exprType(e.Right, ctx)
		if !equalityCompatible(leftType, rightType, e.Left, e.Right) {
			ctx.errorAt(e, "O3S206", "type mismatch in '"+e.Op+"' comparison")
		}
		return types.Bool
	case "<", "<=", ">", ">=":
		leftType := exprType(e.Left, ctx)
		rightType := exprType(e.Right, ctx)
		if !i32Compatible(leftType) || !i32Compatible(rightType) {
			ctx.errorAt(e, "O3S206", "'"+e.Op+"' operands must be i32")
		}
		return types.Bool
	case "&&", "||":
		leftType := exprType(e.Left, ctx)
		rightType := exprType(e.Right, ctx)
		if !boolCompatible(leftType) || !boolCompatible(rightType) {
			ctx.errorAt(e, "O3S206", "'"+e.Op+"' operands must be bool-compatible")
		}
		return types.Bool
	}
	return types.Unknown
}

func callType(e *ast.CallExpr, ctx *Context) types.Scalar {
	info, ok := ctx.Surface.Functions[e.Name]
	if !ok {
		ctx.errorAt(e, "O3S203", "unknown function: "+e.Name)
		for _, arg := range e.Args {
			exprType(arg, ctx)
		}
		return types.Unknown
	}
	if len(e.Args) != info.Arity {
		ctx.errorAt(e, "O3S204", "arity mismatch calling "+e.Name)
	}
	for i, arg := range e.Args {
		argType := exprType(arg, ctx)
		if i < len(info.ParamTypes) && !callArgCompatible(info.ParamTypes[i], argType) {
			ctx.errorAt(arg, "O3S206", "argument type mismatch calling "+e.Name)
		}
	}
	return info.ReturnType
}

func messageSendType(e *ast.MessageSendExpr, ctx *Context) types.Scalar {
	receiverType := exprType(e.Receiver, ctx)
	if !i32Compatible(receiverType) {
		ctx.errorAt(e, "O3S207", "message receiver must be i32-compatible")
	}
	if len(e.Args) > ctx.Options.MaxMessageSendArgs {
		ctx.errorAt(e, "O3S208", "too many message-send arguments")
	}
	for _, arg := range e.Args {
		argType := exprType(arg, ctx)
		if !i32Compatible(argType) {
			ctx.errorAt(arg, "O3S209", "message argument must be i32-compatible")
		}
	}
	return types.I32
}

func boolCompatible(t types.Scalar) bool {
	return t == types.Bool || t == types.I32 || t == types.Unknown
}

func i32Compatible(t types.Scalar) bool {
	return t == types.I32 || t == types.Unknown
}

// equalityCompatible implements "equality accepts one side Bool and the
// other an I32 literal in {0,1}".
func equalityCompatible(left, right types.Scalar, leftExpr, rightExpr ast.Expr) bool {
	if left == types.Unknown || right == types.Unknown || left == right {
		return true
	}
	if left == types.Bool && isZeroOrOneLiteral(right, rightExpr) {
		return true
	}
	if right == types.Bool && isZeroOrOneLiteral(left, leftExpr) {
		return true
	}
	return false
}

// assignCompatible covers `=` and return-value compatibility: the same
// rule as equality, since the target/return slot is never itself a
// literal, only the Bool-target-accepts-I32-literal direction applies.
func assignCompatible(target, value types.Scalar, valueExpr ast.Expr) bool {
	if target == types.Unknown || value == types.Unknown || target == value {
		return true
	}
	return target == types.Bool && isZeroOrOneLiteral(value, valueExpr)
}

// callArgCompatible is the call-argument rule: a Bool parameter accepts
// any I32 argument unconditionally (narrowed by explicit comparison at
// lowering time), not just a {0,1} literal.
func callArgCompatible(param, arg types.Scalar) bool {
	if param == types.Unknown || arg == types.Unknown || param == arg {
		return true
	}
	return param == types.Bool && arg == types.I32
}

func isZeroOrOneLiteral(t types.Scalar, e ast.Expr) bool {
	if t != types.I32 {
		return false
	}
	n, ok := e.(*ast.NumberExpr)
	return ok && (n.Value == 0 || n.Value == 1)
}
