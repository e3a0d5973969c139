// Package constfold implements the compile-time constant evaluator shared
// by the semantic analyzer (global-initializer validation, the Pass 3
// static-scalar environment) and the IR emitter (global constant
// lowering, nil-receiver proof). Both stages call it independently over
// their own resolved-name environment, matching the pull-then-push
// pipeline contract: no stage hands the other a cached fold result.
package constfold

import "github.com/o3lang/o3c/internal/ast"

// Eval attempts to evaluate expr to a compile-time int32 value. env
// supplies the values of previously resolved names (globals, or a
// function's static-scalar `let` bindings); a name absent from env makes
// the whole expression non-foldable. Bool folds to 0/1, Nil folds to 0,
// matching the scalar lowering the rest of the core uses.
func Eval(expr ast.Expr, env map[string]int32) (int32, bool) {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return e.Value, true
	case *ast.BoolExpr:
		if e.Value {
			return 1, true
		}
		return 0, true
	case *ast.NilExpr:
		return 0, true
	case *ast.IdentExpr:
		v, ok := env[e.Name]
		return v, ok
	case *ast.UnaryExpr:
		return evalUnary(e, env)
	case *ast.BinaryExpr:
		return evalBinary(e, env)
	case *ast.ConditionalExpr:
		return evalConditional(e, env)
	default:
		return 0, false
	}
}

// IsNilLiteral reports whether expr is syntactically `nil`, used for the
// nil-receiver short-circuit proof independent of general folding.
func IsNilLiteral(expr ast.Expr) bool {
	_, ok := expr.(*ast.NilExpr)
	return ok
}

func evalUnary(e *ast.UnaryExpr, env map[string]int32) (int32, bool) {
	v, ok := Eval(e.Operand, env)
	if !ok {
		return 0, false
	}
	switch e.Op {
	case "-":
		return -v, true
	case "+":
		return v, true
	case "~":
		return ^v, true
	case "!":
		if v == 0 {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func evalBinary(e *ast.BinaryExpr, env map[string]int32) (int32, bool) {
	l, ok := Eval(e.Left, env)
	if !ok {
		return 0, false
	}
	r, ok := Eval(e.Right, env)
	if !ok {
		return 0, false
	}
	switch e.Op {
	case "+":
		return l + r, true
	case "-":
		return l - r, true
	case "*":
		return l * r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case "%":
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case "&":
		return l & r, true
	case "|":
		return l | r, true
	case "^":
		return l ^ r, true
	case "<<":
		return l << uint32(r), true
	case ">>":
		return l >> uint32(r), true
	case "&&":
		return boolInt(l != 0 && r != 0), true
	case "||":
		return boolInt(l != 0 || r != 0), true
	case "==":
		return boolInt(l == r), true
	case "!=":
		return boolInt(l != r), true
	case "<":
		return boolInt(l < r), true
	case "<=":
		return boolInt(l <= r), true
	case ">":
		return boolInt(l > r), true
	case ">=":
		return boolInt(l >= r), true
	default:
		return 0, false
	}
}

func evalConditional(e *ast.ConditionalExpr, env map[string]int32) (int32, bool) {
	c, ok := Eval(e.Cond, env)
	if !ok {
		return 0, false
	}
	if c != 0 {
		return Eval(e.Then, env)
	}
	return Eval(e.Else, env)
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
