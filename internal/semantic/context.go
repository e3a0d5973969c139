package semantic

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/diag"
	"github.com/o3lang/o3c/internal/lexer"
)

// Options carries the message-send argument bound that Pass 2 checks each
// send against (O3S208). No hard cap is applied to the bound here, and the
// IR emitter does not check it again: it pads or truncates each send's
// arguments to the lowering contract's ArgSlots without a diagnostic.
type Options struct {
	MaxMessageSendArgs int
}

// DefaultOptions mirrors the lowering contract's default.
func DefaultOptions() Options { return Options{MaxMessageSendArgs: 4} }

// Context is the shared state threaded through every pass: a scope
// stack, the in-progress/finished SymbolSurface, and the diagnostics
// sink every pass appends to directly rather than returning per-call.
type Context struct {
	Options     Options
	Surface     *SymbolSurface
	Diagnostics []diag.Diagnostic

	scopeStack      []*Scope
	loopDepth       int
	switchDepth     int
	currentFunction *ast.FunctionDecl

	// globalConstEnv holds every global whose initializer Pass 1 folded
	// to a constant, in source order; Pass 3's static-scalar environment
	// seeds from it per spec §4.3's "global constants may participate".
	globalConstEnv map[string]int32
}

// NewContext builds a fresh Context seeded with the global scope.
func NewContext(opts Options) *Context {
	return &Context{
		Options:        opts,
		Surface:        NewSymbolSurface(),
		scopeStack:     []*Scope{NewScope(ScopeGlobal, nil)},
		globalConstEnv: make(map[string]int32),
	}
}

func (c *Context) errorAt(pos ast.Node, code, msg string) {
	c.Diagnostics = append(c.Diagnostics, diag.New(diag.Error, pos.Pos(), code, msg))
}

// errorAtPos records a diagnostic at a raw position, for nodes such as
// SwitchCase that carry a position field without implementing ast.Node.
func (c *Context) errorAtPos(pos lexer.Position, code, msg string) {
	c.Diagnostics = append(c.Diagnostics, diag.New(diag.Error, pos, code, msg))
}

func (c *Context) currentScope() *Scope {
	return c.scopeStack[len(c.scopeStack)-1]
}

func (c *Context) pushScope(kind ScopeKind) {
	c.scopeStack = append(c.scopeStack, NewScope(kind, c.currentScope()))
}

func (c *Context) popScope() {
	c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
}

func (c *Context) inLoop() bool   { return c.loopDepth > 0 }
func (c *Context) inSwitch() bool { return c.switchDepth > 0 }
