package semantic

import "github.com/o3lang/o3c/internal/types"

// ScopeKind identifies the kind of lexical scope a Scope represents.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope is a lexical scope for local-variable resolution, chained to its
// parent. o3 names are case-sensitive, so Symbols is keyed on the raw
// name.
type Scope struct {
	Symbols map[string]types.Scalar
	Parent  *Scope
	Kind    ScopeKind
}

// NewScope creates a scope of the given kind, chained to parent.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Symbols: make(map[string]types.Scalar), Parent: parent, Kind: kind}
}

// Define binds name to t in this scope only.
func (s *Scope) Define(name string, t types.Scalar) {
	s.Symbols[name] = t
}

// DefinedHere reports whether name is bound directly in this scope,
// ignoring parents; used for the duplicate-`let`-in-scope check.
func (s *Scope) DefinedHere(name string) bool {
	_, ok := s.Symbols[name]
	return ok
}

// Lookup searches this scope and its parent chain.
func (s *Scope) Lookup(name string) (types.Scalar, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if t, ok := cur.Symbols[name]; ok {
			return t, true
		}
	}
	return types.Unknown, false
}

// ResolvesToGlobal reports whether name resolves all the way to the
// global scope without being shadowed by any local scope — the
// pure-contract analysis' definition of a "global write".
func (s *Scope) ResolvesToGlobal(name string) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if _, ok := cur.Symbols[name]; ok {
			return cur.Kind == ScopeGlobal
		}
	}
	return false
}
