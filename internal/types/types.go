// Package types defines the scalar type system and the TypeAnnotation
// record that collapses the many parallel Objective-C spelling flags
// (object-pointer, id, Class, SEL, instancetype, nullability, generic
// suffix, pointer depth) into a single struct. IR emission only ever
// consumes Base; everything else is metadata for the manifest.
package types

// Scalar is the value-level type every expression reduces to for IR
// lowering purposes.
type Scalar int

const (
	Unknown Scalar = iota
	I32
	Bool
	Void
	Function
)

func (s Scalar) String() string {
	switch s {
	case I32:
		return "i32"
	case Bool:
		return "bool"
	case Void:
		return "void"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Family classifies the Objective-C-flavored spelling a declarator used,
// independent of the scalar it lowers to (every Family here lowers to I32
// at the value level except Plain, which carries the base scalar as-is).
type Family int

const (
	FamilyPlain Family = iota
	FamilyID
	FamilyClass
	FamilySEL
	FamilyInstancetype
	FamilyObjectPointer
	FamilyVector
)

// TypeAnnotation is the single record a declarator's type parses into.
type TypeAnnotation struct {
	Base         Scalar
	Family       Family
	ObjectName   string // meaningful only when Family == FamilyObjectPointer
	VectorLanes  int    // meaningful only when Family == FamilyVector
	Generic      string // raw captured generic suffix text, e.g. "<T>"
	PointerDepth int    // count of trailing '*' pointer declarators
	Nullability  string // trailing sequence of '?'/'!' tokens, in order
}

// LoweredScalar returns the scalar IR emission should use for this
// annotation: every object/id/Class/SEL/instancetype/object-pointer
// family lowers to I32; vectors are out of the scalar core and never
// reach IR emission: the parser accepts their spelling but the semantic
// analyzer never resolves a vector-typed value into an emittable
// function body.
func (t TypeAnnotation) LoweredScalar() Scalar {
	if t.Family == FamilyPlain {
		return t.Base
	}
	return I32
}

// Simple builds a plain scalar annotation with no pointer/nullability
// decoration, the common case for parameters/returns/let bindings.
func Simple(base Scalar) *TypeAnnotation {
	return &TypeAnnotation{Base: base, Family: FamilyPlain}
}
