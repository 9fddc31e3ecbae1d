package silo

// PropertyKind identifies which compilation rule a schema property
// follows (spec §3, "Recognized property kinds").
type PropertyKind uint8

const (
	KindF64 PropertyKind = iota
	KindF32
	KindI32
	KindU32
	KindI16
	KindU16
	KindI8
	KindU8
	KindBool
	KindString
	KindEnum
	KindBitmask
	KindFlatArray
	KindPackedArray
	KindRPN
)

func (k PropertyKind) isPrimitive() bool {
	return k <= KindBool
}

// primitive returns the storage primitive for a primitive PropertyKind.
// Bool is stored as u8 (spec §3).
func (k PropertyKind) primitive() primitiveKind {
	switch k {
	case KindF64:
		return pF64
	case KindF32:
		return pF32
	case KindI32:
		return pI32
	case KindU32:
		return pU32
	case KindI16:
		return pI16
	case KindU16:
		return pU16
	case KindI8:
		return pI8
	case KindU8, KindBool:
		return pU8
	}
	return pU8
}

// RPNParser compiles one designer-facing formula string into a flat
// stream of opcodes/literals. The parser itself is out of scope for
// this engine (spec §4.2): callers inject one, e.g. a shunting-yard
// arithmetic compiler living outside this module.
type RPNParser interface {
	Parse(formula string) ([]float32, error)
}

// Property describes one schema entry. Only the fields relevant to
// Kind are meaningful; see spec §3 for the per-kind rules.
type Property struct {
	Kind PropertyKind

	// Enum / Bitmask: the closed label list.
	Labels []string

	// FlatArray / PackedArray: the element type. Must be non-nil and,
	// for PackedArray, must itself be primitive.
	Item *Property

	// FlatArray / RPN: fixed slot capacity K.
	Capacity int

	// RPN only: total opcode/literal capacity across all formula slots,
	// and the externally supplied parser.
	StreamCapacity int
	Parser         RPNParser
}

// Schema is a component's property map, keyed by designer-facing name.
type Schema map[string]Property

// IsTag reports whether a schema describes a zero-data "tag" component.
func (s Schema) IsTag() bool {
	return len(s) == 0
}
