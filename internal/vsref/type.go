// Copyright 2014-2026 the variableserver authors.

// Package vsref implements VariableReference: a bound, typed handle from a
// textual simulation variable name to a live address, with the read/write
// and ASCII/binary formatting rules the variable server protocol requires.
package vsref

import "fmt"

// Kind is the element type tag of a variable. It replaces the inherited
// C++ variable type hierarchy with a single tagged variant, dispatched by
// Kind rather than by virtual call.
type Kind uint8

const (
	KindChar Kind = iota
	KindUChar
	KindWChar
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindDouble
	KindEnum
	KindBitfield
	KindUBitfield
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindUChar:
		return "unsigned char"
	case KindWChar:
		return "wchar"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUInt:
		return "unsigned int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindEnum:
		return "enum"
	case KindBitfield:
		return "bitfield"
	case KindUBitfield:
		return "unsigned bitfield"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Type fully describes one element's storage. Bits gives the storage width
// in bits for Int/UInt/Enum/Bitfield/UBitfield/Float/Double (8/16/32/64).
// BitOffset/BitWidth only apply to Bitfield/UBitfield, describing the
// extracted sub-range within a Bits-wide storage unit. Elem only applies to
// KindArray and describes the element type of the array.
type Type struct {
	Kind      Kind
	Bits      int
	BitOffset int
	BitWidth  int
	Elem      *Type
}

// Char/Int/Float constructors, one per element type tag.

func Char() Type          { return Type{Kind: KindChar, Bits: 8} }
func UChar() Type         { return Type{Kind: KindUChar, Bits: 8} }
func WChar() Type         { return Type{Kind: KindWChar, Bits: 32} }
func Bool() Type          { return Type{Kind: KindBool, Bits: 8} }
func Short() Type         { return Type{Kind: KindInt, Bits: 16} }
func UShort() Type        { return Type{Kind: KindUInt, Bits: 16} }
func Int() Type           { return Type{Kind: KindInt, Bits: 32} }
func UInt() Type          { return Type{Kind: KindUInt, Bits: 32} }
func Long() Type          { return Type{Kind: KindInt, Bits: 64} }
func ULong() Type         { return Type{Kind: KindUInt, Bits: 64} }
func LongLong() Type      { return Type{Kind: KindInt, Bits: 64} }
func ULongLong() Type     { return Type{Kind: KindUInt, Bits: 64} }
func Float32() Type       { return Type{Kind: KindFloat, Bits: 32} }
func Float64() Type       { return Type{Kind: KindDouble, Bits: 64} }
func EnumType() Type      { return Type{Kind: KindEnum, Bits: 32} }
func StringType() Type    { return Type{Kind: KindString} }
func Bitfield(off, width int) Type {
	return Type{Kind: KindBitfield, Bits: 32, BitOffset: off, BitWidth: width}
}
func UBitfield(off, width int) Type {
	return Type{Kind: KindUBitfield, Bits: 32, BitOffset: off, BitWidth: width}
}
func ArrayOf(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// ElemSize returns the per-element storage size in bytes. For KindArray it
// returns the size of one element, not the whole array.
func (t Type) ElemSize() int {
	if t.Kind == KindArray {
		return t.Elem.ElemSize()
	}
	if t.Kind == KindString {
		return 1
	}
	return t.Bits / 8
}

// Equal reports whether two types describe the same storage layout, used to
// detect a changed declaration across a re-resolve.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Bits != o.Bits || t.BitOffset != o.BitOffset || t.BitWidth != o.BitWidth {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem != nil {
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

func (t Type) Signed() bool {
	return t.Kind == KindInt || t.Kind == KindBitfield || t.Kind == KindEnum
}
