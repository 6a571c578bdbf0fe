// Copyright 2014-2026 the variableserver authors.
package vsref

import "testing"

func TestElemSize(t *testing.T) {
	cases := []struct {
		typ  Type
		want int
	}{
		{Char(), 1},
		{Bool(), 1},
		{Short(), 2},
		{Int(), 4},
		{Long(), 8},
		{Float32(), 4},
		{Float64(), 8},
		{StringType(), 1},
		{ArrayOf(Int()), 4},
		{ArrayOf(ArrayOf(Char())), 1},
	}

	for _, c := range cases {
		if got := c.typ.ElemSize(); got != c.want {
			t.Errorf("%v.ElemSize() = %d, want %d", c.typ.Kind, got, c.want)
		}
	}
}

func TestTypeEqual(t *testing.T) {
	if !Int().Equal(Int()) {
		t.Fatal("Int() should equal itself")
	}
	if Int().Equal(UInt()) {
		t.Fatal("Int() should not equal UInt()")
	}
	if !ArrayOf(Int()).Equal(ArrayOf(Int())) {
		t.Fatal("ArrayOf(Int()) should equal ArrayOf(Int())")
	}
	if ArrayOf(Int()).Equal(ArrayOf(Float32())) {
		t.Fatal("arrays of different element types should not be equal")
	}
	if ArrayOf(Int()).Equal(Int()) {
		t.Fatal("an array should never equal its own element type")
	}
}

func TestSigned(t *testing.T) {
	if !Int().Signed() {
		t.Fatal("Int() should be signed")
	}
	if UInt().Signed() {
		t.Fatal("UInt() should not be signed")
	}
	if UBitfield(0, 4).Signed() {
		t.Fatal("UBitfield should not be signed")
	}
	if !Bitfield(0, 4).Signed() {
		t.Fatal("Bitfield should be signed")
	}
}
