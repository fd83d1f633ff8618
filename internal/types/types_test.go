package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicSizes(t *testing.T) {
	assert.Equal(t, 1, TChar.Size())
	assert.Equal(t, 2, TShort.Size())
	assert.Equal(t, 4, TInt.Size())
	assert.Equal(t, 8, TLong.Size())
	assert.Equal(t, 1, TVoid.Size())
	assert.Equal(t, 8, PointerTo(TChar).Size())
	assert.Equal(t, 8, PointerTo(PointerTo(TInt)).Size())
}

func TestArrayLayout(t *testing.T) {
	a := ArrayOf(TInt, 3)
	assert.Equal(t, 12, a.Size())
	assert.Equal(t, 4, a.Align())

	grid := ArrayOf(ArrayOf(TInt, 3), 2)
	assert.Equal(t, 24, grid.Size())
	assert.Equal(t, 12, grid.Elem.Size())
}

func TestStructLayout(t *testing.T) {
	// struct { char a; int b; } has size 8: 1 byte, 3 padding, 4.
	s := StructOf([]*Field{
		{Name: "a", Type: TChar},
		{Name: "b", Type: TInt},
	})
	assert.Equal(t, 8, s.Size())
	assert.Equal(t, 4, s.Align())
	assert.Equal(t, 0, s.Fields[0].Offset)
	assert.Equal(t, 4, s.Fields[1].Offset)

	// struct { char a; int b[3]; } has size 16.
	s2 := StructOf([]*Field{
		{Name: "a", Type: TChar},
		{Name: "b", Type: ArrayOf(TInt, 3)},
	})
	assert.Equal(t, 16, s2.Size())

	empty := StructOf(nil)
	assert.Equal(t, 0, empty.Size())
}

func TestUnionLayout(t *testing.T) {
	// Union size is the maximum member size with no further rounding.
	tests := []struct {
		name   string
		fields []*Field
		size   int
		align  int
	}{
		{"int vs char[4]", []*Field{
			{Name: "a", Type: TInt},
			{Name: "b", Type: ArrayOf(TChar, 4)},
		}, 4, 4},
		{"char vs int[3]", []*Field{
			{Name: "a", Type: TChar},
			{Name: "b", Type: ArrayOf(TInt, 3)},
		}, 12, 4},
		{"char vs short[3]", []*Field{
			{Name: "a", Type: TChar},
			{Name: "b", Type: ArrayOf(TShort, 3)},
		}, 6, 2},
		{"int vs char[3]", []*Field{
			{Name: "a", Type: TInt},
			{Name: "b", Type: ArrayOf(TChar, 3)},
		}, 4, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := UnionOf(tc.fields)
			assert.Equal(t, tc.size, u.Size())
			assert.Equal(t, tc.align, u.Align())
			for _, f := range tc.fields {
				assert.Equal(t, 0, f.Offset)
			}
		})
	}
}

func TestFindFieldAnonymous(t *testing.T) {
	inner := StructOf([]*Field{{Name: "a", Type: TInt}})
	outer := StructOf([]*Field{
		{Name: "", Type: inner},
		{Name: "b", Type: TChar},
	})
	f, off := outer.FindField("a")
	assert.NotNil(t, f)
	assert.Equal(t, 0, off)
	f, off = outer.FindField("b")
	assert.NotNil(t, f)
	assert.Equal(t, 4, off)
	f, _ = outer.FindField("missing")
	assert.Nil(t, f)
}

func TestAlignTo(t *testing.T) {
	assert.Equal(t, 8, AlignTo(5, 8))
	assert.Equal(t, 12, AlignTo(11, 4))
	assert.Equal(t, 0, AlignTo(0, 8))
	assert.Equal(t, 16, AlignTo(16, 8))
}

func TestCommon(t *testing.T) {
	assert.Equal(t, TInt, Common(TChar, TShort))
	assert.Equal(t, TInt, Common(TChar, TInt))
	assert.Equal(t, TLong, Common(TInt, TLong))
	assert.Equal(t, TLong, Common(TLong, TChar))
}

func TestInvariantSizeMultipleOfAlign(t *testing.T) {
	for _, ty := range []*Type{
		TChar, TShort, TInt, TLong, PointerTo(TInt),
		ArrayOf(TShort, 5),
		StructOf([]*Field{{Name: "a", Type: TChar}, {Name: "b", Type: TLong}}),
	} {
		assert.Zero(t, ty.Size()%ty.Align(), "%v", ty)
	}
}
