package types

// Kind tags the type variants of the source language.
type Kind int

const (
	Void Kind = iota
	Char
	Short
	Int
	Long
	Ptr
	Array
	Struct
	Union
)

// Field is one member of a struct or union. Offset is relative to the start
// of the enclosing aggregate; union members all sit at offset 0. A field
// with an empty name is an anonymous struct/union member whose own fields
// are reachable through the enclosing aggregate's namespace.
type Field struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is a canonical type descriptor. size is always a positive multiple of
// align, except Void (size 1, the unit for sizeof and pointer arithmetic)
// and empty structs (size 0).
type Type struct {
	Kind   Kind
	size   int
	align  int
	Elem   *Type    // Ptr: pointee; Array: element
	Len    int      // Array
	Fields []*Field // Struct, Union
}

// Basic type singletons. All integer types are signed.
var (
	TVoid  = &Type{Kind: Void, size: 1, align: 1}
	TChar  = &Type{Kind: Char, size: 1, align: 1}
	TShort = &Type{Kind: Short, size: 2, align: 2}
	TInt   = &Type{Kind: Int, size: 4, align: 4}
	TLong  = &Type{Kind: Long, size: 8, align: 8}
)

func (t *Type) Size() int  { return t.size }
func (t *Type) Align() int { return t.align }

func (t *Type) IsInteger() bool {
	switch t.Kind {
	case Char, Short, Int, Long:
		return true
	}
	return false
}

// HasBase reports whether the type is a pointer or an array. In most
// expression contexts an array behaves as a pointer to its element, so the
// two share the Elem member.
func (t *Type) HasBase() bool { return t.Kind == Ptr || t.Kind == Array }

func (t *Type) IsAggregate() bool { return t.Kind == Struct || t.Kind == Union }

func PointerTo(base *Type) *Type {
	return &Type{Kind: Ptr, size: 8, align: 8, Elem: base}
}

func ArrayOf(elem *Type, n int) *Type {
	return &Type{Kind: Array, size: elem.size * n, align: elem.align, Elem: elem, Len: n}
}

// StructOf lays out fields in declaration order: each offset is rounded up
// to the field's own alignment, the struct alignment is the maximum field
// alignment, and the final size is rounded up to that alignment.
func StructOf(fields []*Field) *Type {
	ty := &Type{Kind: Struct, align: 1, Fields: fields}
	off := 0
	for _, f := range fields {
		off = AlignTo(off, f.Type.align)
		f.Offset = off
		off += f.Type.size
		if ty.align < f.Type.align {
			ty.align = f.Type.align
		}
	}
	ty.size = AlignTo(off, ty.align)
	return ty
}

// UnionOf overlays all fields at offset 0. The size is the largest member
// size as-is, with no rounding past it; the alignment is the largest member
// alignment.
func UnionOf(fields []*Field) *Type {
	ty := &Type{Kind: Union, align: 1, Fields: fields}
	for _, f := range fields {
		f.Offset = 0
		if ty.size < f.Type.size {
			ty.size = f.Type.size
		}
		if ty.align < f.Type.align {
			ty.align = f.Type.align
		}
	}
	return ty
}

// FindField resolves a member name in a struct or union, looking through
// anonymous members. The returned offset accumulates the offsets of any
// anonymous aggregates crossed on the way.
func (t *Type) FindField(name string) (*Field, int) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, f.Offset
		}
		if f.Name == "" && f.Type.IsAggregate() {
			if inner, off := f.Type.FindField(name); inner != nil {
				return inner, f.Offset + off
			}
		}
	}
	return nil, 0
}

// AlignTo rounds n up to the nearest multiple of align.
// AlignTo(5, 8) is 8 and AlignTo(11, 4) is 12.
func AlignTo(n, align int) int {
	return (n + align - 1) / align * align
}

// Common computes the usual-arithmetic-conversion result type for a binary
// operator: operands narrower than int promote to int, then the wider
// operand wins.
func Common(a, b *Type) *Type {
	if a.Size() < TInt.Size() {
		a = TInt
	}
	if b.Size() < TInt.Size() {
		b = TInt
	}
	if a.Size() < b.Size() {
		return b
	}
	return a
}

func (t *Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Ptr:
		return "*" + t.Elem.String()
	case Array:
		return t.Elem.String() + "[]"
	case Struct:
		return "struct"
	case Union:
		return "union"
	default:
		return "?"
	}
}
