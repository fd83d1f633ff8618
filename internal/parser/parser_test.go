package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/ast"
	"github.com/minic-lang/minic/internal/diag"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := ParseFile(src)
	require.NoError(t, err)
	return f
}

func mainBody(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	f := parse(t, src)
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name == "main" {
			return fd.Body.Stmts
		}
	}
	t.Fatal("no main function")
	return nil
}

func TestFunctionAndGlobals(t *testing.T) {
	f := parse(t, "int g; int a[3], x; int main() { return 0; }")
	require.Len(t, f.Decls, 3)

	g1 := f.Decls[0].(*ast.VarGroup)
	require.Len(t, g1.Vars, 1)
	assert.Equal(t, "g", g1.Vars[0].Name)

	g2 := f.Decls[1].(*ast.VarGroup)
	require.Len(t, g2.Vars, 2)
	assert.Equal(t, "a", g2.Vars[0].Name)
	_, isArray := g2.Vars[0].Type.(*ast.ArrayType)
	assert.True(t, isArray)
	assert.Equal(t, "x", g2.Vars[1].Name)
	_, isBase := g2.Vars[1].Type.(*ast.BaseType)
	assert.True(t, isBase)

	fd := f.Decls[2].(*ast.FuncDecl)
	assert.Equal(t, "main", fd.Name)
	assert.Empty(t, fd.Params)
}

func TestMultiDimDeclarator(t *testing.T) {
	f := parse(t, "int x[2][3];")
	vd := f.Decls[0].(*ast.VarGroup).Vars[0]
	outer := vd.Type.(*ast.ArrayType)
	assert.Equal(t, 2, outer.Len)
	inner := outer.Elem.(*ast.ArrayType)
	assert.Equal(t, 3, inner.Len)
}

func TestMultiLevelPointers(t *testing.T) {
	f := parse(t, "int ***a;")
	vd := f.Decls[0].(*ast.VarGroup).Vars[0]
	depth := 0
	ty := vd.Type
	for {
		pt, ok := ty.(*ast.PtrType)
		if !ok {
			break
		}
		depth++
		ty = pt.Elem
	}
	assert.Equal(t, 3, depth)
}

func TestPrecedence(t *testing.T) {
	stmts := mainBody(t, "int main() { return 1 + 2 * 3 == 7; }")
	ret := stmts[0].(*ast.ReturnStmt)
	eq := ret.X.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpEq, eq.Op)
	add := eq.X.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, add.Op)
	mul := add.Y.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestAssignRightAssociative(t *testing.T) {
	stmts := mainBody(t, "int main() { int a; int b; a = b = 1; return a; }")
	as := stmts[2].(*ast.ExprStmt).X.(*ast.AssignExpr)
	_, ok := as.Y.(*ast.AssignExpr)
	assert.True(t, ok)
}

func TestCommaOperator(t *testing.T) {
	stmts := mainBody(t, "int main() { int x; int y; (x = 3, y) = 4; return y; }")
	as := stmts[2].(*ast.ExprStmt).X.(*ast.AssignExpr)
	comma := as.X.(*ast.CommaExpr)
	_, ok := comma.X.(*ast.AssignExpr)
	assert.True(t, ok)
	_, ok = comma.Y.(*ast.Ident)
	assert.True(t, ok)
}

func TestIndexDesugarsToDeref(t *testing.T) {
	stmts := mainBody(t, "int main() { int a[2]; return a[1]; }")
	ret := stmts[1].(*ast.ReturnStmt)
	deref := ret.X.(*ast.DerefExpr)
	sum := deref.X.(*ast.BinaryExpr)
	assert.Equal(t, ast.OpAdd, sum.Op)
}

func TestArrowDesugarsToDerefMember(t *testing.T) {
	stmts := mainBody(t, "struct S { int v; }; int main() { struct S s; struct S *p; p = &s; return p->v; }")
	ret := stmts[3].(*ast.ReturnStmt)
	mem := ret.X.(*ast.MemberExpr)
	assert.Equal(t, "v", mem.Name)
	_, ok := mem.X.(*ast.DerefExpr)
	assert.True(t, ok)
}

func TestElseBindsToNearestIf(t *testing.T) {
	stmts := mainBody(t, "int main() { if (1) if (0) return 1; else return 2; return 3; }")
	outer := stmts[0].(*ast.IfStmt)
	assert.Nil(t, outer.Else)
	inner := outer.Then.(*ast.IfStmt)
	assert.NotNil(t, inner.Else)
}

func TestForClausesOptional(t *testing.T) {
	stmts := mainBody(t, "int main() { for (;;) return 1; }")
	fs := stmts[0].(*ast.ForStmt)
	assert.Nil(t, fs.Init)
	assert.Nil(t, fs.Cond)
	assert.Nil(t, fs.Post)
}

func TestSizeofForms(t *testing.T) {
	stmts := mainBody(t, "int main() { int x; return sizeof(int) + sizeof x + sizeof(int*) + sizeof(int[3]); }")
	require.Len(t, stmts, 2)
}

func TestCast(t *testing.T) {
	stmts := mainBody(t, "int main() { return (int)4294967300; }")
	ret := stmts[0].(*ast.ReturnStmt)
	cast := ret.X.(*ast.CastExpr)
	_, ok := cast.X.(*ast.IntLit)
	assert.True(t, ok)
}

func TestStructSpecifiers(t *testing.T) {
	f := parse(t, "struct A { char a; int b; }; union B { int a; char b[3]; } u;")
	g1 := f.Decls[0].(*ast.VarGroup)
	assert.Empty(t, g1.Vars)
	st := g1.Base.(*ast.StructType)
	assert.Equal(t, "A", st.Tag)
	assert.True(t, st.HasBody)
	require.Len(t, st.Fields, 2)

	g2 := f.Decls[1].(*ast.VarGroup)
	require.Len(t, g2.Vars, 1)
	un := g2.Base.(*ast.StructType)
	assert.True(t, un.Union)
}

func TestAnonymousMember(t *testing.T) {
	f := parse(t, "struct A { struct { int a; }; int b; };")
	st := f.Decls[0].(*ast.VarGroup).Base.(*ast.StructType)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "", st.Fields[0].Name)
	assert.Equal(t, "b", st.Fields[1].Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing semicolon", "int main() { return 1 }"},
		{"unmatched paren", "int main() { return (1; }"},
		{"unmatched brace", "int main() { return 1;"},
		{"bad declarator", "int 5x;"},
		{"too many params", "int f(int a, int b, int c, int d, int e, int f, int g) { return 0; }"},
		{"stray token", "int main() { return ]; }"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFile(tc.src)
			require.Error(t, err)
			var de *diag.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, diag.Parse, de.Kind)
			assert.NotZero(t, de.Pos.Line)
		})
	}
}
