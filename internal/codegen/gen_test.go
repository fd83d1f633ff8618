package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/parser"
	"github.com/minic-lang/minic/internal/sema"
)

func genModule(t *testing.T, src string) *Module {
	t.Helper()
	f, err := parser.ParseFile(src)
	require.NoError(t, err)
	unit, err := sema.Analyze(f)
	require.NoError(t, err)
	return Generate(unit)
}

func TestReturnConstant(t *testing.T) {
	m := genModule(t, "int main() { return 42; }")
	f := m.Funcs["main"]
	require.NotNil(t, f)
	// return 42 wrapped to int width, plus the implicit fallthrough
	// return 0.
	assert.Equal(t, []Inst{
		{Op: OpConst, Imm: 42},
		{Op: OpSignExt, Size: 4},
		{Op: OpRet},
		{Op: OpConst, Imm: 0},
		{Op: OpRet},
	}, f.Code)
}

func TestImplicitReturnZero(t *testing.T) {
	m := genModule(t, "int main() { 1; }")
	code := m.Funcs["main"].Code
	require.GreaterOrEqual(t, len(code), 2)
	assert.Equal(t, Inst{Op: OpConst, Imm: 0}, code[len(code)-2])
	assert.Equal(t, Inst{Op: OpRet}, code[len(code)-1])
}

func TestPointerAddScales(t *testing.T) {
	m := genModule(t, "int main() { int a[4]; return *(a + 2); }")
	code := m.Funcs["main"].Code
	// The index 2 is scaled by sizeof(int) before the add.
	var found bool
	for i := 0; i+2 < len(code); i++ {
		if code[i] == (Inst{Op: OpConst, Imm: 4}) &&
			code[i+1].Op == OpMul && code[i+2].Op == OpAdd {
			found = true
		}
	}
	assert.True(t, found, "expected const 4 / mul / add in %v", code)
}

func TestLoadWidthFollowsType(t *testing.T) {
	m := genModule(t, "char c; short s; int main() { return c + s; }")
	code := m.Funcs["main"].Code
	widths := map[int]bool{}
	for _, in := range code {
		if in.Op == OpLoad {
			widths[in.Size] = true
		}
	}
	assert.True(t, widths[1])
	assert.True(t, widths[2])
}

func TestStoreWidthFollowsLvalue(t *testing.T) {
	m := genModule(t, "int main() { short s; s = 65537; return s; }")
	code := m.Funcs["main"].Code
	var stores []int
	for _, in := range code {
		if in.Op == OpStore {
			stores = append(stores, in.Size)
		}
	}
	assert.Equal(t, []int{2}, stores)
}

func TestCallArgsLeftToRight(t *testing.T) {
	m := genModule(t, "int f(int a, int b) { return a - b; } int main() { return f(7, 3); }")
	code := m.Funcs["main"].Code
	require.Equal(t, Inst{Op: OpConst, Imm: 7}, code[0])
	require.Equal(t, Inst{Op: OpConst, Imm: 3}, code[1])
	assert.Equal(t, Inst{Op: OpCall, Sym: "f", Imm: 2}, code[2])

	f := m.Funcs["f"]
	require.Len(t, f.Params, 2)
	assert.Equal(t, Slot{Offset: 0, Size: 4}, f.Params[0])
	assert.Equal(t, Slot{Offset: 4, Size: 4}, f.Params[1])
}

func TestStringInterning(t *testing.T) {
	m := genModule(t, `int main() { return "abc"[0] + "abc"[1]; }`)
	require.Len(t, m.Strings, 1)
	assert.Equal(t, []byte("abc\x00"), m.Strings[0])
}

func TestBranchTargetsInRange(t *testing.T) {
	m := genModule(t, `
		int main() {
			int i; int s;
			s = 0;
			for (i = 0; i < 10; i = i + 1) { if (i == 3) s = s + i; }
			while (s > 100) s = s - 1;
			return s;
		}
	`)
	code := m.Funcs["main"].Code
	for pc, in := range code {
		switch in.Op {
		case OpJump, OpJumpZero:
			assert.GreaterOrEqual(t, in.Imm, int64(0), "pc %d", pc)
			assert.LessOrEqual(t, in.Imm, int64(len(code)), "pc %d", pc)
		}
	}
}

func TestGlobalsSegment(t *testing.T) {
	m := genModule(t, "int g = 5; char c; int main() { return g; }")
	assert.Equal(t, 5, m.GlobalsSize)
	require.Len(t, m.Inits, 1)
	assert.Equal(t, GlobalInit{Offset: 0, Size: 4, Value: 5}, m.Inits[0])
}
