package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/codegen"
	"github.com/minic-lang/minic/internal/parser"
	"github.com/minic-lang/minic/internal/sema"
)

func run(t *testing.T, src string) (int, error) {
	t.Helper()
	f, err := parser.ParseFile(src)
	require.NoError(t, err)
	unit, err := sema.Analyze(f)
	require.NoError(t, err)
	m, err := New(codegen.Generate(unit))
	require.NoError(t, err)
	return m.Run()
}

func TestSignExt(t *testing.T) {
	assert.Equal(t, int64(-1), signExt(0xff, 1))
	assert.Equal(t, int64(1), signExt(257, 1))
	assert.Equal(t, int64(-1), signExt(0xffff, 2))
	assert.Equal(t, int64(4), signExt(4294967300, 4))
	assert.Equal(t, int64(0x7f), signExt(0x7f, 1))
	assert.Equal(t, int64(-0x80), signExt(0x80, 1))
	assert.Equal(t, int64(-5), signExt(-5, 8))
}

func TestMissingMain(t *testing.T) {
	f, err := parser.ParseFile("int f() { return 1; }")
	require.NoError(t, err)
	unit, err := sema.Analyze(f)
	require.NoError(t, err)
	m, err := New(codegen.Generate(unit))
	require.NoError(t, err)
	_, err = m.Run()
	assert.Error(t, err)
}

func TestExitStatusMasking(t *testing.T) {
	status, err := run(t, "int main() { return 300; }")
	require.NoError(t, err)
	assert.Equal(t, 44, status)

	status, err = run(t, "int main() { return 0 - 1; }")
	require.NoError(t, err)
	assert.Equal(t, 255, status)
}

func TestGlobalsZeroInitialized(t *testing.T) {
	status, err := run(t, "int g; int main() { return g == 0; }")
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestNullDereferenceFaults(t *testing.T) {
	_, err := run(t, "int main() { int *p; p = (int*)0; return *p; }")
	assert.Error(t, err)
}

func TestDivisionByZeroFaults(t *testing.T) {
	_, err := run(t, "int main() { int z; z = 0; return 1 / z; }")
	assert.Error(t, err)
}

func TestRunawayRecursionFaults(t *testing.T) {
	_, err := run(t, "int f(int n) { return f(n + 1); } int main() { return f(0); }")
	assert.Error(t, err)
}

func TestFreshMachinePerRun(t *testing.T) {
	f, err := parser.ParseFile("int g; int main() { g = g + 1; return g; }")
	require.NoError(t, err)
	unit, err := sema.Analyze(f)
	require.NoError(t, err)
	mod := codegen.Generate(unit)
	for i := 0; i < 2; i++ {
		m, err := New(mod)
		require.NoError(t, err)
		status, err := m.Run()
		require.NoError(t, err)
		assert.Equal(t, 1, status)
	}
}
