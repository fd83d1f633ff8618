package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minic-lang/minic/internal/diag"
)

func kinds(t *testing.T, src string) []TokenType {
	t.Helper()
	toks, err := Tokenize(src)
	require.NoError(t, err)
	var out []TokenType
	for _, tok := range toks {
		out = append(out, tok.Type)
	}
	return out
}

func TestBasicTokens(t *testing.T) {
	assert.Equal(t,
		[]TokenType{KW_INT, IDENT, LPAREN, RPAREN, LBRACE, KW_RETURN, INT, SEMI, RBRACE, EOF},
		kinds(t, "int main() { return 42; }"))
}

func TestOperators(t *testing.T) {
	assert.Equal(t,
		[]TokenType{EQEQ, NEQ, LE, GE, LT, GT, ASSIGN, ARROW, MINUS, DOT, AMP, STAR, EOF},
		kinds(t, "== != <= >= < > = -> - . & *"))
}

func TestComments(t *testing.T) {
	assert.Equal(t,
		[]TokenType{KW_INT, IDENT, SEMI, EOF},
		kinds(t, "int /* a\nb */ x; // trailing"))
}

func TestIntegerLiteral(t *testing.T) {
	toks, err := Tokenize("4294967300")
	require.NoError(t, err)
	assert.Equal(t, int64(4294967300), toks[0].Val)
}

func TestKeywordsVsIdents(t *testing.T) {
	toks, err := Tokenize("sizeof sizeofx while whilex")
	require.NoError(t, err)
	assert.Equal(t, KW_SIZEOF, toks[0].Type)
	assert.Equal(t, IDENT, toks[1].Type)
	assert.Equal(t, KW_WHILE, toks[2].Type)
	assert.Equal(t, IDENT, toks[3].Type)
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []byte
	}{
		{"plain", `"abc"`, []byte("abc\x00")},
		{"empty", `""`, []byte{0}},
		{"controls", `"\n\t\r\f\b"`, []byte{10, 9, 13, 12, 8, 0}},
		{"octal nul", `"\0"`, []byte{0, 0}},
		{"octal three digits", `"\101"`, []byte{65, 0}},
		{"octal stops at non octal", `"\18"`, []byte{1, '8', 0}},
		{"octal stops after three", `"\1234"`, []byte{0123, '4', 0}},
		{"hex", `"\x41"`, []byte{65, 0}},
		{"hex greedy", `"\x0aZ"`, []byte{10, 'Z', 0}},
		{"hex upper", `"\x4F"`, []byte{0x4f, 0}},
		{"trailing backslash", `"\"`, []byte{92, 0}},
		{"unknown escape keeps char", `"\q"`, []byte{92, 'q', 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks, err := Tokenize(tc.src)
			require.NoError(t, err)
			require.Equal(t, STRING, toks[0].Type)
			assert.Equal(t, tc.want, toks[0].Str)
		})
	}
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{`"abc`, "int @;", "a ! b"} {
		_, err := Tokenize(src)
		require.Error(t, err, src)
		var de *diag.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, diag.Lex, de.Kind)
	}
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize("int\n  x;")
	require.NoError(t, err)
	assert.Equal(t, diag.Pos{Line: 1, Col: 1}, toks[0].Pos)
	assert.Equal(t, diag.Pos{Line: 2, Col: 3}, toks[1].Pos)
}

func TestEOFPositionStable(t *testing.T) {
	l := New("x;")
	tok, err := l.Next()
	require.NoError(t, err)
	for !tok.Is(EOF) {
		tok, err = l.Next()
		require.NoError(t, err)
	}
	// The column stays at the last source character instead of drifting
	// further on each read past the end.
	assert.Equal(t, diag.Pos{Line: 1, Col: 2}, tok.Pos)
	for i := 0; i < 3; i++ {
		again, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, again.Type)
		assert.Equal(t, tok.Pos, again.Pos)
	}
}

func TestRestartable(t *testing.T) {
	a, err := Tokenize("int x;")
	require.NoError(t, err)
	b, err := Tokenize("int x;")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
