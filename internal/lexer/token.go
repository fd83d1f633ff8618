package lexer

import "github.com/minic-lang/minic/internal/diag"

type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Identifiers + literals
	IDENT
	INT
	STRING

	// Keywords
	KW_VOID
	KW_CHAR
	KW_SHORT
	KW_INT
	KW_LONG
	KW_STRUCT
	KW_UNION
	KW_SIZEOF
	KW_RETURN
	KW_IF
	KW_ELSE
	KW_WHILE
	KW_FOR

	// Symbols
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }
	LBRACK // [
	RBRACK // ]
	SEMI   // ;
	COMMA  // ,
	DOT    // .
	ARROW  // ->
	ASSIGN // =
	AMP    // &

	// Arithmetic
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison
	EQEQ // ==
	NEQ  // !=
	LT   // <
	LE   // <=
	GT   // >
	GE   // >=
)

var tokenNames = map[TokenType]string{
	EOF:       "end of input",
	IDENT:     "identifier",
	INT:       "integer literal",
	STRING:    "string literal",
	KW_VOID:   "'void'",
	KW_CHAR:   "'char'",
	KW_SHORT:  "'short'",
	KW_INT:    "'int'",
	KW_LONG:   "'long'",
	KW_STRUCT: "'struct'",
	KW_UNION:  "'union'",
	KW_SIZEOF: "'sizeof'",
	KW_RETURN: "'return'",
	KW_IF:     "'if'",
	KW_ELSE:   "'else'",
	KW_WHILE:  "'while'",
	KW_FOR:    "'for'",
	LPAREN:    "'('",
	RPAREN:    "')'",
	LBRACE:    "'{'",
	RBRACE:    "'}'",
	LBRACK:    "'['",
	RBRACK:    "']'",
	SEMI:      "';'",
	COMMA:     "','",
	DOT:       "'.'",
	ARROW:     "'->'",
	ASSIGN:    "'='",
	AMP:       "'&'",
	PLUS:      "'+'",
	MINUS:     "'-'",
	STAR:      "'*'",
	SLASH:     "'/'",
	EQEQ:      "'=='",
	NEQ:       "'!='",
	LT:        "'<'",
	LE:        "'<='",
	GT:        "'>'",
	GE:        "'>='",
}

func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return "token"
}

var keywords = map[string]TokenType{
	"void":   KW_VOID,
	"char":   KW_CHAR,
	"short":  KW_SHORT,
	"int":    KW_INT,
	"long":   KW_LONG,
	"struct": KW_STRUCT,
	"union":  KW_UNION,
	"sizeof": KW_SIZEOF,
	"return": KW_RETURN,
	"if":     KW_IF,
	"else":   KW_ELSE,
	"while":  KW_WHILE,
	"for":    KW_FOR,
}

// IsTypeKeyword reports whether tt can begin a type name.
func (tt TokenType) IsTypeKeyword() bool {
	switch tt {
	case KW_VOID, KW_CHAR, KW_SHORT, KW_INT, KW_LONG, KW_STRUCT, KW_UNION:
		return true
	}
	return false
}

// Token is one lexical element. Val holds the decoded magnitude of an
// integer literal; Str holds the decoded bytes of a string literal,
// including the implicit NUL terminator.
type Token struct {
	Type TokenType
	Lex  string
	Val  int64
	Str  []byte
	Pos  diag.Pos
}

func (t Token) Is(tt TokenType) bool { return t.Type == tt }
