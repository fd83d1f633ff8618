package lexer

import (
	"unicode"

	"github.com/minic-lang/minic/internal/diag"
)

// Lexer turns source text into a lazy token stream. A fresh Lexer restarts
// the same source from the beginning.
type Lexer struct {
	src  []rune
	i    int
	ch   rune
	line int
	col  int
}

func New(src string) *Lexer {
	l := &Lexer{src: []rune(src), line: 1}
	l.read()
	return l
}

func (l *Lexer) read() {
	if l.i >= len(l.src) {
		l.ch = 0
		return
	}
	l.ch = l.src[l.i]
	l.i++
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peek() rune {
	if l.i >= len(l.src) {
		return 0
	}
	return l.src[l.i]
}

func (l *Lexer) pos() diag.Pos { return diag.Pos{Line: l.line, Col: l.col} }

// Next returns the next token, or a diag.Error of kind Lex on an invalid
// character or unterminated string literal. After EOF it keeps returning EOF.
func (l *Lexer) Next() (Token, error) {
	// skip spaces and comments
	for {
		for unicode.IsSpace(l.ch) {
			l.read()
		}
		if l.ch == '/' && l.peek() == '/' {
			for l.ch != 0 && l.ch != '\n' {
				l.read()
			}
			continue
		}
		if l.ch == '/' && l.peek() == '*' {
			l.read()
			l.read()
			for l.ch != 0 {
				if l.ch == '*' && l.peek() == '/' {
					l.read()
					l.read()
					break
				}
				l.read()
			}
			continue
		}
		break
	}
	tok := Token{Pos: l.pos()}
	switch ch := l.ch; ch {
	case 0:
		tok.Type = EOF
	case '(':
		tok.Type, tok.Lex = LPAREN, string(ch)
		l.read()
	case ')':
		tok.Type, tok.Lex = RPAREN, string(ch)
		l.read()
	case '{':
		tok.Type, tok.Lex = LBRACE, string(ch)
		l.read()
	case '}':
		tok.Type, tok.Lex = RBRACE, string(ch)
		l.read()
	case '[':
		tok.Type, tok.Lex = LBRACK, string(ch)
		l.read()
	case ']':
		tok.Type, tok.Lex = RBRACK, string(ch)
		l.read()
	case ';':
		tok.Type, tok.Lex = SEMI, string(ch)
		l.read()
	case ',':
		tok.Type, tok.Lex = COMMA, string(ch)
		l.read()
	case '.':
		tok.Type, tok.Lex = DOT, string(ch)
		l.read()
	case '&':
		tok.Type, tok.Lex = AMP, string(ch)
		l.read()
	case '+':
		tok.Type, tok.Lex = PLUS, string(ch)
		l.read()
	case '-':
		l.read()
		if l.ch == '>' {
			tok.Type, tok.Lex = ARROW, "->"
			l.read()
		} else {
			tok.Type, tok.Lex = MINUS, "-"
		}
	case '*':
		tok.Type, tok.Lex = STAR, string(ch)
		l.read()
	case '/':
		tok.Type, tok.Lex = SLASH, string(ch)
		l.read()
	case '=':
		l.read()
		if l.ch == '=' {
			tok.Type, tok.Lex = EQEQ, "=="
			l.read()
		} else {
			tok.Type, tok.Lex = ASSIGN, "="
		}
	case '!':
		l.read()
		if l.ch != '=' {
			return tok, diag.Lexf(tok.Pos, "invalid character '!'")
		}
		tok.Type, tok.Lex = NEQ, "!="
		l.read()
	case '<':
		l.read()
		if l.ch == '=' {
			tok.Type, tok.Lex = LE, "<="
			l.read()
		} else {
			tok.Type, tok.Lex = LT, "<"
		}
	case '>':
		l.read()
		if l.ch == '=' {
			tok.Type, tok.Lex = GE, ">="
			l.read()
		} else {
			tok.Type, tok.Lex = GT, ">"
		}
	case '"':
		return l.stringLiteral(tok)
	default:
		if unicode.IsLetter(ch) || ch == '_' {
			ident := []rune{ch}
			l.read()
			for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
				ident = append(ident, l.ch)
				l.read()
			}
			lex := string(ident)
			if kw, ok := keywords[lex]; ok {
				tok.Type = kw
			} else {
				tok.Type = IDENT
			}
			tok.Lex = lex
		} else if unicode.IsDigit(ch) {
			num := []rune{ch}
			l.read()
			for unicode.IsDigit(l.ch) {
				num = append(num, l.ch)
				l.read()
			}
			tok.Type, tok.Lex = INT, string(num)
			var v int64
			for _, d := range num {
				v = v*10 + int64(d-'0')
			}
			tok.Val = v
		} else {
			return tok, diag.Lexf(tok.Pos, "invalid character %q", ch)
		}
	}
	return tok, nil
}

// stringLiteral reads a double-quoted literal starting at the opening quote
// and decodes escapes. The decoded bytes carry an implicit NUL terminator.
func (l *Lexer) stringLiteral(tok Token) (Token, error) {
	l.read() // opening quote
	out := []byte{}
	for l.ch != '"' {
		if l.ch == 0 || l.ch == '\n' {
			return tok, diag.Lexf(tok.Pos, "unterminated string literal")
		}
		if l.ch != '\\' {
			out = append(out, []byte(string(l.ch))...)
			l.read()
			continue
		}
		l.read() // backslash
		b, err := l.escape(tok.Pos)
		if err != nil {
			return tok, err
		}
		out = append(out, b)
	}
	l.read() // closing quote
	tok.Type = STRING
	tok.Lex = string(out)
	tok.Str = append(out, 0)
	return tok, nil
}

// escape decodes one escape sequence, with the backslash already consumed.
// Recognized forms: \n \t \r \f \b, 1-3 octal digits, and \x followed by one
// or more hex digits (greedy, case-insensitive). Any other character after
// the backslash is not an escape: the backslash byte itself is produced and
// the character is left in the stream, so a backslash just before the
// closing quote decodes to a literal backslash.
func (l *Lexer) escape(start diag.Pos) (byte, error) {
	switch {
	case l.ch >= '0' && l.ch <= '7':
		v := int(l.ch - '0')
		l.read()
		for n := 1; n < 3 && l.ch >= '0' && l.ch <= '7'; n++ {
			v = v<<3 + int(l.ch-'0')
			l.read()
		}
		return byte(v), nil
	case l.ch == 'x':
		l.read()
		if hexDigit(l.ch) < 0 {
			return 0, diag.Lexf(start, "invalid hex escape sequence")
		}
		v := 0
		for hexDigit(l.ch) >= 0 {
			v = v<<4 + hexDigit(l.ch)
			l.read()
		}
		return byte(v), nil
	case l.ch == 'n':
		l.read()
		return '\n', nil
	case l.ch == 't':
		l.read()
		return '\t', nil
	case l.ch == 'r':
		l.read()
		return '\r', nil
	case l.ch == 'f':
		l.read()
		return '\f', nil
	case l.ch == 'b':
		l.read()
		return '\b', nil
	default:
		return '\\', nil
	}
}

func hexDigit(c rune) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
