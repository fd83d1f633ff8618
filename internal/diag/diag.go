package diag

import "fmt"

// Kind classifies a compilation error by the pipeline stage that raised it.
type Kind int

const (
	Lex Kind = iota
	Parse
	Type
	Name
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex error"
	case Parse:
		return "parse error"
	case Type:
		return "type error"
	case Name:
		return "name error"
	default:
		return "error"
	}
}

// Pos is a 1-based source position. Line 0 means "position unknown".
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Error is a terminal compilation diagnostic. The first Error raised aborts
// the current stage; there is no recovery and no warning level.
type Error struct {
	Kind Kind
	Pos  Pos
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Msg)
}

func Lexf(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: Lex, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func Parsef(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: Parse, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func Typef(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: Type, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func Namef(pos Pos, format string, args ...any) *Error {
	return &Error{Kind: Name, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
