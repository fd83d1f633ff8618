package lexer

// Tokenize runs the lexer over the whole source and returns the token
// sequence ending with EOF, or the first lexical error.
func Tokenize(src string) ([]Token, error) {
	l := New(src)
	var toks []Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Type == EOF {
			return toks, nil
		}
	}
}
