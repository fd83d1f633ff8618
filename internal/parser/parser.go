package parser

import (
	"github.com/minic-lang/minic/internal/ast"
	"github.com/minic-lang/minic/internal/diag"
	"github.com/minic-lang/minic/internal/lexer"
	"github.com/minic-lang/minic/internal/types"
)

// MaxParams is the number of integer-class arguments a function may take.
const MaxParams = 6

type Parser struct {
	toks []lexer.Token
	i    int
}

// ParseFile tokenizes src and parses one translation unit.
func ParseFile(src string) (*ast.File, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	f := &ast.File{}
	for !p.tok().Is(lexer.EOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	return f, nil
}

func (p *Parser) tok() lexer.Token { return p.toks[p.i] }

func (p *Parser) peek() lexer.Token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) next() lexer.Token {
	t := p.toks[p.i]
	if p.i+1 < len(p.toks) {
		p.i++
	}
	return t
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.tok().Is(tt) {
		return lexer.Token{}, diag.Parsef(p.tok().Pos, "expected %v, got %v", tt, p.tok().Type)
	}
	return p.next(), nil
}

// parseDecl handles one file-scope declaration: a function definition, a
// global variable declarator list, or a tag-only struct/union declaration.
func (p *Parser) parseDecl() (ast.Decl, error) {
	base, err := p.parseDeclspec()
	if err != nil {
		return nil, err
	}
	if p.tok().Is(lexer.SEMI) {
		p.next()
		return &ast.VarGroup{Base: base}, nil
	}
	// Peek past the pointer stars to see whether a parameter list follows
	// the declared name.
	j := p.i
	for p.toks[j].Is(lexer.STAR) {
		j++
	}
	if p.toks[j].Is(lexer.IDENT) && j+1 < len(p.toks) && p.toks[j+1].Is(lexer.LPAREN) {
		return p.parseFunc(base)
	}
	return p.parseVarGroup(base)
}

func (p *Parser) parseFunc(ret ast.TypeExpr) (*ast.FuncDecl, error) {
	for p.tok().Is(lexer.STAR) {
		p.next()
		ret = &ast.PtrType{Elem: ret}
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Name: name.Lex, Ret: ret, Params: params, Body: body, Pos: name.Pos}, nil
}

func (p *Parser) parseParams() ([]*ast.Param, error) {
	var params []*ast.Param
	if p.tok().Is(lexer.RPAREN) {
		return params, nil
	}
	// "(void)" declares no parameters.
	if p.tok().Is(lexer.KW_VOID) && p.peek().Is(lexer.RPAREN) {
		p.next()
		return params, nil
	}
	for {
		base, err := p.parseDeclspec()
		if err != nil {
			return nil, err
		}
		ty, name, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		if len(params) == MaxParams {
			return nil, diag.Parsef(name.Pos, "too many parameters (at most %d)", MaxParams)
		}
		params = append(params, &ast.Param{Name: name.Lex, Type: ty, Pos: name.Pos})
		if p.tok().Is(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	return params, nil
}

func (p *Parser) parseVarGroup(base ast.TypeExpr) (*ast.VarGroup, error) {
	g := &ast.VarGroup{Base: base}
	for {
		ty, name, err := p.parseDeclarator(base)
		if err != nil {
			return nil, err
		}
		vd := &ast.VarDecl{Name: name.Lex, Type: ty, Pos: name.Pos}
		if p.tok().Is(lexer.ASSIGN) {
			p.next()
			vd.Init, err = p.parseAssign()
			if err != nil {
				return nil, err
			}
		}
		g.Vars = append(g.Vars, vd)
		if p.tok().Is(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return g, nil
}

// parseDeclspec parses a base type specifier: a built-in type keyword or a
// struct/union specifier.
func (p *Parser) parseDeclspec() (ast.TypeExpr, error) {
	t := p.tok()
	switch t.Type {
	case lexer.KW_VOID:
		p.next()
		return &ast.BaseType{Kind: types.Void, Pos: t.Pos}, nil
	case lexer.KW_CHAR:
		p.next()
		return &ast.BaseType{Kind: types.Char, Pos: t.Pos}, nil
	case lexer.KW_SHORT:
		p.next()
		return &ast.BaseType{Kind: types.Short, Pos: t.Pos}, nil
	case lexer.KW_INT:
		p.next()
		return &ast.BaseType{Kind: types.Int, Pos: t.Pos}, nil
	case lexer.KW_LONG:
		p.next()
		return &ast.BaseType{Kind: types.Long, Pos: t.Pos}, nil
	case lexer.KW_STRUCT, lexer.KW_UNION:
		return p.parseStructSpec()
	}
	return nil, diag.Parsef(t.Pos, "expected a type name, got %v", t.Type)
}

func (p *Parser) parseStructSpec() (*ast.StructType, error) {
	kw := p.next()
	st := &ast.StructType{Union: kw.Is(lexer.KW_UNION), Pos: kw.Pos}
	if p.tok().Is(lexer.IDENT) {
		st.Tag = p.next().Lex
	}
	if !p.tok().Is(lexer.LBRACE) {
		if st.Tag == "" {
			return nil, diag.Parsef(p.tok().Pos, "expected a tag or member list")
		}
		return st, nil
	}
	p.next()
	st.HasBody = true
	for !p.tok().Is(lexer.RBRACE) {
		base, err := p.parseDeclspec()
		if err != nil {
			return nil, err
		}
		if p.tok().Is(lexer.SEMI) {
			// Anonymous struct/union member.
			p.next()
			bt, ok := base.(*ast.StructType)
			if !ok || !bt.HasBody {
				return nil, diag.Parsef(p.tok().Pos, "expected a member declarator")
			}
			st.Fields = append(st.Fields, &ast.FieldDecl{Type: base, Pos: bt.Pos})
			continue
		}
		for {
			ty, name, err := p.parseDeclarator(base)
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, &ast.FieldDecl{Name: name.Lex, Type: ty, Pos: name.Pos})
			if p.tok().Is(lexer.COMMA) {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
	}
	p.next()
	return st, nil
}

// parseDeclarator parses "*"* name ("[" N "]")* around base and returns the
// full type along with the name token. Array suffixes bind outermost-first:
// "int x[2][3]" is an array of two arrays of three ints.
func (p *Parser) parseDeclarator(base ast.TypeExpr) (ast.TypeExpr, lexer.Token, error) {
	ty := base
	for p.tok().Is(lexer.STAR) {
		p.next()
		ty = &ast.PtrType{Elem: ty}
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, name, err
	}
	ty, err = p.parseArraySuffix(ty)
	if err != nil {
		return nil, name, err
	}
	return ty, name, nil
}

func (p *Parser) parseArraySuffix(ty ast.TypeExpr) (ast.TypeExpr, error) {
	var dims []lexer.Token
	for p.tok().Is(lexer.LBRACK) {
		p.next()
		n, err := p.expect(lexer.INT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACK); err != nil {
			return nil, err
		}
		dims = append(dims, n)
	}
	for i := len(dims) - 1; i >= 0; i-- {
		ty = &ast.ArrayType{Elem: ty, Len: int(dims[i].Val), Pos: dims[i].Pos}
	}
	return ty, nil
}

// parseTypeName parses an abstract type name as used by sizeof and casts:
// declspec "*"* ("[" N "]")*.
func (p *Parser) parseTypeName() (ast.TypeExpr, error) {
	ty, err := p.parseDeclspec()
	if err != nil {
		return nil, err
	}
	for p.tok().Is(lexer.STAR) {
		p.next()
		ty = &ast.PtrType{Elem: ty}
	}
	return p.parseArraySuffix(ty)
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.tok().Is(lexer.RBRACE) {
		if p.tok().Is(lexer.EOF) {
			return nil, diag.Parsef(p.tok().Pos, "unexpected end of input, expected '}'")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.next()
	return &ast.BlockStmt{Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.tok().Type {
	case lexer.KW_RETURN:
		pos := p.next().Pos
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{X: e, Pos: pos}, nil
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.KW_IF:
		p.next()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		then, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		st := &ast.IfStmt{Cond: cond, Then: then}
		if p.tok().Is(lexer.KW_ELSE) {
			p.next()
			st.Else, err = p.parseStmt()
			if err != nil {
				return nil, err
			}
		}
		return st, nil
	case lexer.KW_WHILE:
		p.next()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStmt{Cond: cond, Body: body}, nil
	case lexer.KW_FOR:
		return p.parseFor()
	default:
		if p.tok().Type.IsTypeKeyword() {
			base, err := p.parseDeclspec()
			if err != nil {
				return nil, err
			}
			if p.tok().Is(lexer.SEMI) {
				p.next()
				return &ast.DeclStmt{Group: &ast.VarGroup{Base: base}}, nil
			}
			g, err := p.parseVarGroup(base)
			if err != nil {
				return nil, err
			}
			return &ast.DeclStmt{Group: g}, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: e}, nil
	}
}

// parseFor parses "for (init; cond; step) stmt" where each clause may be
// empty.
func (p *Parser) parseFor() (ast.Stmt, error) {
	p.next()
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	st := &ast.ForStmt{}
	var err error
	if !p.tok().Is(lexer.SEMI) {
		if st.Init, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	if !p.tok().Is(lexer.SEMI) {
		if st.Cond, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	if !p.tok().Is(lexer.RPAREN) {
		if st.Post, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if st.Body, err = p.parseStmt(); err != nil {
		return nil, err
	}
	return st, nil
}

// Expression grammar, precedence low to high:
//
//	expr       = assign ("," assign)*
//	assign     = equality ("=" assign)?
//	equality   = relational (("==" | "!=") relational)*
//	relational = additive (("<" | "<=" | ">" | ">=") additive)*
//	additive   = mul (("+" | "-") mul)*
//	mul        = unary (("*" | "/") unary)*
//	unary      = ("+" | "-" | "*" | "&") unary
//	           | "sizeof" unary | "sizeof" "(" type-name ")"
//	           | "(" type-name ")" unary
//	           | postfix
//	postfix    = primary ("[" expr "]" | "." ident | "->" ident)*
//	primary    = ident | ident "(" args ")" | number | string | "(" expr ")"
func (p *Parser) parseExpr() (ast.Expr, error) {
	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	for p.tok().Is(lexer.COMMA) {
		pos := p.next().Pos
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		e = &ast.CommaExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: e, Y: rhs}
	}
	return e, nil
}

func (p *Parser) parseAssign() (ast.Expr, error) {
	e, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if p.tok().Is(lexer.ASSIGN) {
		pos := p.next().Pos
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: e, Y: rhs}, nil
	}
	return e, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	e, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok().Type {
		case lexer.EQEQ:
			op = ast.OpEq
		case lexer.NEQ:
			op = ast.OpNe
		default:
			return e, nil
		}
		pos := p.next().Pos
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		e = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: op, X: e, Y: rhs}
	}
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	e, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok().Type {
		case lexer.LT:
			op = ast.OpLt
		case lexer.LE:
			op = ast.OpLe
		case lexer.GT:
			op = ast.OpGt
		case lexer.GE:
			op = ast.OpGe
		default:
			return e, nil
		}
		pos := p.next().Pos
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		e = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: op, X: e, Y: rhs}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	e, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok().Type {
		case lexer.PLUS:
			op = ast.OpAdd
		case lexer.MINUS:
			op = ast.OpSub
		default:
			return e, nil
		}
		pos := p.next().Pos
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		e = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: op, X: e, Y: rhs}
	}
}

func (p *Parser) parseMul() (ast.Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinOp
		switch p.tok().Type {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		default:
			return e, nil
		}
		pos := p.next().Pos
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		e = &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: op, X: e, Y: rhs}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.tok().Type {
	case lexer.PLUS:
		pos := p.next().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: ast.OpPlus, X: x}, nil
	case lexer.MINUS:
		pos := p.next().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: ast.OpNeg, X: x}, nil
	case lexer.STAR:
		pos := p.next().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.DerefExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: x}, nil
	case lexer.AMP:
		pos := p.next().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.AddrExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: x}, nil
	case lexer.KW_SIZEOF:
		pos := p.next().Pos
		if p.tok().Is(lexer.LPAREN) && p.peek().Type.IsTypeKeyword() {
			p.next()
			ty, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			return &ast.SizeofExpr{ExprInfo: ast.ExprInfo{Pos: pos}, To: ty}, nil
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.SizeofExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: x}, nil
	case lexer.LPAREN:
		if p.peek().Type.IsTypeKeyword() {
			pos := p.next().Pos
			ty, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.CastExpr{ExprInfo: ast.ExprInfo{Pos: pos}, To: ty, X: x}, nil
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok().Type {
		case lexer.LBRACK:
			// a[i] is *(a + i)
			pos := p.next().Pos
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACK); err != nil {
				return nil, err
			}
			sum := &ast.BinaryExpr{ExprInfo: ast.ExprInfo{Pos: pos}, Op: ast.OpAdd, X: e, Y: idx}
			e = &ast.DerefExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: sum}
		case lexer.DOT:
			pos := p.next().Pos
			name, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			e = &ast.MemberExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: e, Name: name.Lex}
		case lexer.ARROW:
			// p->f is (*p).f
			pos := p.next().Pos
			name, err := p.expect(lexer.IDENT)
			if err != nil {
				return nil, err
			}
			deref := &ast.DerefExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: e}
			e = &ast.MemberExpr{ExprInfo: ast.ExprInfo{Pos: pos}, X: deref, Name: name.Lex}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.tok()
	switch t.Type {
	case lexer.IDENT:
		p.next()
		if p.tok().Is(lexer.LPAREN) {
			return p.parseCallArgs(t)
		}
		return &ast.Ident{ExprInfo: ast.ExprInfo{Pos: t.Pos}, Name: t.Lex}, nil
	case lexer.INT:
		p.next()
		return &ast.IntLit{ExprInfo: ast.ExprInfo{Pos: t.Pos}, Value: t.Val}, nil
	case lexer.STRING:
		p.next()
		return &ast.StrLit{ExprInfo: ast.ExprInfo{Pos: t.Pos}, Value: t.Str}, nil
	case lexer.LPAREN:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, diag.Parsef(t.Pos, "unexpected %v", t.Type)
}

func (p *Parser) parseCallArgs(name lexer.Token) (ast.Expr, error) {
	p.next() // (
	call := &ast.CallExpr{ExprInfo: ast.ExprInfo{Pos: name.Pos}, Name: name.Lex}
	if p.tok().Is(lexer.RPAREN) {
		p.next()
		return call, nil
	}
	for {
		a, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if len(call.Args) == MaxParams {
			return nil, diag.Parsef(a.Info().Pos, "too many arguments (at most %d)", MaxParams)
		}
		call.Args = append(call.Args, a)
		if p.tok().Is(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return call, nil
}
