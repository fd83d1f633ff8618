package ast

import (
	"github.com/minic-lang/minic/internal/diag"
	"github.com/minic-lang/minic/internal/types"
)

// File is one translation unit.
type File struct {
	Decls []Decl
}

type Decl interface{ isDecl() }

// FuncDecl is a function definition. At most six parameters are supported.
type FuncDecl struct {
	Name   string
	Ret    TypeExpr
	Params []*Param
	Body   *BlockStmt
	Pos    diag.Pos
}

func (*FuncDecl) isDecl() {}

type Param struct {
	Name string
	Type TypeExpr
	Pos  diag.Pos
}

// VarGroup is a file-scope or block-scope declaration: one base type
// specifier and zero or more declarators. Zero declarators is a tag-only
// declaration such as "struct A { ... };".
type VarGroup struct {
	Base TypeExpr
	Vars []*VarDecl
}

func (*VarGroup) isDecl() {}

type VarDecl struct {
	Name string
	Type TypeExpr // full declarator type wrapped around the shared base
	Init Expr     // optional
	Pos  diag.Pos
	Sym  *Symbol // bound by the scope resolver
}

// TypeExpr is a syntactic type as written in the source. The scope resolver
// turns it into a canonical *types.Type; tags are looked up at that point,
// not during parsing.
type TypeExpr interface{ isTypeExpr() }

// BaseType names one of the built-in types.
type BaseType struct {
	Kind types.Kind
	Pos  diag.Pos
}

func (*BaseType) isTypeExpr() {}

// StructType is a struct or union specifier, with an optional tag and an
// optional member body. A field with an empty name is an anonymous
// struct/union member.
type StructType struct {
	Union   bool
	Tag     string
	HasBody bool
	Fields  []*FieldDecl
	Pos     diag.Pos
}

func (*StructType) isTypeExpr() {}

type FieldDecl struct {
	Name string
	Type TypeExpr
	Pos  diag.Pos
}

type PtrType struct {
	Elem TypeExpr
}

func (*PtrType) isTypeExpr() {}

type ArrayType struct {
	Elem TypeExpr
	Len  int
	Pos  diag.Pos
}

func (*ArrayType) isTypeExpr() {}

type Stmt interface{ isStmt() }

type BlockStmt struct {
	Stmts []Stmt
}

func (*BlockStmt) isStmt() {}

type ReturnStmt struct {
	X   Expr
	Pos diag.Pos
}

func (*ReturnStmt) isStmt() {}

type ExprStmt struct{ X Expr }

func (*ExprStmt) isStmt() {}

// DeclStmt is a block-scope declaration.
type DeclStmt struct{ Group *VarGroup }

func (*DeclStmt) isStmt() {}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // may be nil
}

func (*IfStmt) isStmt() {}

type WhileStmt struct {
	Cond Expr
	Body Stmt
}

func (*WhileStmt) isStmt() {}

type ForStmt struct {
	Init Expr // may be nil
	Cond Expr // may be nil (treated as true)
	Post Expr // may be nil
	Body Stmt
}

func (*ForStmt) isStmt() {}

// ExprInfo carries the source position and, after semantic analysis, the
// resolved type and lvalue-ness of an expression node. Every expression
// node embeds it.
type ExprInfo struct {
	Pos    diag.Pos
	Typ    *types.Type
	Lvalue bool
}

func (e *ExprInfo) isExpr()         {}
func (e *ExprInfo) Info() *ExprInfo { return e }

type Expr interface {
	isExpr()
	Info() *ExprInfo
}

// Ident is a variable reference. Sym is bound by the scope resolver.
type Ident struct {
	ExprInfo
	Name string
	Sym  *Symbol
}

type IntLit struct {
	ExprInfo
	Value int64
}

// StrLit holds the decoded bytes including the NUL terminator. Index is the
// literal's slot in the module string table, assigned by the code generator.
type StrLit struct {
	ExprInfo
	Value []byte
	Index int
}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

type BinaryExpr struct {
	ExprInfo
	Op   BinOp
	X, Y Expr
	// Scale is set by the scope resolver for pointer +/- integer: the
	// integer operand is multiplied by the pointee size.
	Scale int
}

type AssignExpr struct {
	ExprInfo
	X, Y Expr // X = Y
}

// CommaExpr evaluates X for its side effects, discards the value, then
// yields Y. It is an lvalue whenever Y is.
type CommaExpr struct {
	ExprInfo
	X, Y Expr
}

type UnOp int

const (
	OpNeg UnOp = iota
	OpPlus
)

type UnaryExpr struct {
	ExprInfo
	Op UnOp
	X  Expr
}

type DerefExpr struct {
	ExprInfo
	X Expr
}

type AddrExpr struct {
	ExprInfo
	X Expr
}

// MemberExpr is struct/union member access. "p->f" parses as "(*p).f".
// Field and Offset are filled by the scope resolver; Offset accounts for
// any anonymous members crossed on the way to the field.
type MemberExpr struct {
	ExprInfo
	X      Expr
	Name   string
	Field  *types.Field
	Offset int
}

type CallExpr struct {
	ExprInfo
	Name string
	Args []Expr
	Sym  *Symbol
}

type CastExpr struct {
	ExprInfo
	To TypeExpr
	X  Expr
}

// SizeofExpr is sizeof applied to an expression or a parenthesized type
// name; exactly one of X and To is set. The operand is typed but never
// evaluated; Size is the computed result.
type SizeofExpr struct {
	ExprInfo
	X    Expr
	To   TypeExpr
	Size int
}

// Symbol is a resolved declaration, bound to identifiers by the scope
// resolver. For a function, Params and Ret describe the signature; for a
// variable, Offset locates its storage (frame-relative for locals and
// parameters, globals-segment-relative for globals).
type Symbol struct {
	Name   string
	Type   *types.Type
	Global bool
	Offset int

	// Function symbols only.
	IsFunc bool
	Params []*types.Type
	Ret    *types.Type
}
