package codegen

import (
	"fmt"

	"github.com/minic-lang/minic/internal/ast"
	"github.com/minic-lang/minic/internal/sema"
	"github.com/minic-lang/minic/internal/types"
)

// Generate lowers a resolved unit to an executable module. The walk mirrors
// the expression structure: lvalue positions compile to addresses, rvalue
// use of an lvalue appends a load, and array-typed values stay addresses
// (decay).
func Generate(unit *sema.Unit) *Module {
	m := &Module{Funcs: map[string]*Func{}, GlobalsSize: unit.GlobalsSize}
	for _, ini := range unit.GlobalInits {
		m.Inits = append(m.Inits, GlobalInit(ini))
	}
	g := &gen{m: m}
	for _, fn := range unit.Funcs {
		g.genFunc(fn)
	}
	return m
}

type gen struct {
	m     *Module
	f     *Func
	retTy *types.Type
}

func (g *gen) genFunc(fn *sema.Func) {
	f := &Func{Name: fn.Decl.Name, FrameSize: fn.FrameSize}
	for _, p := range fn.ParamSyms {
		f.Params = append(f.Params, Slot{Offset: p.Offset, Size: p.Type.Size()})
	}
	g.f = f
	g.retTy = fn.Sym.Ret
	g.stmt(fn.Decl.Body)
	// Falling off the end returns 0.
	g.emit(Inst{Op: OpConst, Imm: 0})
	g.emit(Inst{Op: OpRet})
	g.m.Funcs[f.Name] = f
}

func (g *gen) emit(in Inst) int {
	g.f.Code = append(g.f.Code, in)
	return len(g.f.Code) - 1
}

func (g *gen) patch(at int) {
	g.f.Code[at].Imm = int64(len(g.f.Code))
}

func (g *gen) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		for _, st := range s.Stmts {
			g.stmt(st)
		}
	case *ast.ExprStmt:
		g.expr(s.X)
		g.emit(Inst{Op: OpDrop})
	case *ast.DeclStmt:
		for _, vd := range s.Group.Vars {
			if vd.Init == nil {
				continue
			}
			g.emit(Inst{Op: OpLocalAddr, Imm: int64(vd.Sym.Offset)})
			g.expr(vd.Init)
			g.emit(Inst{Op: OpStore, Size: vd.Sym.Type.Size()})
			g.emit(Inst{Op: OpDrop})
		}
	case *ast.ReturnStmt:
		g.expr(s.X)
		if g.retTy.IsInteger() && g.retTy.Size() < 8 {
			g.emit(Inst{Op: OpSignExt, Size: g.retTy.Size()})
		}
		g.emit(Inst{Op: OpRet})
	case *ast.IfStmt:
		g.expr(s.Cond)
		jz := g.emit(Inst{Op: OpJumpZero})
		g.stmt(s.Then)
		if s.Else == nil {
			g.patch(jz)
			return
		}
		j := g.emit(Inst{Op: OpJump})
		g.patch(jz)
		g.stmt(s.Else)
		g.patch(j)
	case *ast.WhileStmt:
		top := len(g.f.Code)
		g.expr(s.Cond)
		jz := g.emit(Inst{Op: OpJumpZero})
		g.stmt(s.Body)
		g.emit(Inst{Op: OpJump, Imm: int64(top)})
		g.patch(jz)
	case *ast.ForStmt:
		if s.Init != nil {
			g.expr(s.Init)
			g.emit(Inst{Op: OpDrop})
		}
		top := len(g.f.Code)
		jz := -1
		if s.Cond != nil {
			g.expr(s.Cond)
			jz = g.emit(Inst{Op: OpJumpZero})
		}
		g.stmt(s.Body)
		if s.Post != nil {
			g.expr(s.Post)
			g.emit(Inst{Op: OpDrop})
		}
		g.emit(Inst{Op: OpJump, Imm: int64(top)})
		if jz >= 0 {
			g.patch(jz)
		}
	}
}

// expr emits code leaving the expression's value on the stack. Array-typed
// expressions leave their address (array-to-pointer decay).
func (g *gen) expr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		g.emit(Inst{Op: OpConst, Imm: e.Value})
	case *ast.SizeofExpr:
		g.emit(Inst{Op: OpConst, Imm: int64(e.Size)})
	case *ast.Ident, *ast.DerefExpr, *ast.MemberExpr, *ast.StrLit:
		g.addr(e)
		if t := e.Info().Typ; t.Kind != types.Array {
			g.emit(Inst{Op: OpLoad, Size: t.Size()})
		}
	case *ast.BinaryExpr:
		g.binary(e)
	case *ast.AssignExpr:
		g.addr(e.X)
		g.expr(e.Y)
		g.emit(Inst{Op: OpStore, Size: e.X.Info().Typ.Size()})
	case *ast.CommaExpr:
		g.expr(e.X)
		g.emit(Inst{Op: OpDrop})
		g.expr(e.Y)
	case *ast.UnaryExpr:
		g.expr(e.X)
		if e.Op == ast.OpNeg {
			g.emit(Inst{Op: OpNeg})
			g.truncTo(e.Info().Typ)
		}
	case *ast.AddrExpr:
		g.addr(e.X)
	case *ast.CastExpr:
		g.expr(e.X)
		g.truncTo(e.Info().Typ)
	case *ast.CallExpr:
		for _, a := range e.Args {
			g.expr(a)
		}
		g.emit(Inst{Op: OpCall, Sym: e.Name, Imm: int64(len(e.Args))})
	default:
		panic(fmt.Sprintf("codegen: unexpected expression %T", e))
	}
}

// addr emits code leaving the address of an lvalue on the stack.
func (g *gen) addr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Ident:
		if e.Sym.Global {
			g.emit(Inst{Op: OpGlobalAddr, Imm: int64(e.Sym.Offset)})
		} else {
			g.emit(Inst{Op: OpLocalAddr, Imm: int64(e.Sym.Offset)})
		}
	case *ast.StrLit:
		e.Index = g.intern(e.Value)
		g.emit(Inst{Op: OpStrAddr, Imm: int64(e.Index)})
	case *ast.DerefExpr:
		g.expr(e.X)
	case *ast.MemberExpr:
		g.addr(e.X)
		if e.Offset != 0 {
			g.emit(Inst{Op: OpConst, Imm: int64(e.Offset)})
			g.emit(Inst{Op: OpAdd})
		}
	case *ast.CommaExpr:
		g.expr(e.X)
		g.emit(Inst{Op: OpDrop})
		g.addr(e.Y)
	default:
		panic(fmt.Sprintf("codegen: not an lvalue: %T", e))
	}
}

func (g *gen) binary(e *ast.BinaryExpr) {
	g.expr(e.X)
	g.expr(e.Y)
	// Pointer arithmetic scales the integer operand by the pointee size;
	// sema has canonicalized the pointer to the left.
	if e.Scale > 1 {
		g.emit(Inst{Op: OpConst, Imm: int64(e.Scale)})
		g.emit(Inst{Op: OpMul})
	}
	switch e.Op {
	case ast.OpAdd:
		g.emit(Inst{Op: OpAdd})
	case ast.OpSub:
		g.emit(Inst{Op: OpSub})
	case ast.OpMul:
		g.emit(Inst{Op: OpMul})
	case ast.OpDiv:
		g.emit(Inst{Op: OpDiv})
	case ast.OpEq:
		g.emit(Inst{Op: OpEq})
	case ast.OpNe:
		g.emit(Inst{Op: OpNe})
	case ast.OpLt:
		g.emit(Inst{Op: OpLt})
	case ast.OpLe:
		g.emit(Inst{Op: OpLe})
	case ast.OpGt:
		g.emit(Inst{Op: OpGt})
	case ast.OpGe:
		g.emit(Inst{Op: OpGe})
	}
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		if e.Scale == 0 {
			g.truncTo(e.Info().Typ)
		}
	}
}

// truncTo wraps the top of the stack to the width of an integer type
// narrower than 8 bytes, keeping arithmetic faithful to the declared width.
func (g *gen) truncTo(t *types.Type) {
	if t.IsInteger() && t.Size() < 8 {
		g.emit(Inst{Op: OpSignExt, Size: t.Size()})
	}
}

func (g *gen) intern(b []byte) int {
	for i, s := range g.m.Strings {
		if string(s) == string(b) {
			return i
		}
	}
	g.m.Strings = append(g.m.Strings, b)
	return len(g.m.Strings) - 1
}
