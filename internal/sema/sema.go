package sema

import (
	"math"

	"github.com/minic-lang/minic/internal/ast"
	"github.com/minic-lang/minic/internal/diag"
	"github.com/minic-lang/minic/internal/types"
)

// Unit is a fully resolved translation unit, ready for code generation.
type Unit struct {
	Funcs       []*Func
	GlobalsSize int
	GlobalInits []Init
}

// Func pairs a function definition with its frame layout. FrameSize covers
// all parameters and locals, each at an offset satisfying its alignment.
type Func struct {
	Decl      *ast.FuncDecl
	Sym       *ast.Symbol
	ParamSyms []*ast.Symbol
	FrameSize int
}

// Init is a constant initializer for a global: Size bytes of Value written
// at Offset in the globals segment before main runs. Globals without an
// initializer stay zero.
type Init struct {
	Offset int
	Size   int
	Value  int64
}

type checker struct {
	scopes   []*scope
	unit     *Unit
	frame    int
	resolved map[*ast.StructType]*types.Type
}

// Analyze resolves names and types over the whole unit in two passes:
// first every file-scope function and global is registered, then each
// function body is checked, so calls may reference functions defined later.
func Analyze(file *ast.File) (*Unit, error) {
	c := &checker{unit: &Unit{}, resolved: map[*ast.StructType]*types.Type{}}
	c.enterScope()

	for _, d := range file.Decls {
		switch d := d.(type) {
		case *ast.VarGroup:
			if err := c.globalGroup(d); err != nil {
				return nil, err
			}
		case *ast.FuncDecl:
			if err := c.registerFunc(d); err != nil {
				return nil, err
			}
		}
	}

	for _, fn := range c.unit.Funcs {
		if err := c.checkFunc(fn); err != nil {
			return nil, err
		}
	}
	return c.unit, nil
}

func (c *checker) globalGroup(g *ast.VarGroup) error {
	// Resolve the base first so a tag-only declaration still registers
	// its tag.
	if _, err := c.resolveType(g.Base); err != nil {
		return err
	}
	for _, vd := range g.Vars {
		ty, err := c.resolveType(vd.Type)
		if err != nil {
			return err
		}
		if ty.Kind == types.Void {
			return diag.Typef(vd.Pos, "variable %q declared void", vd.Name)
		}
		off := types.AlignTo(c.unit.GlobalsSize, ty.Align())
		c.unit.GlobalsSize = off + ty.Size()
		sym := &ast.Symbol{Name: vd.Name, Type: ty, Global: true, Offset: off}
		if err := c.declare(sym, vd.Pos); err != nil {
			return err
		}
		vd.Sym = sym
		if vd.Init != nil {
			v, ok := constInt(vd.Init)
			if !ok {
				return diag.Typef(vd.Pos, "global initializer must be an integer constant")
			}
			if !ty.IsInteger() {
				return diag.Typef(vd.Pos, "invalid initializer for %s", ty)
			}
			c.unit.GlobalInits = append(c.unit.GlobalInits, Init{Offset: off, Size: ty.Size(), Value: v})
		}
	}
	return nil
}

func constInt(e ast.Expr) (int64, bool) {
	switch e := e.(type) {
	case *ast.IntLit:
		return e.Value, true
	case *ast.UnaryExpr:
		if v, ok := constInt(e.X); ok && e.Op == ast.OpNeg {
			return -v, true
		}
	}
	return 0, false
}

func (c *checker) registerFunc(d *ast.FuncDecl) error {
	ret, err := c.resolveType(d.Ret)
	if err != nil {
		return err
	}
	if ret.IsAggregate() || ret.Kind == types.Array {
		return diag.Typef(d.Pos, "function %q must return an integer-class value", d.Name)
	}
	sym := &ast.Symbol{Name: d.Name, IsFunc: true, Ret: ret}
	for _, p := range d.Params {
		pt, err := c.resolveType(p.Type)
		if err != nil {
			return err
		}
		// Array parameters decay to pointers at the boundary.
		if pt.Kind == types.Array {
			pt = types.PointerTo(pt.Elem)
		}
		if !pt.IsInteger() && pt.Kind != types.Ptr {
			return diag.Typef(p.Pos, "parameter %q must be integer-class", p.Name)
		}
		sym.Params = append(sym.Params, pt)
	}
	if err := c.declare(sym, d.Pos); err != nil {
		return err
	}
	c.unit.Funcs = append(c.unit.Funcs, &Func{Decl: d, Sym: sym})
	return nil
}

func (c *checker) checkFunc(fn *Func) error {
	c.frame = 0
	c.enterScope()
	for i, p := range fn.Decl.Params {
		ty := fn.Sym.Params[i]
		sym := &ast.Symbol{Name: p.Name, Type: ty, Offset: c.alloc(ty)}
		if err := c.declare(sym, p.Pos); err != nil {
			return err
		}
		fn.ParamSyms = append(fn.ParamSyms, sym)
	}
	if err := c.checkBlock(fn.Decl.Body); err != nil {
		return err
	}
	c.leaveScope()
	fn.FrameSize = types.AlignTo(c.frame, 8)
	return nil
}

// alloc reserves frame storage for one local, honoring its alignment.
// Sibling blocks do not share slots; offsets only grow within a function.
func (c *checker) alloc(ty *types.Type) int {
	off := types.AlignTo(c.frame, ty.Align())
	c.frame = off + ty.Size()
	return off
}

func (c *checker) checkBlock(b *ast.BlockStmt) error {
	c.enterScope()
	defer c.leaveScope()
	for _, s := range b.Stmts {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) checkStmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.BlockStmt:
		return c.checkBlock(s)
	case *ast.ExprStmt:
		return c.checkExpr(s.X)
	case *ast.ReturnStmt:
		if err := c.checkExpr(s.X); err != nil {
			return err
		}
		if t := decayed(s.X); t.IsAggregate() {
			return diag.Typef(s.Pos, "cannot return a %s value", t)
		}
		return nil
	case *ast.DeclStmt:
		return c.localGroup(s.Group)
	case *ast.IfStmt:
		if err := c.checkCond(s.Cond); err != nil {
			return err
		}
		if err := c.checkStmt(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return c.checkStmt(s.Else)
		}
		return nil
	case *ast.WhileStmt:
		if err := c.checkCond(s.Cond); err != nil {
			return err
		}
		return c.checkStmt(s.Body)
	case *ast.ForStmt:
		if s.Init != nil {
			if err := c.checkExpr(s.Init); err != nil {
				return err
			}
		}
		if s.Cond != nil {
			if err := c.checkCond(s.Cond); err != nil {
				return err
			}
		}
		if s.Post != nil {
			if err := c.checkExpr(s.Post); err != nil {
				return err
			}
		}
		return c.checkStmt(s.Body)
	}
	return nil
}

func (c *checker) checkCond(e ast.Expr) error {
	if err := c.checkExpr(e); err != nil {
		return err
	}
	if decayed(e).IsAggregate() {
		return diag.Typef(e.Info().Pos, "condition must be scalar")
	}
	return nil
}

func (c *checker) localGroup(g *ast.VarGroup) error {
	if _, err := c.resolveType(g.Base); err != nil {
		return err
	}
	for _, vd := range g.Vars {
		ty, err := c.resolveType(vd.Type)
		if err != nil {
			return err
		}
		if ty.Kind == types.Void {
			return diag.Typef(vd.Pos, "variable %q declared void", vd.Name)
		}
		sym := &ast.Symbol{Name: vd.Name, Type: ty, Offset: c.alloc(ty)}
		if err := c.declare(sym, vd.Pos); err != nil {
			return err
		}
		vd.Sym = sym
		if vd.Init != nil {
			if err := c.checkExpr(vd.Init); err != nil {
				return err
			}
			if ty.Kind == types.Array || ty.IsAggregate() {
				return diag.Typef(vd.Pos, "cannot initialize a %s", ty)
			}
			if decayed(vd.Init).IsAggregate() {
				return diag.Typef(vd.Pos, "invalid initializer")
			}
		}
	}
	return nil
}

// decayed is the type of e as an rvalue operand: arrays become pointers to
// their first element.
func decayed(e ast.Expr) *types.Type {
	t := e.Info().Typ
	if t.Kind == types.Array {
		return types.PointerTo(t.Elem)
	}
	return t
}

func (c *checker) checkExpr(e ast.Expr) error {
	info := e.Info()
	switch e := e.(type) {
	case *ast.IntLit:
		if e.Value > math.MaxInt32 || e.Value < math.MinInt32 {
			info.Typ = types.TLong
		} else {
			info.Typ = types.TInt
		}
	case *ast.StrLit:
		info.Typ = types.ArrayOf(types.TChar, len(e.Value))
		info.Lvalue = true
	case *ast.Ident:
		sym := c.lookup(e.Name)
		if sym == nil {
			return diag.Namef(info.Pos, "undeclared identifier %q", e.Name)
		}
		if sym.IsFunc {
			return diag.Typef(info.Pos, "function %q used as a value", e.Name)
		}
		e.Sym = sym
		info.Typ = sym.Type
		info.Lvalue = true
	case *ast.BinaryExpr:
		return c.checkBinary(e)
	case *ast.AssignExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		if err := c.checkExpr(e.Y); err != nil {
			return err
		}
		lv := e.X.Info()
		if !lv.Lvalue || lv.Typ.Kind == types.Array {
			return diag.Typef(info.Pos, "not an assignable lvalue")
		}
		if lv.Typ.IsAggregate() || decayed(e.Y).IsAggregate() {
			return diag.Typef(info.Pos, "cannot assign aggregate values")
		}
		info.Typ = lv.Typ
	case *ast.CommaExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		if err := c.checkExpr(e.Y); err != nil {
			return err
		}
		info.Typ = e.Y.Info().Typ
		info.Lvalue = e.Y.Info().Lvalue
	case *ast.UnaryExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		if !e.X.Info().Typ.IsInteger() {
			return diag.Typef(info.Pos, "operand must be an integer")
		}
		info.Typ = types.Common(types.TInt, e.X.Info().Typ)
	case *ast.DerefExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		t := e.X.Info().Typ
		if !t.HasBase() {
			return diag.Typef(info.Pos, "invalid pointer dereference")
		}
		if t.Elem.Kind == types.Void {
			return diag.Typef(info.Pos, "dereferencing a void pointer")
		}
		info.Typ = t.Elem
		info.Lvalue = true
	case *ast.AddrExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		xi := e.X.Info()
		if !xi.Lvalue {
			return diag.Typef(info.Pos, "cannot take the address of an rvalue")
		}
		if xi.Typ.Kind == types.Array {
			info.Typ = types.PointerTo(xi.Typ.Elem)
		} else {
			info.Typ = types.PointerTo(xi.Typ)
		}
	case *ast.MemberExpr:
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		t := e.X.Info().Typ
		if !t.IsAggregate() {
			return diag.Typef(info.Pos, "not a struct nor a union")
		}
		f, off := t.FindField(e.Name)
		if f == nil {
			return diag.Namef(info.Pos, "no member %q", e.Name)
		}
		e.Field = f
		e.Offset = off
		info.Typ = f.Type
		info.Lvalue = e.X.Info().Lvalue
	case *ast.CallExpr:
		sym := c.lookup(e.Name)
		if sym == nil {
			return diag.Namef(info.Pos, "undeclared identifier %q", e.Name)
		}
		if !sym.IsFunc {
			return diag.Typef(info.Pos, "%q is not a function", e.Name)
		}
		if len(e.Args) != len(sym.Params) {
			return diag.Typef(info.Pos, "%q expects %d arguments, got %d", e.Name, len(sym.Params), len(e.Args))
		}
		for _, a := range e.Args {
			if err := c.checkExpr(a); err != nil {
				return err
			}
			if decayed(a).IsAggregate() {
				return diag.Typef(a.Info().Pos, "cannot pass a %s by value", decayed(a))
			}
		}
		e.Sym = sym
		info.Typ = sym.Ret
	case *ast.CastExpr:
		to, err := c.resolveType(e.To)
		if err != nil {
			return err
		}
		if err := c.checkExpr(e.X); err != nil {
			return err
		}
		if !to.IsInteger() && to.Kind != types.Ptr {
			return diag.Typef(info.Pos, "invalid cast target %s", to)
		}
		if decayed(e.X).IsAggregate() {
			return diag.Typef(info.Pos, "cannot cast a %s", decayed(e.X))
		}
		info.Typ = to
	case *ast.SizeofExpr:
		// The operand is typed but never evaluated, and arrays do not
		// decay under sizeof.
		if e.To != nil {
			t, err := c.resolveType(e.To)
			if err != nil {
				return err
			}
			e.Size = t.Size()
		} else {
			if err := c.checkExpr(e.X); err != nil {
				return err
			}
			e.Size = e.X.Info().Typ.Size()
		}
		info.Typ = types.TLong
	}
	return nil
}

func (c *checker) checkBinary(e *ast.BinaryExpr) error {
	if err := c.checkExpr(e.X); err != nil {
		return err
	}
	if err := c.checkExpr(e.Y); err != nil {
		return err
	}
	info := e.Info()
	tx, ty := decayed(e.X), decayed(e.Y)
	if tx.IsAggregate() || ty.IsAggregate() {
		return diag.Typef(info.Pos, "invalid operands")
	}

	switch e.Op {
	case ast.OpAdd:
		switch {
		case tx.Kind == types.Ptr && ty.IsInteger():
			e.Scale = tx.Elem.Size()
			info.Typ = tx
		case ty.Kind == types.Ptr && tx.IsInteger():
			// Canonicalize: pointer on the left.
			e.X, e.Y = e.Y, e.X
			tx, ty = ty, tx
			e.Scale = tx.Elem.Size()
			info.Typ = tx
		case tx.IsInteger() && ty.IsInteger():
			info.Typ = types.Common(tx, ty)
		default:
			return diag.Typef(info.Pos, "invalid operands to +")
		}
	case ast.OpSub:
		switch {
		case tx.Kind == types.Ptr && ty.IsInteger():
			e.Scale = tx.Elem.Size()
			info.Typ = tx
		case tx.IsInteger() && ty.IsInteger():
			info.Typ = types.Common(tx, ty)
		default:
			return diag.Typef(info.Pos, "invalid operands to -")
		}
	case ast.OpMul, ast.OpDiv:
		if !tx.IsInteger() || !ty.IsInteger() {
			return diag.Typef(info.Pos, "invalid operands")
		}
		info.Typ = types.Common(tx, ty)
	default:
		// Comparisons: both integer, or both pointer-class.
		ok := (tx.IsInteger() && ty.IsInteger()) ||
			(tx.Kind == types.Ptr && ty.Kind == types.Ptr)
		if !ok {
			return diag.Typef(info.Pos, "invalid comparison operands")
		}
		info.Typ = types.TInt
	}
	return nil
}

// resolveType turns a syntactic type into a canonical one. Struct/union
// specifier nodes are resolved at most once (a declarator list shares its
// base), so a body registers its tag exactly once.
func (c *checker) resolveType(te ast.TypeExpr) (*types.Type, error) {
	switch te := te.(type) {
	case *ast.BaseType:
		switch te.Kind {
		case types.Void:
			return types.TVoid, nil
		case types.Char:
			return types.TChar, nil
		case types.Short:
			return types.TShort, nil
		case types.Int:
			return types.TInt, nil
		case types.Long:
			return types.TLong, nil
		}
	case *ast.PtrType:
		base, err := c.resolveType(te.Elem)
		if err != nil {
			return nil, err
		}
		return types.PointerTo(base), nil
	case *ast.ArrayType:
		elem, err := c.resolveType(te.Elem)
		if err != nil {
			return nil, err
		}
		if elem.Kind == types.Void {
			return nil, diag.Typef(te.Pos, "array of void")
		}
		return types.ArrayOf(elem, te.Len), nil
	case *ast.StructType:
		if ty, ok := c.resolved[te]; ok {
			return ty, nil
		}
		if !te.HasBody {
			ty := c.lookupTag(te.Tag)
			if ty == nil {
				return nil, diag.Typef(te.Pos, "unknown type name %q", te.Tag)
			}
			want := types.Struct
			if te.Union {
				want = types.Union
			}
			if ty.Kind != want {
				return nil, diag.Typef(te.Pos, "tag %q declared as a different aggregate kind", te.Tag)
			}
			return ty, nil
		}
		var fields []*types.Field
		seen := map[string]bool{}
		for _, fd := range te.Fields {
			ft, err := c.resolveType(fd.Type)
			if err != nil {
				return nil, err
			}
			if ft.Kind == types.Void {
				return nil, diag.Typef(fd.Pos, "member %q declared void", fd.Name)
			}
			if fd.Name != "" {
				if seen[fd.Name] {
					return nil, diag.Namef(fd.Pos, "duplicate member %q", fd.Name)
				}
				seen[fd.Name] = true
			}
			fields = append(fields, &types.Field{Name: fd.Name, Type: ft})
		}
		var ty *types.Type
		if te.Union {
			ty = types.UnionOf(fields)
		} else {
			ty = types.StructOf(fields)
		}
		c.resolved[te] = ty
		if te.Tag != "" {
			if err := c.declareTag(te.Tag, ty, te.Pos); err != nil {
				return nil, err
			}
		}
		return ty, nil
	}
	return nil, diag.Typef(diag.Pos{}, "unresolvable type")
}
