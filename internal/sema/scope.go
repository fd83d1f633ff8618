package sema

import (
	"github.com/minic-lang/minic/internal/ast"
	"github.com/minic-lang/minic/internal/diag"
	"github.com/minic-lang/minic/internal/types"
)

// scope is one lexical block. Variables and struct/union tags live in
// separate namespaces, as in C.
type scope struct {
	vars map[string]*ast.Symbol
	tags map[string]*types.Type
}

func newScope() *scope {
	return &scope{vars: map[string]*ast.Symbol{}, tags: map[string]*types.Type{}}
}

func (c *checker) enterScope() { c.scopes = append(c.scopes, newScope()) }

func (c *checker) leaveScope() { c.scopes = c.scopes[:len(c.scopes)-1] }

// declare binds a symbol in the innermost scope. Redeclaring a name already
// bound in the same scope is an error; shadowing an outer binding is not.
func (c *checker) declare(sym *ast.Symbol, pos diag.Pos) error {
	s := c.scopes[len(c.scopes)-1]
	if _, ok := s.vars[sym.Name]; ok {
		return diag.Namef(pos, "%q redeclared in this scope", sym.Name)
	}
	s.vars[sym.Name] = sym
	return nil
}

// lookup resolves a name innermost-first through the scope stack.
func (c *checker) lookup(name string) *ast.Symbol {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if sym, ok := c.scopes[i].vars[name]; ok {
			return sym
		}
	}
	return nil
}

func (c *checker) declareTag(name string, ty *types.Type, pos diag.Pos) error {
	s := c.scopes[len(c.scopes)-1]
	if _, ok := s.tags[name]; ok {
		return diag.Namef(pos, "tag %q redeclared in this scope", name)
	}
	s.tags[name] = ty
	return nil
}

func (c *checker) lookupTag(name string) *types.Type {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if ty, ok := c.scopes[i].tags[name]; ok {
			return ty
		}
	}
	return nil
}
