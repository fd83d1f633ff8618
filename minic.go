// Package minic compiles a restricted C-like language and executes the
// result in-process. The only observable output of a compiled program is
// its exit status: the value returned by main reduced modulo 256.
package minic

import (
	"github.com/minic-lang/minic/internal/codegen"
	"github.com/minic-lang/minic/internal/parser"
	"github.com/minic-lang/minic/internal/sema"
	"github.com/minic-lang/minic/internal/vm"
)

// Program is a compiled translation unit ready to run.
type Program struct {
	mod *codegen.Module
}

// Compile runs the whole pipeline over one translation unit: lexing,
// parsing, scope and type resolution, then code generation. The error, if
// any, is a *diag.Error carrying the kind and source position of the first
// failure.
func Compile(src string) (*Program, error) {
	file, err := parser.ParseFile(src)
	if err != nil {
		return nil, err
	}
	unit, err := sema.Analyze(file)
	if err != nil {
		return nil, err
	}
	return &Program{mod: codegen.Generate(unit)}, nil
}

// Run executes the program and returns its exit status in [0, 255]. Each
// call executes on a fresh machine; programs with runtime faults (null
// dereference, division by zero, runaway recursion) return an error.
func (p *Program) Run() (int, error) {
	m, err := vm.New(p.mod)
	if err != nil {
		return 0, err
	}
	return m.Run()
}

// Module exposes the generated code, for listings and tests.
func (p *Program) Module() *codegen.Module { return p.mod }

// Run compiles and executes src in one step.
func Run(src string) (int, error) {
	prog, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return prog.Run()
}
