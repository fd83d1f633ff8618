package codegen

import "fmt"

// Op is one abstract machine operation. The machine is a stack machine over
// 64-bit signed values with a flat byte-addressable memory; comparisons
// push 0 or 1.
type Op int

const (
	OpConst Op = iota // push Imm

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpLocalAddr  // push frame base + Imm
	OpGlobalAddr // push globals base + Imm
	OpStrAddr    // push address of string literal Imm

	OpLoad    // pop addr, push Size bytes sign-extended
	OpStore   // pop value, pop addr, write low Size bytes, push value back
	OpDrop    // pop
	OpSignExt // truncate top of stack to Size bytes and sign-extend

	OpJump     // jump to Imm
	OpJumpZero // pop; jump to Imm when zero
	OpCall     // pop Imm args (pushed left to right), call Sym, push result
	OpRet      // pop return value, leave the function
)

var opNames = [...]string{
	OpConst: "const", OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpNeg: "neg", OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt",
	OpGe: "ge", OpLocalAddr: "laddr", OpGlobalAddr: "gaddr", OpStrAddr: "saddr",
	OpLoad: "load", OpStore: "store", OpDrop: "drop", OpSignExt: "sext",
	OpJump: "jmp", OpJumpZero: "jz", OpCall: "call", OpRet: "ret",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// Inst is one emitted operation. Imm carries a constant, offset, or jump
// target; Size a memory access width; Sym a callee name.
type Inst struct {
	Op   Op
	Imm  int64
	Size int
	Sym  string
}

func (in Inst) String() string {
	switch in.Op {
	case OpConst, OpLocalAddr, OpGlobalAddr, OpStrAddr, OpJump, OpJumpZero:
		return fmt.Sprintf("%s %d", in.Op, in.Imm)
	case OpLoad, OpStore, OpSignExt:
		return fmt.Sprintf("%s %d", in.Op, in.Size)
	case OpCall:
		return fmt.Sprintf("call %s/%d", in.Sym, in.Imm)
	default:
		return in.Op.String()
	}
}

// Slot locates one parameter in a function frame.
type Slot struct {
	Offset int
	Size   int
}

// Func is the generated code for one function.
type Func struct {
	Name      string
	FrameSize int
	Params    []Slot
	Code      []Inst
}

// Module is a complete generated program: all functions, the globals
// segment size, constant global initializers, and the interned string
// literals (decoded bytes, NUL included).
type Module struct {
	Funcs       map[string]*Func
	GlobalsSize int
	Inits       []GlobalInit
	Strings     [][]byte
}

type GlobalInit struct {
	Offset int
	Size   int
	Value  int64
}
