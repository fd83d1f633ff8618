package vm

import (
	"fmt"

	"github.com/minic-lang/minic/internal/codegen"
)

const (
	memorySize = 1 << 20
	// Guard region at the bottom of the address space so that address 0
	// (and small offsets off a null pointer) always fault.
	guardSize = 1 << 12
	maxDepth  = 1 << 14
)

// Machine executes a generated module. Memory is flat and byte-addressable:
// a guard region, then the zero-initialized globals segment, the interned
// string literals, and a frame region that grows with the call stack.
// Local variables are not cleared on function entry.
type Machine struct {
	mod      *codegen.Module
	mem      []byte
	stack    []int64
	strAddrs []int64
	globals  int64
	frameTop int
	depth    int
}

func New(mod *codegen.Module) (*Machine, error) {
	m := &Machine{mod: mod, mem: make([]byte, memorySize)}
	next := guardSize
	m.globals = int64(next)
	next += mod.GlobalsSize
	for _, ini := range mod.Inits {
		m.storeBytes(m.globals+int64(ini.Offset), ini.Value, ini.Size)
	}
	for _, s := range mod.Strings {
		m.strAddrs = append(m.strAddrs, int64(next))
		copy(m.mem[next:], s)
		next += len(s)
	}
	m.frameTop = align(next, 16)
	return m, nil
}

// Run calls main and returns its value reduced to the low 8 bits, the
// process exit status.
func (m *Machine) Run() (int, error) {
	f, ok := m.mod.Funcs["main"]
	if !ok {
		return 0, fmt.Errorf("no main function")
	}
	v, err := m.call(f, nil)
	if err != nil {
		return 0, err
	}
	return int(uint8(v)), nil
}

func (m *Machine) call(f *codegen.Func, args []int64) (int64, error) {
	if m.depth >= maxDepth {
		return 0, fmt.Errorf("call depth limit exceeded in %s", f.Name)
	}
	base := align(m.frameTop, 16)
	if base+f.FrameSize > len(m.mem) {
		return 0, fmt.Errorf("out of stack space in %s", f.Name)
	}
	m.depth++
	savedTop := m.frameTop
	m.frameTop = base + f.FrameSize
	defer func() {
		m.frameTop = savedTop
		m.depth--
	}()

	for i, slot := range f.Params {
		m.storeBytes(int64(base+slot.Offset), args[i], slot.Size)
	}

	for pc := 0; pc < len(f.Code); {
		in := f.Code[pc]
		pc++
		switch in.Op {
		case codegen.OpConst:
			m.push(in.Imm)
		case codegen.OpAdd:
			b, a := m.pop(), m.pop()
			m.push(a + b)
		case codegen.OpSub:
			b, a := m.pop(), m.pop()
			m.push(a - b)
		case codegen.OpMul:
			b, a := m.pop(), m.pop()
			m.push(a * b)
		case codegen.OpDiv:
			b, a := m.pop(), m.pop()
			if b == 0 {
				return 0, fmt.Errorf("division by zero in %s", f.Name)
			}
			m.push(a / b)
		case codegen.OpNeg:
			m.push(-m.pop())
		case codegen.OpEq:
			m.pushBool(m.pop() == m.pop())
		case codegen.OpNe:
			m.pushBool(m.pop() != m.pop())
		case codegen.OpLt:
			b, a := m.pop(), m.pop()
			m.pushBool(a < b)
		case codegen.OpLe:
			b, a := m.pop(), m.pop()
			m.pushBool(a <= b)
		case codegen.OpGt:
			b, a := m.pop(), m.pop()
			m.pushBool(a > b)
		case codegen.OpGe:
			b, a := m.pop(), m.pop()
			m.pushBool(a >= b)
		case codegen.OpLocalAddr:
			m.push(int64(base) + in.Imm)
		case codegen.OpGlobalAddr:
			m.push(m.globals + in.Imm)
		case codegen.OpStrAddr:
			m.push(m.strAddrs[in.Imm])
		case codegen.OpLoad:
			addr := m.pop()
			if err := m.check(addr, in.Size, f.Name); err != nil {
				return 0, err
			}
			m.push(m.loadBytes(addr, in.Size))
		case codegen.OpStore:
			v, addr := m.pop(), m.pop()
			if err := m.check(addr, in.Size, f.Name); err != nil {
				return 0, err
			}
			m.storeBytes(addr, v, in.Size)
			m.push(signExt(v, in.Size))
		case codegen.OpDrop:
			m.pop()
		case codegen.OpSignExt:
			m.push(signExt(m.pop(), in.Size))
		case codegen.OpJump:
			pc = int(in.Imm)
		case codegen.OpJumpZero:
			if m.pop() == 0 {
				pc = int(in.Imm)
			}
		case codegen.OpCall:
			callee, ok := m.mod.Funcs[in.Sym]
			if !ok {
				return 0, fmt.Errorf("call to unknown function %s", in.Sym)
			}
			n := int(in.Imm)
			args := make([]int64, n)
			for i := n - 1; i >= 0; i-- {
				args[i] = m.pop()
			}
			v, err := m.call(callee, args)
			if err != nil {
				return 0, err
			}
			m.push(v)
		case codegen.OpRet:
			return m.pop(), nil
		}
	}
	return 0, fmt.Errorf("fell off the end of %s", f.Name)
}

func (m *Machine) push(v int64) { m.stack = append(m.stack, v) }

func (m *Machine) pop() int64 {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) pushBool(b bool) {
	if b {
		m.push(1)
	} else {
		m.push(0)
	}
}

func (m *Machine) check(addr int64, size int, fn string) error {
	if addr < guardSize || addr+int64(size) > int64(len(m.mem)) {
		return fmt.Errorf("invalid memory access at %#x in %s", addr, fn)
	}
	return nil
}

func (m *Machine) loadBytes(addr int64, size int) int64 {
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(m.mem[addr+int64(i)]) << (8 * i)
	}
	return signExt(int64(v), size)
}

func (m *Machine) storeBytes(addr int64, v int64, size int) {
	for i := 0; i < size; i++ {
		m.mem[addr+int64(i)] = byte(v >> (8 * i))
	}
}

// signExt truncates v to size bytes and sign-extends the result. Narrow
// loads and stores read back signed.
func signExt(v int64, size int) int64 {
	if size >= 8 {
		return v
	}
	shift := 64 - 8*size
	return v << shift >> shift
}

func align(n, a int) int { return (n + a - 1) / a * a }
