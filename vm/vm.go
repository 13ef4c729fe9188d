// Package vm implements the back end: a stack-based interpreter over
// compiler.Image bytecode, with a single float32 accumulator plus a
// fixed-depth operand stack, executing against a caller-owned variable
// vector. Ported opcode-for-opcode from ssCall in the original
// implementation.
package vm

import (
	"encoding/binary"
	"math"

	"github.com/afterwise/scriptshader/compiler"
)

// VM is a reusable interpreter instance. Its only state is the operand
// stack, which is a fixed-size array embedded in the value — a VM
// allocates nothing beyond its own struct, and a single call mutates
// only the caller's variable vector and the VM's own stack frame. The
// zero value is ready to use.
type VM struct {
	st stack
}

// New returns a ready-to-use VM.
func New() *VM {
	return &VM{}
}

// Call runs the named function from image against vars, which the
// caller pre-fills with parameter values at slots 0..P-1. On return,
// vars holds the post-execution values. Call never mutates image.
//
// Call returns an error wrapping ErrNotFound if image has no function
// by that name. It never returns mid-function: a call either runs to its STOP or
// does not begin. A stack-pointer mismatch at STOP indicates
// mis-generated bytecode, not a fault in the script itself, so it is
// reported as a panic (*StackImbalanceError) rather than an error
// return — see spec §7.
func (vm *VM) Call(image *compiler.Image, name string, vars []float32) error {
	code, ok := lookup(image, name)
	if !ok {
		return notFoundError(name)
	}

	vm.st.reset()
	var eax float32
	pc := 0

	for {
		op := compiler.Opcode(code[pc])
		pc++

		switch op {
		case compiler.STOP:
			if !vm.st.balanced() {
				panic(&StackImbalanceError{Function: name})
			}
			return nil

		case compiler.PUSH:
			vm.st.push(eax)

		case compiler.CONST:
			eax = math.Float32frombits(binary.NativeEndian.Uint32(code[pc : pc+4]))
			pc += 4

		case compiler.LOAD:
			eax = vars[code[pc]]
			pc++

		case compiler.STORE:
			vars[code[pc]] = eax
			pc++

		case compiler.SEL:
			if vm.st.at(1) >= 0 {
				eax = vm.st.at(0)
			}
			vm.st.drop(2)

		case compiler.MIN:
			if vm.st.at(0) < eax {
				eax = vm.st.at(0)
			}
			vm.st.drop(1)

		case compiler.MAX:
			if vm.st.at(0) < eax {
			} else {
				eax = vm.st.at(0)
			}
			vm.st.drop(1)

		case compiler.CLAMP:
			x, lo, hi := vm.st.at(1), vm.st.at(0), eax
			if x >= lo {
				if x <= hi {
					eax = x
				} else {
					eax = hi
				}
			} else {
				eax = lo
			}
			vm.st.drop(2)

		case compiler.SATURATE:
			switch {
			case !(eax >= 0):
				eax = 0
			case eax > 1:
				eax = 1
			}

		case compiler.ADD:
			eax = vm.st.at(0) + eax
			vm.st.drop(1)

		case compiler.SUB:
			eax = vm.st.at(0) - eax
			vm.st.drop(1)

		case compiler.MUL:
			eax = vm.st.at(0) * eax
			vm.st.drop(1)

		case compiler.DIV:
			eax = vm.st.at(0) / eax
			vm.st.drop(1)

		case compiler.FLOOR:
			eax = float32(math.Floor(float64(eax)))

		case compiler.CEIL:
			eax = float32(math.Ceil(float64(eax)))

		case compiler.ABS:
			eax = float32(math.Abs(float64(eax)))

		case compiler.SQR:
			eax = eax * eax

		case compiler.SQRT:
			eax = float32(math.Sqrt(float64(eax)))

		case compiler.POW:
			eax = float32(math.Pow(float64(vm.st.at(0)), float64(eax)))
			vm.st.drop(1)

		case compiler.EXP:
			eax = float32(math.Exp(float64(eax)))

		case compiler.SIN:
			eax = float32(math.Sin(float64(eax)))

		case compiler.COS:
			eax = float32(math.Cos(float64(eax)))

		case compiler.ASIN:
			eax = float32(math.Asin(float64(eax)))

		case compiler.ACOS:
			eax = float32(math.Acos(float64(eax)))
		}
	}
}

// lookup returns the byte slice spanning a single function's body
// inside the image's shared arena.
func lookup(image *compiler.Image, name string) ([]byte, bool) {
	for i, fn := range image.Functions {
		if fn.Name != name {
			continue
		}
		end := len(image.Arena)
		if i+1 < len(image.Functions) {
			end = image.Functions[i+1].Code
		}
		return image.Arena[fn.Code:end], true
	}
	return nil, false
}
