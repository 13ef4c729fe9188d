package vm

import "github.com/afterwise/scriptshader/compiler"

// stack is the VM's fixed-depth operand stack. It never allocates: the
// backing array is part of the VM value itself, sized to
// compiler.MaxStackDepth, and sp starts at the top and grows downward —
// mirroring the original's `float stack[N], *sp = &stack[N]`.
type stack struct {
	data [compiler.MaxStackDepth]float32
	sp   int
}

func (s *stack) reset() {
	s.sp = compiler.MaxStackDepth
}

func (s *stack) push(v float32) {
	s.sp--
	s.data[s.sp] = v
}

// at returns the i-th element from the top, matching sp[i] in the
// opcode table: at(0) is the most recently pushed value.
func (s *stack) at(i int) float32 {
	return s.data[s.sp+i]
}

func (s *stack) drop(n int) {
	s.sp += n
}

func (s *stack) balanced() bool {
	return s.sp == compiler.MaxStackDepth
}
