package vm

import (
	"errors"
	"math"
	"testing"

	"github.com/afterwise/scriptshader/compiler"
)

func mustCompile(t *testing.T, src string) *compiler.Image {
	t.Helper()
	img, err := compiler.Compile([]byte(src))
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return img
}

func approxEqual(a, b float32) bool {
	if math.IsNaN(float64(a)) && math.IsNaN(float64(b)) {
		return true
	}
	return math.Abs(float64(a-b)) < 1e-4
}

func TestCallSeedSuite(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		in   []float32
		want []float32
	}{
		{
			name: "increment",
			src:  "function f(x) { x = x + 1; }",
			fn:   "f",
			in:   []float32{10},
			want: []float32{11},
		},
		{
			name: "multiply",
			src:  "function f(x, y) { x = x * y; }",
			fn:   "f",
			in:   []float32{3, 4},
			want: []float32{12},
		},
		{
			name: "circle area",
			src:  "function area(a, r) { a = pi * sqr(r); }",
			fn:   "area",
			in:   []float32{float32(math.NaN()), 2},
			want: []float32{12.566371},
		},
		{
			name: "sector area",
			src:  "function sector(a, r, t) { a = 0.5 * sqr(r) * t; }",
			fn:   "sector",
			in:   []float32{float32(math.NaN()), 2, math.Pi},
			want: []float32{6.283185},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := mustCompile(t, tt.src)
			vars := append([]float32(nil), tt.in...)
			if err := New().Call(img, tt.fn, vars); err != nil {
				t.Fatalf("Call(%q) error: %v", tt.fn, err)
			}
			for i, want := range tt.want {
				if !approxEqual(vars[i], want) {
					t.Errorf("vars[%d] = %v, want %v", i, vars[i], want)
				}
			}
		})
	}
}

func TestCallSaturate(t *testing.T) {
	img := mustCompile(t, "function g(x) { float y = saturate(x); x = y; }")

	tests := []struct {
		in   float32
		want float32
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
	}

	for _, tt := range tests {
		// Slot 1 holds the local y, so the vector needs NumSlots (2) entries.
		vars := []float32{tt.in, 0}
		if err := New().Call(img, "g", vars); err != nil {
			t.Fatalf("Call error: %v", err)
		}
		if vars[0] != tt.want {
			t.Errorf("saturate(%v) = %v, want %v", tt.in, vars[0], tt.want)
		}
	}
}

func TestCallSaturateNaN(t *testing.T) {
	img := mustCompile(t, "function g(x) { float y = saturate(x); x = y; }")
	vars := []float32{float32(math.NaN()), 0}
	if err := New().Call(img, "g", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != 0 {
		t.Errorf("saturate(NaN) = %v, want 0", vars[0])
	}
}

func TestCallSel(t *testing.T) {
	img := mustCompile(t, "function h(x) { x = sel(x, 1, -1); }")

	tests := []struct {
		in   float32
		want float32
	}{
		{0, 1},
		{-0.1, -1},
	}

	for _, tt := range tests {
		vars := []float32{tt.in}
		if err := New().Call(img, "h", vars); err != nil {
			t.Fatalf("Call error: %v", err)
		}
		if vars[0] != tt.want {
			t.Errorf("sel(%v, 1, -1) = %v, want %v", tt.in, vars[0], tt.want)
		}
	}
}

func TestCallMinMax(t *testing.T) {
	img := mustCompile(t, "function f(x, y) { x = min(x, y); y = max(x, y); }")
	vars := []float32{7, 3}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != 3 {
		t.Errorf("min(7, 3) = %v, want 3", vars[0])
	}
	if vars[1] != 3 {
		t.Errorf("max(3, 3) = %v, want 3", vars[1])
	}
}

func TestCallMaxMinNaN(t *testing.T) {
	// spec's per-opcode law is MAX(a,b) = a < b ? b : a and
	// MIN(a,b) = a < b ? a : b. IEEE comparisons with NaN are false in
	// both directions, so the two operand orders must NOT be symmetric:
	// max keeps a NaN first argument and drops a NaN second one, while
	// min drops a NaN first argument and keeps a NaN second one.
	nan := float32(math.NaN())

	img := mustCompile(t, "function f(a, b) { a = max(a, b); }")
	vars := []float32{nan, 5}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if !math.IsNaN(float64(vars[0])) {
		t.Errorf("max(NaN, 5) = %v, want NaN", vars[0])
	}

	vars = []float32{5, nan}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != 5 {
		t.Errorf("max(5, NaN) = %v, want 5", vars[0])
	}

	img = mustCompile(t, "function f(a, b) { a = min(a, b); }")
	vars = []float32{nan, 5}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != 5 {
		t.Errorf("min(NaN, 5) = %v, want 5", vars[0])
	}

	vars = []float32{5, nan}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if !math.IsNaN(float64(vars[0])) {
		t.Errorf("min(5, NaN) = %v, want NaN", vars[0])
	}
}

func TestCallClamp(t *testing.T) {
	img := mustCompile(t, "function c(x, lo, hi) { x = clamp(x, lo, hi); }")

	tests := []struct {
		name      string
		x, lo, hi float32
		want      float32
	}{
		{"inside range", 5, 0, 10, 5},
		{"below range", -5, 0, 10, 0},
		{"above range", 15, 0, 10, 10},
		{"inverted bounds, lower wins", 5, 10, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := []float32{tt.x, tt.lo, tt.hi}
			if err := New().Call(img, "c", vars); err != nil {
				t.Fatalf("Call error: %v", err)
			}
			if vars[0] != tt.want {
				t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, vars[0], tt.want)
			}
		})
	}
}

func TestCallNotFound(t *testing.T) {
	img := mustCompile(t, "function f(x) { x = x; }")
	err := New().Call(img, "missing", []float32{0})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallReusesVMAcrossCalls(t *testing.T) {
	img := mustCompile(t, "function f(x) { x = x + 1; }")
	v := New()
	for i, want := range []float32{11, 12, 13} {
		vars := []float32{10 + float32(i)}
		if err := v.Call(img, "f", vars); err != nil {
			t.Fatalf("Call error: %v", err)
		}
		if vars[0] != want {
			t.Errorf("iteration %d: vars[0] = %v, want %v", i, vars[0], want)
		}
	}
}

func TestCallFlatPrecedence(t *testing.T) {
	img := mustCompile(t, "function f(x) { x = 1 + 2 * 3; }")
	vars := []float32{0}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != 9 {
		t.Errorf("1 + 2 * 3 = %v, want 9 (flat left-to-right precedence)", vars[0])
	}
}

func TestCallUnaryMinusGreedy(t *testing.T) {
	img := mustCompile(t, "function f(a, b) { a = -a * b; }")
	vars := []float32{2, 3}
	if err := New().Call(img, "f", vars); err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if vars[0] != -6 {
		t.Errorf("-a * b with a=2,b=3 = %v, want -6 (i.e. -(a*b))", vars[0])
	}
}
