package compiler

// builtin describes one entry of the fixed built-in function table: a
// name that shadows any variable of the same name, the opcode its call
// compiles to, and the number of arguments it takes.
type builtin struct {
	name  string
	op    Opcode
	arity int
}

// builtins is the closed, fixed table of scripted function names. Ported
// directly from ssBuiltin in the original implementation — there is no
// dynamic registration and no user-defined functions can call each other,
// so this table is the entirety of what a name in call position can mean.
var builtins = []builtin{
	{"sel", SEL, 3},
	{"min", MIN, 2},
	{"max", MAX, 2},
	{"clamp", CLAMP, 3},
	{"saturate", SATURATE, 1},
	{"floor", FLOOR, 1},
	{"ceil", CEIL, 1},
	{"abs", ABS, 1},
	{"sqr", SQR, 1},
	{"sqrt", SQRT, 1},
	{"pow", POW, 2},
	{"exp", EXP, 1},
	{"sin", SIN, 1},
	{"cos", COS, 1},
	{"asin", ASIN, 1},
	{"acos", ACOS, 1},
}

func lookupBuiltin(name string) (builtin, bool) {
	for _, b := range builtins {
		if b.name == name {
			return b, true
		}
	}
	return builtin{}, false
}

// piConstant is the value the reserved name "pi" compiles to (a CONST
// emission, not a call).
const piConstant = 3.14159265358979323846
