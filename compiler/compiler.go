// Package compiler implements the front end: a single-pass recursive
// descent parser that emits bytecode directly as it descends, with no
// intermediate AST. It is also home to the Image the emitter builds
// (function descriptors plus the shared bytecode arena) since the two
// are produced together by the same pass.
//
// The grammar (informal):
//
//	program    := function*
//	function   := 'function' name '(' (name (',' name)*)? ')' '{' stmt* '}'
//	stmt       := 'float' name '=' expr ';'
//	            | name '=' expr ';'
//	expr       := term (binop term)*
//	term       := '(' expr ')'
//	            | '-' expr                 (* unary minus, greedy *)
//	            | builtin '(' expr (',' expr)* ')'
//	            | 'pi'
//	            | name
//	            | number
//	binop      := '+' | '-' | '*' | '/'
//
// All four binary operators share one precedence level: `1 + 2 * 3`
// compiles to `9`, not `7`. This is a deliberate language-design choice,
// not a bug to fix — see spec §9.
package compiler

import (
	"encoding/binary"
	"math"

	"github.com/afterwise/scriptshader/lexer"
	"github.com/afterwise/scriptshader/token"
)

// MaxSourceSize bounds the source buffer Compile will accept, matching
// spec's fail-loud-on-capacity design.
const MaxSourceSize = 1 << 20

// Compiler drives a Tokenizer and builds an Image one function at a
// time. The zero value is not usable; construct via Compile.
type Compiler struct {
	tok   *lexer.Tokenizer
	cur   token.Token
	img   *Image
	sym   *symbolTable
	nest  int
	depth int
}

// Compile parses source into a fresh Image. Any syntactic or semantic
// error aborts the entire load with a line-numbered *LoadError; no
// partial image is ever returned.
func Compile(source []byte) (*Image, error) {
	if len(source) > MaxSourceSize {
		return nil, newLoadError(0, SourceTooLarge,
			"source of %d bytes exceeds the %d byte limit", len(source), MaxSourceSize)
	}

	c := &Compiler{tok: lexer.New(source), img: &Image{}}

	for {
		if err := c.next(); err != nil {
			return nil, err
		}
		if c.cur.Type == token.EOF {
			return c.img, nil
		}
		if c.cur.Type != token.Name || c.cur.Text != "function" {
			return nil, newLoadError(c.tok.Line, UnexpectedToken, "expected function declaration")
		}
		if len(c.img.Functions) >= MaxFunctions {
			return nil, newLoadError(c.tok.Line, TooManyFunctions, "too many functions")
		}

		fn, err := c.parseFunction()
		if err != nil {
			return nil, err
		}
		c.img.Functions = append(c.img.Functions, fn)
	}
}

func (c *Compiler) next() error {
	_, err := c.tok.Next()
	if err != nil {
		if nte, ok := err.(*lexer.NameTooLongError); ok {
			return newLoadError(nte.Line, NameTooLong, "name %q is too long", nte.Name)
		}
		return err
	}
	c.cur = c.tok.Cur
	return nil
}

func (c *Compiler) emitByte(op Opcode) {
	c.img.Arena = append(c.img.Arena, byte(op))
}

func (c *Compiler) emitOperand(b byte) {
	c.img.Arena = append(c.img.Arena, b)
}

func (c *Compiler) emitConst(v float32) {
	c.img.Arena = binary.NativeEndian.AppendUint32(c.img.Arena, math.Float32bits(v))
}

// pushDepth tracks the operand stack depth a PUSH would leave the VM at,
// mirroring the run-time stack the same way emitOperand mirrors the
// arena: one PUSH ahead of the opcode that consumes it. It fails loud at
// compile time rather than letting the VM index past its fixed
// MaxStackDepth array at run time.
func (c *Compiler) pushDepth() error {
	c.depth++
	if c.depth > MaxStackDepth {
		return newLoadError(c.tok.Line, StackOverflow,
			"expression nesting exceeds the %d-deep operand stack", MaxStackDepth)
	}
	return nil
}

// popDepth accounts for n values an emitted opcode consumes off the
// operand stack (1 for a binop or min/max/pow, 2 for sel/clamp).
func (c *Compiler) popDepth(n int) {
	c.depth -= n
}

// parseFunction parses a single `function name(args) { stmt* }` and
// appends its compiled body to the shared arena, starting a fresh
// symbol table scoped to just this function.
func (c *Compiler) parseFunction() (Function, error) {
	if err := c.next(); err != nil {
		return Function{}, err
	}
	if c.cur.Type != token.Name {
		return Function{}, newLoadError(c.tok.Line, UnexpectedToken, "expected name in function declaration")
	}
	fn := Function{Name: c.cur.Text, Code: len(c.img.Arena)}
	c.sym = &symbolTable{}
	c.nest = 0
	c.depth = 0

	if err := c.next(); err != nil {
		return Function{}, err
	}
	if c.cur.Type != token.Punct || c.cur.Punct != '(' {
		return Function{}, newLoadError(c.tok.Line, UnexpectedToken, "expected open-parenthesis in function declaration")
	}

	for x := 0; ; x++ {
		if err := c.next(); err != nil {
			return Function{}, err
		}
		if c.cur.Type == token.Punct {
			if c.cur.Punct == ')' {
				break
			}
			if c.cur.Punct == ',' && x > 0 {
				if err := c.next(); err != nil {
					return Function{}, err
				}
			}
		}
		if c.cur.Type != token.Name {
			return Function{}, newLoadError(c.tok.Line, UnexpectedToken, "expected argument name in function declaration")
		}
		if _, ok := c.sym.declare(c.cur.Text); !ok {
			return Function{}, newLoadError(c.tok.Line, TooManyVariables, "too many variables")
		}
	}
	fn.Argc = len(c.sym.names)

	if err := c.next(); err != nil {
		return Function{}, err
	}
	if c.cur.Type != token.Punct || c.cur.Punct != '{' {
		return Function{}, newLoadError(c.tok.Line, UnexpectedToken, "expected open-bracket in function declaration")
	}

	for {
		if err := c.next(); err != nil {
			return Function{}, err
		}
		if c.cur.Type == token.Punct && c.cur.Punct == '}' {
			c.emitByte(STOP)
			fn.NumSlots = len(c.sym.names)
			return fn, nil
		}
		if err := c.parseStatement(); err != nil {
			return Function{}, err
		}
	}
}

func (c *Compiler) parseStatement() error {
	if c.cur.Type != token.Name {
		return newLoadError(c.tok.Line, UnexpectedToken, "expected name at beginning of statement")
	}
	if c.cur.Text == "float" {
		return c.parseVarDecl()
	}
	return c.parseAssign()
}

// parseVarDecl handles `float name = expr;`. The name is inserted into
// the symbol table *before* the initializer is parsed, so a
// self-referential initializer like `float x = x + 1;` is accepted: its
// RHS resolves to the slot being initialized, which at runtime holds
// whatever the caller's variable vector already had there.
func (c *Compiler) parseVarDecl() error {
	if err := c.next(); err != nil {
		return err
	}
	if c.cur.Type != token.Name {
		return newLoadError(c.tok.Line, UnexpectedToken, "expected variable name in declaration")
	}
	if _, ok := c.sym.declare(c.cur.Text); !ok {
		return newLoadError(c.tok.Line, TooManyVariables, "too many variables")
	}
	return c.parseAssign()
}

// parseAssign handles `name = expr;`, with c.cur already holding the
// target name token.
func (c *Compiler) parseAssign() error {
	name := c.cur.Text
	idx, ok := c.sym.resolve(name)
	if !ok {
		return newLoadError(c.tok.Line, UnresolvedVariable, "failed to resolve variable `%s'", name)
	}
	if err := c.next(); err != nil {
		return err
	}
	if c.cur.Type != token.Punct || c.cur.Punct != '=' {
		return newLoadError(c.tok.Line, UnexpectedToken, "expected assignment operator in statement")
	}
	if err := c.parseExpr(false); err != nil {
		return err
	}
	c.emitByte(STORE)
	c.emitOperand(byte(idx))
	return nil
}

// parseExpr compiles term (binop term)*, flattening all four operators
// to one precedence level. It returns once it sees `,`, `;`, or a
// balanced closing `)` — the expression-terminator protocol described in
// spec §4.3. isArgs marks whether the current expression is a
// builtin-call argument, which controls whether `,` is a legal
// terminator and whether a trailing `)` decrements the paren-nesting
// counter.
func (c *Compiler) parseExpr(isArgs bool) error {
	if err := c.parseTerm(isArgs); err != nil {
		return err
	}

	for c.cur.Type != token.Punct || (c.cur.Punct != ',' && c.cur.Punct != ';') {
		if err := c.next(); err != nil {
			return err
		}
		if c.cur.Type != token.Punct {
			return newLoadError(c.tok.Line, UnexpectedToken, "expected function call, operator or end of expression")
		}

		switch c.cur.Punct {
		case ',':
			if !isArgs {
				return newLoadError(c.tok.Line, UnexpectedToken, "unexpected comma not in function call")
			}
			return nil
		case ';':
			if c.nest > 0 {
				return newLoadError(c.tok.Line, UnbalancedParens, "unexpected semi-colon inside parenthesis")
			}
			return nil
		case ')':
			if !isArgs {
				c.nest--
				if c.nest < 0 {
					return newLoadError(c.tok.Line, UnbalancedParens, "unbalanced parentheses in expression")
				}
			}
			return nil
		case '+', '-', '*', '/':
			op := binaryOpcode(c.cur.Punct)
			if err := c.pushDepth(); err != nil {
				return err
			}
			c.emitByte(PUSH)
			if err := c.parseTerm(isArgs); err != nil {
				return err
			}
			c.emitByte(op)
			c.popDepth(1)
		default:
			return newLoadError(c.tok.Line, UnexpectedToken, "unknown operator in expression `%c'", c.cur.Punct)
		}
	}
	return nil
}

func binaryOpcode(b byte) Opcode {
	switch b {
	case '+':
		return ADD
	case '-':
		return SUB
	case '*':
		return MUL
	default:
		return DIV
	}
}

// parseTerm compiles a single term, leaving its value in the implicit
// accumulator. A term never pushes on exit.
func (c *Compiler) parseTerm(isArgs bool) error {
	if err := c.next(); err != nil {
		return err
	}

	switch c.cur.Type {
	case token.Punct:
		switch c.cur.Punct {
		case '(':
			c.nest++
			return c.parseExpr(false)
		case '-':
			// Unary minus is compiled as CONST 0; PUSH; <expr>; SUB,
			// where <expr> is a full sub-expression — unary minus binds
			// to everything to its right up to the nearest terminator.
			c.emitByte(CONST)
			c.emitConst(0)
			if err := c.pushDepth(); err != nil {
				return err
			}
			c.emitByte(PUSH)
			if err := c.parseExpr(isArgs); err != nil {
				return err
			}
			c.emitByte(SUB)
			c.popDepth(1)
			return nil
		default:
			return newLoadError(c.tok.Line, UnexpectedToken, "unexpected token in expression `%c'", c.cur.Punct)
		}

	case token.Name:
		if b, ok := lookupBuiltin(c.cur.Text); ok {
			if err := c.next(); err != nil {
				return err
			}
			if c.cur.Type != token.Punct || c.cur.Punct != '(' {
				return newLoadError(c.tok.Line, UnexpectedToken, "function used as variable")
			}
			for i := 0; i < b.arity-1; i++ {
				if err := c.parseExpr(true); err != nil {
					return err
				}
				if err := c.pushDepth(); err != nil {
					return err
				}
				c.emitByte(PUSH)
			}
			if err := c.parseExpr(true); err != nil {
				return err
			}
			c.emitByte(b.op)
			c.popDepth(b.arity - 1)
			return nil
		}
		if c.cur.Text == "pi" {
			c.emitByte(CONST)
			c.emitConst(piConstant)
			return nil
		}
		idx, ok := c.sym.resolve(c.cur.Text)
		if !ok {
			return newLoadError(c.tok.Line, UnresolvedVariable, "failed to resolve variable `%s'", c.cur.Text)
		}
		c.emitByte(LOAD)
		c.emitOperand(byte(idx))
		return nil

	case token.Number:
		c.emitByte(CONST)
		c.emitConst(c.cur.Num)
		return nil

	default:
		return newLoadError(c.tok.Line, UnexpectedToken, "unexpected end-of-file in expression")
	}
}
