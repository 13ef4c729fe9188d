// Package token defines the lexical categories produced by the tokenizer.
//
// The grammar only needs four kinds of token: end-of-input, a name
// (identifier or keyword — the parser tells them apart by context), a
// number literal, and a single punctuation byte. There is no token for
// strings, booleans or integers; every scripted value is a float.
package token

import "fmt"

// Type classifies a Token.
type Type int

const (
	// EOF marks the end of the source buffer.
	EOF Type = iota

	// Name is a maximal run of alphanumerics starting with a letter.
	// Carries its text in Token.Text.
	Name

	// Number is a parsed floating-point literal, carried in Token.Num.
	Number

	// Punct is a single punctuation byte, carried in Token.Punct. The
	// grammar uses ( ) { } , ; = + - * /; the tokenizer returns any other
	// byte as a Punct too and leaves rejecting it to the parser.
	Punct
)

// MaxNameLength is the longest identifier the tokenizer will accept,
// matching SS_MAX_NAME_SIZE - 1 in the original implementation.
const MaxNameLength = 63

func (t Type) String() string {
	switch t {
	case EOF:
		return "EOF"
	case Name:
		return "Name"
	case Number:
		return "Number"
	case Punct:
		return "Punct"
	default:
		return "Unknown"
	}
}

// Token is a tagged variant over the four lexical categories.
//
// Only the field matching Type is meaningful: Text for Name, Num for
// Number, Punct for Punct. The tokenizer keeps the current line number
// itself (see lexer.Tokenizer.Line), not per-token.
type Token struct {
	Type  Type
	Text  string
	Num   float32
	Punct byte
}

// Name constructs a Name token.
func NameToken(text string) Token { return Token{Type: Name, Text: text} }

// NumberToken constructs a Number token.
func NumberToken(v float32) Token { return Token{Type: Number, Num: v} }

// PunctToken constructs a Punct token.
func PunctToken(b byte) Token { return Token{Type: Punct, Punct: b} }

// String renders a Token for diagnostics and tests.
func (t Token) String() string {
	switch t.Type {
	case Name:
		return fmt.Sprintf("Name(%s)", t.Text)
	case Number:
		return fmt.Sprintf("Number(%g)", t.Num)
	case Punct:
		return fmt.Sprintf("Punct(%c)", t.Punct)
	default:
		return t.Type.String()
	}
}
