// Package lexer implements the pull-driven tokenizer for scriptshader
// source.
//
// Unlike a conventional scan-everything-up-front lexer, a Tokenizer hands
// back exactly one token per call to Next, mirroring the original
// implementation's ssNextToken: the parser drives the tokenizer, not the
// other way round, so tokenizing and emitting bytecode stay interleaved
// in a single pass.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/afterwise/scriptshader/token"
)

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

// NameTooLongError reports a Name token longer than token.MaxNameLength.
type NameTooLongError struct {
	Line int32
	Name string
}

func (e *NameTooLongError) Error() string {
	return fmt.Sprintf("💥 line %d: name %q is too long", e.Line, e.Name)
}

// Tokenizer scans a source buffer one token at a time, tracking the
// current line. It never allocates a token slice: Cur holds the current
// token and Next overwrites it in place.
type Tokenizer struct {
	src  []byte
	pos  int
	Line int32

	// Cur is the most recently read token. Valid only after a successful
	// call to Next; the zero value is the EOF token.
	Cur token.Token
}

// New creates a Tokenizer positioned at the start of src. Call Next once
// per desired token; the tokenizer starts with no current token.
func New(src []byte) *Tokenizer {
	return &Tokenizer{src: src, Line: 1}
}

func (t *Tokenizer) peekByte() byte {
	if t.pos >= len(t.src) {
		return 0
	}
	return t.src[t.pos]
}

func (t *Tokenizer) byteAt(off int) byte {
	if t.pos+off >= len(t.src) {
		return 0
	}
	return t.src[t.pos+off]
}

func (t *Tokenizer) skipSpaceAndComments() {
	for {
		for t.pos < len(t.src) && isSpace(t.src[t.pos]) {
			if t.src[t.pos] == '\n' {
				t.Line++
			}
			t.pos++
		}
		if t.byteAt(0) == '/' && t.byteAt(1) == '/' {
			for t.pos < len(t.src) && t.src[t.pos] != '\n' {
				t.pos++
			}
			continue
		}
		return
	}
}

// Next scans the next token into t.Cur and returns it. It returns an
// error only for a Name exceeding token.MaxNameLength; all other input is
// lexically valid (unexpected punctuation is surfaced by the parser, not
// here — matching the original, which never rejects a Punct byte at the
// lexer level).
func (t *Tokenizer) Next() (token.Token, error) {
	t.skipSpaceAndComments()

	if t.pos >= len(t.src) {
		t.Cur = token.Token{Type: token.EOF}
		return t.Cur, nil
	}

	c := t.src[t.pos]

	switch {
	case isLetter(c):
		start := t.pos
		t.pos++
		for t.pos < len(t.src) && isAlnum(t.src[t.pos]) {
			t.pos++
		}
		name := string(t.src[start:t.pos])
		if len(name) > token.MaxNameLength {
			return token.Token{}, &NameTooLongError{Line: t.Line, Name: name}
		}
		t.Cur = token.NameToken(name)

	case isDigit(c) || (c == '-' && isDigit(t.byteAt(1))):
		// A leading '-' immediately followed by a digit is lexed as part
		// of the number, not as punctuation — this is deliberate source
		// compatibility with the original lexer, and it means `x-1`
		// (no space) tokenizes as two adjacent terms, Name("x") then
		// Number(-1), with no operator between them. See spec §9.
		start := t.pos
		t.pos++
		for t.pos < len(t.src) && (isDigit(t.src[t.pos]) || t.src[t.pos] == '.' ||
			t.src[t.pos] == 'e' || t.src[t.pos] == 'E' ||
			((t.src[t.pos] == '+' || t.src[t.pos] == '-') && t.pos > start &&
				(t.src[t.pos-1] == 'e' || t.src[t.pos-1] == 'E'))) {
			t.pos++
		}
		text := string(t.src[start:t.pos])
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			// strtod-style recovery: fall back to the longest valid
			// numeric prefix, shrinking the consumed range to match.
			for n := len(text) - 1; n > 0; n-- {
				if v2, err2 := strconv.ParseFloat(text[:n], 32); err2 == nil {
					v = v2
					t.pos = start + n
					err = nil
					break
				}
			}
			if err != nil {
				v = 0
			}
		}
		t.Cur = token.NumberToken(float32(v))

	default:
		t.pos++
		t.Cur = token.PunctToken(c)
	}

	return t.Cur, nil
}
