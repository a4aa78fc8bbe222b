// Package expr parses and evaluates C constant expressions as they appear in
// #define bodies and enumerator initializers.
package expr

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokChar
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// multi-character operators, longest first
var operators = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^",
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\\':
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == 'L' && i+1 < len(src) && (src[i+1] == '\'' || src[i+1] == '"'):
			// wide literal prefix
			tok, next, err := scanQuoted(src, i+1)
			if err != nil {
				return nil, err
			}
			tok.pos = i
			tokens = append(tokens, tok)
			i = next
		case c == '\'' || c == '"':
			tok, next, err := scanQuoted(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			hex := c == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X')
			for i < len(src) {
				d := src[i]
				if isIdentPart(d) || d == '.' {
					i++
					continue
				}
				// exponent sign: 1e-5, 2.5E+3
				if !hex && (d == '+' || d == '-') && (src[i-1] == 'e' || src[i-1] == 'E') {
					i++
					continue
				}
				break
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op) {
					tokens = append(tokens, token{kind: tokOp, text: op, pos: i})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
			}
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

// scanQuoted reads a char or string literal starting at the opening quote.
// The token text is the decoded body.
func scanQuoted(src string, start int) (token, int, error) {
	quote := src[start]
	kind := tokChar
	if quote == '"' {
		kind = tokString
	}

	var body strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		if c == quote {
			return token{kind: kind, text: body.String(), pos: start}, i + 1, nil
		}
		if c == '\\' && i+1 < len(src) {
			r, n := decodeEscape(src[i+1:])
			body.WriteRune(r)
			i += 1 + n
			continue
		}
		body.WriteByte(c)
		i++
	}
	return token{}, 0, fmt.Errorf("unterminated literal at offset %d", start)
}

// decodeEscape decodes the escape sequence following a backslash and returns
// the rune plus the number of bytes consumed.
func decodeEscape(s string) (rune, int) {
	switch s[0] {
	case 'n':
		return '\n', 1
	case 't':
		return '\t', 1
	case 'r':
		return '\r', 1
	case 'a':
		return '\a', 1
	case 'b':
		return '\b', 1
	case 'f':
		return '\f', 1
	case 'v':
		return '\v', 1
	case 'x':
		n := 1
		var v rune
		for n < len(s) && isHexDigit(s[n]) {
			v = v*16 + hexValue(s[n])
			n++
		}
		return v, n
	}
	if s[0] >= '0' && s[0] <= '7' {
		n := 0
		var v rune
		for n < len(s) && n < 3 && s[n] >= '0' && s[n] <= '7' {
			v = v*8 + rune(s[n]-'0')
			n++
		}
		return v, n
	}
	return rune(s[0]), 1
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) rune {
	switch {
	case isDigit(c):
		return rune(c - '0')
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10
	default:
		return rune(c-'A') + 10
	}
}
