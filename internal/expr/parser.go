package expr

import (
	"fmt"
	"strings"
)

// Node is a parsed constant-expression tree
type Node interface {
	String() string
}

// Number is an integer or floating literal
type Number struct {
	Text string
}

// Char is a character literal with its decoded value
type Char struct {
	Value rune
}

// String is a string literal with its decoded value
type String struct {
	Value string
}

// Boolean is the literal true or false
type Boolean struct {
	Value bool
}

// Ident references another constant or enumerator by name
type Ident struct {
	Name string
}

// Unary applies a prefix operator
type Unary struct {
	Op string
	X  Node
}

// Binary applies an infix operator
type Binary struct {
	Op   string
	X, Y Node
}

// Cast converts its operand to the named type
type Cast struct {
	Type string
	X    Node
}

// SizeOf is sizeof(Type)
type SizeOf struct {
	Type string
}

func (n *Number) String() string  { return n.Text }
func (n *Char) String() string    { return fmt.Sprintf("%q", n.Value) }
func (n *String) String() string  { return fmt.Sprintf("%q", n.Value) }
func (n *Boolean) String() string { return fmt.Sprintf("%t", n.Value) }
func (n *Ident) String() string   { return n.Name }
func (n *Unary) String() string   { return "(" + n.Op + n.X.String() + ")" }
func (n *Binary) String() string {
	return "(" + n.X.String() + " " + n.Op + " " + n.Y.String() + ")"
}
func (n *Cast) String() string   { return "((" + n.Type + ")" + n.X.String() + ")" }
func (n *SizeOf) String() string { return "sizeof(" + n.Type + ")" }

// binding powers; assignment is right associative
var binaryPrecedence = map[string]int{
	"=":  1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7,
	"<": 8, "<=": 8, ">": 8, ">=": 8,
	"<<": 9, ">>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
}

const unaryPrecedence = 12

type parser struct {
	tokens []token
	pos    int
}

// Parse parses a constant expression
func Parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s after expression", p.peek())
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.peek().kind != kind {
		return fmt.Errorf("expected %s, found %s", what, p.peek())
	}
	p.next()
	return nil
}

func (p *parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind != tokOp {
			return left, nil
		}
		prec, ok := binaryPrecedence[t.text]
		if !ok || prec <= minPrec {
			return left, nil
		}
		p.next()

		nextMin := prec
		if t.text == "=" {
			nextMin = prec - 1
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text, X: left, Y: right}
	}
}

func (p *parser) parsePrefix() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Number{Text: t.text}, nil
	case tokChar:
		r := []rune(t.text)
		if len(r) == 0 {
			return nil, fmt.Errorf("empty character literal")
		}
		return &Char{Value: r[0]}, nil
	case tokString:
		s := t.text
		// adjacent literals concatenate
		for p.peek().kind == tokString {
			s += p.next().text
		}
		return &String{Value: s}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &Boolean{Value: true}, nil
		case "false":
			return &Boolean{Value: false}, nil
		case "sizeof":
			return p.parseSizeOf()
		}
		return &Ident{Name: t.text}, nil
	case tokOp:
		switch t.text {
		case "-", "+", "!", "~":
			x, err := p.parseExpr(unaryPrecedence - 1)
			if err != nil {
				return nil, err
			}
			return &Unary{Op: t.text, X: x}, nil
		}
		return nil, fmt.Errorf("unexpected operator %q", t.text)
	case tokLParen:
		if typeName, ok := p.tryCastType(); ok {
			x, err := p.parseExpr(unaryPrecedence - 1)
			if err != nil {
				return nil, err
			}
			return &Cast{Type: typeName, X: x}, nil
		}
		x, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return x, nil
	default:
		return nil, fmt.Errorf("unexpected %s", t)
	}
}

// tryCastType recognizes "(T)" followed by an operand, where T is a run of
// identifiers and '*'. The opening paren has already been consumed. On
// success the closing paren is consumed as well.
func (p *parser) tryCastType() (string, bool) {
	var parts []string
	i := 0
	for {
		t := p.peekAt(i)
		if t.kind == tokIdent && t.text != "sizeof" {
			parts = append(parts, t.text)
			i++
			continue
		}
		if t.kind == tokOp && t.text == "*" && len(parts) > 0 {
			parts = append(parts, "*")
			i++
			continue
		}
		break
	}
	if len(parts) == 0 || p.peekAt(i).kind != tokRParen {
		return "", false
	}

	after := p.peekAt(i + 1)
	switch {
	case after.kind == tokNumber, after.kind == tokChar, after.kind == tokString,
		after.kind == tokIdent, after.kind == tokLParen:
	case after.kind == tokOp && (after.text == "~" || after.text == "!"):
	default:
		return "", false
	}

	p.pos += i + 1
	return joinTypeParts(parts), true
}

func (p *parser) parseSizeOf() (Node, error) {
	if err := p.expect(tokLParen, "'(' after sizeof"); err != nil {
		return nil, err
	}
	var parts []string
	for p.peek().kind == tokIdent || (p.peek().kind == tokOp && p.peek().text == "*") {
		parts = append(parts, p.next().text)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("expected type name in sizeof")
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return &SizeOf{Type: joinTypeParts(parts)}, nil
}

func joinTypeParts(parts []string) string {
	var b strings.Builder
	for i, part := range parts {
		if i > 0 && part != "*" {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}

// LeafKind classifies the leaves of an expression tree
type LeafKind int

const (
	LeafNumber LeafKind = iota + 1
	LeafString
	LeafChar
	LeafBoolean
	// LeafIdent references a value by name
	LeafIdent
	// LeafType references a type by name (cast or sizeof target)
	LeafType
)

// Leaf is a terminal of an expression tree
type Leaf struct {
	Kind LeafKind
	Text string
}

// Leaves returns the terminals of n in source order
func Leaves(n Node) []Leaf {
	var leaves []Leaf
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Number:
			leaves = append(leaves, Leaf{Kind: LeafNumber, Text: v.Text})
		case *Char:
			leaves = append(leaves, Leaf{Kind: LeafChar, Text: string(v.Value)})
		case *String:
			leaves = append(leaves, Leaf{Kind: LeafString, Text: v.Value})
		case *Boolean:
			leaves = append(leaves, Leaf{Kind: LeafBoolean, Text: fmt.Sprintf("%t", v.Value)})
		case *Ident:
			leaves = append(leaves, Leaf{Kind: LeafIdent, Text: v.Name})
		case *Unary:
			walk(v.X)
		case *Binary:
			walk(v.X)
			walk(v.Y)
		case *Cast:
			leaves = append(leaves, Leaf{Kind: LeafType, Text: baseTypeName(v.Type)})
			walk(v.X)
		case *SizeOf:
			leaves = append(leaves, Leaf{Kind: LeafType, Text: baseTypeName(v.Type)})
		}
	}
	walk(n)
	return leaves
}

// baseTypeName strips pointer stars: the referenced type of "FOO *" is FOO.
func baseTypeName(t string) string {
	return strings.TrimSpace(strings.ReplaceAll(t, "*", ""))
}
