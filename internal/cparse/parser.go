//go:build cgo

package cparse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"cinterop/internal/expr"
	"cinterop/internal/native"
)

// ErrUnavailable is returned when the tree-sitter C grammar is not compiled in.
var ErrUnavailable = errors.New("C header parsing requires CGO (tree-sitter)")

// Parser wraps tree-sitter with the C grammar. A Parser is not safe for
// concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a C header parser
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(c.GetLanguage())
	return &Parser{parser: p}
}

// IsAvailable reports whether header parsing is compiled in
func IsAvailable() bool {
	return true
}

// Parse extracts the declarations of one translation unit. Preprocessor
// conditionals are not evaluated: every arm is read and the first
// declaration of a name wins.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Result, error) {
	if p == nil || p.parser == nil {
		return nil, ErrUnavailable
	}
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse C source: %w", err)
	}

	b := &builder{
		source: source,
		result: newResult(),
		seen:   make(map[string]bool),
	}
	b.table = b.result.Table
	b.topLevel(tree.RootNode())
	return b.result, nil
}

type builder struct {
	source []byte
	table  *native.Table
	result *Result

	// namespace-qualified names already produced
	seen map[string]bool
}

func (b *builder) text(n *sitter.Node) string {
	return n.Content(b.source)
}

// claim records a top-level name, reporting false when it was taken
func (b *builder) claim(namespace, name string) bool {
	key := namespace + ":" + name
	if b.seen[key] {
		b.result.Duplicates = append(b.result.Duplicates, namespace+" "+name)
		return false
	}
	b.seen[key] = true
	return true
}

func (b *builder) emit(id native.SymbolID) {
	b.result.Symbols = append(b.result.Symbols, id)
}

func (b *builder) syntaxError(n *sitter.Node) {
	pos := n.StartPoint()
	snippet := strings.Join(strings.Fields(b.text(n)), " ")
	if len(snippet) > 40 {
		snippet = snippet[:40] + "..."
	}
	b.result.Errors = append(b.result.Errors,
		fmt.Sprintf("%d:%d: syntax error near '%s'", pos.Row+1, pos.Column+1, snippet))
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func (b *builder) topLevel(n *sitter.Node) {
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "declaration":
			b.declaration(child)
		case "type_definition":
			b.typeDefinition(child)
		case "preproc_def":
			b.macro(child)
		case "struct_specifier", "union_specifier", "enum_specifier":
			b.typeSpecifier(child)
		case "linkage_specification", "declaration_list",
			"preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
			b.topLevel(child)
		case "ERROR":
			b.syntaxError(child)
		}
	}
}

func (b *builder) macro(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := b.text(nameNode)
	value := ""
	if v := n.ChildByFieldName("value"); v != nil {
		value = cleanMacroValue(b.text(v))
	}
	if _, defined := b.result.Macros[name]; defined {
		b.result.Duplicates = append(b.result.Duplicates, "macro "+name)
		return
	}
	b.result.Macros[name] = value
	if !isConstantExpression(value) || !b.claim("value", name) {
		return
	}
	b.emit(b.table.NewConstant(name, value, native.ConstantMacro))
}

func cleanMacroValue(v string) string {
	if i := strings.Index(v, "//"); i >= 0 {
		v = v[:i]
	}
	if i := strings.Index(v, "/*"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// declarators returns the declarator children of a declaration-like node
func declarators(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range namedChildren(n) {
		if declaratorTypes[child.Type()] {
			out = append(out, child)
		}
	}
	return out
}

var declaratorTypes = map[string]bool{
	"identifier":                        true,
	"field_identifier":                  true,
	"type_identifier":                   true,
	"pointer_declarator":                true,
	"array_declarator":                  true,
	"function_declarator":               true,
	"parenthesized_declarator":          true,
	"init_declarator":                   true,
	"attributed_declarator":             true,
	"abstract_pointer_declarator":       true,
	"abstract_array_declarator":         true,
	"abstract_function_declarator":      true,
	"abstract_parenthesized_declarator": true,
}

func (b *builder) declaration(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	base := b.typeSpecifier(typeNode)
	conv := b.callingConvention(n)

	for _, d := range declarators(n) {
		if d.StartByte() == typeNode.StartByte() && d.EndByte() == typeNode.EndByte() {
			continue
		}
		name, typ := b.declarator(d, base)
		sig := b.table.Get(typ)
		if name == "" || sig == nil || sig.Kind != native.KindSignature {
			// variables are not interop declarations
			continue
		}
		if !b.claim("procedure", name) {
			continue
		}
		id := b.table.NewProcedure(name, typ)
		b.table.Get(id).CallingConvention = conv
		b.emit(id)
	}
}

func (b *builder) typeDefinition(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	base := b.typeSpecifier(typeNode)

	for _, d := range declarators(n) {
		if d.StartByte() == typeNode.StartByte() && d.EndByte() == typeNode.EndByte() {
			continue
		}
		name, typ := b.declarator(d, base)
		if name == "" {
			continue
		}
		target := b.table.Get(typ)
		switch {
		case target.Kind == native.KindSignature:
			typ = b.table.NewFunctionPointer(name, typ)
			b.table.Get(typ).CallingConvention = b.callingConvention(n)
		case target.Kind == native.KindFunctionPointer && target.Name == "":
			target.Name = name
		}
		if !b.claim("typedef", name) {
			continue
		}
		b.emit(b.table.NewTypeDef(name, typ))
	}
}

// typeSpecifier builds the type named by a specifier node. Tagged types with
// a body are defined and emitted as top-level declarations.
func (b *builder) typeSpecifier(n *sitter.Node) native.SymbolID {
	switch n.Type() {
	case "primitive_type", "sized_type_specifier":
		return b.builtinOrNamed(b.text(n))
	case "type_identifier":
		return b.builtinOrNamed(b.text(n))
	case "struct_specifier":
		return b.tagged(n, "struct")
	case "union_specifier":
		return b.tagged(n, "union")
	case "enum_specifier":
		return b.tagged(n, "enum")
	default:
		return b.table.NewNamedType("", native.NormalizeTypeName(b.text(n)))
	}
}

func (b *builder) builtinOrNamed(spelling string) native.SymbolID {
	name := native.NormalizeTypeName(spelling)
	if id, ok := b.table.NewBuiltinByName(name); ok {
		return id
	}
	if trimmed := strings.TrimSuffix(name, " int"); trimmed != name {
		if id, ok := b.table.NewBuiltinByName(trimmed); ok {
			return id
		}
	}
	return b.table.NewNamedType("", name)
}

func (b *builder) tagged(n *sitter.Node, keyword string) native.SymbolID {
	name := ""
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = b.text(nameNode)
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		if name == "" {
			return b.table.NewOpaque()
		}
		return b.table.NewNamedType(keyword, name)
	}
	if name == "" {
		name = native.GenerateAnonymousName()
	}

	var id native.SymbolID
	switch keyword {
	case "enum":
		id = b.table.NewEnum(name, b.enumerators(body)...)
	case "union":
		id = b.table.NewUnion(name, b.fields(body)...)
	default:
		id = b.table.NewStruct(name, b.fields(body)...)
	}
	if b.claim("defined", name) {
		b.emit(id)
		return id
	}
	// a redefinition refers to the first one by name
	return b.table.NewNamedType(keyword, name)
}

func (b *builder) enumerators(list *sitter.Node) []native.SymbolID {
	var out []native.SymbolID
	for _, child := range namedChildren(list) {
		switch child.Type() {
		case "enumerator":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			value := ""
			if v := child.ChildByFieldName("value"); v != nil {
				value = b.text(v)
			}
			out = append(out, b.table.NewEnumValue(b.text(nameNode), value))
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
			out = append(out, b.enumerators(child)...)
		}
	}
	return out
}

func (b *builder) fields(list *sitter.Node) []native.SymbolID {
	var out []native.SymbolID
	for _, child := range namedChildren(list) {
		switch child.Type() {
		case "field_declaration":
			out = append(out, b.fieldDeclaration(child)...)
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
			out = append(out, b.fields(child)...)
		}
	}
	return out
}

func (b *builder) fieldDeclaration(n *sitter.Node) []native.SymbolID {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}
	base := b.typeSpecifier(typeNode)

	width := -1
	for _, child := range namedChildren(n) {
		if child.Type() == "bitfield_clause" && child.NamedChildCount() > 0 {
			width = int(b.evaluate(child.NamedChild(0)))
		}
	}
	bitfield := func(typ native.SymbolID) native.SymbolID {
		if width < 0 {
			return typ
		}
		return b.table.NewBitVector(width)
	}

	decls := declarators(n)
	var out []native.SymbolID
	for _, d := range decls {
		if d.StartByte() == typeNode.StartByte() && d.EndByte() == typeNode.EndByte() {
			continue
		}
		name, typ := b.declarator(d, base)
		if s := b.table.Get(typ); s != nil && s.Kind == native.KindSignature {
			typ = b.table.NewFunctionPointer("", typ)
		}
		out = append(out, b.table.NewMember(name, bitfield(typ)))
	}
	if len(out) == 0 {
		// anonymous struct or union member, or an unnamed bitfield
		out = append(out, b.table.NewMember("", bitfield(base)))
	}
	return out
}

// declarator applies a declarator to base, returning the declared name (empty
// for abstract declarators) and its type. Function declarators produce a
// Signature; the caller decides whether that is a procedure or a pointer.
func (b *builder) declarator(n *sitter.Node, base native.SymbolID) (string, native.SymbolID) {
	switch n.Type() {
	case "identifier", "field_identifier", "type_identifier", "primitive_type":
		return b.text(n), base

	case "pointer_declarator", "abstract_pointer_declarator":
		base = b.pointerTo(base)
		if inner := n.ChildByFieldName("declarator"); inner != nil {
			return b.declarator(inner, base)
		}
		return "", base

	case "array_declarator", "abstract_array_declarator":
		count := native.UnknownElementCount
		if size := n.ChildByFieldName("size"); size != nil {
			if v := b.evaluate(size); v >= 0 {
				count = int(v)
			}
		}
		base = b.table.NewArray(base, count)
		if inner := n.ChildByFieldName("declarator"); inner != nil {
			return b.declarator(inner, base)
		}
		return "", base

	case "function_declarator", "abstract_function_declarator":
		sig := b.signature(base, n.ChildByFieldName("parameters"))
		if inner := n.ChildByFieldName("declarator"); inner != nil {
			return b.declarator(inner, sig)
		}
		return "", sig

	case "parenthesized_declarator", "abstract_parenthesized_declarator":
		conv := native.CallingConventionDefault
		for _, child := range namedChildren(n) {
			if child.Type() == "ms_call_modifier" {
				conv = parseCallingConvention(b.text(child))
				continue
			}
			if !declaratorTypes[child.Type()] {
				continue
			}
			name, typ := b.declarator(child, base)
			if fp := b.table.Get(typ); fp != nil && fp.Kind == native.KindFunctionPointer && conv != "" {
				fp.CallingConvention = conv
			}
			return name, typ
		}
		return "", base

	case "init_declarator":
		if inner := n.ChildByFieldName("declarator"); inner != nil {
			return b.declarator(inner, base)
		}
	case "attributed_declarator":
		for _, child := range namedChildren(n) {
			if declaratorTypes[child.Type()] {
				return b.declarator(child, base)
			}
		}
	}
	return "", base
}

// pointerTo makes a pointer to typ; a pointer to a function type is a
// function pointer.
func (b *builder) pointerTo(typ native.SymbolID) native.SymbolID {
	if s := b.table.Get(typ); s != nil && s.Kind == native.KindSignature {
		return b.table.NewFunctionPointer("", typ)
	}
	return b.table.NewPointer(typ)
}

func (b *builder) signature(ret native.SymbolID, params *sitter.Node) native.SymbolID {
	sig := b.table.NewSignature(ret)
	if params == nil {
		return sig
	}

	s := b.table.Get(sig)
	count := int(params.ChildCount())
	for i := 0; i < count; i++ {
		child := params.Child(i)
		switch child.Type() {
		case "variadic_parameter", "...":
			s.Variadic = true
		case "parameter_declaration":
			typeNode := child.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			typ := b.typeSpecifier(typeNode)
			name := ""
			if d := child.ChildByFieldName("declarator"); d != nil {
				name, typ = b.declarator(d, typ)
			}
			if p := b.table.Get(typ); p.Kind == native.KindSignature {
				typ = b.table.NewFunctionPointer("", typ)
			}
			s.Parameters = append(s.Parameters, b.table.NewParameter(name, typ))
		}
	}

	// f(void) takes no parameters
	if len(s.Parameters) == 1 {
		only := b.table.Get(s.Parameters[0])
		t := b.table.Get(only.Type)
		if only.Name == "" && t.Kind == native.KindBuiltin && t.Builtin.Kind == native.BuiltinVoid {
			s.Parameters = nil
		}
	}
	return sig
}

// evaluate computes an array size or bitfield width, consulting the macros
// seen so far. It returns -1 when the expression has no integer value.
func (b *builder) evaluate(n *sitter.Node) int64 {
	active := make(map[string]bool)
	var resolver expr.ResolverFunc
	resolver = func(name string) (expr.Value, error) {
		value, ok := b.result.Macros[name]
		if !ok || active[name] {
			return expr.Value{}, fmt.Errorf("unknown macro %s", name)
		}
		active[name] = true
		defer delete(active, name)
		return expr.Evaluate(value, resolver)
	}

	v, err := expr.Evaluate(b.text(n), resolver)
	if err != nil || v.Kind == expr.StringValue {
		return -1
	}
	return v.Int64()
}

// callingConvention finds an explicit calling convention on a declaration.
// Parameter lists and type bodies are not searched.
func (b *builder) callingConvention(n *sitter.Node) native.CallingConvention {
	stack := []*sitter.Node{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range namedChildren(top) {
			switch child.Type() {
			case "ms_call_modifier":
				return parseCallingConvention(b.text(child))
			case "parameter_list", "field_declaration_list", "enumerator_list", "compound_statement":
				continue
			}
			stack = append(stack, child)
		}
	}
	return native.CallingConventionDefault
}

func parseCallingConvention(text string) native.CallingConvention {
	switch strings.TrimLeft(strings.TrimSpace(text), "_") {
	case "cdecl":
		return native.CallingConventionCdecl
	case "stdcall":
		return native.CallingConventionStdcall
	case "fastcall":
		return native.CallingConventionFastcall
	case "thiscall":
		return native.CallingConventionThiscall
	}
	return native.CallingConventionDefault
}
