package native

import (
	"strconv"
	"strings"

	"cinterop/internal/expr"
)

// NewStruct creates a struct with the given members
func (t *Table) NewStruct(name string, members ...SymbolID) SymbolID {
	s := t.NewSymbol(KindStruct, name)
	s.Members = append([]SymbolID(nil), members...)
	return s.id
}

// NewUnion creates a union with the given members
func (t *Table) NewUnion(name string, members ...SymbolID) SymbolID {
	s := t.NewSymbol(KindUnion, name)
	s.Members = append([]SymbolID(nil), members...)
	return s.id
}

// NewEnum creates an enum with the given enumerators
func (t *Table) NewEnum(name string, values ...SymbolID) SymbolID {
	s := t.NewSymbol(KindEnum, name)
	s.Members = append([]SymbolID(nil), values...)
	return s.id
}

// NewEnumValue creates an enumerator. An empty expression means the value
// is implied by its position.
func (t *Table) NewEnumValue(name, expression string) SymbolID {
	s := t.NewSymbol(KindEnumValue, name)
	if strings.TrimSpace(expression) != "" {
		s.ValueExpression = t.NewValueExpression(expression)
	}
	return s.id
}

// NewMember creates a struct or union member
func (t *Table) NewMember(name string, typ SymbolID) SymbolID {
	s := t.NewSymbol(KindMember, name)
	s.Type = typ
	return s.id
}

// NewTypeDef creates an alias for realType
func (t *Table) NewTypeDef(name string, realType SymbolID) SymbolID {
	s := t.NewSymbol(KindTypeDef, name)
	s.RealType = realType
	return s.id
}

// NewNamedType creates an unbound reference to a type. qualification is
// "", "struct", "union", "enum" or "class".
func (t *Table) NewNamedType(qualification, name string) SymbolID {
	s := t.NewSymbol(KindNamedType, name)
	s.Qualification = qualification
	return s.id
}

// NewPointer creates a pointer to target
func (t *Table) NewPointer(target SymbolID) SymbolID {
	s := t.NewSymbol(KindPointer, "")
	s.RealType = target
	return s.id
}

// NewArray creates an array of elem. Use UnknownElementCount for "[]".
func (t *Table) NewArray(elem SymbolID, count int) SymbolID {
	s := t.NewSymbol(KindArray, "")
	s.RealType = elem
	s.ElementCount = count
	return s.id
}

// NewBitVector creates a bitfield of the given width
func (t *Table) NewBitVector(size int) SymbolID {
	s := t.NewSymbol(KindBitVector, "")
	s.Size = size
	return s.id
}

// NewBuiltin creates a builtin type with the given C spelling
func (t *Table) NewBuiltin(bt Builtin, name string) SymbolID {
	s := t.NewSymbol(KindBuiltin, NormalizeTypeName(name))
	s.Builtin = bt
	return s.id
}

// NewBuiltinByName creates the builtin type spelled name, if there is one
func (t *Table) NewBuiltinByName(name string) (SymbolID, bool) {
	bt, ok := TryConvertToBuiltin(name)
	if !ok {
		return NoSymbol, false
	}
	return t.NewBuiltin(bt, name), true
}

// NewOpaque creates a placeholder for a type whose definition is unknown
func (t *Table) NewOpaque() SymbolID {
	return t.NewSymbol(KindOpaque, "").id
}

// NewSignature creates a procedure signature
func (t *Table) NewSignature(returnType SymbolID, params ...SymbolID) SymbolID {
	s := t.NewSymbol(KindSignature, "")
	s.ReturnType = returnType
	s.Parameters = append([]SymbolID(nil), params...)
	return s.id
}

// NewParameter creates a signature parameter
func (t *Table) NewParameter(name string, typ SymbolID) SymbolID {
	s := t.NewSymbol(KindParameter, name)
	s.Type = typ
	return s.id
}

// NewProcedure creates a procedure declaration
func (t *Table) NewProcedure(name string, signature SymbolID) SymbolID {
	s := t.NewSymbol(KindProcedure, name)
	s.Signature = signature
	return s.id
}

// NewFunctionPointer creates a function pointer type
func (t *Table) NewFunctionPointer(name string, signature SymbolID) SymbolID {
	s := t.NewSymbol(KindFunctionPointer, name)
	s.Signature = signature
	return s.id
}

// NewConstant creates a constant whose value is the given expression
func (t *Table) NewConstant(name, expression string, kind ConstantKind) SymbolID {
	s := t.NewSymbol(KindConstant, name)
	s.ConstantKind = kind
	s.ValueExpression = t.NewValueExpression(expression)
	return s.id
}

// NewValueExpression parses expression and creates one Value per distinct
// leaf. An expression that does not parse keeps its text and has no values.
func (t *Table) NewValueExpression(expression string) SymbolID {
	s := t.NewSymbol(KindValueExpression, "")
	s.Expression = strings.TrimSpace(expression)

	node, err := expr.Parse(s.Expression)
	if err != nil {
		return s.id
	}

	seen := make(map[expr.Leaf]bool)
	var values []SymbolID
	for _, leaf := range expr.Leaves(node) {
		if seen[leaf] {
			continue
		}
		seen[leaf] = true
		values = append(values, t.newValueFromLeaf(leaf))
	}
	s.Values = values
	return s.id
}

func (t *Table) newValueFromLeaf(leaf expr.Leaf) SymbolID {
	switch leaf.Kind {
	case expr.LeafIdent:
		return t.NewValue(ValueSymbol, leaf.Text)
	case expr.LeafType:
		return t.NewValue(ValueType, leaf.Text)
	case expr.LeafString:
		return t.NewValue(ValueString, leaf.Text)
	case expr.LeafChar:
		return t.NewValue(ValueCharacter, leaf.Text)
	case expr.LeafBoolean:
		return t.NewValue(ValueBoolean, leaf.Text)
	default:
		return t.NewValue(ValueNumber, leaf.Text)
	}
}

// NewValue creates a value leaf. For symbol and type values text is the
// referenced name; otherwise it is the literal text.
func (t *Table) NewValue(kind ValueKind, text string) SymbolID {
	var s *Symbol
	if kind.IsReference() {
		s = t.NewSymbol(KindValue, text)
	} else {
		s = t.NewSymbol(KindValue, "")
		s.Literal = text
	}
	s.ValueKind = kind
	return s.id
}

const maxDisplayDepth = 32

// DisplayName renders a symbol the way C would spell it, for diagnostics
func (t *Table) DisplayName(id SymbolID) string {
	return t.displayName(id, 0)
}

func (t *Table) displayName(id SymbolID, depth int) string {
	s := t.Get(id)
	if s == nil {
		return "<none>"
	}
	if depth > maxDisplayDepth {
		return "..."
	}

	switch s.Kind {
	case KindNamedType:
		if s.Qualification != "" {
			return s.Qualification + " " + s.Name
		}
		return s.Name
	case KindPointer:
		return t.displayName(s.RealType, depth+1) + "*"
	case KindArray:
		if s.ElementCount == UnknownElementCount {
			return t.displayName(s.RealType, depth+1) + "[]"
		}
		return t.displayName(s.RealType, depth+1) + "[" + strconv.Itoa(s.ElementCount) + "]"
	case KindBitVector:
		return "<bitvector " + strconv.Itoa(s.Size) + ">"
	case KindOpaque:
		return "<opaque>"
	case KindValue:
		if s.ValueKind.IsReference() {
			return s.Name
		}
		return s.Literal
	case KindValueExpression:
		return s.Expression
	case KindSignature:
		params := make([]string, 0, len(s.Parameters))
		for _, p := range s.Parameters {
			params = append(params, t.displayName(p, depth+1))
		}
		return t.displayName(s.ReturnType, depth+1) + " (" + strings.Join(params, ", ") + ")"
	case KindMember, KindParameter:
		if s.Name == "" {
			return t.displayName(s.Type, depth+1)
		}
		return t.displayName(s.Type, depth+1) + " " + s.Name
	default:
		return s.Name
	}
}
