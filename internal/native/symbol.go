package native

import (
	"cinterop/internal/errors"
)

// SymbolID addresses a symbol inside one Table
type SymbolID uint32

// NoSymbol is the zero id, used for unbound references
const NoSymbol SymbolID = 0

// IsValid reports whether the id refers to a symbol
func (id SymbolID) IsValid() bool {
	return id != NoSymbol
}

// UnknownElementCount marks arrays declared without a size
const UnknownElementCount = -1

// Symbol is a node of the declaration graph. Kind selects which of the
// reference fields are meaningful; see Children for the mapping.
type Symbol struct {
	id   SymbolID
	Kind Kind
	Name string

	// NamedType
	Qualification string

	// NamedType binding, TypeDef/Pointer/Array target
	RealType SymbolID

	// Member, Parameter
	Type SymbolID

	// Struct, Union members; Enum values
	Members []SymbolID

	// Procedure, FunctionPointer
	Signature SymbolID

	// Signature
	ReturnType SymbolID
	Parameters []SymbolID
	Variadic   bool

	// Constant, EnumValue
	ValueExpression SymbolID

	// ValueExpression
	Expression string
	Values     []SymbolID

	// Value: Name holds the referenced name for symbol/type values
	ValueKind ValueKind
	Literal   string
	Value     SymbolID

	// Array
	ElementCount int

	// BitVector
	Size int

	// Builtin
	Builtin Builtin

	// Procedure
	DllName           string
	CallingConvention CallingConvention

	// Constant
	ConstantKind ConstantKind
}

// ID returns the symbol's id within its table
func (s *Symbol) ID() SymbolID {
	return s.id
}

// Category returns the category of the symbol's kind
func (s *Symbol) Category() Category {
	return s.Kind.Category()
}

// Children returns the structural children in declaration order.
// Unbound references are omitted.
func (s *Symbol) Children() []SymbolID {
	var out []SymbolID
	add := func(id SymbolID) {
		if id.IsValid() {
			out = append(out, id)
		}
	}

	switch s.Kind {
	case KindStruct, KindUnion, KindEnum:
		for _, m := range s.Members {
			add(m)
		}
	case KindFunctionPointer, KindProcedure:
		add(s.Signature)
	case KindSignature:
		add(s.ReturnType)
		for _, p := range s.Parameters {
			add(p)
		}
	case KindMember, KindParameter:
		add(s.Type)
	case KindTypeDef, KindNamedType, KindPointer, KindArray:
		add(s.RealType)
	case KindConstant, KindEnumValue:
		add(s.ValueExpression)
	case KindValueExpression:
		for _, v := range s.Values {
			add(v)
		}
	case KindValue:
		add(s.Value)
	case KindBuiltin, KindOpaque, KindBitVector:
	}
	return out
}

// ReplaceChild substitutes every occurrence of old among the symbol's
// children with replacement. It reports whether anything changed.
func (s *Symbol) ReplaceChild(old, replacement SymbolID) bool {
	if old == replacement || !old.IsValid() {
		return false
	}

	changed := false
	swap := func(field *SymbolID) {
		if *field == old {
			*field = replacement
			changed = true
		}
	}
	swapAll := func(list []SymbolID) {
		for i := range list {
			swap(&list[i])
		}
	}

	switch s.Kind {
	case KindStruct, KindUnion, KindEnum:
		swapAll(s.Members)
	case KindFunctionPointer, KindProcedure:
		swap(&s.Signature)
	case KindSignature:
		swap(&s.ReturnType)
		swapAll(s.Parameters)
	case KindMember, KindParameter:
		swap(&s.Type)
	case KindTypeDef, KindNamedType, KindPointer, KindArray:
		swap(&s.RealType)
	case KindConstant, KindEnumValue:
		swap(&s.ValueExpression)
	case KindValueExpression:
		swapAll(s.Values)
	case KindValue:
		swap(&s.Value)
	case KindBuiltin, KindOpaque, KindBitVector:
	}
	return changed
}

// BindRealType binds a NamedType to the type it names. Binding is single
// assignment: rebinding to the same target is a no-op, to another fails.
func (s *Symbol) BindRealType(target SymbolID) error {
	if s.Kind != KindNamedType {
		return errors.Newf(errors.InvalidArgument, "cannot bind real type of %s '%s'", s.Kind, s.Name)
	}
	return bindOnce(&s.RealType, target, s)
}

// BindValue binds a symbol or type Value to its target
func (s *Symbol) BindValue(target SymbolID) error {
	if s.Kind != KindValue || !s.ValueKind.IsReference() {
		return errors.Newf(errors.InvalidArgument, "cannot bind value of %s '%s'", s.Kind, s.Name)
	}
	return bindOnce(&s.Value, target, s)
}

func bindOnce(field *SymbolID, target SymbolID, s *Symbol) error {
	if !target.IsValid() {
		return errors.Newf(errors.InvalidArgument, "cannot bind %s '%s' to no symbol", s.Kind, s.Name)
	}
	if field.IsValid() {
		if *field == target {
			return nil
		}
		return errors.Newf(errors.AlreadyBound, "%s '%s' is already bound", s.Kind, s.Name)
	}
	*field = target
	return nil
}

// Table is the arena that owns a set of symbols
type Table struct {
	symbols []*Symbol
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{symbols: make([]*Symbol, 1, 64)}
}

// Len returns the number of symbols in the table
func (t *Table) Len() int {
	return len(t.symbols) - 1
}

// Get returns the symbol for id, or nil when id is not in the table
func (t *Table) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.symbols) {
		return nil
	}
	return t.symbols[id]
}

// Contains reports whether id addresses a symbol of this table
func (t *Table) Contains(id SymbolID) bool {
	return t.Get(id) != nil
}

// NewSymbol allocates a bare symbol of the given kind
func (t *Table) NewSymbol(kind Kind, name string) *Symbol {
	s := &Symbol{
		id:   SymbolID(len(t.symbols)),
		Kind: kind,
		Name: name,
	}
	t.symbols = append(t.symbols, s)
	return s
}

// IsImmediateResolved reports whether the symbol's own references are bound.
// It does not look at descendants; see the bag's resolvability query.
func (t *Table) IsImmediateResolved(id SymbolID) bool {
	s := t.Get(id)
	if s == nil {
		return false
	}
	switch s.Kind {
	case KindNamedType:
		return s.RealType.IsValid()
	case KindValue:
		if s.ValueKind.IsReference() {
			return s.Value.IsValid()
		}
		return true
	case KindValueExpression:
		for _, v := range s.Values {
			if !t.IsImmediateResolved(v) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// EnumOwner finds the enum whose values include id
func (t *Table) EnumOwner(id SymbolID) (SymbolID, bool) {
	for _, s := range t.symbols[1:] {
		if s.Kind != KindEnum {
			continue
		}
		for _, m := range s.Members {
			if m == id {
				return s.id, true
			}
		}
	}
	return NoSymbol, false
}
