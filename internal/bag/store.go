package bag

import (
	"cinterop/internal/errors"
	"cinterop/internal/native"
)

// namespace is an insertion-ordered name index
type namespace struct {
	name   string
	order  []native.SymbolID
	byName map[string]native.SymbolID
}

func newNamespace(name string) *namespace {
	return &namespace{name: name, byName: make(map[string]native.SymbolID)}
}

func (n *namespace) get(name string) (native.SymbolID, bool) {
	id, ok := n.byName[name]
	return id, ok
}

func (n *namespace) has(name string) bool {
	_, ok := n.byName[name]
	return ok
}

func (n *namespace) put(name string, id native.SymbolID) {
	n.byName[name] = id
	n.order = append(n.order, id)
}

func (n *namespace) list() []native.SymbolID {
	return append([]native.SymbolID(nil), n.order...)
}

// Store is the append-only, name-indexed container of the top-level
// declarations of one translation unit. Each category has its own
// namespace, so "typedef struct Foo Foo" keeps both declarations.
type Store struct {
	table        *native.Table
	definedTypes *namespace
	typeDefs     *namespace
	procedures   *namespace
	constants    *namespace
	enumValues   *namespace
	enumOwner    map[native.SymbolID]native.SymbolID
}

// NewStore creates an empty store indexing symbols of table
func NewStore(table *native.Table) *Store {
	return &Store{
		table:        table,
		definedTypes: newNamespace("defined type"),
		typeDefs:     newNamespace("typedef"),
		procedures:   newNamespace("procedure"),
		constants:    newNamespace("constant"),
		enumValues:   newNamespace("enum value"),
		enumOwner:    make(map[native.SymbolID]native.SymbolID),
	}
}

// Add indexes a top-level symbol. A duplicate name fails for this symbol
// only and leaves the store unchanged.
func (s *Store) Add(id native.SymbolID) error {
	sym := s.table.Get(id)
	if sym == nil {
		return errors.Newf(errors.InvalidArgument, "symbol %d is not in the table", id)
	}
	if sym.Name == "" {
		return errors.Newf(errors.InvalidArgument, "cannot add unnamed %s", sym.Kind)
	}

	ns := s.namespaceFor(sym.Kind)
	if ns == nil {
		return errors.Newf(errors.InvalidArgument, "cannot add %s '%s' to the store", sym.Kind, sym.Name)
	}
	if ns.has(sym.Name) {
		return errors.Newf(errors.DuplicateSymbol, "duplicate %s '%s'", ns.name, sym.Name)
	}

	if sym.Kind == native.KindEnum {
		return s.addEnum(sym)
	}
	ns.put(sym.Name, id)
	return nil
}

func (s *Store) addEnum(enum *native.Symbol) error {
	seen := make(map[string]bool, len(enum.Members))
	for _, m := range enum.Members {
		v := s.table.Get(m)
		if v == nil || v.Kind != native.KindEnumValue {
			return errors.Newf(errors.InvalidArgument, "enum '%s' has a member that is not an enum value", enum.Name)
		}
		if s.enumValues.has(v.Name) || seen[v.Name] {
			return errors.Newf(errors.DuplicateSymbol, "duplicate enum value '%s' in enum '%s'", v.Name, enum.Name)
		}
		seen[v.Name] = true
	}

	s.definedTypes.put(enum.Name, enum.ID())
	for _, m := range enum.Members {
		s.enumValues.put(s.table.Get(m).Name, m)
		s.enumOwner[m] = enum.ID()
	}
	return nil
}

func (s *Store) namespaceFor(kind native.Kind) *namespace {
	switch kind {
	case native.KindStruct, native.KindUnion, native.KindEnum, native.KindFunctionPointer:
		return s.definedTypes
	case native.KindTypeDef:
		return s.typeDefs
	case native.KindProcedure:
		return s.procedures
	case native.KindConstant:
		return s.constants
	default:
		return nil
	}
}

// TryGetGlobalSymbol searches every namespace
func (s *Store) TryGetGlobalSymbol(name string) (native.SymbolID, bool) {
	for _, ns := range []*namespace{s.definedTypes, s.typeDefs, s.procedures, s.constants, s.enumValues} {
		if id, ok := ns.get(name); ok {
			return id, true
		}
	}
	return native.NoSymbol, false
}

// TryGetType searches defined types, then typedefs
func (s *Store) TryGetType(name string) (native.SymbolID, bool) {
	if id, ok := s.definedTypes.get(name); ok {
		return id, true
	}
	return s.typeDefs.get(name)
}

// TryGetValue searches constants, then enum values
func (s *Store) TryGetValue(name string) (native.SymbolID, bool) {
	if id, ok := s.constants.get(name); ok {
		return id, true
	}
	return s.enumValues.get(name)
}

// EnumOwner returns the enum an indexed enum value belongs to
func (s *Store) EnumOwner(id native.SymbolID) (native.SymbolID, bool) {
	owner, ok := s.enumOwner[id]
	return owner, ok
}

// DefinedTypes returns the structs, unions, enums and function pointers
// in insertion order
func (s *Store) DefinedTypes() []native.SymbolID { return s.definedTypes.list() }

// TypeDefs returns the typedefs in insertion order
func (s *Store) TypeDefs() []native.SymbolID { return s.typeDefs.list() }

// Procedures returns the procedures in insertion order
func (s *Store) Procedures() []native.SymbolID { return s.procedures.list() }

// Constants returns the constants in insertion order
func (s *Store) Constants() []native.SymbolID { return s.constants.list() }

// EnumValues returns the enumerators in insertion order, following their
// enums and then declaration order within each enum.
func (s *Store) EnumValues() []native.SymbolID { return s.enumValues.list() }

// Roots returns every top-level declaration: defined types, typedefs,
// procedures, then constants.
func (s *Store) Roots() []native.SymbolID {
	var out []native.SymbolID
	for _, ns := range []*namespace{s.definedTypes, s.typeDefs, s.procedures, s.constants} {
		out = append(out, ns.order...)
	}
	return out
}

// Len returns the number of top-level declarations
func (s *Store) Len() int {
	return len(s.definedTypes.order) + len(s.typeDefs.order) + len(s.procedures.order) + len(s.constants.order)
}

// Reindex rebuilds the name maps from the current symbol names, keeping
// insertion order. It is needed after symbols were renamed in place. When
// a rename made two names collide the first one keeps the name and a
// DuplicateSymbol error is returned.
func (s *Store) Reindex() error {
	var firstErr error
	for _, ns := range []*namespace{s.definedTypes, s.typeDefs, s.procedures, s.constants, s.enumValues} {
		ns.byName = make(map[string]native.SymbolID, len(ns.order))
		for _, id := range ns.order {
			name := s.table.Get(id).Name
			if ns.has(name) {
				if firstErr == nil {
					firstErr = errors.Newf(errors.DuplicateSymbol, "duplicate %s '%s' after rename", ns.name, name)
				}
				continue
			}
			ns.byName[name] = id
		}
	}
	return firstErr
}
