// Package bag holds the symbols of one translation unit and resolves the
// references between them, falling back to an ordered chain of read-only
// lookups and to the builtin-type table.
package bag

import (
	"log/slog"

	"cinterop/internal/diagnostics"
	"cinterop/internal/errors"
	"cinterop/internal/native"
	"cinterop/internal/slogutil"
)

// Bag is the mutable symbol store plus resolver for one translation unit.
// A bag must not be mutated concurrently; distinct bags may resolve in
// parallel when they share only read-only chains.
type Bag struct {
	table         *native.Table
	store         *Store
	next          Chain
	logger        *slog.Logger
	maxIterations int

	importer *native.Importer
	// chain hits keyed by namespace and name, copied into table
	imported map[string]native.SymbolID
	builtins map[string]native.SymbolID
}

// Option configures a Bag
type Option func(*Bag)

// WithNext sets the chained lookups consulted, in order, after the local
// store and before the builtin-type table.
func WithNext(lookups ...Lookup) Option {
	return func(b *Bag) {
		b.next = append(Chain(nil), lookups...)
	}
}

// WithLogger sets the logger used for resolution progress
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bag) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMaxIterations caps the number of outer resolution iterations. Zero
// or less selects the default: reachable relationships plus two.
func WithMaxIterations(n int) Option {
	return func(b *Bag) {
		b.maxIterations = n
	}
}

// New creates an empty bag with its own symbol table
func New(opts ...Option) *Bag {
	return newBag(native.NewTable(), opts)
}

func newBag(table *native.Table, opts []Option) *Bag {
	b := &Bag{
		table:    table,
		store:    NewStore(table),
		logger:   slogutil.NewDiscardLogger(),
		importer: native.NewImporter(table),
		imported: make(map[string]native.SymbolID),
		builtins: make(map[string]native.SymbolID),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CreateFrom builds a bag over table and adds each of ids. A symbol that
// cannot be added is reported to ep and the batch continues.
func CreateFrom(table *native.Table, ids []native.SymbolID, ep *diagnostics.Provider, opts ...Option) (*Bag, error) {
	if table == nil {
		return nil, errors.Newf(errors.InvalidArgument, "table is required")
	}
	if ep == nil {
		ep = diagnostics.NewProvider()
	}

	b := newBag(table, opts)
	for _, id := range ids {
		if err := b.Add(id); err != nil {
			name := ""
			kind := ""
			if sym := table.Get(id); sym != nil {
				name = sym.Name
				kind = sym.Kind.String()
			}
			ep.AddError(kind, name, "Error adding symbol %s", name)
			b.logger.Debug("Failed to add symbol", "name", name, "error", err.Error())
		}
	}
	return b, nil
}

// Table returns the arena holding the bag's symbols
func (b *Bag) Table() *native.Table {
	return b.table
}

// Store returns the bag's local name index
func (b *Bag) Store() *Store {
	return b.store
}

// Next returns the chained lookups
func (b *Bag) Next() Chain {
	return b.next
}

// Get returns a symbol of the bag's table
func (b *Bag) Get(id native.SymbolID) *native.Symbol {
	return b.table.Get(id)
}

// Add indexes a top-level symbol of the bag's table
func (b *Bag) Add(id native.SymbolID) error {
	return b.store.Add(id)
}

// DefinedTypes returns the structs, unions, enums and function pointers
// in insertion order
func (b *Bag) DefinedTypes() []native.SymbolID { return b.store.DefinedTypes() }

// TypeDefs returns the typedefs in insertion order
func (b *Bag) TypeDefs() []native.SymbolID { return b.store.TypeDefs() }

// Procedures returns the procedures in insertion order
func (b *Bag) Procedures() []native.SymbolID { return b.store.Procedures() }

// Constants returns the constants in insertion order
func (b *Bag) Constants() []native.SymbolID { return b.store.Constants() }

// EnumValues returns the enumerators in insertion order, following their
// enums and then declaration order within each enum.
func (b *Bag) EnumValues() []native.SymbolID { return b.store.EnumValues() }

// TryGetGlobalSymbol implements Lookup: local store, then the chain
func (b *Bag) TryGetGlobalSymbol(name string) (Ref, bool) {
	if id, ok := b.store.TryGetGlobalSymbol(name); ok {
		return Ref{Table: b.table, ID: id}, true
	}
	return b.next.TryGetGlobalSymbol(name)
}

// TryGetType implements Lookup: local store, then the chain
func (b *Bag) TryGetType(name string) (Ref, bool) {
	if id, ok := b.store.TryGetType(name); ok {
		return Ref{Table: b.table, ID: id}, true
	}
	return b.next.TryGetType(name)
}

// TryGetValue implements Lookup: local store, then the chain
func (b *Bag) TryGetValue(name string) (Ref, bool) {
	if id, ok := b.store.TryGetValue(name); ok {
		return Ref{Table: b.table, ID: id}, true
	}
	return b.next.TryGetValue(name)
}

// findType resolves a type name for binding: local store, chain, then the
// builtin table. Chain hits are copied into the bag's table; fromChain
// reports a fresh copy.
func (b *Bag) findType(name string) (id native.SymbolID, fromChain bool, ok bool) {
	if id, ok := b.store.TryGetType(name); ok {
		return id, false, true
	}
	if id, fromChain, ok := b.importFromChain("type", name, b.next.TryGetType); ok {
		return id, fromChain, true
	}
	if id, ok := b.builtin(name); ok {
		return id, false, true
	}
	return native.NoSymbol, false, false
}

// findValue resolves a constant or enum value name: local store, then chain
func (b *Bag) findValue(name string) (id native.SymbolID, fromChain bool, ok bool) {
	if id, ok := b.store.TryGetValue(name); ok {
		return id, false, true
	}
	return b.importFromChain("value", name, b.next.TryGetValue)
}

func (b *Bag) importFromChain(namespace, name string, get func(string) (Ref, bool)) (native.SymbolID, bool, bool) {
	key := namespace + ":" + name
	if id, ok := b.imported[key]; ok {
		return id, false, true
	}
	if len(b.next) == 0 {
		return native.NoSymbol, false, false
	}
	ref, ok := get(name)
	if !ok {
		return native.NoSymbol, false, false
	}
	_, seen := b.importer.Imported(ref.Table, ref.ID)
	// an enum value needs its enum for implicit values
	if ref.Symbol().Kind == native.KindEnumValue {
		if owner, ok := ref.Table.EnumOwner(ref.ID); ok {
			b.importer.Import(ref.Table, owner)
		}
	}
	id := b.importer.Import(ref.Table, ref.ID)
	b.imported[key] = id
	b.logger.Debug("Loaded symbol from chain", "namespace", namespace, "name", name)
	return id, !seen, true
}

func (b *Bag) builtin(name string) (native.SymbolID, bool) {
	key := native.NormalizeTypeName(name)
	if id, ok := b.builtins[key]; ok {
		return id, true
	}
	id, ok := b.table.NewBuiltinByName(key)
	if !ok {
		return native.NoSymbol, false
	}
	b.builtins[key] = id
	return id, true
}
