package bag

import "cinterop/internal/native"

// Ref locates a symbol in a particular table. Lookups hand out refs into
// their own tables; callers must treat the referenced graph as read-only.
type Ref struct {
	Table *native.Table
	ID    native.SymbolID
}

// Symbol returns the referenced symbol, or nil for an empty ref
func (r Ref) Symbol() *native.Symbol {
	if r.Table == nil {
		return nil
	}
	return r.Table.Get(r.ID)
}

// Lookup is a read-only source of global symbols by name
type Lookup interface {
	TryGetGlobalSymbol(name string) (Ref, bool)
	TryGetType(name string) (Ref, bool)
	TryGetValue(name string) (Ref, bool)
}

// Chain queries an ordered list of lookups, first hit wins
type Chain []Lookup

// TryGetGlobalSymbol implements Lookup
func (c Chain) TryGetGlobalSymbol(name string) (Ref, bool) {
	return c.first(func(l Lookup) (Ref, bool) { return l.TryGetGlobalSymbol(name) })
}

// TryGetType implements Lookup
func (c Chain) TryGetType(name string) (Ref, bool) {
	return c.first(func(l Lookup) (Ref, bool) { return l.TryGetType(name) })
}

// TryGetValue implements Lookup
func (c Chain) TryGetValue(name string) (Ref, bool) {
	return c.first(func(l Lookup) (Ref, bool) { return l.TryGetValue(name) })
}

func (c Chain) first(get func(Lookup) (Ref, bool)) (Ref, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if ref, ok := get(l); ok && ref.Symbol() != nil {
			return ref, true
		}
	}
	return Ref{}, false
}

// EmptyLookup never finds anything
type EmptyLookup struct{}

func (EmptyLookup) TryGetGlobalSymbol(string) (Ref, bool) { return Ref{}, false }
func (EmptyLookup) TryGetType(string) (Ref, bool)         { return Ref{}, false }
func (EmptyLookup) TryGetValue(string) (Ref, bool)        { return Ref{}, false }
