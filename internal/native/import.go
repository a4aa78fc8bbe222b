package native

// Importer deep-copies symbols from other tables into a destination table.
// Copies are memoized per source symbol, so importing the same subgraph
// twice yields the same ids and cycles are copied as cycles. Source tables
// are only read.
type Importer struct {
	dst  *Table
	memo map[*Table]map[SymbolID]SymbolID
}

// NewImporter creates an importer writing into dst
func NewImporter(dst *Table) *Importer {
	return &Importer{
		dst:  dst,
		memo: make(map[*Table]map[SymbolID]SymbolID),
	}
}

// Import copies id and everything reachable from it out of src. Ids of the
// destination table are returned unchanged.
func (im *Importer) Import(src *Table, id SymbolID) SymbolID {
	if src == nil || src == im.dst {
		return id
	}
	memo, ok := im.memo[src]
	if !ok {
		memo = make(map[SymbolID]SymbolID)
		im.memo[src] = memo
	}

	var pending []SymbolID
	alloc := func(old SymbolID) SymbolID {
		if !old.IsValid() {
			return NoSymbol
		}
		if mapped, ok := memo[old]; ok {
			return mapped
		}
		s := src.Get(old)
		if s == nil {
			return NoSymbol
		}
		cp := *s
		mapped := im.dst.adopt(&cp)
		memo[old] = mapped
		pending = append(pending, mapped)
		return mapped
	}

	root := alloc(id)
	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		im.dst.Get(next).remap(alloc)
	}
	return root
}

// Imported reports the local copy of a source symbol, if it was imported
func (im *Importer) Imported(src *Table, id SymbolID) (SymbolID, bool) {
	mapped, ok := im.memo[src][id]
	return mapped, ok
}

func (t *Table) adopt(s *Symbol) SymbolID {
	s.id = SymbolID(len(t.symbols))
	t.symbols = append(t.symbols, s)
	return s.id
}

// remap rewrites every reference field through f. Slices are reallocated
// so a copied symbol never shares storage with its source.
func (s *Symbol) remap(f func(SymbolID) SymbolID) {
	remapAll := func(list []SymbolID) []SymbolID {
		if list == nil {
			return nil
		}
		out := make([]SymbolID, len(list))
		for i, id := range list {
			out[i] = f(id)
		}
		return out
	}

	s.RealType = f(s.RealType)
	s.Type = f(s.Type)
	s.Members = remapAll(s.Members)
	s.Signature = f(s.Signature)
	s.ReturnType = f(s.ReturnType)
	s.Parameters = remapAll(s.Parameters)
	s.ValueExpression = f(s.ValueExpression)
	s.Values = remapAll(s.Values)
	s.Value = f(s.Value)
}
