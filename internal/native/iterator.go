package native

// Relationship is a structural edge. Parent is NoSymbol for roots.
type Relationship struct {
	Parent SymbolID
	Symbol SymbolID
}

// FindAllRelationships walks every edge reachable from roots, pre-order and
// in declaration order. Each (parent, child) edge is reported once, so a
// symbol shared by two parents appears under both while cycles terminate.
func FindAllRelationships(t *Table, roots []SymbolID) []Relationship {
	var out []Relationship
	walk(t, roots, func(rel Relationship) {
		out = append(out, rel)
	})
	return out
}

// FindAllSymbols returns every distinct symbol reachable from roots, in
// first-visit order.
func FindAllSymbols(t *Table, roots []SymbolID) []SymbolID {
	seen := make(map[SymbolID]bool)
	var out []SymbolID
	walk(t, roots, func(rel Relationship) {
		if !seen[rel.Symbol] {
			seen[rel.Symbol] = true
			out = append(out, rel.Symbol)
		}
	})
	return out
}

func walk(t *Table, roots []SymbolID, visit func(Relationship)) {
	visited := make(map[Relationship]bool)
	stack := make([]Relationship, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, Relationship{Parent: NoSymbol, Symbol: roots[i]})
	}

	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[rel] {
			continue
		}
		s := t.Get(rel.Symbol)
		if s == nil {
			continue
		}
		visited[rel] = true
		visit(rel)

		children := s.Children()
		for i := len(children) - 1; i >= 0; i-- {
			edge := Relationship{Parent: rel.Symbol, Symbol: children[i]}
			if !visited[edge] {
				stack = append(stack, edge)
			}
		}
	}
}
