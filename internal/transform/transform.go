// Package transform rewrites a resolved symbol graph in place. The
// rewrites are idempotent and keep the order of every child list.
package transform

import "cinterop/internal/native"

// CollapseNamedTypes replaces every bound NamedType child with the type it
// names. It returns the number of substitutions.
func CollapseNamedTypes(t *native.Table, roots []native.SymbolID) int {
	count := 0
	for _, rel := range native.FindAllRelationships(t, roots) {
		parent := t.Get(rel.Parent)
		child := t.Get(rel.Symbol)
		if parent == nil || child == nil || child.Kind != native.KindNamedType {
			continue
		}
		if !child.RealType.IsValid() {
			continue
		}
		if parent.ReplaceChild(rel.Symbol, child.RealType) {
			count++
		}
	}
	return count
}

// CollapseTypedefs replaces every bound TypeDef child with the first
// non-typedef type at the end of its alias chain. Top-level typedefs stay
// in place; only their uses are rewritten.
func CollapseTypedefs(t *native.Table, roots []native.SymbolID) int {
	count := 0
	for _, rel := range native.FindAllRelationships(t, roots) {
		parent := t.Get(rel.Parent)
		child := t.Get(rel.Symbol)
		if parent == nil || child == nil || child.Kind != native.KindTypeDef {
			continue
		}
		target := finalTarget(t, rel.Symbol)
		if target == rel.Symbol || !target.IsValid() {
			continue
		}
		if parent.ReplaceChild(rel.Symbol, target) {
			count++
		}
	}
	return count
}

// finalTarget follows typedef aliases. A typedef loop ends at the last
// typedef before it repeats.
func finalTarget(t *native.Table, id native.SymbolID) native.SymbolID {
	seen := make(map[native.SymbolID]bool)
	for {
		sym := t.Get(id)
		if sym == nil || sym.Kind != native.KindTypeDef || !sym.RealType.IsValid() {
			return id
		}
		seen[id] = true
		if seen[sym.RealType] {
			return id
		}
		id = sym.RealType
	}
}

// RenameTypeSymbol renames every reachable defined type and NamedType
// called oldName. It returns the number of renamed symbols.
func RenameTypeSymbol(t *native.Table, roots []native.SymbolID, oldName, newName string) int {
	if oldName == newName {
		return 0
	}
	count := 0
	for _, id := range native.FindAllSymbols(t, roots) {
		sym := t.Get(id)
		if sym.Name != oldName {
			continue
		}
		if sym.Category() == native.CategoryDefined || sym.Kind == native.KindNamedType {
			sym.Name = newName
			count++
		}
	}
	return count
}
