package bag

import "cinterop/internal/native"

type resolveState int8

const (
	stateInProgress resolveState = iota + 1
	stateResolved
	stateUnresolved
)

// ResolvedMemo caches resolvability verdicts across one query. The graph
// must not change while a memo is in use.
type ResolvedMemo map[native.SymbolID]resolveState

type resolveFrame struct {
	id       native.SymbolID
	children []native.SymbolID
	next     int
	depth    int
	// low is the shallowest in-progress frame this subtree leaned on
	low         int
	pendingMark int
}

// IsResolved reports whether every reference below id is bound
func (b *Bag) IsResolved(id native.SymbolID) bool {
	return b.isResolved(id, make(ResolvedMemo))
}

// IsResolvedWith is IsResolved sharing memo with earlier queries on the
// same, unchanged graph
func (b *Bag) IsResolvedWith(id native.SymbolID, memo ResolvedMemo) bool {
	if memo == nil {
		memo = make(ResolvedMemo)
	}
	return b.isResolved(id, memo)
}

// isResolved is an iterative depth-first check. A symbol without children
// is resolved. A symbol met again while still being explored counts as
// resolved, so a cycle is unresolved only if some member has an unbound
// reference outside the cycle.
//
// A symbol whose verdict leaned on such an optimistic answer stays pending
// until the frame it leaned on is settled, and then shares that verdict.
// Only settled verdicts are written to the memo.
func (b *Bag) isResolved(root native.SymbolID, memo ResolvedMemo) bool {
	var stack []resolveFrame
	var pending []native.SymbolID
	low := make(map[native.SymbolID]int)

	lean := func(depth int) {
		if n := len(stack); n > 0 && depth < stack[n-1].low {
			stack[n-1].low = depth
		}
	}

	settle := func(f *resolveFrame, st resolveState) {
		memo[f.id] = st
		delete(low, f.id)
		for _, id := range pending[f.pendingMark:] {
			memo[id] = st
			delete(low, id)
		}
		pending = pending[:f.pendingMark]
	}

	// enter returns settled=false when a frame was pushed for id
	enter := func(id native.SymbolID) (verdict bool, settled bool) {
		if st, ok := memo[id]; ok {
			if st == stateInProgress {
				lean(low[id])
				return true, true
			}
			return st == stateResolved, true
		}
		sym := b.table.Get(id)
		if sym == nil {
			return false, true
		}
		children := sym.Children()
		if len(children) == 0 {
			memo[id] = stateResolved
			return true, true
		}
		depth := len(stack)
		memo[id] = stateInProgress
		low[id] = depth
		stack = append(stack, resolveFrame{
			id:          id,
			children:    children,
			depth:       depth,
			low:         depth,
			pendingMark: len(pending),
		})
		return false, false
	}

	if verdict, settled := enter(root); settled {
		return verdict
	}

	childFailed := false
	for len(stack) > 0 {
		top := len(stack) - 1
		f := &stack[top]

		if childFailed {
			settle(f, stateUnresolved)
			stack = stack[:top]
			continue
		}

		if f.next == len(f.children) {
			done := *f
			stack = stack[:top]
			if done.low < done.depth {
				for _, id := range pending[done.pendingMark:] {
					low[id] = done.low
				}
				low[done.id] = done.low
				pending = append(pending, done.id)
				lean(done.low)
				continue
			}
			settle(&done, stateResolved)
			continue
		}

		child := f.children[f.next]
		f.next++
		if !b.table.IsImmediateResolved(child) {
			childFailed = true
			continue
		}
		if verdict, settled := enter(child); settled && !verdict {
			childFailed = true
		}
	}
	return memo[root] == stateResolved
}

func (b *Bag) filterResolved(ids []native.SymbolID, memo ResolvedMemo) []native.SymbolID {
	var out []native.SymbolID
	for _, id := range ids {
		if b.table.IsImmediateResolved(id) && b.isResolved(id, memo) {
			out = append(out, id)
		}
	}
	return out
}

// FindResolvedDefinedTypes returns the fully resolved structs, unions,
// enums and function pointers in insertion order.
func (b *Bag) FindResolvedDefinedTypes() []native.SymbolID {
	return b.filterResolved(b.store.DefinedTypes(), make(ResolvedMemo))
}

// FindResolvedTypeDefs returns the fully resolved typedefs
func (b *Bag) FindResolvedTypeDefs() []native.SymbolID {
	return b.filterResolved(b.store.TypeDefs(), make(ResolvedMemo))
}

// FindResolvedProcedures returns the fully resolved procedures
func (b *Bag) FindResolvedProcedures() []native.SymbolID {
	return b.filterResolved(b.store.Procedures(), make(ResolvedMemo))
}

// FindResolvedConstants returns the fully resolved constants
func (b *Bag) FindResolvedConstants() []native.SymbolID {
	return b.filterResolved(b.store.Constants(), make(ResolvedMemo))
}

// FindResolvedSymbols returns the resolved defined types, typedefs,
// constants and procedures, in that order.
func (b *Bag) FindResolvedSymbols() []native.SymbolID {
	memo := make(ResolvedMemo)
	var out []native.SymbolID
	out = append(out, b.filterResolved(b.store.DefinedTypes(), memo)...)
	out = append(out, b.filterResolved(b.store.TypeDefs(), memo)...)
	out = append(out, b.filterResolved(b.store.Constants(), memo)...)
	out = append(out, b.filterResolved(b.store.Procedures(), memo)...)
	return out
}

// FindAllReachableRelationships walks every edge below the bag's
// declarations
func (b *Bag) FindAllReachableRelationships() []native.Relationship {
	return native.FindAllRelationships(b.table, b.store.Roots())
}

// FindAllReachableSymbols returns every distinct symbol below the bag's
// declarations
func (b *Bag) FindAllReachableSymbols() []native.SymbolID {
	return native.FindAllSymbols(b.table, b.store.Roots())
}

// FindUnresolvedRelationships returns the edges whose child has an
// unbound reference of its own
func (b *Bag) FindUnresolvedRelationships() []native.Relationship {
	var out []native.Relationship
	for _, rel := range b.FindAllReachableRelationships() {
		if !b.table.IsImmediateResolved(rel.Symbol) {
			out = append(out, rel)
		}
	}
	return out
}

// FindUnresolvedValues returns the reachable SymbolValue and SymbolType
// leaves that are not bound yet
func (b *Bag) FindUnresolvedValues() []native.SymbolID {
	var out []native.SymbolID
	for _, id := range b.FindAllReachableSymbols() {
		sym := b.table.Get(id)
		if sym.Kind == native.KindValue && !b.table.IsImmediateResolved(id) {
			out = append(out, id)
		}
	}
	return out
}
