package bag

import (
	"cinterop/internal/diagnostics"
	"cinterop/internal/native"
)

// ResolveResult summarizes one Resolve call
type ResolveResult struct {
	// Resolved is true when no hard error was reported in any iteration
	Resolved   bool `json:"resolved" yaml:"resolved"`
	Iterations int  `json:"iterations" yaml:"iterations"`
	Bound      int  `json:"bound" yaml:"bound"`
	Opaque     int  `json:"opaque" yaml:"opaque"`
	Failed     int  `json:"failed" yaml:"failed"`
	DllNames   int  `json:"dllNames" yaml:"dllNames"`
}

// resolution is the state of one Resolve call
type resolution struct {
	ep     *diagnostics.Provider
	failed map[native.SymbolID]bool
	result ResolveResult
}

// Resolve binds every NamedType and reference Value reachable from the
// bag's declarations. It repeats symbol and value passes until an
// iteration makes no progress. Problems are reported to ep; a symbol that
// fails is reported once and not retried, since lookups cannot change
// during the call. The finder backfills missing procedure libraries first
// and is closed on return when it implements io.Closer.
func (b *Bag) Resolve(finder Finder, ep *diagnostics.Provider) ResolveResult {
	if ep == nil {
		ep = diagnostics.NewProvider()
	}
	defer func() {
		if err := closeFinder(finder); err != nil {
			b.logger.Warn("Failed to close finder", "error", err.Error())
		}
	}()

	r := &resolution{
		ep:     ep,
		failed: make(map[native.SymbolID]bool),
		result: ResolveResult{Resolved: true},
	}
	r.result.DllNames = b.backfillDllNames(finder)

	for {
		rels := b.FindAllReachableRelationships()
		limit := b.maxIterations
		if limit <= 0 {
			limit = len(rels) + 2
		}
		if r.result.Iterations >= limit {
			ep.AddError("", "", "resolution did not converge after %d iterations", r.result.Iterations)
			r.result.Resolved = false
			break
		}
		r.result.Iterations++

		symbolProgress := b.resolveSymbols(r, rels)
		valueProgress := b.resolveValues(r)
		b.logger.Debug("Resolve iteration",
			"iteration", r.result.Iterations,
			"relationships", len(rels),
			"bound", r.result.Bound,
			"failed", len(r.failed),
		)
		if !symbolProgress && !valueProgress {
			break
		}
	}

	r.result.Failed = len(r.failed)
	b.logger.Debug("Resolve finished",
		"resolved", r.result.Resolved,
		"iterations", r.result.Iterations,
		"opaque", r.result.Opaque,
	)
	return r.result
}

// resolveSymbols binds unresolved NamedTypes. Values and value expressions
// are left to the value pass.
func (b *Bag) resolveSymbols(r *resolution, rels []native.Relationship) bool {
	progress := false
	for _, rel := range rels {
		if r.failed[rel.Symbol] || b.table.IsImmediateResolved(rel.Symbol) {
			continue
		}
		sym := b.table.Get(rel.Symbol)

		switch sym.Kind {
		case native.KindValue, native.KindValueExpression:
			continue
		case native.KindNamedType:
		default:
			r.failed[rel.Symbol] = true
			r.ep.AddError(sym.Kind.String(), sym.Name, "Failed to resolve %s -> '%s'", sym.Kind, b.table.DisplayName(rel.Symbol))
			r.result.Resolved = false
			continue
		}

		if target, ok := b.resolveNamedType(sym); ok {
			if err := sym.BindRealType(target); err != nil {
				b.logger.Error("Failed to bind named type", "name", sym.Name, "error", err.Error())
				continue
			}
			r.result.Bound++
			progress = true
			continue
		}

		display := b.table.DisplayName(rel.Symbol)
		parent := b.table.Get(rel.Parent)
		if parent != nil && parent.Kind == native.KindPointer && sym.Qualification != "" {
			_ = sym.BindRealType(b.table.NewOpaque())
			r.result.Opaque++
			r.ep.AddWarning(sym.Kind.String(), sym.Name, "Treating '%s' as pointer to opaque type", display)
			continue
		}

		r.failed[rel.Symbol] = true
		r.result.Resolved = false
		r.ep.AddError(sym.Kind.String(), sym.Name, "Failed to resolve name '%s'", display)
	}
	return progress
}

// resolveNamedType finds the target of a NamedType. A qualified reference
// must name a defined type of the matching kind; "class" means struct.
func (b *Bag) resolveNamedType(nt *native.Symbol) (native.SymbolID, bool) {
	id, _, ok := b.findType(nt.Name)
	if !ok {
		return native.NoSymbol, false
	}
	if nt.Qualification == "" {
		return id, true
	}

	qual := nt.Qualification
	if qual == "class" {
		qual = "struct"
	}
	target := b.table.Get(id)
	if target.Kind.Category() != native.CategoryDefined || target.Kind.Qualification() != qual {
		return native.NoSymbol, false
	}
	return id, true
}

// resolveValues binds unresolved SymbolValue and SymbolType leaves.
// Loading a symbol from the chain counts as progress because the copy
// brings new children into the graph.
func (b *Bag) resolveValues(r *resolution) bool {
	progress := false
	for _, id := range b.FindUnresolvedValues() {
		if r.failed[id] {
			continue
		}
		v := b.table.Get(id)

		var (
			target    native.SymbolID
			fromChain bool
			ok        bool
		)
		switch v.ValueKind {
		case native.ValueSymbol:
			target, fromChain, ok = b.findValue(v.Name)
		case native.ValueType:
			target, fromChain, ok = b.findType(v.Name)
		}

		if ok {
			if err := v.BindValue(target); err == nil {
				r.result.Bound++
			} else {
				b.logger.Error("Failed to bind value", "name", v.Name, "error", err.Error())
				ok = false
			}
		}
		if !ok {
			r.failed[id] = true
			r.result.Resolved = false
			r.ep.AddError(v.Kind.String(), v.Name, "Failed to resolve value '%s'", v.Name)
		}
		if fromChain {
			progress = true
		}
	}
	return progress
}
