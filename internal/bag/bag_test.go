package bag

import (
	"context"
	"strings"
	"sync"
	"testing"

	"cinterop/internal/diagnostics"
	"cinterop/internal/errors"
	"cinterop/internal/native"
)

func intType(t *native.Table) native.SymbolID {
	id, _ := t.NewBuiltinByName("int")
	return id
}

func mustCreate(t *testing.T, table *native.Table, ids []native.SymbolID, opts ...Option) (*Bag, *diagnostics.Provider) {
	t.Helper()
	ep := diagnostics.NewProvider()
	b, err := CreateFrom(table, ids, ep, opts...)
	if err != nil {
		t.Fatalf("CreateFrom: %v", err)
	}
	return b, ep
}

func assertNoErrors(t *testing.T, ep *diagnostics.Provider) {
	t.Helper()
	if ep.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", ep)
	}
}

// struct A { B* b; }; struct B { int x; };
func declareAB(table *native.Table) (a, b native.SymbolID) {
	a = table.NewStruct("A", table.NewMember("b", table.NewPointer(table.NewNamedType("", "B"))))
	b = table.NewStruct("B", table.NewMember("x", intType(table)))
	return a, b
}

func TestStore_Namespaces(t *testing.T) {
	table := native.NewTable()
	foo := table.NewStruct("Foo")
	fooDef := table.NewTypeDef("Foo", table.NewNamedType("struct", "Foo"))
	red := table.NewEnumValue("RED", "")
	color := table.NewEnum("Color", red)
	limit := table.NewConstant("MAX", "10", native.ConstantMacro)
	proc := table.NewProcedure("Open", table.NewSignature(intType(table)))

	s := NewStore(table)
	for _, id := range []native.SymbolID{foo, fooDef, color, limit, proc} {
		if err := s.Add(id); err != nil {
			t.Fatalf("Add(%s): %v", table.Get(id).Name, err)
		}
	}

	if id, ok := s.TryGetType("Foo"); !ok || id != foo {
		t.Errorf("TryGetType(Foo) = %d, want struct %d", id, foo)
	}
	if id, ok := s.TryGetValue("RED"); !ok || id != red {
		t.Errorf("TryGetValue(RED) = %d, want %d", id, red)
	}
	if owner, ok := s.EnumOwner(red); !ok || owner != color {
		t.Errorf("EnumOwner(RED) = %d, want %d", owner, color)
	}
	if id, ok := s.TryGetGlobalSymbol("Open"); !ok || id != proc {
		t.Errorf("TryGetGlobalSymbol(Open) = %d, want %d", id, proc)
	}
	if _, ok := s.TryGetType("MAX"); ok {
		t.Error("TryGetType found a constant")
	}

	got := s.DefinedTypes()
	if len(got) != 2 || got[0] != foo || got[1] != color {
		t.Errorf("DefinedTypes() = %v, want insertion order", got)
	}
	if s.Len() != 5 {
		t.Errorf("Len() = %d, want 5", s.Len())
	}
}

func TestStore_AddErrors(t *testing.T) {
	table := native.NewTable()
	s := NewStore(table)

	if err := s.Add(table.NewStruct("S")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(table.NewUnion("S")); !errors.Is(err, errors.DuplicateSymbol) {
		t.Errorf("duplicate defined type: got %v", err)
	}
	if err := s.Add(table.NewPointer(native.NoSymbol)); !errors.Is(err, errors.InvalidArgument) {
		t.Errorf("pointer: got %v", err)
	}
	if err := s.Add(native.SymbolID(999)); !errors.Is(err, errors.InvalidArgument) {
		t.Errorf("missing symbol: got %v", err)
	}

	first := table.NewEnum("E1", table.NewEnumValue("V", ""))
	second := table.NewEnum("E2", table.NewEnumValue("V", ""))
	if err := s.Add(first); err != nil {
		t.Fatalf("Add(E1): %v", err)
	}
	if err := s.Add(second); !errors.Is(err, errors.DuplicateSymbol) {
		t.Errorf("duplicate enum value: got %v", err)
	}
	if _, ok := s.TryGetType("E2"); ok {
		t.Error("enum with a duplicate value was partially added")
	}
}

func TestCreateFrom_DuplicateContinues(t *testing.T) {
	table := native.NewTable()
	ids := []native.SymbolID{
		table.NewStruct("S"),
		table.NewStruct("S"),
		table.NewStruct("T"),
	}

	b, ep := mustCreate(t, table, ids)
	errs := ep.Errors()
	if len(errs) != 1 || errs[0].Message != "Error adding symbol S" {
		t.Errorf("errors = %v, want one duplicate", errs)
	}
	if _, ok := b.TryGetType("T"); !ok {
		t.Error("symbol after the duplicate was not added")
	}

	if _, err := CreateFrom(nil, nil, ep); !errors.Is(err, errors.InvalidArgument) {
		t.Errorf("CreateFrom(nil) = %v", err)
	}
}

func TestResolve_SelfReferential(t *testing.T) {
	table := native.NewTable()
	node := table.NewStruct("Node", table.NewMember("next", table.NewPointer(table.NewNamedType("", "Node"))))

	b, ep := mustCreate(t, table, []native.SymbolID{node})
	res := b.Resolve(nil, ep)

	assertNoErrors(t, ep)
	if !res.Resolved {
		t.Error("Resolved = false")
	}
	if res.Iterations > 2 {
		t.Errorf("Iterations = %d, want at most 2", res.Iterations)
	}
	if !b.IsResolved(node) {
		t.Error("Node is not resolved")
	}
	if got := b.FindResolvedDefinedTypes(); len(got) != 1 || got[0] != node {
		t.Errorf("FindResolvedDefinedTypes() = %v", got)
	}
}

func TestResolve_MutualRecursion(t *testing.T) {
	table := native.NewTable()
	a := table.NewStruct("A", table.NewMember("b", table.NewPointer(table.NewNamedType("struct", "B"))))
	bb := table.NewStruct("B", table.NewMember("a", table.NewPointer(table.NewNamedType("struct", "A"))))
	c := table.NewStruct("C",
		table.NewMember("a", table.NewNamedType("", "A")),
		table.NewMember("m", table.NewNamedType("", "Missing")),
	)

	b, ep := mustCreate(t, table, []native.SymbolID{a, bb, c})
	res := b.Resolve(nil, ep)

	if res.Resolved {
		t.Error("Resolved = true despite a missing type")
	}
	if !b.IsResolved(a) || !b.IsResolved(bb) {
		t.Error("cycle members should be resolved")
	}
	if b.IsResolved(c) {
		t.Error("C has an unresolved member")
	}
	if got := b.FindResolvedDefinedTypes(); len(got) != 2 {
		t.Errorf("FindResolvedDefinedTypes() = %v, want A and B", got)
	}
}

func TestResolve_CycleWithUnresolvedMember(t *testing.T) {
	tests := []struct {
		name    string
		declare func(table *native.Table) []native.SymbolID
	}{
		{
			name: "two members",
			declare: func(table *native.Table) []native.SymbolID {
				a := table.NewStruct("A",
					table.NewMember("b", table.NewPointer(table.NewNamedType("struct", "B"))),
					table.NewMember("m", table.NewNamedType("", "Missing")),
				)
				bb := table.NewStruct("B", table.NewMember("a", table.NewPointer(table.NewNamedType("struct", "A"))))
				return []native.SymbolID{a, bb}
			},
		},
		{
			name: "three members",
			declare: func(table *native.Table) []native.SymbolID {
				x := table.NewStruct("X",
					table.NewMember("y", table.NewPointer(table.NewNamedType("struct", "Y"))),
					table.NewMember("m", table.NewNamedType("", "Missing")),
				)
				y := table.NewStruct("Y", table.NewMember("z", table.NewPointer(table.NewNamedType("struct", "Z"))))
				z := table.NewStruct("Z", table.NewMember("x", table.NewPointer(table.NewNamedType("struct", "X"))))
				return []native.SymbolID{x, y, z}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := native.NewTable()
			ids := tt.declare(table)
			b, ep := mustCreate(t, table, ids)
			b.Resolve(nil, ep)

			for _, id := range ids {
				if b.IsResolved(id) {
					t.Errorf("%s should be unresolved", table.Get(id).Name)
				}
			}

			// the verdict must not depend on which member is asked first
			memo := make(ResolvedMemo)
			for i := len(ids) - 1; i >= 0; i-- {
				if b.IsResolvedWith(ids[i], memo) {
					t.Errorf("%s resolved with a shared memo", table.Get(ids[i]).Name)
				}
			}

			if got := b.FindResolvedDefinedTypes(); len(got) != 0 {
				t.Errorf("FindResolvedDefinedTypes() = %v, want none", got)
			}
			saver := &recordingSaver{}
			n, err := b.SaveTo(context.Background(), saver)
			if err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			if n != 0 || len(saver.names) != 0 {
				t.Errorf("saved %v, want nothing", saver.names)
			}
		})
	}
}

func TestIsResolved_CycleBehindResolvedRoot(t *testing.T) {
	table := native.NewTable()
	a := table.NewStruct("A", table.NewMember("b", table.NewPointer(table.NewNamedType("struct", "B"))))
	bb := table.NewStruct("B", table.NewMember("a", table.NewPointer(table.NewNamedType("struct", "A"))))
	root := table.NewStruct("Root",
		table.NewMember("a", table.NewPointer(table.NewNamedType("struct", "A"))),
		table.NewMember("n", intType(table)),
	)

	b, ep := mustCreate(t, table, []native.SymbolID{root, a, bb})
	b.Resolve(nil, ep)
	assertNoErrors(t, ep)

	memo := make(ResolvedMemo)
	for _, id := range []native.SymbolID{root, bb, a} {
		if !b.IsResolvedWith(id, memo) {
			t.Errorf("%s should be resolved", table.Get(id).Name)
		}
	}
	if got := b.FindResolvedDefinedTypes(); len(got) != 3 {
		t.Errorf("FindResolvedDefinedTypes() = %v, want Root, A and B", got)
	}
}

func TestResolve_QualificationMismatch(t *testing.T) {
	table := native.NewTable()
	foo := table.NewUnion("Foo", table.NewMember("i", intType(table)))
	s := table.NewStruct("S", table.NewMember("f", table.NewNamedType("struct", "Foo")))

	b, ep := mustCreate(t, table, []native.SymbolID{foo, s})
	res := b.Resolve(nil, ep)

	if res.Resolved {
		t.Error("Resolved = true for a struct reference to a union")
	}
	errs := ep.Errors()
	if len(errs) != 1 || errs[0].Message != "Failed to resolve name 'struct Foo'" {
		t.Errorf("errors = %v", errs)
	}
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
}

func TestResolve_ClassMeansStruct(t *testing.T) {
	table := native.NewTable()
	foo := table.NewStruct("Foo")
	s := table.NewStruct("S", table.NewMember("f", table.NewNamedType("class", "Foo")))

	b, ep := mustCreate(t, table, []native.SymbolID{foo, s})
	if res := b.Resolve(nil, ep); !res.Resolved {
		t.Errorf("class Foo did not resolve:\n%s", ep)
	}
}

func TestResolve_OpaquePointer(t *testing.T) {
	table := native.NewTable()
	ref := table.NewNamedType("struct", "Handle")
	s := table.NewStruct("S", table.NewMember("h", table.NewPointer(ref)))

	b, ep := mustCreate(t, table, []native.SymbolID{s})
	res := b.Resolve(nil, ep)

	assertNoErrors(t, ep)
	if !res.Resolved {
		t.Error("Resolved = false for an opaque pointer")
	}
	warns := ep.Warnings()
	if len(warns) != 1 || warns[0].Message != "Treating 'struct Handle' as pointer to opaque type" {
		t.Errorf("warnings = %v, want exactly one opaque warning", warns)
	}
	if res.Opaque != 1 {
		t.Errorf("Opaque = %d, want 1", res.Opaque)
	}
	if target := table.Get(table.Get(ref).RealType); target == nil || target.Kind != native.KindOpaque {
		t.Errorf("reference bound to %+v, want opaque", target)
	}
	if !b.IsResolved(s) {
		t.Error("S is not resolved")
	}
}

func TestResolve_UnqualifiedMissingIsError(t *testing.T) {
	table := native.NewTable()
	s := table.NewStruct("S", table.NewMember("h", table.NewPointer(table.NewNamedType("", "Missing"))))

	b, ep := mustCreate(t, table, []native.SymbolID{s})
	res := b.Resolve(nil, ep)

	if res.Resolved {
		t.Error("Resolved = true")
	}
	if len(ep.Errors()) != 1 {
		t.Errorf("got %d errors, want 1 reported once:\n%s", len(ep.Errors()), ep)
	}
	if len(b.FindUnresolvedRelationships()) != 1 {
		t.Errorf("FindUnresolvedRelationships() = %v", b.FindUnresolvedRelationships())
	}
}

func TestResolve_EndToEnd(t *testing.T) {
	table := native.NewTable()
	a, bStruct := declareAB(table)

	b, ep := mustCreate(t, table, []native.SymbolID{a, bStruct})
	res := b.Resolve(nil, ep)

	assertNoErrors(t, ep)
	if !res.Resolved {
		t.Fatal("Resolved = false")
	}
	if res.Iterations > 2 {
		t.Errorf("Iterations = %d, want at most 2", res.Iterations)
	}

	b.CollapseNamedTypes()

	member := table.Get(table.Get(a).Members[0])
	ptr := table.Get(member.Type)
	if ptr.Kind != native.KindPointer {
		t.Fatalf("member type = %s, want pointer", ptr.Kind)
	}
	if ptr.RealType != bStruct {
		t.Errorf("pointer target = %s, want struct B", table.DisplayName(ptr.RealType))
	}
}

func TestResolve_IterationCap(t *testing.T) {
	table := native.NewTable()
	a, bStruct := declareAB(table)

	b, ep := mustCreate(t, table, []native.SymbolID{a, bStruct}, WithMaxIterations(1))
	res := b.Resolve(nil, ep)

	if res.Resolved {
		t.Error("Resolved = true after hitting the cap")
	}
	if !strings.Contains(ep.String(), "resolution did not converge after 1 iterations") {
		t.Errorf("missing convergence error:\n%s", ep)
	}
}

func TestResolve_Values(t *testing.T) {
	table := native.NewTable()
	ids := []native.SymbolID{
		table.NewTypeDef("DWORD", table.NewBuiltin(native.Builtin{Kind: native.BuiltinInt32, Unsigned: true}, "unsigned long")),
		table.NewConstant("BASE", "0x10", native.ConstantMacro),
		table.NewConstant("MASK", "(DWORD)BASE | 1", native.ConstantMacro),
		table.NewConstant("BAD", "NOPE + 1", native.ConstantMacro),
	}

	b, ep := mustCreate(t, table, ids)
	res := b.Resolve(nil, ep)

	if res.Resolved {
		t.Error("Resolved = true with an unknown value")
	}
	errs := ep.Errors()
	if len(errs) != 1 || errs[0].Message != "Failed to resolve value 'NOPE'" {
		t.Errorf("errors = %v", errs)
	}

	resolved := b.FindResolvedConstants()
	if len(resolved) != 2 {
		t.Errorf("FindResolvedConstants() = %v, want BASE and MASK", resolved)
	}
	if len(b.FindUnresolvedValues()) != 1 {
		t.Errorf("FindUnresolvedValues() = %v", b.FindUnresolvedValues())
	}
}

type fakeFinder struct {
	dlls   map[string]string
	closed bool
}

func (f *fakeFinder) TryFindDllNameExact(name string) (string, bool) {
	dll, ok := f.dlls[name]
	return dll, ok
}

func (f *fakeFinder) Close() error {
	f.closed = true
	return nil
}

func TestResolve_DllBackfill(t *testing.T) {
	table := native.NewTable()
	open := table.NewProcedure("OpenFile", table.NewSignature(intType(table)))
	local := table.NewProcedure("Local", table.NewSignature(intType(table)))
	kept := table.NewProcedure("Kept", table.NewSignature(intType(table)))
	table.Get(kept).DllName = "mine.dll"

	finder := &fakeFinder{dlls: map[string]string{"OpenFile": "kernel32.dll", "Kept": "other.dll"}}
	b, ep := mustCreate(t, table, []native.SymbolID{open, local, kept})
	res := b.Resolve(finder, ep)

	assertNoErrors(t, ep)
	if table.Get(open).DllName != "kernel32.dll" {
		t.Errorf("OpenFile dll = %q", table.Get(open).DllName)
	}
	if table.Get(local).DllName != "" {
		t.Errorf("Local dll = %q, want empty", table.Get(local).DllName)
	}
	if table.Get(kept).DllName != "mine.dll" {
		t.Errorf("explicit dll overwritten: %q", table.Get(kept).DllName)
	}
	if res.DllNames != 1 {
		t.Errorf("DllNames = %d, want 1", res.DllNames)
	}
	if !finder.closed {
		t.Error("finder was not closed")
	}
}

func newChain(t *testing.T) (*Bag, *native.Table) {
	t.Helper()
	table := native.NewTable()
	bStruct := table.NewStruct("B", table.NewMember("x", intType(table)))
	limit := table.NewConstant("LIMIT", "42", native.ConstantMacro)
	chain, ep := mustCreate(t, table, []native.SymbolID{bStruct, limit})
	if res := chain.Resolve(nil, ep); !res.Resolved {
		t.Fatalf("chain did not resolve:\n%s", ep)
	}
	return chain, table
}

func TestResolve_ChainIsolation(t *testing.T) {
	chain, chainTable := newChain(t)
	chainLen := chainTable.Len()

	const bags = 4
	results := make([]*Bag, bags)
	providers := make([]*diagnostics.Provider, bags)
	for i := range results {
		table := native.NewTable()
		a := table.NewStruct("A",
			table.NewMember("b", table.NewPointer(table.NewNamedType("", "B"))),
			table.NewMember("n", table.NewArray(intType(table), 4)),
		)
		c := table.NewConstant("TWICE", "LIMIT * 2", native.ConstantMacro)
		results[i], providers[i] = mustCreate(t, table, []native.SymbolID{a, c}, WithNext(chain))
	}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i].Resolve(nil, providers[i])
		}(i)
	}
	wg.Wait()

	for i, b := range results {
		assertNoErrors(t, providers[i])
		if _, ok := b.Store().TryGetType("B"); ok {
			t.Errorf("bag %d indexed a chain symbol locally", i)
		}
		ref, ok := b.TryGetType("B")
		if !ok || ref.Table == b.Table() {
			t.Errorf("bag %d: chain lookup through the bag = %+v", i, ref)
		}
		a := b.Table().Get(b.DefinedTypes()[0])
		ptr := b.Table().Get(b.Table().Get(a.Members[0]).Type)
		named := b.Table().Get(ptr.RealType)
		if !b.Table().Contains(named.RealType) || b.Table().Get(named.RealType).Name != "B" {
			t.Errorf("bag %d: B bound outside its own table", i)
		}
		v, err := b.EvaluateConstant("TWICE")
		if err != nil || v.Int64() != 84 {
			t.Errorf("bag %d: TWICE = %v, %v", i, v, err)
		}
	}

	if chainTable.Len() != chainLen {
		t.Errorf("chain table grew from %d to %d", chainLen, chainTable.Len())
	}
	if len(chain.FindUnresolvedRelationships()) != 0 {
		t.Error("chain changed state")
	}
}

func TestResolve_ChainCountsAsProgress(t *testing.T) {
	// the chain copy of Outer references Inner, which is only bound once
	// the copy is part of the graph
	chainTable := native.NewTable()
	inner := chainTable.NewStruct("Inner", chainTable.NewMember("x", intType(chainTable)))
	outer := chainTable.NewStruct("Outer", chainTable.NewMember("in", chainTable.NewNamedType("struct", "Inner")))
	chain, _ := mustCreate(t, chainTable, []native.SymbolID{inner, outer})

	table := native.NewTable()
	s := table.NewStruct("S", table.NewMember("o", table.NewNamedType("", "Outer")))
	b, ep := mustCreate(t, table, []native.SymbolID{s}, WithNext(chain))
	res := b.Resolve(nil, ep)

	assertNoErrors(t, ep)
	if !res.Resolved || !b.IsResolved(s) {
		t.Errorf("S not resolved: %+v", res)
	}
	if res.Bound != 2 {
		t.Errorf("Bound = %d, want 2", res.Bound)
	}
}

func TestEvaluateConstant(t *testing.T) {
	table := native.NewTable()
	ids := []native.SymbolID{
		table.NewEnum("Color",
			table.NewEnumValue("RED", ""),
			table.NewEnumValue("GREEN", "5"),
			table.NewEnumValue("BLUE", ""),
		),
		table.NewConstant("FOO", "(GREEN << 1)", native.ConstantMacro),
		table.NewConstant("BAR", "FOO + BLUE", native.ConstantMacro),
		table.NewConstant("PI", "3.5", native.ConstantMacro),
		table.NewConstant("LOOP_A", "LOOP_B", native.ConstantMacro),
		table.NewConstant("LOOP_B", "LOOP_A", native.ConstantMacro),
	}
	b, ep := mustCreate(t, table, ids)
	b.Resolve(nil, ep)
	assertNoErrors(t, ep)

	tests := []struct {
		name string
		want int64
	}{
		{"RED", 0},
		{"GREEN", 5},
		{"BLUE", 6},
		{"FOO", 10},
		{"BAR", 16},
	}
	for _, tt := range tests {
		v, err := b.EvaluateConstant(tt.name)
		if err != nil {
			t.Errorf("EvaluateConstant(%s): %v", tt.name, err)
			continue
		}
		if v.Int64() != tt.want {
			t.Errorf("EvaluateConstant(%s) = %v, want %d", tt.name, v, tt.want)
		}
	}

	if v, err := b.EvaluateConstant("PI"); err != nil || v.Float64() != 3.5 {
		t.Errorf("PI = %v, %v", v, err)
	}
	if _, err := b.EvaluateConstant("LOOP_A"); !errors.Is(err, errors.EvaluationFailed) {
		t.Errorf("cycle: got %v, want EVALUATION_FAILED", err)
	}
	if _, err := b.EvaluateConstant("NOPE"); !errors.Is(err, errors.SymbolNotFound) {
		t.Errorf("missing: got %v, want SYMBOL_NOT_FOUND", err)
	}
}

func TestCollapse(t *testing.T) {
	table := native.NewTable()
	t1 := table.NewTypeDef("T1", intType(table))
	t2 := table.NewTypeDef("T2", table.NewNamedType("", "T1"))
	field := table.NewMember("v", table.NewNamedType("", "T2"))
	s := table.NewStruct("S", field)

	b, ep := mustCreate(t, table, []native.SymbolID{t1, t2, s})
	b.Resolve(nil, ep)
	assertNoErrors(t, ep)

	snapshot := func() map[native.SymbolID][]native.SymbolID {
		out := make(map[native.SymbolID][]native.SymbolID)
		for _, id := range b.FindAllReachableSymbols() {
			out[id] = table.Get(id).Children()
		}
		return out
	}

	if n := b.CollapseNamedTypes(); n == 0 {
		t.Fatal("CollapseNamedTypes replaced nothing")
	}
	once := snapshot()
	if n := b.CollapseNamedTypes(); n != 0 {
		t.Errorf("second CollapseNamedTypes replaced %d children", n)
	}
	twice := snapshot()
	if len(once) != len(twice) {
		t.Fatalf("graph size changed: %d vs %d", len(once), len(twice))
	}
	for id, children := range once {
		other := twice[id]
		if len(other) != len(children) {
			t.Errorf("children of %d changed", id)
			continue
		}
		for i := range children {
			if children[i] != other[i] {
				t.Errorf("children of %d changed", id)
			}
		}
	}

	b.CollapseTypedefs()
	if got := table.Get(table.Get(field).Type); got.Kind != native.KindBuiltin {
		t.Errorf("member type = %s, want the builtin at the end of the typedef chain", table.DisplayName(got.ID()))
	}
	if n := b.CollapseTypedefs(); n != 0 {
		t.Errorf("second CollapseTypedefs replaced %d children", n)
	}
}

func TestRenameTypeSymbol(t *testing.T) {
	table := native.NewTable()
	foo := table.NewStruct("Foo")
	ref := table.NewNamedType("struct", "Foo")
	bar := table.NewStruct("Bar", table.NewMember("f", table.NewPointer(ref)))
	def := table.NewTypeDef("Foo", table.NewNamedType("struct", "Foo"))

	b, _ := mustCreate(t, table, []native.SymbolID{foo, bar, def})
	n, err := b.RenameTypeSymbol("Foo", "Baz")
	if err != nil {
		t.Fatalf("RenameTypeSymbol: %v", err)
	}
	if n != 3 {
		t.Errorf("renamed %d symbols, want 3", n)
	}
	if table.Get(ref).Name != "Baz" {
		t.Errorf("named type = %q, want Baz", table.Get(ref).Name)
	}
	if table.Get(def).Name != "Foo" {
		t.Error("typedef was renamed")
	}
	if id, ok := b.Store().TryGetType("Baz"); !ok || id != foo {
		t.Errorf("TryGetType(Baz) = %d, %v", id, ok)
	}
	if id, ok := b.Store().TryGetType("Foo"); !ok || id != def {
		t.Errorf("TryGetType(Foo) = %d, want the typedef", id)
	}
}

type recordingSaver struct {
	names []string
}

func (s *recordingSaver) SaveSymbols(_ context.Context, table *native.Table, ids []native.SymbolID) error {
	for _, id := range ids {
		s.names = append(s.names, table.Get(id).Name)
	}
	return nil
}

func TestSaveTo(t *testing.T) {
	table := native.NewTable()
	ids := []native.SymbolID{
		table.NewProcedure("Run", table.NewSignature(intType(table))),
		table.NewStruct("Good", table.NewMember("x", intType(table))),
		table.NewStruct("Bad", table.NewMember("m", table.NewNamedType("", "Missing"))),
		table.NewTypeDef("GoodT", table.NewNamedType("", "Good")),
		table.NewConstant("ONE", "1", native.ConstantMacro),
	}
	b, ep := mustCreate(t, table, ids)
	b.Resolve(nil, ep)

	saver := &recordingSaver{}
	n, err := b.SaveTo(context.Background(), saver)
	if err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	want := []string{"ONE", "Good", "GoodT", "Run"}
	if n != len(want) || strings.Join(saver.names, ",") != strings.Join(want, ",") {
		t.Errorf("saved %v, want %v", saver.names, want)
	}
}
