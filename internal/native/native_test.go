package native

import (
	"testing"

	"cinterop/internal/errors"
)

func TestAnonymousNames(t *testing.T) {
	a := GenerateAnonymousName()
	b := GenerateAnonymousName()

	if !IsAnonymousName(a) {
		t.Errorf("IsAnonymousName(%q) = false, want true", a)
	}
	if !IsAnonymousName(b) {
		t.Errorf("IsAnonymousName(%q) = false, want true", b)
	}
	if a == b {
		t.Errorf("two generated names are equal: %q", a)
	}

	for _, name := range []string{"Foo", "Anonymous_", "Anonymous_abc", "anonymous_1_2_3_4_5"} {
		if IsAnonymousName(name) {
			t.Errorf("IsAnonymousName(%q) = true, want false", name)
		}
	}
}

func TestKindCategory(t *testing.T) {
	tests := []struct {
		kind Kind
		want Category
	}{
		{KindStruct, CategoryDefined},
		{KindUnion, CategoryDefined},
		{KindEnum, CategoryDefined},
		{KindFunctionPointer, CategoryDefined},
		{KindTypeDef, CategoryProxy},
		{KindNamedType, CategoryProxy},
		{KindPointer, CategoryProxy},
		{KindArray, CategoryProxy},
		{KindBuiltin, CategorySpecialized},
		{KindOpaque, CategorySpecialized},
		{KindBitVector, CategorySpecialized},
		{KindProcedure, CategoryProcedure},
		{KindMember, CategoryExtra},
		{KindValue, CategoryExtra},
	}
	for _, tt := range tests {
		if got := tt.kind.Category(); got != tt.want {
			t.Errorf("%s.Category() = %s, want %s", tt.kind, got, tt.want)
		}
	}

	if k, ok := ParseKind(KindTypeDef.String()); !ok || k != KindTypeDef {
		t.Errorf("ParseKind round trip failed: %v %v", k, ok)
	}
}

func TestTryConvertToBuiltin(t *testing.T) {
	tests := []struct {
		name     string
		kind     BuiltinKind
		unsigned bool
	}{
		{"int", BuiltinInt32, false},
		{"unsigned   int", BuiltinInt32, true},
		{"char", BuiltinChar, false},
		{"long long", BuiltinInt64, false},
		{"uint8_t", BuiltinByte, true},
		{"double", BuiltinDouble, false},
		{"void", BuiltinVoid, false},
	}
	for _, tt := range tests {
		bt, ok := TryConvertToBuiltin(tt.name)
		if !ok {
			t.Errorf("TryConvertToBuiltin(%q) not found", tt.name)
			continue
		}
		if bt.Kind != tt.kind || bt.Unsigned != tt.unsigned {
			t.Errorf("TryConvertToBuiltin(%q) = %+v, want kind %s unsigned %v", tt.name, bt, tt.kind, tt.unsigned)
		}
	}
	if IsBuiltinName("Foo") {
		t.Error("IsBuiltinName(Foo) = true")
	}
}

func TestBindOnce(t *testing.T) {
	tbl := NewTable()
	a := tbl.NewStruct("A")
	b := tbl.NewStruct("B")
	ref := tbl.Get(tbl.NewNamedType("struct", "A"))

	if tbl.IsImmediateResolved(ref.ID()) {
		t.Fatal("unbound named type reported resolved")
	}
	if err := ref.BindRealType(a); err != nil {
		t.Fatalf("BindRealType: %v", err)
	}
	if err := ref.BindRealType(a); err != nil {
		t.Errorf("rebinding to the same target: %v", err)
	}
	err := ref.BindRealType(b)
	if !errors.Is(err, errors.AlreadyBound) {
		t.Errorf("rebinding to another target: got %v, want ALREADY_BOUND", err)
	}
	if ref.RealType != a {
		t.Errorf("RealType = %d, want %d", ref.RealType, a)
	}
	if !tbl.IsImmediateResolved(ref.ID()) {
		t.Error("bound named type reported unresolved")
	}

	if err := tbl.Get(a).BindRealType(b); !errors.Is(err, errors.InvalidArgument) {
		t.Errorf("binding a struct: got %v, want INVALID_ARGUMENT", err)
	}
	if err := ref.BindRealType(NoSymbol); err == nil {
		t.Error("binding to NoSymbol succeeded")
	}
}

func TestValueExpression(t *testing.T) {
	tbl := NewTable()
	ve := tbl.Get(tbl.NewValueExpression("(DWORD)FOO | FOO | 0x10"))

	if len(ve.Values) != 3 {
		t.Fatalf("got %d values, want 3", len(ve.Values))
	}
	want := []struct {
		kind ValueKind
		text string
	}{
		{ValueType, "DWORD"},
		{ValueSymbol, "FOO"},
		{ValueNumber, "0x10"},
	}
	for i, w := range want {
		v := tbl.Get(ve.Values[i])
		if v.ValueKind != w.kind {
			t.Errorf("value %d kind = %s, want %s", i, v.ValueKind, w.kind)
		}
		if got := tbl.DisplayName(v.ID()); got != w.text {
			t.Errorf("value %d = %q, want %q", i, got, w.text)
		}
	}

	if tbl.IsImmediateResolved(ve.ID()) {
		t.Error("expression with unbound references reported resolved")
	}
	_ = tbl.Get(ve.Values[0]).BindValue(tbl.NewBuiltin(Builtin{Kind: BuiltinInt32, Unsigned: true}, "unsigned int"))
	_ = tbl.Get(ve.Values[1]).BindValue(tbl.NewConstant("FOO", "1", ConstantMacro))
	if !tbl.IsImmediateResolved(ve.ID()) {
		t.Error("fully bound expression reported unresolved")
	}

	bad := tbl.Get(tbl.NewValueExpression("1 +"))
	if len(bad.Values) != 0 || bad.Expression != "1 +" {
		t.Errorf("unparsable expression = %+v", bad)
	}
}

func TestReplaceChild(t *testing.T) {
	tbl := NewTable()
	ref := tbl.NewNamedType("", "T")
	m1 := tbl.NewMember("a", ref)
	m2 := tbl.NewMember("b", ref)
	st := tbl.Get(tbl.NewStruct("S", m1, m2))
	target := tbl.NewBuiltin(Builtin{Kind: BuiltinInt32}, "int")

	if !tbl.Get(m1).ReplaceChild(ref, target) {
		t.Fatal("ReplaceChild reported no change")
	}
	if tbl.Get(m1).Type != target {
		t.Errorf("member type = %d, want %d", tbl.Get(m1).Type, target)
	}
	if tbl.Get(m1).ReplaceChild(ref, target) {
		t.Error("second ReplaceChild reported a change")
	}
	if got := st.Children(); len(got) != 2 || got[0] != m1 || got[1] != m2 {
		t.Errorf("Children() = %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	tbl := NewTable()
	foo := tbl.NewNamedType("struct", "Foo")
	tests := []struct {
		id   SymbolID
		want string
	}{
		{foo, "struct Foo"},
		{tbl.NewPointer(foo), "struct Foo*"},
		{tbl.NewArray(tbl.NewBuiltin(Builtin{Kind: BuiltinInt32}, "int"), 4), "int[4]"},
		{tbl.NewArray(tbl.NewNamedType("", "T"), UnknownElementCount), "T[]"},
		{tbl.NewTypeDef("Alias", foo), "Alias"},
	}
	for _, tt := range tests {
		if got := tbl.DisplayName(tt.id); got != tt.want {
			t.Errorf("DisplayName = %q, want %q", got, tt.want)
		}
	}
}

// struct Node { struct Node* next; };
func selfReferential(tbl *Table) SymbolID {
	ref := tbl.NewNamedType("struct", "Node")
	next := tbl.NewMember("next", tbl.NewPointer(ref))
	node := tbl.NewStruct("Node", next)
	_ = tbl.Get(ref).BindRealType(node)
	return node
}

func TestFindAllRelationships_Cycle(t *testing.T) {
	tbl := NewTable()
	node := selfReferential(tbl)

	rels := FindAllRelationships(tbl, []SymbolID{node})
	// root, member, pointer, named type, named type -> struct
	if len(rels) != 5 {
		t.Fatalf("got %d relationships, want 5: %v", len(rels), rels)
	}
	if rels[0] != (Relationship{Parent: NoSymbol, Symbol: node}) {
		t.Errorf("first relationship = %v, want root", rels[0])
	}
	last := rels[len(rels)-1]
	if last.Symbol != node || tbl.Get(last.Parent).Kind != KindNamedType {
		t.Errorf("last relationship = %v, want named type -> Node", last)
	}

	syms := FindAllSymbols(tbl, []SymbolID{node})
	if len(syms) != 4 {
		t.Errorf("got %d symbols, want 4", len(syms))
	}
}

func TestFindAllRelationships_SharedChild(t *testing.T) {
	tbl := NewTable()
	shared := tbl.NewNamedType("", "T")
	a := tbl.NewMember("a", shared)
	b := tbl.NewMember("b", shared)
	s := tbl.NewStruct("S", a, b)

	rels := FindAllRelationships(tbl, []SymbolID{s})
	count := 0
	for _, rel := range rels {
		if rel.Symbol == shared {
			count++
		}
	}
	if count != 2 {
		t.Errorf("shared child reported %d times, want 2", count)
	}

	want := []Relationship{
		{NoSymbol, s},
		{s, a},
		{a, shared},
		{s, b},
		{b, shared},
	}
	if len(rels) != len(want) {
		t.Fatalf("got %v, want %v", rels, want)
	}
	for i := range want {
		if rels[i] != want[i] {
			t.Errorf("rels[%d] = %v, want %v", i, rels[i], want[i])
		}
	}
}

func TestImporter(t *testing.T) {
	src := NewTable()
	node := selfReferential(src)
	before := src.Len()

	dst := NewTable()
	dst.NewStruct("Unrelated")
	im := NewImporter(dst)

	copied := im.Import(src, node)
	if got := dst.Get(copied); got == nil || got.Name != "Node" || got.Kind != KindStruct {
		t.Fatalf("imported symbol = %+v", got)
	}
	if src.Len() != before {
		t.Errorf("source table grew from %d to %d", before, src.Len())
	}
	if dst.Len() != 1+before {
		t.Errorf("destination has %d symbols, want %d", dst.Len(), 1+before)
	}

	// the cycle closes inside the destination table
	syms := FindAllSymbols(dst, []SymbolID{copied})
	for _, id := range syms {
		if !dst.Contains(id) {
			t.Errorf("symbol %d escapes the destination table", id)
		}
	}
	member := dst.Get(dst.Get(copied).Members[0])
	member.Name = "renamed"
	if src.Get(src.Get(node).Members[0]).Name != "next" {
		t.Error("mutating the copy changed the source")
	}

	if again := im.Import(src, node); again != copied {
		t.Errorf("second import = %d, want memoized %d", again, copied)
	}
	if got, ok := im.Imported(src, node); !ok || got != copied {
		t.Errorf("Imported = %d, %v", got, ok)
	}
}
