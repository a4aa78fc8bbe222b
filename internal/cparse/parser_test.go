//go:build cgo

package cparse

import (
	"context"
	"strings"
	"testing"

	"cinterop/internal/bag"
	"cinterop/internal/diagnostics"
	"cinterop/internal/native"
)

const sampleHeader = `
#ifndef SAMPLE_H
#define SAMPLE_H

#define MAX_NAME 32
#define FLAG_MASK (0x10 | 0x01)

struct Point {
    int x;
    int y;
};

typedef struct {
    float width;
    float height;
} Size;

typedef struct Node *NodePtr;

struct Node {
    struct Node *next;
    char name[MAX_NAME];
    unsigned int visited : 1;
    unsigned int depth : 3;
};

enum Color { RED, GREEN = 5, BLUE };

typedef int (*compare_fn)(const void *a, const void *b);

int get_name(char *buf, int len);
void reset(void);
int log_message(const char *fmt, ...);
unsigned long long checksum(const unsigned char *data, size_t len);

#endif
`

func parse(t *testing.T, src string) *Result {
	t.Helper()
	p := NewParser()
	if p == nil {
		t.Skip("tree-sitter not available")
	}
	res, err := p.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return res
}

func findSymbol(t *testing.T, res *Result, kind native.Kind, name string) *native.Symbol {
	t.Helper()
	for _, id := range res.Symbols {
		s := res.Table.Get(id)
		if s.Kind == kind && s.Name == name {
			return s
		}
	}
	t.Fatalf("no %s named %q among top-level symbols", kind, name)
	return nil
}

func TestParse_Structs(t *testing.T) {
	res := parse(t, sampleHeader)

	point := findSymbol(t, res, native.KindStruct, "Point")
	if len(point.Members) != 2 {
		t.Fatalf("Point has %d members, want 2", len(point.Members))
	}
	x := res.Table.Get(point.Members[0])
	if x.Name != "x" || res.Table.DisplayName(x.Type) != "int" {
		t.Errorf("first member = %s %s, want int x", res.Table.DisplayName(x.Type), x.Name)
	}

	node := findSymbol(t, res, native.KindStruct, "Node")
	if len(node.Members) != 4 {
		t.Fatalf("Node has %d members, want 4", len(node.Members))
	}
	next := res.Table.Get(node.Members[0])
	if got := res.Table.DisplayName(next.Type); got != "struct Node*" {
		t.Errorf("next has type %q, want struct Node*", got)
	}
	name := res.Table.Get(node.Members[1])
	if got := res.Table.DisplayName(name.Type); got != "char[32]" {
		t.Errorf("name has type %q, want char[32]", got)
	}
	for i, want := range []int{1, 3} {
		bits := res.Table.Get(res.Table.Get(node.Members[2+i]).Type)
		if bits.Kind != native.KindBitVector || bits.Size != want {
			t.Errorf("bitfield %d = %s size %d, want bitvector size %d", i, bits.Kind, bits.Size, want)
		}
	}
}

func TestParse_TypeDefs(t *testing.T) {
	res := parse(t, sampleHeader)

	size := findSymbol(t, res, native.KindTypeDef, "Size")
	anon := res.Table.Get(size.RealType)
	if anon.Kind != native.KindStruct || !native.IsAnonymousName(anon.Name) {
		t.Errorf("Size aliases %s %q, want an anonymous struct", anon.Kind, anon.Name)
	}
	findSymbol(t, res, native.KindStruct, anon.Name)

	nodePtr := findSymbol(t, res, native.KindTypeDef, "NodePtr")
	if got := res.Table.DisplayName(nodePtr.RealType); got != "struct Node*" {
		t.Errorf("NodePtr aliases %q, want struct Node*", got)
	}

	cmp := findSymbol(t, res, native.KindTypeDef, "compare_fn")
	fp := res.Table.Get(cmp.RealType)
	if fp.Kind != native.KindFunctionPointer || fp.Name != "compare_fn" {
		t.Fatalf("compare_fn aliases %s %q, want function pointer compare_fn", fp.Kind, fp.Name)
	}
	sig := res.Table.Get(fp.Signature)
	if len(sig.Parameters) != 2 || res.Table.DisplayName(sig.ReturnType) != "int" {
		t.Errorf("compare_fn signature = %s", res.Table.DisplayName(fp.Signature))
	}
}

func TestParse_Enum(t *testing.T) {
	res := parse(t, sampleHeader)

	color := findSymbol(t, res, native.KindEnum, "Color")
	var names []string
	for _, id := range color.Members {
		names = append(names, res.Table.Get(id).Name)
	}
	if strings.Join(names, ",") != "RED,GREEN,BLUE" {
		t.Errorf("enumerators = %v", names)
	}
	red := res.Table.Get(color.Members[0])
	if red.ValueExpression.IsValid() {
		t.Error("RED should have no explicit value")
	}
	green := res.Table.Get(color.Members[1])
	if ve := res.Table.Get(green.ValueExpression); ve == nil || ve.Expression != "5" {
		t.Error("GREEN should carry the expression 5")
	}
}

func TestParse_Procedures(t *testing.T) {
	res := parse(t, sampleHeader)

	tests := []struct {
		name     string
		params   int
		variadic bool
		ret      string
	}{
		{"get_name", 2, false, "int"},
		{"reset", 0, false, "void"},
		{"log_message", 1, true, "int"},
		{"checksum", 2, false, "unsigned long long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := findSymbol(t, res, native.KindProcedure, tt.name)
			sig := res.Table.Get(proc.Signature)
			if len(sig.Parameters) != tt.params {
				t.Errorf("params = %d, want %d", len(sig.Parameters), tt.params)
			}
			if sig.Variadic != tt.variadic {
				t.Errorf("variadic = %v, want %v", sig.Variadic, tt.variadic)
			}
			if got := res.Table.DisplayName(sig.ReturnType); got != tt.ret {
				t.Errorf("return type = %q, want %q", got, tt.ret)
			}
		})
	}

	get := findSymbol(t, res, native.KindProcedure, "get_name")
	buf := res.Table.Get(res.Table.Get(get.Signature).Parameters[0])
	if buf.Name != "buf" || res.Table.DisplayName(buf.Type) != "char*" {
		t.Errorf("first parameter = %s", res.Table.DisplayName(buf.ID()))
	}
}

func TestParse_Macros(t *testing.T) {
	res := parse(t, sampleHeader)

	if v, ok := res.Macros["SAMPLE_H"]; !ok || v != "" {
		t.Errorf("SAMPLE_H = %q, %v; want empty, true", v, ok)
	}
	if res.Macros["MAX_NAME"] != "32" {
		t.Errorf("MAX_NAME = %q, want 32", res.Macros["MAX_NAME"])
	}

	findSymbol(t, res, native.KindConstant, "MAX_NAME")
	findSymbol(t, res, native.KindConstant, "FLAG_MASK")
	for _, id := range res.Symbols {
		if res.Table.Get(id).Name == "SAMPLE_H" {
			t.Error("an empty macro should not become a constant")
		}
	}
}

func TestParse_ConditionalArms(t *testing.T) {
	res := parse(t, `
#ifdef UNICODE
#define TEXT_WIDTH 2
int open_file(const wchar_t *path);
#else
#define TEXT_WIDTH 1
int open_file(const char *path);
#endif
`)

	if res.Macros["TEXT_WIDTH"] != "2" {
		t.Errorf("TEXT_WIDTH = %q, want the first arm's 2", res.Macros["TEXT_WIDTH"])
	}
	count := 0
	for _, id := range res.Symbols {
		if res.Table.Get(id).Name == "open_file" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("open_file produced %d times, want 1", count)
	}
	if len(res.Duplicates) != 2 {
		t.Errorf("Duplicates = %v, want 2 entries", res.Duplicates)
	}
}

func TestParse_ResolvesInBag(t *testing.T) {
	res := parse(t, sampleHeader)

	ep := diagnostics.NewProvider()
	b, err := bag.CreateFrom(res.Table, res.Symbols, ep)
	if err != nil {
		t.Fatalf("CreateFrom failed: %v", err)
	}
	result := b.Resolve(nil, ep)
	if ep.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", ep.String())
	}
	if !result.Resolved {
		t.Error("header should resolve on its own")
	}

	v, err := b.EvaluateConstant("FLAG_MASK")
	if err != nil || v.Int64() != 0x11 {
		t.Errorf("FLAG_MASK = %v, %v; want 17", v, err)
	}
	if v, err := b.EvaluateConstant("BLUE"); err != nil || v.Int64() != 6 {
		t.Errorf("BLUE = %v, %v; want 6", v, err)
	}
}

func TestResult_AddMacros(t *testing.T) {
	res := parse(t, "#define LIMIT 4\n")
	table, err := ParseMacroTable(`
[macros]
LIMIT = "99"
MAX_PATH = "260"
WINAPI = "__stdcall"
`)
	if err != nil {
		t.Fatalf("ParseMacroTable failed: %v", err)
	}

	if added := res.AddMacros(table); added != 1 {
		t.Errorf("AddMacros added %d constants, want 1", added)
	}
	if res.Macros["LIMIT"] != "4" {
		t.Error("a header definition should win over the macro table")
	}
	if res.Macros["WINAPI"] != "__stdcall" {
		t.Error("non-expression macros should still be recorded")
	}
	findSymbol(t, res, native.KindConstant, "MAX_PATH")
}
