package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cinterop/internal/config"
	"cinterop/internal/native"
	"cinterop/internal/slogutil"
	"cinterop/internal/storage"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	s := &session{
		root:   t.TempDir(),
		cfg:    config.DefaultConfig(),
		logger: slogutil.NewDiscardLogger(),
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedDatabase stores enum Color { RED, GREEN = 5, BLUE }, LIMIT = BLUE * 2
// and struct POINT in the session's storage directory.
func seedDatabase(t *testing.T, s *session) {
	t.Helper()
	store, err := storage.OpenStore(s.path(s.cfg.Storage.Directory), s.logger)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	table := native.NewTable()
	color := table.NewEnum("Color",
		table.NewEnumValue("RED", ""),
		table.NewEnumValue("GREEN", "5"),
		table.NewEnumValue("BLUE", ""),
	)
	limit := table.NewConstant("LIMIT", "BLUE * 2", native.ConstantMacro)
	intType, _ := table.NewBuiltinByName("int")
	point := table.NewStruct("POINT", table.NewMember("x", intType), table.NewMember("y", intType))

	if err := store.SaveSymbols(context.Background(), table, []native.SymbolID{color, limit, point}); err != nil {
		t.Fatalf("SaveSymbols failed: %v", err)
	}
}

func TestSession_Lookup(t *testing.T) {
	s := newTestSession(t)
	seedDatabase(t, s)

	tests := []struct {
		name      string
		namespace string
		wantFound bool
		wantKind  string
		wantValue string
	}{
		{"LIMIT", "any", true, "Constant", "12"},
		{"BLUE", "value", true, "EnumNameValue", "6"},
		{"POINT", "type", true, "StructType", ""},
		{"POINT", "value", false, "", ""},
		{"MISSING", "any", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.namespace, func(t *testing.T) {
			resp, err := s.lookup(tt.name, tt.namespace, nil)
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if resp.Found != tt.wantFound {
				t.Fatalf("Found = %v, want %v", resp.Found, tt.wantFound)
			}
			if !tt.wantFound {
				return
			}
			if resp.Symbol.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", resp.Symbol.Kind, tt.wantKind)
			}
			if resp.Value != tt.wantValue || resp.Error != "" {
				t.Errorf("Value = %q (error %q), want %q", resp.Value, resp.Error, tt.wantValue)
			}
		})
	}

	if _, err := s.lookup("LIMIT", "macro", nil); err == nil {
		t.Error("expected error for unknown namespace")
	}
}

func TestSession_Units(t *testing.T) {
	s := newTestSession(t)
	seedDatabase(t, s)

	resp, err := s.units(context.Background(), "")
	if err != nil {
		t.Fatalf("units failed: %v", err)
	}
	// the enum's three values are stored alongside it
	if resp.Symbols != 6 {
		t.Errorf("Symbols = %d, want 6", resp.Symbols)
	}
	if len(resp.Units) != 0 {
		t.Errorf("Units = %v, want none for SaveSymbols", resp.Units)
	}
}

func TestSession_Finder(t *testing.T) {
	s := newTestSession(t)

	f, err := s.finder()
	if err != nil || f != nil {
		t.Fatalf("finder() = %v, %v; want nil without configuration", f, err)
	}

	manifest := filepath.Join(s.root, "exports.toml")
	content := "[[library]]\nname = \"libdemo.so\"\nsymbols = [\"demo_open\"]\n"
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	s.cfg.Exports.Manifests = []string{"exports.toml"}

	f, err = s.finder()
	if err != nil {
		t.Fatalf("finder() failed: %v", err)
	}
	if dll, ok := f.TryFindDllNameExact("demo_open"); !ok || dll != "libdemo.so" {
		t.Errorf("demo_open found in %q, %v", dll, ok)
	}
}

func TestSession_OpenChainError(t *testing.T) {
	s := newTestSession(t)
	blocker := filepath.Join(s.root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := s.openChain([]string{"file"}); err == nil {
		t.Error("expected error when a chain database path is a file")
	}
}
