package diagnostics

import (
	"strings"
	"testing"
)

func TestProvider(t *testing.T) {
	p := NewProvider()
	if p.HasErrors() {
		t.Fatal("new provider has errors")
	}

	p.AddWarning("NamedType", "Foo", "Treating '%s' as pointer to opaque type", "Foo")
	p.AddError("NamedType", "Bar", "Failed to resolve name '%s'", "Bar")
	p.AddError("Value", "BAZ", "Failed to resolve value '%s'", "BAZ")

	if !p.HasErrors() {
		t.Error("HasErrors() = false after AddError")
	}
	if p.ErrorCount() != 2 || p.WarningCount() != 1 {
		t.Errorf("counts = %d errors, %d warnings; want 2, 1", p.ErrorCount(), p.WarningCount())
	}

	errs := p.Errors()
	if len(errs) != 2 || errs[0].Name != "Bar" || errs[1].Name != "BAZ" {
		t.Errorf("Errors() = %v", errs)
	}
	warns := p.Warnings()
	if len(warns) != 1 || warns[0].Message != "Treating 'Foo' as pointer to opaque type" {
		t.Errorf("Warnings() = %v", warns)
	}

	all := p.All()
	if len(all) != 3 || all[0].Severity != Warning {
		t.Errorf("All() = %v", all)
	}

	out := p.String()
	if !strings.Contains(out, "error: Failed to resolve name 'Bar'") {
		t.Errorf("String() missing error line:\n%s", out)
	}
	if !strings.HasSuffix(out, "2 error(s), 1 warning(s)") {
		t.Errorf("String() missing summary:\n%s", out)
	}
}
