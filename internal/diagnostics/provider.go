// Package diagnostics collects the warnings and errors reported while
// building and resolving a symbol bag. Resolution problems are recorded
// here instead of being returned, so callers decide whether a partially
// resolved graph is still usable.
package diagnostics

import (
	"fmt"
	"strings"
	"sync"
)

// Severity of a diagnostic
type Severity int

const (
	Warning Severity = iota + 1
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is one reported problem. Kind and Name identify the symbol the
// problem concerns and may be empty.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Kind     string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
}

func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Message
}

// Provider is an ordered diagnostics sink
type Provider struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	errorCount  int
	warnCount   int
}

// NewProvider creates an empty provider
func NewProvider() *Provider {
	return &Provider{}
}

// Add records a diagnostic
func (p *Provider) Add(d Diagnostic) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.diagnostics = append(p.diagnostics, d)
	switch d.Severity {
	case Error:
		p.errorCount++
	case Warning:
		p.warnCount++
	}
}

// AddError records an error about the named symbol
func (p *Provider) AddError(kind, name, format string, args ...any) {
	p.Add(Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Kind: kind, Name: name})
}

// AddWarning records a warning about the named symbol
func (p *Provider) AddWarning(kind, name, format string, args ...any) {
	p.Add(Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Kind: kind, Name: name})
}

// All returns a copy of every diagnostic in report order
func (p *Provider) All() []Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Diagnostic, len(p.diagnostics))
	copy(out, p.diagnostics)
	return out
}

// Errors returns the error diagnostics in report order
func (p *Provider) Errors() []Diagnostic {
	return p.filter(Error)
}

// Warnings returns the warning diagnostics in report order
func (p *Provider) Warnings() []Diagnostic {
	return p.filter(Warning)
}

func (p *Provider) filter(sev Severity) []Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Diagnostic
	for _, d := range p.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error was recorded
func (p *Provider) HasErrors() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorCount > 0
}

// ErrorCount returns the number of errors
func (p *Provider) ErrorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errorCount
}

// WarningCount returns the number of warnings
func (p *Provider) WarningCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.warnCount
}

// String renders one diagnostic per line followed by a summary
func (p *Provider) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for _, d := range p.diagnostics {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d error(s), %d warning(s)", p.errorCount, p.warnCount)
	return b.String()
}
