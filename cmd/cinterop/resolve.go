package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cinterop/internal/bag"
	"cinterop/internal/cparse"
	"cinterop/internal/diagnostics"
	"cinterop/internal/native"
)

var (
	resolveFormat           string
	resolveAllowPartial     bool
	resolveMaxIterations    int
	resolveDatabases        []string
	resolveCollapseTypedefs bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file.h>",
	Short: "Parse a header and resolve its declarations",
	Long: `Parse a C header, resolve every named type and value it references, and
print the declarations with their resolution state.

Names the header does not define are looked up in the configured chain
databases, then in any --db given here, then among the builtin C types.

Examples:
  cinterop resolve include/api.h
  cinterop resolve include/api.h --db sdk/db --format human
  cinterop resolve include/api.h --allow-partial --format yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "json", "Output format (json, yaml, human)")
	resolveCmd.Flags().BoolVar(&resolveAllowPartial, "allow-partial", false, "Exit 0 even when some references stay unresolved")
	resolveCmd.Flags().IntVar(&resolveMaxIterations, "max-iterations", 0, "Cap on resolve iterations (default from config)")
	resolveCmd.Flags().StringSliceVar(&resolveDatabases, "db", nil, "Additional symbol database directories to chain")
	resolveCmd.Flags().BoolVar(&resolveCollapseTypedefs, "collapse-typedefs", false, "Replace typedef references with their final target")
	rootCmd.AddCommand(resolveCmd)
}

type resolveOptions struct {
	maxIterations      int
	databases          []string
	collapseNamedTypes bool
	collapseTypedefs   bool
}

func (s *session) resolveOptions() resolveOptions {
	opts := resolveOptions{
		maxIterations:      s.cfg.Resolve.MaxIterations,
		databases:          resolveDatabases,
		collapseNamedTypes: s.cfg.Resolve.CollapseNamedTypes,
		collapseTypedefs:   s.cfg.Resolve.CollapseTypedefs || resolveCollapseTypedefs,
	}
	if resolveMaxIterations > 0 {
		opts.maxIterations = resolveMaxIterations
	}
	return opts
}

// resolvedHeader is a parsed header together with its resolved bag
type resolvedHeader struct {
	path        string
	source      []byte
	parsed      *cparse.Result
	bag         *bag.Bag
	result      bag.ResolveResult
	diagnostics *diagnostics.Provider
}

func (s *session) resolveHeader(ctx context.Context, path string, opts resolveOptions) (*resolvedHeader, error) {
	start := time.Now()

	parsed, source, err := s.parse(ctx, path)
	if err != nil {
		return nil, err
	}
	chain, err := s.openChain(opts.databases)
	if err != nil {
		return nil, err
	}
	finder, err := s.finder()
	if err != nil {
		return nil, err
	}

	ep := diagnostics.NewProvider()
	for _, e := range parsed.Errors {
		ep.AddWarning("", "", "%s:%s", path, e)
	}

	b, err := bag.CreateFrom(parsed.Table, parsed.Symbols, ep,
		bag.WithNext(chain...),
		bag.WithLogger(s.logger),
		bag.WithMaxIterations(opts.maxIterations),
	)
	if err != nil {
		return nil, err
	}
	result := b.Resolve(finder, ep)

	if opts.collapseNamedTypes {
		n := b.CollapseNamedTypes()
		s.logger.Debug("Collapsed named types", "count", n)
	}
	if opts.collapseTypedefs {
		n := b.CollapseTypedefs()
		s.logger.Debug("Collapsed typedefs", "count", n)
	}

	s.logger.Info("Resolved header",
		"file", path,
		"resolved", result.Resolved,
		"iterations", result.Iterations,
		"errors", ep.ErrorCount(),
		"warnings", ep.WarningCount(),
		"duration", time.Since(start).Milliseconds(),
	)

	return &resolvedHeader{
		path:        path,
		source:      source,
		parsed:      parsed,
		bag:         b,
		result:      result,
		diagnostics: ep,
	}, nil
}

func runResolve(cmd *cobra.Command, args []string) {
	s, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	r, err := s.resolveHeader(cmd.Context(), args[0], s.resolveOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", args[0], err)
		s.Close()
		os.Exit(1)
	}

	output, err := FormatResponse(newResolveResponse(r), OutputFormat(resolveFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		s.Close()
		os.Exit(1)
	}
	fmt.Println(output)

	if r.diagnostics.HasErrors() && !resolveAllowPartial {
		s.Close()
		os.Exit(1)
	}
}

// ResolveResponseCLI is the output of the resolve command
type ResolveResponseCLI struct {
	File        string            `json:"file" yaml:"file"`
	Result      bag.ResolveResult `json:"result" yaml:"result"`
	Symbols     []SymbolCLI       `json:"symbols" yaml:"symbols"`
	Diagnostics []DiagnosticCLI   `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// SymbolCLI describes one top-level declaration
type SymbolCLI struct {
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind" yaml:"kind"`
	Resolved bool   `json:"resolved" yaml:"resolved"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Library  string `json:"library,omitempty" yaml:"library,omitempty"`
}

// DiagnosticCLI is a diagnostic with a readable severity
type DiagnosticCLI struct {
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

func newResolveResponse(r *resolvedHeader) *ResolveResponseCLI {
	resp := &ResolveResponseCLI{
		File:        r.path,
		Result:      r.result,
		Symbols:     describeSymbols(r.bag, r.bag.Store().Roots()),
		Diagnostics: convertDiagnostics(r.diagnostics),
	}
	return resp
}

func describeSymbols(b *bag.Bag, ids []native.SymbolID) []SymbolCLI {
	memo := make(bag.ResolvedMemo)
	out := make([]SymbolCLI, 0, len(ids))
	for _, id := range ids {
		out = append(out, describeSymbol(b.Table(), id, b.IsResolvedWith(id, memo)))
	}
	return out
}

func describeSymbol(t *native.Table, id native.SymbolID, resolved bool) SymbolCLI {
	sym := t.Get(id)
	desc := SymbolCLI{
		Name:     sym.Name,
		Kind:     sym.Kind.String(),
		Resolved: resolved,
	}
	switch sym.Kind {
	case native.KindTypeDef:
		desc.Type = t.DisplayName(sym.RealType)
	case native.KindProcedure:
		desc.Type = t.DisplayName(sym.Signature)
		desc.Library = sym.DllName
	case native.KindConstant, native.KindEnumValue:
		if ve := t.Get(sym.ValueExpression); ve != nil {
			desc.Type = ve.Expression
		}
	}
	return desc
}

func convertDiagnostics(ep *diagnostics.Provider) []DiagnosticCLI {
	all := ep.All()
	out := make([]DiagnosticCLI, 0, len(all))
	for _, d := range all {
		out = append(out, DiagnosticCLI{
			Severity: d.Severity.String(),
			Message:  d.Message,
			Kind:     d.Kind,
			Name:     d.Name,
		})
	}
	return out
}
