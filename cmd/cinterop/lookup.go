package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cinterop/internal/bag"
	"cinterop/internal/diagnostics"
	"cinterop/internal/native"
)

var (
	lookupFormat    string
	lookupDatabases []string
	lookupNamespace string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Find a name in the symbol databases",
	Long: `Look a name up in the storage database and the chain databases, in that
order. Constants and enumerators are evaluated.

Examples:
  cinterop lookup RECT
  cinterop lookup MAX_PATH --namespace value
  cinterop lookup HANDLE --db sdk/db --format human`,
	Args: cobra.ExactArgs(1),
	Run:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFormat, "format", "human", "Output format (json, yaml, human)")
	lookupCmd.Flags().StringSliceVar(&lookupDatabases, "db", nil, "Additional symbol database directories")
	lookupCmd.Flags().StringVar(&lookupNamespace, "namespace", "any", "Namespace to search (type, value, any)")
	rootCmd.AddCommand(lookupCmd)
}

// LookupResponseCLI is the output of the lookup command
type LookupResponseCLI struct {
	Name   string     `json:"name" yaml:"name"`
	Found  bool       `json:"found" yaml:"found"`
	Symbol *SymbolCLI `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s *session) lookup(name, namespace string, extra []string) (*LookupResponseCLI, error) {
	dirs := append([]string{s.cfg.Storage.Directory}, extra...)
	chain, err := s.openChain(dirs)
	if err != nil {
		return nil, err
	}
	lookups := bag.Chain(chain)

	var (
		ref bag.Ref
		ok  bool
	)
	switch namespace {
	case "type":
		ref, ok = lookups.TryGetType(name)
	case "value":
		ref, ok = lookups.TryGetValue(name)
	case "any", "":
		ref, ok = lookups.TryGetGlobalSymbol(name)
	default:
		return nil, fmt.Errorf("unknown namespace %q", namespace)
	}

	resp := &LookupResponseCLI{Name: name, Found: ok}
	if !ok {
		return resp, nil
	}

	sym := ref.Symbol()
	desc := describeSymbol(ref.Table, ref.ID, true)
	resp.Symbol = &desc

	if sym.Kind == native.KindConstant || sym.Kind == native.KindEnumValue {
		v, err := evaluateThroughChain(name, chain)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Value = v
		}
	}
	return resp, nil
}

// evaluateThroughChain evaluates a stored constant by resolving a probe
// constant that references it, so enum owners and dependent constants are
// loaded the same way a header would load them.
func evaluateThroughChain(name string, chain []bag.Lookup) (string, error) {
	table := native.NewTable()
	probe := native.GenerateAnonymousName()
	id := table.NewConstant(probe, name, native.ConstantExpression)

	ep := diagnostics.NewProvider()
	b, err := bag.CreateFrom(table, []native.SymbolID{id}, ep, bag.WithNext(chain...))
	if err != nil {
		return "", err
	}
	b.Resolve(nil, ep)
	if ep.HasErrors() {
		return "", fmt.Errorf("%s", ep.Errors()[0].Message)
	}

	v, err := b.EvaluateConstant(probe)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func runLookup(cmd *cobra.Command, args []string) {
	s, err := newSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	resp, err := s.lookup(args[0], lookupNamespace, lookupDatabases)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error looking up %s: %v\n", args[0], err)
		s.Close()
		os.Exit(1)
	}

	output, err := FormatResponse(resp, OutputFormat(lookupFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		s.Close()
		os.Exit(1)
	}
	fmt.Println(output)

	if !resp.Found {
		s.Close()
		os.Exit(1)
	}
}
