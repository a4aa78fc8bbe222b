package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"cinterop/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatYAML(resp interface{}) (string, error) {
	data, err := yaml.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ResolveResponseCLI:
		return formatResolveHuman(v), nil
	case *SaveResponseCLI:
		return formatSaveHuman(v), nil
	case *LookupResponseCLI:
		return formatLookupHuman(v), nil
	case *UnitsResponseCLI:
		return formatUnitsHuman(v), nil
	case version.BuildInfo:
		return fmt.Sprintf("cinterop version %s\nCommit: %s\nBuilt: %s\nGo: %s %s",
			v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform), nil
	default:
		return formatJSON(resp)
	}
}

func formatResolveHuman(resp *ResolveResponseCLI) string {
	var b strings.Builder

	status := "resolved"
	if !resp.Result.Resolved {
		status = "partially resolved"
	}
	b.WriteString(fmt.Sprintf("%s: %s in %d iteration(s)\n", resp.File, status, resp.Result.Iterations))
	b.WriteString(fmt.Sprintf("  bound %d, opaque %d, failed %d, libraries found %d\n\n",
		resp.Result.Bound, resp.Result.Opaque, resp.Result.Failed, resp.Result.DllNames))

	for _, s := range resp.Symbols {
		b.WriteString(formatSymbolLine(s))
		b.WriteByte('\n')
	}

	if len(resp.Diagnostics) > 0 {
		b.WriteString("\nDiagnostics:\n")
		for _, d := range resp.Diagnostics {
			b.WriteString(fmt.Sprintf("  %s: %s\n", d.Severity, d.Message))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSymbolLine(s SymbolCLI) string {
	mark := "✓"
	if !s.Resolved {
		mark = "✗"
	}
	line := fmt.Sprintf("  %s %-12s %s", mark, s.Kind, s.Name)
	if s.Type != "" {
		line += " = " + s.Type
	}
	if s.Library != "" {
		line += " [" + s.Library + "]"
	}
	return line
}

func formatSaveHuman(resp *SaveResponseCLI) string {
	var b strings.Builder
	switch {
	case resp.Skipped:
		b.WriteString(fmt.Sprintf("%s unchanged since unit %s, nothing saved", resp.File, resp.UnitID))
	case resp.Database == "":
		b.WriteString(fmt.Sprintf("%s not saved", resp.File))
	default:
		b.WriteString(fmt.Sprintf("Saved %d symbol(s) from %s to %s", resp.Saved, resp.File, resp.Database))
	}
	for _, d := range resp.Diagnostics {
		b.WriteString(fmt.Sprintf("\n  %s: %s", d.Severity, d.Message))
	}
	return b.String()
}

func formatLookupHuman(resp *LookupResponseCLI) string {
	if !resp.Found {
		return fmt.Sprintf("%s: not found", resp.Name)
	}
	out := strings.TrimSpace(formatSymbolLine(*resp.Symbol))
	if resp.Value != "" {
		out += "\n  value: " + resp.Value
	}
	if resp.Error != "" {
		out += "\n  cannot evaluate: " + resp.Error
	}
	return out
}

func formatUnitsHuman(resp *UnitsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: %d symbol(s), %d unit(s)\n", resp.Database, resp.Symbols, len(resp.Units)))
	for _, u := range resp.Units {
		digest := u.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		b.WriteString(fmt.Sprintf("  %-24s %4d symbol(s)  %s  %s\n",
			u.Name, u.SymbolCount, digest, u.CreatedAt.Format("2006-01-02 15:04")))
	}
	return strings.TrimRight(b.String(), "\n")
}
