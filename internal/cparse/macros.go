package cparse

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"cinterop/internal/expr"
	"cinterop/internal/native"
)

// MacroTable holds predefined macros, usually the platform headers' values
// for names a header uses but does not define.
type MacroTable map[string]string

type macroFile struct {
	Macros map[string]string `toml:"macros"`
}

// LoadMacroTable reads a TOML file with a [macros] table of NAME = "value"
func LoadMacroTable(path string) (MacroTable, error) {
	var f macroFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to load macro table: %w", err)
	}
	return MacroTable(f.Macros), nil
}

// ParseMacroTable decodes a macro table held in memory
func ParseMacroTable(data string) (MacroTable, error) {
	var f macroFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse macro table: %w", err)
	}
	return MacroTable(f.Macros), nil
}

// AddMacros adds each macro the header did not define itself as a Constant,
// in name order. Macros that are not constant expressions are only recorded
// in Macros. It returns the number of constants added.
func (r *Result) AddMacros(m MacroTable) int {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	added := 0
	for _, name := range names {
		if _, defined := r.Macros[name]; defined {
			continue
		}
		value := m[name]
		r.Macros[name] = value
		if !isConstantExpression(value) {
			continue
		}
		r.Symbols = append(r.Symbols, r.Table.NewConstant(name, value, native.ConstantMacro))
		added++
	}
	return added
}

func isConstantExpression(text string) bool {
	if text == "" {
		return false
	}
	_, err := expr.Parse(text)
	return err == nil
}
