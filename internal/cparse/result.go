// Package cparse turns C header text into native symbols.
package cparse

import "cinterop/internal/native"

// Result is the output of parsing one translation unit
type Result struct {
	Table *native.Table

	// Symbols holds the top-level declarations in source order: defined
	// types, typedefs, procedures and macro constants.
	Symbols []native.SymbolID

	// Macros maps every object-like #define to its replacement text,
	// including those that are not constant expressions.
	Macros map[string]string

	// Errors describes syntax errors; the declarations around them are
	// still extracted.
	Errors []string

	// Duplicates names declarations dropped because an earlier one with
	// the same name was already produced, typically from #ifdef/#else arms.
	Duplicates []string
}

func newResult() *Result {
	return &Result{
		Table:  native.NewTable(),
		Macros: make(map[string]string),
	}
}
