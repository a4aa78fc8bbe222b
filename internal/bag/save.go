package bag

import (
	"context"
	"fmt"

	"cinterop/internal/native"
)

// Saver persists top-level declarations so they can later serve as a
// chained lookup
type Saver interface {
	SaveSymbols(ctx context.Context, table *native.Table, ids []native.SymbolID) error
}

// SaveTo persists the fully resolved constants, defined types, typedefs
// and procedures, in that order. Unresolved declarations are skipped.
func (b *Bag) SaveTo(ctx context.Context, s Saver) (int, error) {
	memo := make(ResolvedMemo)
	var ids []native.SymbolID
	ids = append(ids, b.filterResolved(b.store.Constants(), memo)...)
	ids = append(ids, b.filterResolved(b.store.DefinedTypes(), memo)...)
	ids = append(ids, b.filterResolved(b.store.TypeDefs(), memo)...)
	ids = append(ids, b.filterResolved(b.store.Procedures(), memo)...)

	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.SaveSymbols(ctx, b.table, ids); err != nil {
		return 0, fmt.Errorf("save resolved symbols: %w", err)
	}
	b.logger.Debug("Saved resolved symbols", "count", len(ids))
	return len(ids), nil
}
