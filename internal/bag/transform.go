package bag

import (
	"fmt"

	"cinterop/internal/transform"
)

// CollapseNamedTypes replaces bound NamedTypes with their targets across
// the bag's declarations
func (b *Bag) CollapseNamedTypes() int {
	n := transform.CollapseNamedTypes(b.table, b.store.Roots())
	b.logger.Debug("Collapsed named types", "count", n)
	return n
}

// CollapseTypedefs replaces uses of typedefs with their final targets
func (b *Bag) CollapseTypedefs() int {
	n := transform.CollapseTypedefs(b.table, b.store.Roots())
	b.logger.Debug("Collapsed typedefs", "count", n)
	return n
}

// RenameTypeSymbol renames defined types and NamedTypes called oldName and
// reindexes the store
func (b *Bag) RenameTypeSymbol(oldName, newName string) (int, error) {
	n := transform.RenameTypeSymbol(b.table, b.store.Roots(), oldName, newName)
	if n == 0 {
		return 0, nil
	}
	if err := b.store.Reindex(); err != nil {
		return n, fmt.Errorf("rename %s to %s: %w", oldName, newName, err)
	}
	return n, nil
}
