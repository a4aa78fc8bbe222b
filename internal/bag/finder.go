package bag

import "io"

// Finder locates the shared library exporting a procedure. A Finder that
// also implements io.Closer is closed when the Resolve call using it ends.
type Finder interface {
	TryFindDllNameExact(name string) (string, bool)
}

// NoFinder never finds a library
type NoFinder struct{}

// TryFindDllNameExact implements Finder
func (NoFinder) TryFindDllNameExact(string) (string, bool) { return "", false }

// backfillDllNames offers every procedure without a library to the finder.
// A miss leaves the procedure untouched.
func (b *Bag) backfillDllNames(finder Finder) int {
	if finder == nil {
		return 0
	}
	found := 0
	for _, id := range b.store.Procedures() {
		proc := b.table.Get(id)
		if proc.DllName != "" {
			continue
		}
		if dll, ok := finder.TryFindDllNameExact(proc.Name); ok {
			proc.DllName = dll
			found++
		}
	}
	return found
}

func closeFinder(finder Finder) error {
	if c, ok := finder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
