package exports

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Library lists the procedures one shared library exports
type Library struct {
	// Name is the file name reported for matches, e.g. "user32.dll"
	Name string `toml:"name"`

	Symbols []string `toml:"symbols"`
}

// Manifest is the root of an exports manifest file
type Manifest struct {
	Libraries []Library `toml:"library"`
}

// ParseManifest decodes a manifest
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse exports manifest: %w", err)
	}
	for i, lib := range m.Libraries {
		if lib.Name == "" {
			return nil, fmt.Errorf("library %d in exports manifest has no name", i+1)
		}
	}
	return &m, nil
}

// LoadManifest reads a manifest from path
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exports manifest: %w", err)
	}
	return ParseManifest(data)
}

// ManifestFinder answers lookups from one or more manifests. When two
// libraries export the same name the one added first wins.
type ManifestFinder struct {
	owners map[string]string
}

// NewManifestFinder loads every manifest in paths
func NewManifestFinder(paths ...string) (*ManifestFinder, error) {
	f := &ManifestFinder{owners: make(map[string]string)}
	for _, path := range paths {
		m, err := LoadManifest(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f.Add(m)
	}
	return f, nil
}

// Add registers the libraries of m
func (f *ManifestFinder) Add(m *Manifest) {
	if f.owners == nil {
		f.owners = make(map[string]string)
	}
	for _, lib := range m.Libraries {
		for _, sym := range lib.Symbols {
			if _, exists := f.owners[sym]; !exists {
				f.owners[sym] = lib.Name
			}
		}
	}
}

// Len returns the number of known procedure names
func (f *ManifestFinder) Len() int {
	return len(f.owners)
}

// TryFindDllNameExact implements Finder
func (f *ManifestFinder) TryFindDllNameExact(name string) (string, bool) {
	dll, ok := f.owners[name]
	return dll, ok
}
