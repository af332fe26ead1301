package concepts

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
)

//go:embed scripts/*.yaml
var builtin embed.FS

// Catalog is an ordered set of concepts keyed by id
type Catalog struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Concept
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]*Concept)}
}

// Default loads the built-in lessons
func Default() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "scripts")
	if err != nil {
		return nil, err
	}
	c := NewCatalog()
	if err := c.Load(sub); err != nil {
		return nil, fmt.Errorf("built-in scripts: %w", err)
	}
	return c, nil
}

// Load adds every *.yaml script in fsys, in file name order. A script whose id
// is already present replaces the earlier one in place.
func (c *Catalog) Load(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		concept, err := Parse(name, data)
		if err != nil {
			return err
		}
		c.Add(concept)
		Logger.Debug("concept loaded", "id", concept.ID, "file", name, "steps", concept.Len())
	}
	return nil
}

// LoadDir adds the scripts found in a directory on disk
func (c *Catalog) LoadDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	if err := c.Load(os.DirFS(dir)); err != nil {
		return fmt.Errorf("%s: %w", path.Clean(dir), err)
	}
	return nil
}

// Add inserts or replaces a concept
func (c *Catalog) Add(concept *Concept) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[concept.ID]; !exists {
		c.order = append(c.order, concept.ID)
	}
	c.byID[concept.ID] = concept
}

// Get looks up a concept by id
func (c *Catalog) Get(id string) (*Concept, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	concept, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConcept, id)
	}
	return concept, nil
}

// List returns the concepts in catalog order
func (c *Catalog) List() []*Concept {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Concept, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns the concept ids in catalog order
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}
