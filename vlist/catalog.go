package vlist

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// Catalog holds the entries of a .vlist file by variable name.
//
// Catalog is safe for concurrent use: pollers can look up variables while the file is reloaded.
type Catalog struct {
	entries *xsync.MapOf[string, Entry]
}

// NewCatalog creates a catalog holding entries. A later entry replaces an earlier one of the same name.
func NewCatalog(entries ...Entry) *Catalog {
	c := &Catalog{entries: xsync.NewMapOf[string, Entry]()}
	c.Reload(entries)

	return c
}

// LoadCatalog creates a catalog from the .vlist file at path.
func LoadCatalog(path string) (*Catalog, error) {
	entries, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	return NewCatalog(entries...), nil
}

// Lookup returns the entry of the variable name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	return c.entries.Load(name)
}

// Len returns the number of variables in the catalog.
func (c *Catalog) Len() int {
	return c.entries.Size()
}

// Names returns the sorted variable names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, c.entries.Size())
	c.entries.Range(func(name string, _ Entry) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)

	return names
}

// Entries returns the entries sorted by name.
func (c *Catalog) Entries() []Entry {
	names := c.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if entry, ok := c.entries.Load(name); ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// Reload merges entries into the catalog: known variables are updated in place and new ones are added.
// Variables missing from entries are kept. It returns the number of added and updated variables.
func (c *Catalog) Reload(entries []Entry) (added int, updated int) {
	for _, entry := range entries {
		if _, loaded := c.entries.LoadAndStore(entry.Name, entry); loaded {
			updated++
		} else {
			added++
		}
	}

	return added, updated
}

// ReloadFile merges the entries of the .vlist file at path, see Reload.
func (c *Catalog) ReloadFile(path string) (added int, updated int, err error) {
	entries, err := ParseFile(path)
	if err != nil {
		return 0, 0, err
	}

	added, updated = c.Reload(entries)

	return added, updated, nil
}
