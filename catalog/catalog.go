// Package catalog provides the immutable in-memory drug catalog and its lookup operations.
// A Catalog is built once from the loaded records and never modified afterwards, so it
// can be shared by any number of concurrent readers without locking.
package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/giygas/drugcatalog-api/entities"
	"github.com/giygas/drugcatalog-api/interfaces"
	"golang.org/x/text/unicode/norm"
)

// Compile-time check to ensure Catalog implements DrugStore
var _ interfaces.DrugStore = (*Catalog)(nil)

// Catalog holds the drug records together with the indexes built at load time
type Catalog struct {
	records      []entities.DrugRecord
	index        map[string]int        // lowercased name or alias -> first record position
	interactions []map[string]struct{} // per record, exact interaction names
	conditions   []string              // per record, lowercased used_for
	checksum     string
	loadedAt     time.Time
}

// New builds a catalog from records. The slice is copied; later changes by the
// caller are not observed.
func New(records []entities.DrugRecord, checksum string) *Catalog {
	c := &Catalog{
		records:      slices.Clone(records),
		index:        make(map[string]int, len(records)*2),
		interactions: make([]map[string]struct{}, len(records)),
		conditions:   make([]string, len(records)),
		checksum:     checksum,
		loadedAt:     time.Now(),
	}

	// Insertion order mirrors a linear scan: per record the name is tried
	// before its aliases, and an earlier record always keeps a key.
	for i := range c.records {
		rec := &c.records[i]

		c.addKey(rec.Name, i)
		for _, alias := range rec.Aliases {
			c.addKey(alias, i)
		}

		set := make(map[string]struct{}, len(rec.Interactions))
		for _, name := range rec.Interactions {
			set[name] = struct{}{}
		}
		c.interactions[i] = set
		c.conditions[i] = strings.ToLower(rec.UsedFor)
	}

	return c
}

func (c *Catalog) addKey(key string, pos int) {
	k := foldKey(key)
	if _, exists := c.index[k]; !exists {
		c.index[k] = pos
	}
}

// foldKey is the matching form of a stored name or alias
func foldKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// normalizeQuery is the matching form of user input
func normalizeQuery(s string) string {
	return foldKey(strings.TrimSpace(s))
}

// Records returns a copy of all records in dataset order
func (c *Catalog) Records() []entities.DrugRecord {
	return slices.Clone(c.records)
}

// Count returns the number of records
func (c *Catalog) Count() int {
	return len(c.records)
}

// Checksum returns the checksum of the dataset the catalog was built from
func (c *Catalog) Checksum() string {
	return c.checksum
}

// LoadedAt returns when the catalog was built
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}
