package memory

import (
	"context"
	"regexp"
	"sync"

	"github.com/aretw0/orocos/pkg/domain"
)

// Catalog implements ports.PackageCatalog over a fixed list of entries.
type Catalog struct {
	mu       sync.RWMutex
	packages []domain.PackageEntry
	scans    int
}

// NewCatalog creates a catalog holding entries, in that order.
func NewCatalog(entries ...domain.PackageEntry) *Catalog {
	return &Catalog{packages: append([]domain.PackageEntry(nil), entries...)}
}

// Add appends an entry.
func (c *Catalog) Add(entries ...domain.PackageEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packages = append(c.packages, entries...)
}

// Packages returns the entries whose name matches pattern, in insertion order.
func (c *Catalog) Packages(ctx context.Context, pattern *regexp.Regexp) ([]domain.PackageEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scans++

	var out []domain.PackageEntry
	for _, p := range c.packages {
		if pattern.MatchString(p.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Scans returns how many times Packages has been called.
func (c *Catalog) Scans() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scans
}
