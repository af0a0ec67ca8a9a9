// Package index holds the in-memory beach list that every search reads. It is
// loaded once at startup and then kept current by the change feed.
package index

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// Index is a concurrency-safe, name-ordered list of beaches.
type Index struct {
	mu      sync.RWMutex
	beaches []domain.BeachRecord
	loaded  bool
}

// New returns an empty, unloaded index.
func New() *Index {
	return &Index{}
}

// Replace swaps the full beach list and marks the index loaded.
func (i *Index) Replace(beaches []domain.BeachRecord) {
	cp := make([]domain.BeachRecord, len(beaches))
	copy(cp, beaches)
	sortByName(cp)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.beaches = cp
	i.loaded = true
}

// Apply inserts or updates one beach and returns the record it replaced, if
// any. Inserts for an id already present are treated as updates.
func (i *Index) Apply(change domain.BeachChange) *domain.BeachRecord {
	i.mu.Lock()
	defer i.mu.Unlock()

	for n := range i.beaches {
		if i.beaches[n].ID != change.New.ID {
			continue
		}
		old := i.beaches[n]
		i.beaches[n] = change.New
		if old.Name != change.New.Name {
			sortByName(i.beaches)
		}
		return &old
	}

	i.beaches = append(i.beaches, change.New)
	sortByName(i.beaches)
	return nil
}

// Beaches returns a copy of the current list, ordered by name.
func (i *Index) Beaches() []domain.BeachRecord {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]domain.BeachRecord, len(i.beaches))
	copy(out, i.beaches)
	return out
}

// Get returns the beach with the given id.
func (i *Index) Get(id string) (domain.BeachRecord, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, b := range i.beaches {
		if b.ID == id {
			return b, true
		}
	}
	return domain.BeachRecord{}, false
}

// Len returns the number of beaches held.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.beaches)
}

// Loaded reports whether an initial beach list has been installed.
func (i *Index) Loaded() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.loaded
}

// CheckReadiness returns nil once an initial beach list has been installed.
func (i *Index) CheckReadiness(_ context.Context) error {
	if !i.Loaded() {
		return errors.New("beach index has not been loaded yet")
	}
	return nil
}

// sortByName matches the backend's "order by name" so search results keep a
// stable, predictable order after live updates.
func sortByName(beaches []domain.BeachRecord) {
	sort.SliceStable(beaches, func(a, b int) bool {
		return beaches[a].Name < beaches[b].Name
	})
}
