// Package favorites keeps the three favorite collections shown next to the
// file list: system locations, user favorites and imported bookmarks.
package favorites

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	apperrors "vfsnav/internal/errors"
)

// Type tells which collection a favorite belongs to.
type Type int

const (
	TypeSystem Type = iota
	TypeUser
	TypeImported
)

func (t Type) String() string {
	switch t {
	case TypeUser:
		return "USER"
	case TypeImported:
		return "IMPORTED"
	default:
		return "SYSTEM"
	}
}

// Favorite is a named location.
type Favorite struct {
	Name  string
	URL   string
	Type  Type
	Group string
}

// Persister saves the user collection.
type Persister interface {
	Save(favs []Favorite) error
}

// Model holds the collections. Only the user collection is mutable and
// every change is written through the Persister.
type Model struct {
	mu       sync.RWMutex
	system   []Favorite
	user     []Favorite
	imported []Favorite
	store    Persister

	// loadErr is set when the persisted user list could not be read;
	// mutations are refused while it is set.
	loadErr error

	debugPrint func(format string, args ...interface{})
}

// NewModel builds a Model from already loaded collections. store may be nil.
func NewModel(system, user, imported []Favorite, store Persister, debugPrint func(string, ...interface{})) *Model {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &Model{
		system:     retype(system, TypeSystem),
		user:       retype(user, TypeUser),
		imported:   retype(imported, TypeImported),
		store:      store,
		debugPrint: debugPrint,
	}
}

func retype(in []Favorite, t Type) []Favorite {
	out := make([]Favorite, len(in))
	for i, f := range in {
		f.Type = t
		out[i] = f
	}
	return out
}

func (m *Model) System() []Favorite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.system)
}

func (m *Model) User() []Favorite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.user)
}

// Imported returns the bookmarks read at startup; empty means the section
// is not shown.
func (m *Model) Imported() []Favorite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.imported)
}

// Add appends f to the user collection.
func (m *Model) Add(f Favorite) error {
	if err := validate("add", f); err != nil {
		return err
	}
	f.Type = TypeUser
	return m.mutate(func(user []Favorite) ([]Favorite, error) {
		return append(user, f), nil
	})
}

// Remove deletes user favorite i.
func (m *Model) Remove(i int) error {
	return m.mutate(func(user []Favorite) ([]Favorite, error) {
		if i < 0 || i >= len(user) {
			return nil, indexError(i, len(user))
		}
		return slices.Delete(user, i, i+1), nil
	})
}

// Update replaces user favorite i.
func (m *Model) Update(i int, f Favorite) error {
	if err := validate("update", f); err != nil {
		return err
	}
	f.Type = TypeUser
	return m.mutate(func(user []Favorite) ([]Favorite, error) {
		if i < 0 || i >= len(user) {
			return nil, indexError(i, len(user))
		}
		user[i] = f
		return user, nil
	})
}

// Move reorders the user collection, as drag and drop does.
func (m *Model) Move(from, to int) error {
	return m.mutate(func(user []Favorite) ([]Favorite, error) {
		if from < 0 || from >= len(user) {
			return nil, indexError(from, len(user))
		}
		if to < 0 || to >= len(user) {
			return nil, indexError(to, len(user))
		}
		f := user[from]
		user = slices.Delete(user, from, from+1)
		return slices.Insert(user, to, f), nil
	})
}

// mutate applies fn to a copy of the user list, swaps it in and persists
// the new snapshot. A failed save is logged; memory stays authoritative.
func (m *Model) mutate(fn func([]Favorite) ([]Favorite, error)) error {
	m.mu.Lock()
	if m.loadErr != nil {
		m.mu.Unlock()
		return apperrors.NewFavoritesError("update", "", "favorites file could not be read, refusing to overwrite it", m.loadErr)
	}
	next, err := fn(slices.Clone(m.user))
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.user = next
	snapshot := slices.Clone(next)
	m.mu.Unlock()

	if m.store == nil {
		return nil
	}
	if err := m.store.Save(snapshot); err != nil {
		m.debugPrint("favorites: save failed: %v", err)
	}
	return nil
}

// refuseWrites marks the persisted list as unreadable.
func (m *Model) refuseWrites(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

// validate rejects favorites that could not be loaded back.
func validate(op string, f Favorite) error {
	if strings.TrimSpace(f.URL) == "" {
		return apperrors.NewFavoritesError(op, "", fmt.Sprintf("favorite %q has no URL", f.Name), nil)
	}
	return nil
}

func indexError(i, n int) error {
	return apperrors.NewFavoritesError("update", "", fmt.Sprintf("no user favorite at index %d", i),
		fmt.Errorf("index %d out of range [0,%d)", i, n))
}
