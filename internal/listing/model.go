package listing

import (
	"slices"
	"sync"

	"vfsnav/internal/fileinfo"
)

// Model holds the raw rows of the current location and the filtered,
// sorted view shown to the user.
type Model struct {
	mu     sync.RWMutex
	rows   []fileinfo.FileRef
	filter Filter
	order  Order
	view   []fileinfo.FileRef
}

func NewModel() *Model {
	return &Model{filter: NewFilter("", false)}
}

// SetRows replaces the contents.
func (m *Model) SetRows(rows []fileinfo.FileRef) {
	m.mu.Lock()
	m.rows = append([]fileinfo.FileRef(nil), rows...)
	m.rebuildLocked()
	m.mu.Unlock()
}

// SetFilter recompiles the filter and reports whether the text is invalid.
func (m *Model) SetFilter(text string, showHidden bool) (invalid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = NewFilter(text, showHidden)
	m.rebuildLocked()
	return m.filter.Invalid()
}

// SetState applies a whole FilterState.
func (m *Model) SetState(s FilterState) (invalid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = NewFilter(s.Text, s.ShowHidden)
	m.order = s.Order
	m.rebuildLocked()
	return m.filter.Invalid()
}

func (m *Model) SetOrder(o Order) {
	m.mu.Lock()
	m.order = o
	m.rebuildLocked()
	m.mu.Unlock()
}

func (m *Model) Order() Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.order
}

func (m *Model) Filter() Filter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

func (m *Model) rebuildLocked() {
	view := make([]fileinfo.FileRef, 0, len(m.rows))
	for _, r := range m.rows {
		if m.filter.Accept(r) {
			view = append(view, r)
		}
	}
	order := m.order
	slices.SortStableFunc(view, func(a, b fileinfo.FileRef) int { return Compare(a, b, order) })
	m.view = view
}

// View returns a copy of the visible rows.
func (m *Model) View() []fileinfo.FileRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]fileinfo.FileRef(nil), m.view...)
}

// Rows returns a copy of all rows, unfiltered and unsorted.
func (m *Model) Rows() []fileinfo.FileRef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]fileinfo.FileRef(nil), m.rows...)
}

// Len is the number of visible rows.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.view)
}

// Row returns visible row i.
func (m *Model) Row(i int) (fileinfo.FileRef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.view) {
		return fileinfo.FileRef{}, false
	}
	return m.view[i], true
}

// IndexOf returns the visible index of url, or -1.
func (m *Model) IndexOf(url string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, r := range m.view {
		if r.URL == url && !r.IsParent() {
			return i
		}
	}
	return -1
}

// Names returns the base names of the visible rows in order.
func (m *Model) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.view))
	for i, r := range m.view {
		out[i] = r.BaseName
	}
	return out
}

// Replace swaps the row with the same URL, keeping the view order rules.
// It is used when the link probe refines a row.
func (m *Model) Replace(r fileinfo.FileRef) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].URL == r.URL && !m.rows[i].IsParent() {
			m.rows[i] = r
			m.rebuildLocked()
			return true
		}
	}
	return false
}
