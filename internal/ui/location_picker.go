package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"vfsnav/internal/favorites"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/keymanager"
)

// PickerItem is one row of the location picker.
type PickerItem struct {
	Section string // "System", "Favorites", "Imported" or "History"
	Name    string
	URL     string
}

func (it PickerItem) label() string {
	if it.Name == "" || it.Name == it.URL {
		return it.Section + ": " + it.URL
	}
	return it.Section + ": " + it.Name + "  (" + it.URL + ")"
}

// PickerItems lists favorites in model order (system, user, then imported
// when non-empty) followed by the navigation history.
func PickerItems(model *favorites.Model, history []string) []PickerItem {
	var items []PickerItem
	if model != nil {
		for _, f := range model.System() {
			items = append(items, PickerItem{Section: "System", Name: f.Name, URL: f.URL})
		}
		for _, f := range model.User() {
			items = append(items, PickerItem{Section: "Favorites", Name: f.Name, URL: f.URL})
		}
		for _, f := range model.Imported() {
			items = append(items, PickerItem{Section: "Imported", Name: f.Name, URL: f.URL})
		}
	}
	for _, h := range history {
		items = append(items, PickerItem{Section: "History", Name: fileinfo.BaseName(h), URL: h})
	}
	return items
}

// filterPickerItems keeps items whose name or URL contains query, ignoring
// case.
func filterPickerItems(items []PickerItem, query string) []PickerItem {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}
	var out []PickerItem
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), query) || strings.Contains(strings.ToLower(it.URL), query) {
			out = append(out, it)
		}
	}
	return out
}

// LocationPicker is a searchable dialog over favorites and history.
// Typing filters, Enter navigates to the selected location and, when
// nothing matches, to the typed text as a URL.
type LocationPicker struct {
	searchEntry   *widget.Entry
	list          *widget.List
	all           []PickerItem
	filtered      []PickerItem
	selectedIndex int
	dialog        dialog.Dialog
	callback      func(url string)
	parent        fyne.Window
	keyManager    *keymanager.KeyManager
	sink          *KeySink
	closed        bool
	debugPrint    func(format string, args ...interface{})
}

func NewLocationPicker(items []PickerItem, km *keymanager.KeyManager, debugPrint func(format string, args ...interface{})) *LocationPicker {
	lp := &LocationPicker{all: items, keyManager: km, selectedIndex: -1, debugPrint: debugPrint}
	lp.searchEntry = widget.NewEntry()
	lp.searchEntry.SetPlaceHolder("Type to filter, or enter a URL...")
	lp.searchEntry.OnChanged = func(string) { lp.updateFiltered() }
	lp.searchEntry.OnSubmitted = func(string) { lp.AcceptSelection() }
	lp.list = widget.NewList(
		func() int { return len(lp.filtered) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(lp.filtered) {
				obj.(*widget.Label).SetText(lp.filtered[id].label())
			}
		},
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		lp.selectedIndex = id
		if lp.parent != nil && lp.sink != nil {
			lp.parent.Canvas().Focus(lp.sink)
		}
	}
	lp.updateFiltered()
	return lp
}

func (lp *LocationPicker) updateFiltered() {
	lp.filtered = filterPickerItems(lp.all, lp.searchEntry.Text)
	lp.list.UnselectAll()
	lp.list.Refresh()
	if len(lp.filtered) > 0 {
		lp.list.Select(0)
	} else {
		lp.selectedIndex = -1
	}
}

// Show opens the dialog; callback receives the chosen URL.
func (lp *LocationPicker) Show(parent fyne.Window, callback func(url string)) {
	lp.parent, lp.callback = parent, callback

	scroll := container.NewScroll(lp.list)
	scroll.SetMinSize(fyne.NewSize(600, 360))
	content := container.NewBorder(lp.searchEntry, nil, nil, nil, scroll)

	lp.keyManager.PushHandler(keymanager.NewPickerKeyHandler(lp, lp.debugPrint))
	lp.sink = NewKeySink(content, lp.keyManager)

	lp.dialog = dialog.NewCustomConfirm("Go to location", "Go", "Cancel", lp.sink, func(ok bool) {
		if ok {
			lp.AcceptSelection()
		} else {
			lp.CancelDialog()
		}
	}, parent)
	lp.dialog.Show()
	parent.Canvas().Focus(lp.sink)
}

func (lp *LocationPicker) MoveUp() {
	if lp.selectedIndex > 0 {
		lp.list.Select(lp.selectedIndex - 1)
	}
}

func (lp *LocationPicker) MoveDown() {
	if lp.selectedIndex < len(lp.filtered)-1 {
		lp.list.Select(lp.selectedIndex + 1)
	}
}

func (lp *LocationPicker) MoveToTop() {
	if len(lp.filtered) > 0 {
		lp.list.Select(0)
	}
}

func (lp *LocationPicker) MoveToBottom() {
	if len(lp.filtered) > 0 {
		lp.list.Select(len(lp.filtered) - 1)
	}
}

func (lp *LocationPicker) AppendToSearch(char string) {
	lp.searchEntry.SetText(lp.searchEntry.Text + char)
}

func (lp *LocationPicker) BackspaceSearch() {
	if t := []rune(lp.searchEntry.Text); len(t) > 0 {
		lp.searchEntry.SetText(string(t[:len(t)-1]))
	}
}

func (lp *LocationPicker) ClearSearch() {
	lp.searchEntry.SetText("")
}

// AcceptSelection navigates to the selected item, or to the search text
// when the filter matches nothing.
func (lp *LocationPicker) AcceptSelection() {
	target := ""
	switch {
	case lp.selectedIndex >= 0 && lp.selectedIndex < len(lp.filtered):
		target = lp.filtered[lp.selectedIndex].URL
	case strings.TrimSpace(lp.searchEntry.Text) != "":
		target = strings.TrimSpace(lp.searchEntry.Text)
	}
	if !lp.close() {
		return
	}
	if target != "" && lp.callback != nil {
		lp.debugPrint("LocationPicker: go to %s", target)
		lp.callback(target)
	}
}

func (lp *LocationPicker) CancelDialog() {
	lp.close()
}

func (lp *LocationPicker) close() bool {
	if lp.closed {
		return false
	}
	lp.closed = true
	lp.keyManager.PopHandler()
	if lp.dialog != nil {
		lp.dialog.Hide()
	}
	if lp.parent != nil {
		lp.parent.Canvas().Unfocus()
	}
	return true
}
