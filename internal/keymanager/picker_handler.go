package keymanager

import (
	"unicode"

	"fyne.io/fyne/v2"
)

// PickerInterface defines the interface needed by PickerKeyHandler
type PickerInterface interface {
	MoveUp()
	MoveDown()
	MoveToTop()
	MoveToBottom()

	AppendToSearch(char string)
	BackspaceSearch()
	ClearSearch()

	AcceptSelection()
	CancelDialog()
}

// PickerKeyHandler handles keyboard events for the location picker
// (favorites and navigation history)
type PickerKeyHandler struct {
	picker     PickerInterface
	debugPrint func(format string, args ...interface{})
}

// NewPickerKeyHandler creates a new picker key handler
func NewPickerKeyHandler(p PickerInterface, debugPrint func(format string, args ...interface{})) *PickerKeyHandler {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &PickerKeyHandler{picker: p, debugPrint: debugPrint}
}

// GetName returns the name of this handler
func (ph *PickerKeyHandler) GetName() string {
	return "LocationPicker"
}

// OnTypedKey handles typed key events
func (ph *PickerKeyHandler) OnTypedKey(ev *fyne.KeyEvent, modifiers ModifierState) bool {
	ph.debugPrint("LocationPicker: OnTypedKey %s", ev.Name)

	switch ev.Name {
	case fyne.KeyUp:
		if modifiers.ShiftPressed {
			ph.picker.MoveToTop()
		} else {
			ph.picker.MoveUp()
		}
	case fyne.KeyDown:
		if modifiers.ShiftPressed {
			ph.picker.MoveToBottom()
		} else {
			ph.picker.MoveDown()
		}
	case fyne.KeyReturn, fyne.KeyEnter:
		ph.picker.AcceptSelection()
	case fyne.KeyEscape:
		ph.picker.CancelDialog()
	case fyne.KeyBackspace:
		ph.picker.BackspaceSearch()
	case fyne.KeyDelete:
		ph.picker.ClearSearch()
	default:
		return false
	}
	return true
}

// OnTypedRune handles text input to update the search field
func (ph *PickerKeyHandler) OnTypedRune(r rune, modifiers ModifierState) bool {
	if unicode.IsPrint(r) && !unicode.IsControl(r) {
		ph.picker.AppendToSearch(string(r))
		return true
	}
	return false
}
