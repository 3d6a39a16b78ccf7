package keymanager

import (
	"fyne.io/fyne/v2"
)

// pageSize is how far PageUp/PageDown move the cursor.
const pageSize = 20

// BrowserInterface is what BrowserKeyHandler drives: the listing panel of
// the browse window.
type BrowserInterface interface {
	CursorIndex() int
	RowCount() int
	SetCursor(index int)

	OpenCursor()
	GoUp()
	Refresh()
	Approve()
	Cancel()
	TypeAhead(r rune)
	ShowLocationPicker()
	FocusLocation()
}

// BrowserKeyHandler handles keys for the listing panel. Printable runes
// feed quick-search.
type BrowserKeyHandler struct {
	browser    BrowserInterface
	debugPrint func(format string, args ...interface{})
}

// NewBrowserKeyHandler creates a new browser key handler
func NewBrowserKeyHandler(b BrowserInterface, debugPrint func(format string, args ...interface{})) *BrowserKeyHandler {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &BrowserKeyHandler{browser: b, debugPrint: debugPrint}
}

// GetName returns the name of this handler
func (bh *BrowserKeyHandler) GetName() string {
	return "Browser"
}

// OnTypedKey handles navigation keys
func (bh *BrowserKeyHandler) OnTypedKey(ev *fyne.KeyEvent, modifiers ModifierState) bool {
	cur, n := bh.browser.CursorIndex(), bh.browser.RowCount()

	switch ev.Name {
	case fyne.KeyUp:
		if modifiers.ShiftPressed {
			bh.move(0, n)
		} else {
			bh.move(cur-1, n)
		}
	case fyne.KeyDown:
		if modifiers.ShiftPressed {
			bh.move(n-1, n)
		} else {
			bh.move(cur+1, n)
		}
	case fyne.KeyHome:
		bh.move(0, n)
	case fyne.KeyEnd:
		bh.move(n-1, n)
	case fyne.KeyPageUp:
		bh.move(cur-pageSize, n)
	case fyne.KeyPageDown:
		bh.move(cur+pageSize, n)

	case fyne.KeyReturn, fyne.KeyEnter:
		if modifiers.CtrlPressed {
			bh.browser.Approve()
		} else {
			bh.browser.OpenCursor()
		}
	case fyne.KeyBackspace:
		bh.browser.GoUp()
	case fyne.KeyF5:
		bh.browser.Refresh()
	case fyne.KeyEscape:
		bh.browser.Cancel()
	case fyne.KeyF6:
		bh.browser.FocusLocation()
	case fyne.KeyF7:
		bh.browser.ShowLocationPicker()
	default:
		return false
	}
	return true
}

// OnTypedRune forwards printable characters to quick-search
func (bh *BrowserKeyHandler) OnTypedRune(r rune, modifiers ModifierState) bool {
	if modifiers.CtrlPressed {
		return false
	}
	bh.browser.TypeAhead(r)
	return true
}

func (bh *BrowserKeyHandler) move(to, n int) {
	if n == 0 {
		return
	}
	if to < 0 {
		to = 0
	}
	if to >= n {
		to = n - 1
	}
	bh.debugPrint("Browser: cursor -> %d", to)
	bh.browser.SetCursor(to)
}
