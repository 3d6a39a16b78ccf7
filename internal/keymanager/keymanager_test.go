package keymanager

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type mockBrowser struct {
	cursor, rows int
	calls        []string
	typed        []rune
}

func (m *mockBrowser) CursorIndex() int    { return m.cursor }
func (m *mockBrowser) RowCount() int       { return m.rows }
func (m *mockBrowser) SetCursor(i int)     { m.cursor = i }
func (m *mockBrowser) OpenCursor()         { m.calls = append(m.calls, "open") }
func (m *mockBrowser) GoUp()               { m.calls = append(m.calls, "up") }
func (m *mockBrowser) Refresh()            { m.calls = append(m.calls, "refresh") }
func (m *mockBrowser) Approve()            { m.calls = append(m.calls, "approve") }
func (m *mockBrowser) Cancel()             { m.calls = append(m.calls, "cancel") }
func (m *mockBrowser) TypeAhead(r rune)    { m.typed = append(m.typed, r) }
func (m *mockBrowser) ShowLocationPicker() { m.calls = append(m.calls, "picker") }
func (m *mockBrowser) FocusLocation()      { m.calls = append(m.calls, "location") }

func key(name fyne.KeyName) *fyne.KeyEvent { return &fyne.KeyEvent{Name: name} }

func TestKeyManagerStack(t *testing.T) {
	km := NewKeyManager(nil)
	if km.HandleTypedKey(key(fyne.KeyDown)) {
		t.Fatal("empty stack must not handle keys")
	}

	browser := &mockBrowser{rows: 3}
	km.PushHandler(NewBrowserKeyHandler(browser, nil))
	km.PushHandler(NewPickerKeyHandler(&mockPicker{}, nil))
	if got := km.ListHandlers(); len(got) != 2 || got[1] != "LocationPicker" {
		t.Fatalf("handlers = %v", got)
	}

	km.HandleTypedKey(key(fyne.KeyDown))
	if browser.cursor != 0 {
		t.Fatal("keys must go to the top handler only")
	}

	if h := km.PopHandler(); h.GetName() != "LocationPicker" {
		t.Fatalf("popped %s", h.GetName())
	}
	km.HandleTypedKey(key(fyne.KeyDown))
	if browser.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", browser.cursor)
	}
	km.PopHandler()
	if km.PopHandler() != nil || km.GetStackSize() != 0 {
		t.Fatal("pop on empty stack should return nil")
	}
}

func TestBrowserKeyHandlerCursorClamps(t *testing.T) {
	browser := &mockBrowser{rows: 5}
	h := NewBrowserKeyHandler(browser, nil)

	testCases := []struct {
		key  fyne.KeyName
		mods ModifierState
		want int
	}{
		{fyne.KeyUp, ModifierState{}, 0},
		{fyne.KeyDown, ModifierState{}, 1},
		{fyne.KeyEnd, ModifierState{}, 4},
		{fyne.KeyDown, ModifierState{}, 4},
		{fyne.KeyPageUp, ModifierState{}, 0},
		{fyne.KeyPageDown, ModifierState{}, 4},
		{fyne.KeyUp, ModifierState{ShiftPressed: true}, 0},
		{fyne.KeyDown, ModifierState{ShiftPressed: true}, 4},
		{fyne.KeyHome, ModifierState{}, 0},
	}
	for _, tc := range testCases {
		if !h.OnTypedKey(key(tc.key), tc.mods) {
			t.Fatalf("%s not handled", tc.key)
		}
		if browser.cursor != tc.want {
			t.Fatalf("after %s cursor = %d, want %d", tc.key, browser.cursor, tc.want)
		}
	}
}

func TestBrowserKeyHandlerActions(t *testing.T) {
	browser := &mockBrowser{rows: 2}
	km := NewKeyManager(nil)
	km.PushHandler(NewBrowserKeyHandler(browser, nil))

	km.HandleTypedKey(key(fyne.KeyReturn))
	km.HandleTypedKey(key(fyne.KeyBackspace))
	km.HandleTypedKey(key(fyne.KeyF5))
	km.HandleTypedKey(key(fyne.KeyEscape))
	km.HandleTypedKey(key(fyne.KeyF7))
	km.HandleKeyDown(key(desktop.KeyControlLeft))
	km.HandleTypedKey(key(fyne.KeyReturn))
	if km.HandleTypedRune('x') {
		t.Fatal("runes with ctrl held are not quick-search input")
	}
	km.HandleKeyUp(key(desktop.KeyControlLeft))
	km.HandleTypedRune('d')
	km.HandleTypedRune('o')

	want := []string{"open", "up", "refresh", "cancel", "picker", "approve"}
	if len(browser.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", browser.calls, want)
	}
	for i := range want {
		if browser.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", browser.calls, want)
		}
	}
	if string(browser.typed) != "do" {
		t.Fatalf("typed = %q", string(browser.typed))
	}
	if km.HandleTypedKey(key(fyne.KeyF1)) {
		t.Fatal("F1 should not be handled")
	}
}

type mockPicker struct {
	search   string
	pos      int
	accepted bool
	canceled bool
}

func (m *mockPicker) MoveUp()                 { m.pos-- }
func (m *mockPicker) MoveDown()               { m.pos++ }
func (m *mockPicker) MoveToTop()              { m.pos = 0 }
func (m *mockPicker) MoveToBottom()           { m.pos = 99 }
func (m *mockPicker) AppendToSearch(s string) { m.search += s }
func (m *mockPicker) BackspaceSearch() {
	if m.search != "" {
		m.search = m.search[:len(m.search)-1]
	}
}
func (m *mockPicker) ClearSearch()     { m.search = "" }
func (m *mockPicker) AcceptSelection() { m.accepted = true }
func (m *mockPicker) CancelDialog()    { m.canceled = true }

func TestPickerKeyHandler(t *testing.T) {
	p := &mockPicker{}
	h := NewPickerKeyHandler(p, nil)

	for _, r := range "sftpx" {
		h.OnTypedRune(r, ModifierState{})
	}
	h.OnTypedKey(key(fyne.KeyBackspace), ModifierState{})
	if p.search != "sftp" {
		t.Fatalf("search = %q", p.search)
	}
	h.OnTypedKey(key(fyne.KeyDown), ModifierState{})
	h.OnTypedKey(key(fyne.KeyDown), ModifierState{ShiftPressed: true})
	if p.pos != 99 {
		t.Fatalf("pos = %d", p.pos)
	}
	h.OnTypedKey(key(fyne.KeyDelete), ModifierState{})
	if p.search != "" {
		t.Fatal("delete should clear the search")
	}
	if h.OnTypedRune('\t', ModifierState{}) {
		t.Fatal("control runes are not search input")
	}
	h.OnTypedKey(key(fyne.KeyReturn), ModifierState{})
	h.OnTypedKey(key(fyne.KeyEscape), ModifierState{})
	if !p.accepted || !p.canceled {
		t.Fatal("accept/cancel not forwarded")
	}
}
