package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"vfsnav/internal/keymanager"
)

// KeySink is a focusable wrapper around any CanvasObject. When focused,
// it forwards key events to the KeyManager and captures Tab so focus does
// not move away.
type KeySink struct {
	widget.BaseWidget
	Content fyne.CanvasObject
	km      *keymanager.KeyManager
}

// NewKeySink creates a new KeySink wrapping the given content.
func NewKeySink(content fyne.CanvasObject, km *keymanager.KeyManager) *KeySink {
	k := &KeySink{Content: content, km: km}
	k.ExtendBaseWidget(k)
	return k
}

// CreateRenderer delegates rendering to the underlying content.
func (k *KeySink) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(k.Content)
}

func (k *KeySink) FocusGained() {}
func (k *KeySink) FocusLost()   {}

func (k *KeySink) TypedKey(ev *fyne.KeyEvent) { k.km.HandleTypedKey(ev) }
func (k *KeySink) TypedRune(r rune)           { k.km.HandleTypedRune(r) }
func (k *KeySink) KeyDown(ev *fyne.KeyEvent)  { k.km.HandleKeyDown(ev) }
func (k *KeySink) KeyUp(ev *fyne.KeyEvent)    { k.km.HandleKeyUp(ev) }

// AcceptsTab keeps Tab inside the sink.
func (k *KeySink) AcceptsTab() bool { return true }
