// Package ui is the fyne presentation of the navigation engine: a single
// window with a location bar, the listing, filter and sort controls, and a
// status bar showing the link probe progress.
package ui

import (
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"vfsnav/internal/auth"
	"vfsnav/internal/favorites"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/keymanager"
	"vfsnav/internal/listing"
	"vfsnav/internal/navigator"
	"vfsnav/internal/task"
	"vfsnav/internal/watcher"
)

// Options configures a Browser.
type Options struct {
	Title  string
	Width  float32
	Height float32

	Mode          listing.SelectionMode
	ShowHidden    bool
	SkipLinkCheck bool
	Order         listing.Order

	// Chooser adds Approve/Cancel buttons; cancelling closes the window.
	Chooser   bool
	OnApprove func(rows []fileinfo.FileRef)

	Favorites *favorites.Model
	History   func() []string
	OnVisit   func(url string)

	DebugPrint func(format string, args ...interface{})
}

// Browser implements navigator.Presentation, navigator.Settings and the
// optional RowsUpdater and ChoiceHandler on top of a fyne window.
type Browser struct {
	app    fyne.App
	win    fyne.Window
	opts   Options
	engine *navigator.Engine
	km     *keymanager.KeyManager
	login  *LoginPrompter
	watch  *watcher.DirectoryWatcher

	location   *widget.Entry
	list       *widget.List
	status     *widget.Label
	indicator  *TaskIndicator
	filter     *widget.Entry
	hidden     *widget.Check
	skipLinks  *widget.Check
	sortBy     *widget.Select
	desc       *widget.Check
	approveBtn *widget.Button

	mu         sync.RWMutex
	filterText string
	showHidden bool
	skip       bool

	rows   []fileinfo.FileRef
	cursor int

	debugPrint func(format string, args ...interface{})
}

var (
	_ navigator.Presentation  = (*Browser)(nil)
	_ navigator.Settings      = (*Browser)(nil)
	_ navigator.RowsUpdater   = (*Browser)(nil)
	_ navigator.ChoiceHandler = (*Browser)(nil)
)

// NewBrowser creates the window and its widgets. Attach must be called
// before Run.
func NewBrowser(app fyne.App, opts Options) *Browser {
	if opts.DebugPrint == nil {
		opts.DebugPrint = func(string, ...interface{}) {}
	}
	if opts.Title == "" {
		opts.Title = "VFS Browser"
	}
	b := &Browser{
		app:        app,
		win:        app.NewWindow(opts.Title),
		opts:       opts,
		km:         keymanager.NewKeyManager(opts.DebugPrint),
		showHidden: opts.ShowHidden,
		skip:       opts.SkipLinkCheck,
		debugPrint: opts.DebugPrint,
	}
	b.login = NewLoginPrompter(b.win)
	if opts.Width > 0 && opts.Height > 0 {
		b.win.Resize(fyne.NewSize(opts.Width, opts.Height))
	}
	return b
}

// Window returns the fyne window.
func (b *Browser) Window() fyne.Window { return b.win }

// PromptResolver is the interactive step for the auth.Chain. Prompts run
// on a helper goroutine that waits for the login form.
func (b *Browser) PromptResolver() auth.PromptResolver { return b.login.Resolver() }

// Attach binds the engine, builds the layout and starts the folder watcher.
func (b *Browser) Attach(engine *navigator.Engine) {
	b.engine = engine
	b.watch = watcher.NewDirectoryWatcher(engine, b.Post, b.debugPrint)
	b.engine.Model().SetOrder(b.opts.Order)
	b.km.PushHandler(keymanager.NewBrowserKeyHandler(b, b.debugPrint))
	b.win.SetContent(b.buildContent())
	b.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) { b.km.HandleTypedKey(ev) })
	b.win.Canvas().SetOnTypedRune(func(r rune) { b.km.HandleTypedRune(r) })
}

// Run shows the window, navigates to startURL once the app is running and
// blocks until the window is closed.
func (b *Browser) Run(startURL string) {
	b.app.Lifecycle().SetOnStarted(func() {
		if err := b.watch.Start(); err != nil {
			b.debugPrint("ui: watcher unavailable: %v", err)
		}
		b.engine.Start(startURL)
	})
	b.win.SetOnClosed(func() {
		b.watch.Stop()
		b.engine.Close()
	})
	b.win.ShowAndRun()
}

func (b *Browser) buildContent() fyne.CanvasObject {
	b.location = widget.NewEntry()
	b.location.SetPlaceHolder("URL or path")
	b.location.OnSubmitted = func(input string) {
		current, _ := b.engine.Location()
		b.engine.GoTo(locationTarget(input, current.URL))
	}

	toolbar := container.NewBorder(nil, nil,
		container.NewHBox(
			widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { b.engine.GoUp() }),
			widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() { b.engine.Refresh() }),
		),
		widget.NewButtonWithIcon("", theme.ListIcon(), b.ShowLocationPicker),
		b.location,
	)

	b.list = widget.NewList(
		func() int { return len(b.rows) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.FileIcon()), widget.NewLabel(""), layout.NewSpacer(), widget.NewLabel(""))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(b.rows) {
				return
			}
			r := b.rows[id]
			c := obj.(*fyne.Container)
			c.Objects[0].(*widget.Icon).SetResource(rowIcon(r))
			c.Objects[1].(*widget.Label).SetText(rowName(r))
			c.Objects[3].(*widget.Label).SetText(rowDetail(r))
		},
	)
	b.list.OnSelected = func(id widget.ListItemID) {
		b.cursor = id
		if id < len(b.rows) {
			b.engine.SelectionChanged([]fileinfo.FileRef{b.rows[id]})
		}
	}
	sink := NewKeySink(b.list, b.km)

	b.filter = widget.NewEntry()
	b.filter.SetPlaceHolder("filter: glob, or /regex")
	b.filter.OnChanged = func(text string) {
		b.mu.Lock()
		b.filterText = text
		b.mu.Unlock()
		b.engine.ApplyFilter()
	}
	b.hidden = widget.NewCheck("Hidden", func(on bool) {
		b.mu.Lock()
		b.showHidden = on
		b.mu.Unlock()
		b.engine.ApplyFilter()
	})
	b.hidden.SetChecked(b.opts.ShowHidden)
	b.skipLinks = widget.NewCheck("Skip link check", func(on bool) {
		b.mu.Lock()
		b.skip = on
		b.mu.Unlock()
		b.engine.SetSkipLinkCheck(on)
	})
	b.skipLinks.SetChecked(b.opts.SkipLinkCheck)

	b.sortBy = widget.NewSelect([]string{
		listing.SortByName.String(),
		listing.SortBySize.String(),
		listing.SortByModified.String(),
		listing.SortByType.String(),
	}, func(string) { b.applyOrder() })
	b.sortBy.SetSelected(b.opts.Order.Key.String())
	b.desc = widget.NewCheck("Desc", func(bool) { b.applyOrder() })
	b.desc.SetChecked(b.opts.Order.Desc)

	controls := container.NewBorder(nil, nil, nil,
		container.NewHBox(b.hidden, b.skipLinks, b.sortBy, b.desc),
		b.filter,
	)

	b.status = widget.NewLabel("")
	b.indicator = NewTaskIndicator(func() {
		if tc := b.engine.Task(); tc != nil {
			tc.SetStop(true)
		}
	})
	bottom := container.NewVBox(b.indicator.GetContainer(), b.status)
	if b.opts.Chooser {
		b.approveBtn = widget.NewButton("Approve", func() { b.engine.Approve() })
		b.approveBtn.Importance = widget.HighImportance
		b.approveBtn.Disable()
		buttons := container.NewHBox(layout.NewSpacer(), widget.NewButton("Cancel", b.Cancel), b.approveBtn)
		bottom.Add(buttons)
	}

	return container.NewBorder(container.NewVBox(toolbar, controls), bottom, nil, nil, sink)
}

func (b *Browser) applyOrder() {
	if b.engine == nil || b.sortBy == nil || b.desc == nil {
		return
	}
	key, err := listing.ParseSortKey(b.sortBy.Selected)
	if err != nil {
		return
	}
	b.engine.SetOrder(listing.Order{Key: key, Desc: b.desc.Checked})
}

// navigator.Settings

// SelectionMode is fixed per window.
func (b *Browser) SelectionMode() listing.SelectionMode { return b.opts.Mode }

// MultiSelect is false: the fyne list selects one row at a time.
func (b *Browser) MultiSelect() bool { return false }

func (b *Browser) ShowHidden() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.showHidden
}

func (b *Browser) FilterText() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filterText
}

func (b *Browser) SkipLinkCheck() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.skip
}

// navigator.Presentation

// Post runs fn on the fyne thread.
func (b *Browser) Post(fn func()) { fyne.Do(fn) }

// PromptCredential blocks until the login form closes; see LoginPrompter.
func (b *Browser) PromptCredential(req auth.Request) (auth.Credential, bool, error) {
	return b.login.PromptCredential(req)
}

func (b *Browser) ShowError(err error) {
	b.status.SetText(err.Error())
	ShowErrorDialog(b.win, err)
}

func (b *Browser) UpdateStatus(text string) { b.status.SetText(text) }

func (b *Browser) UpdateProgress(p task.Progress) { b.indicator.Update(p) }

func (b *Browser) OnListingReady(rows []fileinfo.FileRef) {
	b.rows = rows
	b.list.UnselectAll()
	b.list.Refresh()
}

// OnRowsUpdated keeps the cursor: the probe only refines existing rows.
func (b *Browser) OnRowsUpdated(rows []fileinfo.FileRef) {
	b.rows = rows
	b.list.Refresh()
}

func (b *Browser) OnLocationChanged(url string) {
	b.location.SetText(url)
	b.win.SetTitle(fmt.Sprintf("%s - %s", url, b.opts.Title))
	if ref, ok := b.engine.Location(); ok {
		b.watch.Watch(ref)
	}
	if b.opts.OnVisit != nil {
		b.opts.OnVisit(url)
	}
}

func (b *Browser) SelectRow(i int) {
	if i < 0 || i >= len(b.rows) {
		return
	}
	b.cursor = i
	b.list.Select(i)
	b.list.ScrollTo(i)
}

func (b *Browser) SetApproveEnabled(enabled bool) {
	if b.approveBtn == nil {
		return
	}
	if enabled {
		b.approveBtn.Enable()
	} else {
		b.approveBtn.Disable()
	}
}

// navigator.ChoiceHandler

func (b *Browser) OnApprove(rows []fileinfo.FileRef) {
	if b.opts.OnApprove != nil {
		b.opts.OnApprove(rows)
	}
	if b.opts.Chooser {
		b.win.Close()
	}
}

func (b *Browser) OnCancel() {
	if b.opts.Chooser {
		b.win.Close()
	}
}

// keymanager.BrowserInterface

func (b *Browser) CursorIndex() int { return b.cursor }
func (b *Browser) RowCount() int    { return len(b.rows) }
func (b *Browser) SetCursor(i int)  { b.SelectRow(i) }

func (b *Browser) OpenCursor() {
	if b.cursor >= 0 && b.cursor < len(b.rows) {
		b.engine.Open(b.rows[b.cursor])
	}
}

func (b *Browser) GoUp()            { b.engine.GoUp() }
func (b *Browser) Refresh()         { b.engine.Refresh() }
func (b *Browser) Approve()         { b.engine.Approve() }
func (b *Browser) Cancel()          { b.engine.Cancel() }
func (b *Browser) TypeAhead(r rune) { b.engine.TypeAhead(r, b.cursor) }

func (b *Browser) FocusLocation() { b.win.Canvas().Focus(b.location) }

// ShowLocationPicker opens the favorites and history dialog.
func (b *Browser) ShowLocationPicker() {
	var history []string
	if b.opts.History != nil {
		history = b.opts.History()
	}
	picker := NewLocationPicker(PickerItems(b.opts.Favorites, history), b.km, b.debugPrint)
	picker.Show(b.win, b.engine.GoTo)
}

// locationTarget resolves what was typed into the location bar. Relative
// names are taken below the current folder.
func locationTarget(input, current string) string {
	input = strings.TrimSpace(input)
	if current == "" || !fileinfo.IsRelative(input) {
		return input
	}
	return fileinfo.JoinURL(current, input)
}
