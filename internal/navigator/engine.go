package navigator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"vfsnav/internal/constants"
	apperrors "vfsnav/internal/errors"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/listing"
	"vfsnav/internal/task"
)

var errNotNavigable = errors.New("not a folder")

// Engine owns the current location, its listing and the running task.
// Intent methods (GoTo, Open, Approve...) must be called on the
// presentation thread.
type Engine struct {
	fs       VFS
	ui       Presentation
	settings Settings
	exec     Executor

	model  *listing.Model
	search *listing.QuickSearch

	mu       sync.Mutex
	epoch    uint64
	current  fileinfo.FileRef
	located  bool
	task     *task.Context
	selected []fileinfo.FileRef

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	pollInterval time.Duration

	debugPrint func(format string, args ...interface{})
}

// Options configures an Engine. Executor defaults to GoExecutor.
type Options struct {
	VFS          VFS
	Presentation Presentation
	Settings     Settings
	Executor     Executor
	PollInterval time.Duration
	DebugPrint   func(format string, args ...interface{})
}

func New(opts Options) *Engine {
	if opts.Executor == nil {
		opts.Executor = GoExecutor
	}
	if opts.Settings == nil {
		opts.Settings = StaticSettings{Mode: listing.DirsAndFiles}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.ProgressPollInterval
	}
	if opts.DebugPrint == nil {
		opts.DebugPrint = func(string, ...interface{}) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		fs:           opts.VFS,
		ui:           opts.Presentation,
		settings:     opts.Settings,
		exec:         opts.Executor,
		model:        listing.NewModel(),
		search:       listing.NewQuickSearch(),
		ctx:          ctx,
		cancel:       cancel,
		pollInterval: opts.PollInterval,
		debugPrint:   opts.DebugPrint,
	}
}

// Model exposes the table model backing the published listing.
func (e *Engine) Model() *listing.Model { return e.model }

// Location returns the current location, false before the first listing.
func (e *Engine) Location() (fileinfo.FileRef, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.located
}

// Task returns the TaskContext of the latest navigation, or nil.
func (e *Engine) Task() *task.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.task
}

// Start navigates to url, or to the user's home when url is empty.
func (e *Engine) Start(url string) {
	if url == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/"
		}
		url = home
	}
	e.GoTo(url)
}

// GoTo navigates to a URL typed by the user.
func (e *Engine) GoTo(url string) {
	e.debugPrint("navigator: go to %s", url)
	e.navigate(url, "", func(ctx context.Context) (fileinfo.FileRef, error) {
		return e.fs.Resolve(ctx, url)
	})
}

// GoToRef navigates to a known node, such as an activated row or a
// favorite.
func (e *Engine) GoToRef(ref fileinfo.FileRef) {
	e.debugPrint("navigator: go to %s", ref.FriendlyURL)
	e.navigate(ref.FriendlyURL, "", func(ctx context.Context) (fileinfo.FileRef, error) {
		return e.fs.Stat(ctx, ref)
	})
}

// Refresh drops cached metadata and lists the current location again.
func (e *Engine) Refresh() {
	cur, ok := e.Location()
	if !ok {
		return
	}
	e.fs.Refresh(cur)
	e.GoToRef(cur)
}

// GoUp navigates to the parent of the current location and selects the
// folder it came from. It returns false at a scheme root.
func (e *Engine) GoUp() bool {
	cur, ok := e.Location()
	if !ok {
		return false
	}
	parent, ok := e.fs.Parent(cur)
	if !ok {
		return false
	}
	e.navigate(parent.FriendlyURL, cur.URL, func(ctx context.Context) (fileinfo.FileRef, error) {
		if !e.fs.CanNavigate(ctx, parent) {
			return fileinfo.FileRef{}, errNotNavigable
		}
		return parent, nil
	})
	return true
}

// navigate runs the navigation steps. Steps 2 to 6 run on the executor,
// step 7 on the presentation thread; only the latest epoch publishes.
func (e *Engine) navigate(target, selectURL string, resolve func(context.Context) (fileinfo.FileRef, error)) {
	skipLinks := e.settings.SkipLinkCheck()

	e.mu.Lock()
	if e.task != nil {
		e.task.SetStop(true)
	}
	e.epoch++
	epoch := e.epoch
	e.mu.Unlock()

	e.wg.Add(1)
	e.exec.Execute(func() {
		defer e.wg.Done()

		ref, err := resolve(e.ctx)
		if err != nil {
			e.fail(epoch, apperrors.NewResolveFailed(target, err))
			return
		}
		if !ref.Type.HasChildren() {
			e.fail(epoch, apperrors.NewResolveFailed(target, errNotNavigable))
			return
		}
		children, err := e.fs.Children(e.ctx, ref)
		if err != nil {
			e.fail(epoch, apperrors.NewListFailed(ref.FriendlyURL, err))
			return
		}

		tc := task.New(constants.CheckingLinksTaskName, int64(len(children)))
		if !e.install(epoch, tc) {
			e.debugPrint("navigator: dropping stale listing of %s", ref.FriendlyURL)
			return
		}

		rows := make([]fileinfo.FileRef, 0, len(children)+1)
		if parent, ok := e.fs.Parent(ref); ok {
			rows = append(rows, fileinfo.NewParentRef(parent))
		}
		rows = append(rows, children...)

		e.ui.Post(func() {
			e.publish(epoch, ref, rows, len(children), selectURL, tc, skipLinks)
		})
	})
}

// install records tc as the running task when epoch is still current.
func (e *Engine) install(epoch uint64, tc *task.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch {
		return false
	}
	e.task = tc
	return true
}

func (e *Engine) isCurrent(epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return epoch == e.epoch
}

func (e *Engine) fail(epoch uint64, err error) {
	e.debugPrint("navigator: %v", err)
	e.ui.Post(func() {
		if !e.isCurrent(epoch) {
			return
		}
		e.ui.ShowError(err)
	})
}

func (e *Engine) publish(epoch uint64, ref fileinfo.FileRef, rows []fileinfo.FileRef, count int, selectURL string, tc *task.Context, skipLinks bool) {
	e.mu.Lock()
	if epoch != e.epoch {
		e.mu.Unlock()
		tc.SetStop(true)
		return
	}
	e.current, e.located = ref, true
	e.selected = nil
	e.mu.Unlock()

	e.model.SetState(listing.FilterState{
		Text:       e.settings.FilterText(),
		ShowHidden: e.settings.ShowHidden(),
		Order:      e.model.Order(),
	})
	e.model.SetRows(rows)
	e.search.Reset()

	e.ui.OnListingReady(e.model.View())
	e.ui.OnLocationChanged(ref.FriendlyURL)
	e.ui.UpdateStatus(fmt.Sprintf(constants.StatusFolderContains, count))
	sel := 0
	if selectURL != "" {
		if i := e.model.IndexOf(selectURL); i >= 0 {
			sel = i
		}
	}
	e.ui.SelectRow(sel)
	if row, ok := e.model.Row(sel); ok {
		e.SelectionChanged([]fileinfo.FileRef{row})
	} else {
		e.SelectionChanged(nil)
	}

	if skipLinks || tc.Stopped() {
		return
	}
	probe := make([]fileinfo.FileRef, 0, count)
	for _, r := range rows {
		if !r.IsParent() {
			probe = append(probe, r)
		}
	}
	e.wg.Add(1)
	e.exec.Execute(func() {
		defer e.wg.Done()
		e.probeLinks(epoch, tc, probe)
	})
}

// ApplyFilter re-reads the filter settings and republishes the view. It
// reports an invalid filter expression.
func (e *Engine) ApplyFilter() (invalid bool) {
	invalid = e.model.SetFilter(e.settings.FilterText(), e.settings.ShowHidden())
	e.ui.OnListingReady(e.model.View())
	if invalid {
		e.ui.UpdateStatus(fmt.Sprintf("Invalid filter %q", e.settings.FilterText()))
	}
	return invalid
}

// SetOrder resorts the listing.
func (e *Engine) SetOrder(o listing.Order) {
	e.model.SetOrder(o)
	e.ui.OnListingReady(e.model.View())
}

// TypeAhead feeds one quick-search key; current is the selected row.
func (e *Engine) TypeAhead(r rune, current int) {
	if i, ok := e.search.Type(r, e.model.Names(), current); ok {
		e.ui.SelectRow(i)
	}
}

// SelectionChanged recomputes whether approve is enabled.
func (e *Engine) SelectionChanged(rows []fileinfo.FileRef) {
	e.mu.Lock()
	e.selected = append([]fileinfo.FileRef(nil), rows...)
	e.mu.Unlock()
	e.ui.SetApproveEnabled(e.approveEnabled(rows))
}

func (e *Engine) approveEnabled(rows []fileinfo.FileRef) bool {
	return listing.ApproveEnabled(e.settings.SelectionMode(), e.settings.MultiSelect(), rows)
}

// Open activates a row: files (and archives) are approved when approve is
// enabled, folders are entered and ".." goes up.
func (e *Engine) Open(row fileinfo.FileRef) {
	switch {
	case row.IsParent():
		e.GoUp()
	case row.Type.HasContent() && e.approveEnabled([]fileinfo.FileRef{row}):
		e.approve([]fileinfo.FileRef{row})
	case row.Type.HasChildren() || row.Type == fileinfo.TypeImaginary:
		e.GoToRef(row)
	}
}

// Approve hands the current selection to the ChoiceHandler.
func (e *Engine) Approve() bool {
	e.mu.Lock()
	rows := append([]fileinfo.FileRef(nil), e.selected...)
	e.mu.Unlock()
	if !e.approveEnabled(rows) {
		return false
	}
	e.approve(rows)
	return true
}

func (e *Engine) approve(rows []fileinfo.FileRef) {
	e.stopTask()
	if h, ok := e.ui.(ChoiceHandler); ok {
		h.OnApprove(rows)
	}
}

// Cancel stops the running task and notifies the ChoiceHandler.
func (e *Engine) Cancel() {
	e.stopTask()
	if h, ok := e.ui.(ChoiceHandler); ok {
		h.OnCancel()
	}
}

// SetSkipLinkCheck reacts to the skip toggle; turning it on stops the
// running probe.
func (e *Engine) SetSkipLinkCheck(on bool) {
	if on {
		e.stopTask()
	}
}

func (e *Engine) stopTask() {
	e.mu.Lock()
	tc := e.task
	e.mu.Unlock()
	if tc != nil {
		tc.SetStop(true)
	}
}

// Close stops the running task, cancels blocking calls and waits for the
// workers to return.
func (e *Engine) Close() {
	e.mu.Lock()
	e.epoch++
	e.mu.Unlock()
	e.stopTask()
	e.cancel()
	e.wg.Wait()
}
