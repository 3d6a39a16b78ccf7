// Package watcher refreshes the browser when the local folder it shows
// changes on disk.
package watcher

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

// Target is what the watcher refreshes. navigator.Engine implements it.
type Target interface {
	Location() (fileinfo.FileRef, bool)
	Refresh()
}

// entry is the part of a directory entry compared between snapshots.
type entry struct {
	size     int64
	modified time.Time
	dir      bool
}

// PendingChanges lists the names that changed since the last snapshot.
type PendingChanges struct {
	Added    []string
	Deleted  []string
	Modified []string
}

func (c *PendingChanges) empty() bool {
	return len(c.Added) == 0 && len(c.Deleted) == 0 && len(c.Modified) == 0
}

// DirectoryWatcher follows one local folder at a time. fsnotify events are
// debounced, then the folder is compared with the last snapshot and the
// target is refreshed through post only when something really changed.
type DirectoryWatcher struct {
	target   Target
	post     func(func())
	debounce time.Duration

	mu            sync.Mutex
	fsw           *fsnotify.Watcher
	dir           string
	url           string
	previousFiles map[string]entry
	stopChan      chan struct{}
	changeChan    chan *PendingChanges
	stopped       bool

	debugPrint func(format string, args ...interface{})
}

// NewDirectoryWatcher creates a stopped watcher. post schedules the
// refresh on the presentation thread.
func NewDirectoryWatcher(target Target, post func(func()), debugPrint func(format string, args ...interface{})) *DirectoryWatcher {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &DirectoryWatcher{
		target:        target,
		post:          post,
		debounce:      constants.WatcherDebounce,
		previousFiles: make(map[string]entry),
		stopped:       true,
		debugPrint:    debugPrint,
	}
}

// Start opens the fsnotify watcher and the processing goroutines.
func (dw *DirectoryWatcher) Start() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if !dw.stopped {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.fsw = fsw
	dw.stopChan = make(chan struct{})
	dw.changeChan = make(chan *PendingChanges, constants.WatcherBufferSize)
	dw.stopped = false

	go dw.eventLoop(fsw, dw.stopChan)
	go dw.changeLoop(dw.changeChan, dw.stopChan)
	return nil
}

// Stop closes the watcher. It is safe to call more than once.
func (dw *DirectoryWatcher) Stop() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.stopped {
		return
	}
	dw.stopped = true
	close(dw.stopChan)
	_ = dw.fsw.Close()
	dw.fsw = nil
	dw.dir, dw.url = "", ""
}

// Watch switches to ref. Non-local locations are not watched.
func (dw *DirectoryWatcher) Watch(ref fileinfo.FileRef) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.stopped {
		return
	}
	if dw.dir != "" {
		_ = dw.fsw.Remove(dw.dir)
		dw.dir, dw.url = "", ""
	}
	if ref.Scheme != fileinfo.SchemeFile || !ref.Type.HasChildren() || ref.Type == fileinfo.TypeFileOrFolder {
		return
	}
	u, err := fileinfo.ParseURL(ref.URL)
	if err != nil {
		return
	}
	dir := u.NativePath()
	if err := dw.fsw.Add(dir); err != nil {
		dw.debugPrint("watcher: cannot watch %s: %v", dir, err)
		return
	}
	dw.dir, dw.url = dir, ref.URL
	dw.previousFiles = readSnapshot(dir)
	dw.debugPrint("watcher: watching %s (%d entries)", dir, len(dw.previousFiles))
}

// Watching returns the watched folder, or "".
func (dw *DirectoryWatcher) Watching() string {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.dir
}

func (dw *DirectoryWatcher) eventLoop(fsw *fsnotify.Watcher, stop <-chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(dw.debounce)
				fire = timer.C
			} else {
				timer.Reset(dw.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			dw.debugPrint("watcher: %v", err)
		case <-fire:
			timer, fire = nil, nil
			dw.checkForChanges()
		case <-stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (dw *DirectoryWatcher) changeLoop(changes <-chan *PendingChanges, stop <-chan struct{}) {
	for {
		select {
		case c := <-changes:
			dw.applyChanges(c)
		case <-stop:
			return
		}
	}
}

// checkForChanges compares the folder with the snapshot and queues the
// difference.
func (dw *DirectoryWatcher) checkForChanges() {
	dw.mu.Lock()
	if dw.stopped || dw.dir == "" {
		dw.mu.Unlock()
		return
	}
	dir := dw.dir
	dw.mu.Unlock()

	current := readSnapshot(dir)
	changes := dw.detectChanges(current)
	if changes.empty() {
		return
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.stopped || dw.dir != dir {
		return
	}
	dw.previousFiles = current
	select {
	case dw.changeChan <- changes:
	default:
		dw.debugPrint("watcher: change channel full, skipping update")
	}
}

// detectChanges compares current with the last snapshot.
func (dw *DirectoryWatcher) detectChanges(current map[string]entry) *PendingChanges {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	c := &PendingChanges{}
	for name, e := range current {
		prev, ok := dw.previousFiles[name]
		switch {
		case !ok:
			c.Added = append(c.Added, name)
		case prev.dir != e.dir || prev.size != e.size || !prev.modified.Equal(e.modified):
			c.Modified = append(c.Modified, name)
		}
	}
	for name := range dw.previousFiles {
		if _, ok := current[name]; !ok {
			c.Deleted = append(c.Deleted, name)
		}
	}
	return c
}

// applyChanges refreshes the target when it still shows the watched folder.
func (dw *DirectoryWatcher) applyChanges(c *PendingChanges) {
	dw.debugPrint("watcher: %d added, %d deleted, %d modified", len(c.Added), len(c.Deleted), len(c.Modified))
	dw.mu.Lock()
	url := dw.url
	dw.mu.Unlock()

	dw.post(func() {
		loc, ok := dw.target.Location()
		if !ok || loc.URL != url {
			return
		}
		dw.target.Refresh()
	})
}

var osFs = afero.NewOsFs()

func readSnapshot(dir string) map[string]entry {
	out := make(map[string]entry)
	infos, err := afero.ReadDir(osFs, dir)
	if err != nil {
		return out
	}
	for _, info := range infos {
		out[info.Name()] = entry{size: info.Size(), modified: info.ModTime(), dir: info.IsDir()}
	}
	return out
}
