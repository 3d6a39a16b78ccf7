package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vfsnav/internal/fileinfo"
)

// stubTarget records refreshes of a fixed location.
type stubTarget struct {
	mu        sync.Mutex
	loc       fileinfo.FileRef
	refreshes int
}

func (s *stubTarget) Location() (fileinfo.FileRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc, s.loc.URL != ""
}

func (s *stubTarget) Refresh() {
	s.mu.Lock()
	s.refreshes++
	s.mu.Unlock()
}

func (s *stubTarget) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func dummyDebug(format string, args ...interface{}) {}

func syncPost(fn func()) { fn() }

func folderRef(t *testing.T, dir string) fileinfo.FileRef {
	t.Helper()
	u, err := fileinfo.ParseURL(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fileinfo.FileRef{URL: u.String(), FriendlyURL: u.Friendly(), Scheme: u.Scheme, Type: fileinfo.TypeFolder}
}

func TestDetectChanges_AddedDeletedModified(t *testing.T) {
	dw := NewDirectoryWatcher(&stubTarget{}, syncPost, dummyDebug)

	t1 := time.Now().Add(-time.Hour)
	t2 := time.Now()
	dw.previousFiles = map[string]entry{
		"a.txt": {size: 10, modified: t1},
		"b.txt": {size: 5, modified: t1},
		"same":  {dir: true, modified: t1},
	}
	current := map[string]entry{
		"a.txt": {size: 20, modified: t2},
		"c.txt": {size: 1, modified: t2},
		"same":  {dir: true, modified: t1},
	}

	c := dw.detectChanges(current)
	if len(c.Added) != 1 || c.Added[0] != "c.txt" {
		t.Fatalf("expected c.txt added, got %v", c.Added)
	}
	if len(c.Deleted) != 1 || c.Deleted[0] != "b.txt" {
		t.Fatalf("expected b.txt deleted, got %v", c.Deleted)
	}
	if len(c.Modified) != 1 || c.Modified[0] != "a.txt" {
		t.Fatalf("expected a.txt modified, got %v", c.Modified)
	}
	if !dw.detectChanges(dw.previousFiles).empty() {
		t.Fatal("identical snapshot reported changes")
	}
}

func TestWatchRefreshesOnChange(t *testing.T) {
	dir := t.TempDir()
	ref := folderRef(t, dir)
	target := &stubTarget{loc: ref}
	dw := NewDirectoryWatcher(target, syncPost, dummyDebug)
	dw.debounce = 20 * time.Millisecond
	if err := dw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dw.Stop()

	dw.Watch(ref)
	if dw.Watching() != dir {
		t.Fatalf("Watching() = %q, want %q", dw.Watching(), dir)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for target.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no refresh after creating a file")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchIgnoresRemoteAndStaleLocations(t *testing.T) {
	dir := t.TempDir()
	target := &stubTarget{loc: fileinfo.FileRef{URL: "sftp://h/elsewhere"}}
	dw := NewDirectoryWatcher(target, syncPost, dummyDebug)
	if err := dw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer dw.Stop()

	dw.Watch(fileinfo.FileRef{URL: "sftp://h/d", Scheme: fileinfo.SchemeSFTP, Type: fileinfo.TypeFolder})
	if dw.Watching() != "" {
		t.Fatalf("remote folder should not be watched")
	}

	dw.Watch(folderRef(t, dir))
	dw.applyChanges(&PendingChanges{Added: []string{"x"}})
	if target.count() != 0 {
		t.Fatal("refresh delivered although the target moved elsewhere")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dw := NewDirectoryWatcher(&stubTarget{}, syncPost, dummyDebug)
	dw.Stop()
	if err := dw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	dw.Stop()
	dw.Stop()
	dw.Watch(folderRef(t, t.TempDir()))
	if dw.Watching() != "" {
		t.Fatal("stopped watcher must not watch")
	}
}
