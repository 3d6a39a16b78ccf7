package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vfsnav/internal/errors"
	"vfsnav/internal/favorites"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/task"
)

func TestRowName(t *testing.T) {
	dir := fileinfo.FileRef{BaseName: "logs", Type: fileinfo.TypeFolder}
	assert.Equal(t, "logs/", rowName(dir))
	assert.Equal(t, "..", rowName(fileinfo.NewParentRef(dir)))
	assert.Equal(t, "a.zip", rowName(fileinfo.FileRef{BaseName: "a.zip", Type: fileinfo.TypeFileOrFolder}))

	link := fileinfo.FileRef{BaseName: "current", Type: fileinfo.TypeFile}.WithLink("/srv/releases/42")
	assert.Equal(t, "current -> /srv/releases/42", rowName(link))
}

func TestRowDetail(t *testing.T) {
	mod := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	file := fileinfo.FileRef{BaseName: "a.txt", Type: fileinfo.TypeFile, Size: 1536, Modified: mod}
	assert.Equal(t, "1.5 KB  2024-03-01 12:30", rowDetail(file))

	dir := fileinfo.FileRef{BaseName: "d", Type: fileinfo.TypeFolder, Modified: mod}
	assert.Equal(t, "2024-03-01 12:30", rowDetail(dir))
	assert.Empty(t, rowDetail(fileinfo.NewParentRef(dir)))
	assert.Equal(t, "0 B", rowDetail(fileinfo.FileRef{Type: fileinfo.TypeFile}))
}

func TestPickerItems(t *testing.T) {
	model := favorites.NewModel(
		[]favorites.Favorite{{Name: "Home", URL: "file:///home/me"}},
		[]favorites.Favorite{{Name: "Logs", URL: "sftp://h/var/log"}},
		nil, nil, nil,
	)
	items := PickerItems(model, []string{"ftp://mirror/pub"})
	require.Len(t, items, 3)
	assert.Equal(t, "System", items[0].Section)
	assert.Equal(t, "Favorites", items[1].Section)
	assert.Equal(t, "History", items[2].Section)
	assert.Equal(t, "History: pub  (ftp://mirror/pub)", items[2].label())
	assert.Equal(t, "Favorites: Logs  (sftp://h/var/log)", items[1].label())

	assert.Len(t, PickerItems(nil, nil), 0)
}

func TestFilterPickerItems(t *testing.T) {
	items := []PickerItem{
		{Section: "System", Name: "Home", URL: "file:///home/me"},
		{Section: "Favorites", Name: "Logs", URL: "sftp://h/var/log"},
		{Section: "History", URL: "ftp://mirror/pub"},
	}
	assert.Len(t, filterPickerItems(items, ""), 3)
	got := filterPickerItems(items, "LOG")
	require.Len(t, got, 1)
	assert.Equal(t, "Logs", got[0].Name)
	assert.Len(t, filterPickerItems(items, "://"), 3)
	assert.Empty(t, filterPickerItems(items, "smb"))
}

func TestProgressText(t *testing.T) {
	assert.Equal(t, "checking links 3/10", progressText(task.Progress{Name: "checking links", Current: 3, Max: 10}))
	assert.Equal(t, "loading", progressText(task.Progress{Name: "loading", Indeterminate: true}))
}

func TestErrorTitle(t *testing.T) {
	assert.Equal(t, "Error", errorTitle(errors.New("boom")))
	assert.Equal(t, "Error: resolve", errorTitle(apperrors.NewResolveFailed("sftp://h/x", errors.New("no such host"))))
}

func TestLocationTarget(t *testing.T) {
	assert.Equal(t, "sftp://h/var/log", locationTarget("log", "sftp://h/var"))
	assert.Equal(t, "sftp://h/etc", locationTarget(" sftp://h/etc ", "sftp://h/var"))
	assert.Equal(t, "/tmp", locationTarget("/tmp", "sftp://h/var"))
	assert.Equal(t, "log", locationTarget("log", ""))
}
