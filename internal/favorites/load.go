package favorites

import "context"

// Options locates the persisted collections.
type Options struct {
	PropertiesPath string
	BookmarksPath  string
	DebugPrint     func(format string, args ...interface{})
}

// Load assembles the Model. Unreadable user favorites or bookmarks are
// logged and start empty; in the first case the Model also refuses to
// save so the unreadable file is left alone.
func Load(ctx context.Context, opts Options) *Model {
	debugPrint := opts.DebugPrint
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	store := NewPropertiesStore(opts.PropertiesPath)
	user, userErr := store.Load()
	if userErr != nil {
		debugPrint("favorites: %v", userErr)
	}
	imported, err := LoadBookmarks(opts.BookmarksPath)
	if err != nil {
		debugPrint("favorites: %v", err)
	}
	system := SystemLocations(ctx, debugPrint)
	debugPrint("favorites: %d system, %d user, %d imported", len(system), len(user), len(imported))
	m := NewModel(system, user, imported, store, debugPrint)
	if userErr != nil {
		m.refuseWrites(userErr)
	}
	return m
}
