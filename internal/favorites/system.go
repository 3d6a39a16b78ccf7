package favorites

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/disk"

	"vfsnav/internal/fileinfo"
)

// mountpoints lists filesystem roots; replaced in tests.
var mountpoints = func(ctx context.Context) ([]string, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Mountpoint)
	}
	return out, nil
}

// SystemLocations returns the user home followed by every mounted
// filesystem root. Roots that cannot be enumerated are left out.
func SystemLocations(ctx context.Context, debugPrint func(string, ...interface{})) []Favorite {
	var favs []Favorite
	seen := make(map[string]bool)
	add := func(name, path string) {
		u, err := fileinfo.ParseURL(path)
		if err != nil {
			return
		}
		url := u.String()
		if seen[url] {
			return
		}
		seen[url] = true
		if name == "" {
			name = u.Friendly()
		}
		favs = append(favs, Favorite{Name: name, URL: url, Type: TypeSystem})
	}

	if home, err := os.UserHomeDir(); err == nil {
		add("Home", home)
	}
	roots, err := mountpoints(ctx)
	if err != nil && debugPrint != nil {
		debugPrint("favorites: listing partitions: %v", err)
	}
	for _, r := range roots {
		add(r, r)
	}
	return favs
}
