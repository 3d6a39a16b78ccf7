// Package listing holds the sort and filter pipeline over directory
// listings: the comparator, row filters, the table model, quick-search and
// the approve rules for selections.
package listing

import (
	"fmt"
	"path"
	"strings"

	"vfsnav/internal/fileinfo"
)

// SortKey selects the column the listing is ordered by.
type SortKey int

const (
	SortByName SortKey = iota
	SortBySize
	SortByModified
	SortByType
)

func (k SortKey) String() string {
	switch k {
	case SortBySize:
		return "size"
	case SortByModified:
		return "modified"
	case SortByType:
		return "type"
	default:
		return "name"
	}
}

// ParseSortKey accepts the names produced by String.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return SortByName, nil
	case "size":
		return SortBySize, nil
	case "modified", "date", "time":
		return SortByModified, nil
	case "type", "ext", "extension":
		return SortByType, nil
	}
	return SortByName, fmt.Errorf("unknown sort key %q", s)
}

// Order is a sort key plus direction.
type Order struct {
	Key  SortKey
	Desc bool
}

// Compare orders two rows:
//  1. the ".." row first, whatever the direction;
//  2. folders before everything else;
//  3. the sort key, with natural name order as tie-breaker.
//
// Desc inverts rules 2 and 3 only. The result is -1, 0 or +1.
func Compare(a, b fileinfo.FileRef, o Order) int {
	switch {
	case a.IsParent() && b.IsParent():
		return 0
	case a.IsParent():
		return -1
	case b.IsParent():
		return 1
	}
	r := compareRows(a, b, o.Key)
	if o.Desc {
		r = -r
	}
	return r
}

func compareRows(a, b fileinfo.FileRef, key SortKey) int {
	fa, fb := a.Type == fileinfo.TypeFolder, b.Type == fileinfo.TypeFolder
	switch {
	case fa && !fb:
		return -1
	case !fa && fb:
		return 1
	}
	var r int
	switch key {
	case SortBySize:
		r = sign64(a.Size - b.Size)
	case SortByModified:
		r = a.Modified.Compare(b.Modified)
	case SortByType:
		r = strings.Compare(strings.ToLower(path.Ext(a.BaseName)), strings.ToLower(path.Ext(b.BaseName)))
	}
	if r != 0 {
		return r
	}
	return NaturalCompare(a.BaseName, b.BaseName)
}

func sign64(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
