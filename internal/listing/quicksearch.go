package listing

import (
	"strings"
	"time"

	"vfsnav/internal/constants"
)

const quickSearchAllowed = constants.QuickSearchLetters + constants.QuickSearchDigits + constants.QuickSearchOther

// QuickSearch selects rows by typed prefix. Keys typed within the timeout
// of each other accumulate into one prefix.
type QuickSearch struct {
	buf     strings.Builder
	last    time.Time
	timeout time.Duration
	now     func() time.Time
}

func NewQuickSearch() *QuickSearch {
	return &QuickSearch{timeout: constants.QuickSearchTimeout, now: time.Now}
}

// WithClock replaces the time source.
func (q *QuickSearch) WithClock(now func() time.Time) *QuickSearch {
	q.now = now
	return q
}

// Prefix is the accumulated search text.
func (q *QuickSearch) Prefix() string { return q.buf.String() }

// Reset clears the buffer.
func (q *QuickSearch) Reset() {
	q.buf.Reset()
	q.last = time.Time{}
}

// Type feeds one character. names are the visible base names and current
// the selected index. It returns the row to select, or false when the key
// is ignored or nothing matches.
func (q *QuickSearch) Type(r rune, names []string, current int) (int, bool) {
	if !strings.ContainsRune(quickSearchAllowed, r) {
		return 0, false
	}
	now := q.now()
	if now.Sub(q.last) > q.timeout {
		q.buf.Reset()
	}
	q.buf.WriteRune(r)
	q.last = now
	return FindPrefix(names, q.buf.String(), current)
}

// FindPrefix searches from start (inclusive), wrapping once, for the first
// name starting with prefix, ignoring case.
func FindPrefix(names []string, prefix string, start int) (int, bool) {
	n := len(names)
	if n == 0 {
		return 0, false
	}
	if start < 0 || start >= n {
		start = 0
	}
	p := folder.String(prefix)
	for k := 0; k < n; k++ {
		i := (start + k) % n
		if strings.HasPrefix(folder.String(names[i]), p) {
			return i, true
		}
	}
	return 0, false
}
