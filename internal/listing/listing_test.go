package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vfsnav/internal/fileinfo"
)

func file(name string) fileinfo.FileRef {
	return fileinfo.FileRef{URL: "file:///d/" + name, BaseName: name, Type: fileinfo.TypeFile, ParentURL: "file:///d"}
}

func dir(name string) fileinfo.FileRef {
	r := file(name)
	r.Type = fileinfo.TypeFolder
	return r
}

func parentRow() fileinfo.FileRef {
	return fileinfo.NewParentRef(fileinfo.FileRef{URL: "file:///", BaseName: "/", Type: fileinfo.TypeFolder})
}

func TestNaturalCompare(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"vpServerLoyalty.log.53.gz", "vpServerLoyalty.log.120.gz", -1},
		{"file2", "file10", -1},
		{"File2", "file10", -1},
		{"abc", "ABD", -1},
		{"a", "a1", -1},
		{"x007", "x7", 1},
		{"same", "same", 0},
		{"b", "a", 1},
		{"99999999999999999999999", "100000000000000000000000", -1},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, NaturalCompare(tc.a, tc.b), "%s vs %s", tc.a, tc.b)
		assert.Equal(t, -tc.want, NaturalCompare(tc.b, tc.a), "%s vs %s", tc.b, tc.a)
	}
}

func TestCompareRules(t *testing.T) {
	asc := Order{Key: SortByName}
	desc := Order{Key: SortByName, Desc: true}

	assert.Equal(t, -1, Compare(parentRow(), dir("a"), asc))
	assert.Equal(t, -1, Compare(parentRow(), dir("a"), desc))
	assert.Equal(t, 1, Compare(file("a"), parentRow(), desc))
	assert.Equal(t, -1, Compare(dir("z"), file("a"), asc))
	assert.Equal(t, 1, Compare(dir("z"), file("a"), desc))
	assert.Equal(t, -1, Compare(file("a2"), file("a10"), asc))
	assert.Equal(t, 1, Compare(file("a2"), file("a10"), desc))

	archive := file("x.zip")
	archive.Type = fileinfo.TypeFileOrFolder
	assert.Equal(t, -1, Compare(dir("zz"), archive, asc), "only FOLDER sorts as folder")
}

func TestCompareOtherKeys(t *testing.T) {
	small, big := file("b"), file("a")
	small.Size, big.Size = 1, 10
	assert.Equal(t, -1, Compare(small, big, Order{Key: SortBySize}))

	old, recent := file("z"), file("a")
	old.Modified = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent.Modified = old.Modified.Add(time.Hour)
	assert.Equal(t, -1, Compare(old, recent, Order{Key: SortByModified}))

	assert.Equal(t, -1, Compare(file("z.gz"), file("a.txt"), Order{Key: SortByType}))
	assert.Equal(t, -1, Compare(dir("b"), dir("a"), Order{Key: SortBySize, Desc: true}), "ties fall back to name, inverted")
}

func TestSentinelStaysFirstWhenReversed(t *testing.T) {
	m := NewModel()
	m.SetRows([]fileinfo.FileRef{file("b"), dir("a"), parentRow(), file("c")})
	for _, desc := range []bool{false, true} {
		m.SetOrder(Order{Key: SortByName, Desc: desc})
		v := m.View()
		assert.True(t, v[0].IsParent(), "desc=%v", desc)
		for _, r := range v[1:] {
			assert.False(t, r.IsParent())
		}
	}
	m.SetOrder(Order{Desc: true})
	assert.Equal(t, []string{"..", "c", "b", "a"}, m.Names())
}

func TestRegexFilterScenario(t *testing.T) {
	rows := []fileinfo.FileRef{parentRow(), file("a.log"), file("b.txt"), file("c.LOG"), file(".hidden.log")}
	m := NewModel()
	m.SetRows(rows)
	invalid := m.SetFilter(`/\.log$`, false)
	assert.False(t, invalid)
	assert.Equal(t, []string{"..", "a.log"}, m.Names())

	m.SetFilter(`/\.log$`, true)
	assert.Equal(t, []string{"..", ".hidden.log", "a.log"}, m.Names())
}

func TestGlobFilterScenario(t *testing.T) {
	m := NewModel()
	m.SetRows([]fileinfo.FileRef{
		file("vpServerLoyalty.log.120.gz"),
		file("readme.txt"),
		file("vpServerLoyalty.log.53.gz"),
	})
	m.SetFilter("*.gz", false)
	assert.Equal(t, []string{"vpServerLoyalty.log.53.gz", "vpServerLoyalty.log.120.gz"}, m.Names())

	m.SetFilter("readme.tx?", false)
	assert.Equal(t, []string{"readme.txt"}, m.Names())
}

func TestInvalidRegexAcceptsAll(t *testing.T) {
	f := NewFilter("/([", false)
	assert.True(t, f.Invalid())
	assert.True(t, f.Accept(file("anything")))
	assert.False(t, f.Accept(file(".dot")), "hidden rule still applies")
}

func TestHiddenAttribute(t *testing.T) {
	r := file("visible-name")
	r.Hidden = true
	assert.False(t, NewFilter("", false).Accept(r))
	assert.True(t, NewFilter("", true).Accept(r))
}

func TestShowHiddenIsSuperset(t *testing.T) {
	hiddenAttr := file("sys")
	hiddenAttr.Hidden = true
	rows := []fileinfo.FileRef{parentRow(), file("a.txt"), file(".b.txt"), hiddenAttr, dir(".git"), dir("src")}
	for _, pattern := range []string{"", "*.txt", "/^s", "/[", "*"} {
		shown := map[string]bool{}
		withHidden := NewFilter(pattern, true)
		for _, r := range rows {
			if withHidden.Accept(r) {
				shown[r.BaseName] = true
			}
		}
		without := NewFilter(pattern, false)
		for _, r := range rows {
			if without.Accept(r) {
				assert.True(t, shown[r.BaseName], "pattern %q row %q", pattern, r.BaseName)
			}
		}
	}
}

func TestQuickSearchScenario(t *testing.T) {
	names := []string{"apple", "docs", "doctor", "donut"}
	clock := time.Unix(0, 0)
	q := NewQuickSearch().WithClock(func() time.Time { return clock })

	sel := 0
	for _, r := range "doc" {
		if i, ok := q.Type(r, names, sel); ok {
			sel = i
		}
		clock = clock.Add(130 * time.Millisecond)
	}
	// the search starts at the current row inclusive, so "docs" keeps it
	assert.Equal(t, 1, sel)
	assert.Equal(t, "doc", q.Prefix())

	i, ok := q.Type('t', names, sel)
	assert.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestQuickSearchTimeoutAndWrap(t *testing.T) {
	names := []string{"beta", "alpha", "bravo"}
	clock := time.Unix(0, 0)
	q := NewQuickSearch().WithClock(func() time.Time { return clock })

	i, ok := q.Type('B', names, 1)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	clock = clock.Add(501 * time.Millisecond)
	i, ok = q.Type('a', names, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, i, "buffer reset after the gap")
	assert.Equal(t, "a", q.Prefix())

	_, ok = q.Type('\t', names, 1)
	assert.False(t, ok)
	assert.Equal(t, "a", q.Prefix(), "ignored keys keep the buffer")

	clock = clock.Add(500 * time.Millisecond)
	_, ok = q.Type('x', names, 1)
	assert.False(t, ok)
	assert.Equal(t, "ax", q.Prefix(), "a gap of exactly the timeout keeps the buffer")

	_, ok = FindPrefix(nil, "a", 0)
	assert.False(t, ok)
	i, ok = FindPrefix(names, "be", 7)
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestApproveEnabled(t *testing.T) {
	archive := file("a.zip")
	archive.Type = fileinfo.TypeFileOrFolder
	testCases := []struct {
		name  string
		mode  SelectionMode
		multi bool
		rows  []fileinfo.FileRef
		want  bool
	}{
		{"nothing", DirsAndFiles, false, nil, false},
		{"parent only", DirsAndFiles, false, []fileinfo.FileRef{parentRow()}, false},
		{"file in files mode", FilesOnly, false, []fileinfo.FileRef{file("a")}, true},
		{"dir in files mode", FilesOnly, false, []fileinfo.FileRef{dir("a")}, false},
		{"dir in dirs mode", DirsOnly, false, []fileinfo.FileRef{dir("a")}, true},
		{"archive in dirs mode", DirsOnly, false, []fileinfo.FileRef{archive}, true},
		{"archive in files mode", FilesOnly, false, []fileinfo.FileRef{archive}, true},
		{"anything in both mode", DirsAndFiles, false, []fileinfo.FileRef{dir("a")}, true},
		{"multi files", FilesOnly, true, []fileinfo.FileRef{file("a"), file("b"), archive}, true},
		{"multi mixed files mode", FilesOnly, true, []fileinfo.FileRef{file("a"), dir("b")}, false},
		{"multi mixed dirs mode", DirsOnly, true, []fileinfo.FileRef{file("a"), dir("b")}, false},
		{"multi dirs", DirsOnly, true, []fileinfo.FileRef{dir("a"), dir("b")}, true},
		{"multi mixed both mode", DirsAndFiles, true, []fileinfo.FileRef{file("a"), dir("b")}, true},
		{"multi with parent", DirsOnly, true, []fileinfo.FileRef{parentRow(), dir("b")}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ApproveEnabled(tc.mode, tc.multi, tc.rows))
		})
	}
}

func TestParseHelpers(t *testing.T) {
	k, err := ParseSortKey("Modified")
	assert.NoError(t, err)
	assert.Equal(t, SortByModified, k)
	_, err = ParseSortKey("color")
	assert.Error(t, err)

	m, err := ParseSelectionMode("dirs_and_files")
	assert.NoError(t, err)
	assert.Equal(t, DirsAndFiles, m)
	assert.Equal(t, "dirs_and_files", m.String())
}
