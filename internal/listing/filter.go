package listing

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"vfsnav/internal/fileinfo"
)

// FilterState is what the presentation controls.
type FilterState struct {
	Text       string
	ShowHidden bool
	Order      Order
}

// Filter decides row visibility:
//
//	(nameMatch AND notHidden) OR isParent
//
// Text starting with "/" is a regular expression matched anywhere in the
// name (case-sensitive); other text is a glob over the whole name.
type Filter struct {
	text       string
	re         *regexp.Regexp
	glob       string
	invalid    bool
	showHidden bool
}

// NewFilter compiles text. An invalid expression accepts every name and
// is reported by Invalid.
func NewFilter(text string, showHidden bool) Filter {
	f := Filter{text: text, showHidden: showHidden}
	switch {
	case text == "":
	case strings.HasPrefix(text, "/"):
		re, err := regexp.Compile(text[1:])
		if err != nil {
			f.invalid = true
			break
		}
		f.re = re
	default:
		if !doublestar.ValidatePattern(text) {
			f.invalid = true
			break
		}
		f.glob = text
	}
	return f
}

// Invalid reports a filter text that could not be compiled.
func (f Filter) Invalid() bool { return f.invalid }

func (f Filter) Text() string { return f.text }

func (f Filter) ShowHidden() bool { return f.showHidden }

// NameMatch applies the pattern only.
func (f Filter) NameMatch(name string) bool {
	switch {
	case f.re != nil:
		return f.re.MatchString(name)
	case f.glob != "":
		ok, err := doublestar.Match(f.glob, name)
		return err == nil && ok
	}
	return true
}

// NotHidden is true when hidden rows are shown or the row is not hidden by
// attribute or dot-name.
func (f Filter) NotHidden(r fileinfo.FileRef) bool {
	return f.showHidden || !(r.Hidden || fileinfo.IsHiddenName(r.BaseName))
}

// Accept is the composed row predicate.
func (f Filter) Accept(r fileinfo.FileRef) bool {
	if r.IsParent() {
		return true
	}
	return f.NameMatch(r.BaseName) && f.NotHidden(r)
}
