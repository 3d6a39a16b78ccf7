package favorites

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/ini.v1"

	apperrors "vfsnav/internal/errors"
)

const keyPrefix = "favorite."

// Values may end in a backslash (C:\) and may hold '#' or ';'.
var loadOptions = ini.LoadOptions{IgnoreContinuation: true, IgnoreInlineComment: true}

// PropertiesStore persists user favorites as key-prefixed properties:
//
//	favorite.0.name = logs
//	favorite.0.url = sftp://h/var/log
//	favorite.0.group = servers
//
// Indices are rewritten densely on every save. Values are escaped in the
// manner of Java properties files so that backslashes, quotes and line
// breaks survive a round trip.
type PropertiesStore struct {
	mu   sync.Mutex
	path string
}

func NewPropertiesStore(path string) *PropertiesStore {
	return &PropertiesStore{path: path}
}

func (s *PropertiesStore) Path() string { return s.path }

// Load reads the user favorites. A missing file is an empty list. Entries
// without a URL are skipped and gaps in the indices are tolerated.
func (s *PropertiesStore) Load() ([]Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}
	cfg, err := ini.LoadSources(loadOptions, s.path)
	if err != nil {
		return nil, apperrors.NewFavoritesError("load", s.path, "cannot read favorites", err)
	}

	byIndex := make(map[int]*Favorite)
	for _, key := range cfg.Section(ini.DefaultSection).Keys() {
		idx, field, ok := parseKey(key.Name())
		if !ok {
			continue
		}
		f := byIndex[idx]
		if f == nil {
			f = &Favorite{Type: TypeUser}
			byIndex[idx] = f
		}
		switch field {
		case "name":
			f.Name = unescapeValue(key.String())
		case "url":
			f.URL = unescapeValue(key.String())
		case "group":
			f.Group = unescapeValue(key.String())
		}
	}

	indices := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	favs := make([]Favorite, 0, len(indices))
	for _, i := range indices {
		if byIndex[i].URL == "" {
			continue
		}
		favs = append(favs, *byIndex[i])
	}
	return favs, nil
}

// parseKey splits "favorite.<i>.<field>".
func parseKey(name string) (int, string, bool) {
	rest, ok := strings.CutPrefix(name, keyPrefix)
	if !ok {
		return 0, "", false
	}
	num, field, ok := strings.Cut(rest, ".")
	if !ok {
		return 0, "", false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 {
		return 0, "", false
	}
	return i, field, true
}

// Save writes favs to a temporary file and renames it over the old one.
func (s *PropertiesStore) Save(favs []Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := ini.Empty(loadOptions)
	sec := cfg.Section(ini.DefaultSection)
	for i, f := range favs {
		prefix := keyPrefix + strconv.Itoa(i) + "."
		if _, err := sec.NewKey(prefix+"name", escapeValue(f.Name)); err != nil {
			return apperrors.NewFavoritesError("save", s.path, "cannot encode favorites", err)
		}
		if _, err := sec.NewKey(prefix+"url", escapeValue(f.URL)); err != nil {
			return apperrors.NewFavoritesError("save", s.path, "cannot encode favorites", err)
		}
		if f.Group != "" {
			if _, err := sec.NewKey(prefix+"group", escapeValue(f.Group)); err != nil {
				return apperrors.NewFavoritesError("save", s.path, "cannot encode favorites", err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return apperrors.NewFavoritesError("save", s.path, "cannot create favorites directory", err)
	}
	tmp := s.path + ".tmp"
	if err := cfg.SaveTo(tmp); err != nil {
		return apperrors.NewFavoritesError("save", s.path, "cannot write favorites", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return apperrors.NewFavoritesError("save", s.path, fmt.Sprintf("cannot replace %s", filepath.Base(s.path)), err)
	}
	return nil
}

// escapeValue makes v safe to hand to the ini writer verbatim. Anything
// the parser would reinterpret is escaped: backslashes, line breaks,
// backticks, a leading quote and whitespace at either end.
func escapeValue(v string) string {
	runes := []rune(v)
	var b strings.Builder
	for i, r := range runes {
		edge := i == 0 || i == len(runes)-1
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '`',
			i == 0 && (r == '"' || r == '\''),
			edge && unicode.IsSpace(r):
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeValue reverses escapeValue. Unknown escapes are kept literally,
// so hand-written values such as C:\dir read back unchanged.
func unescapeValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i+1 == len(v) {
			b.WriteByte(v[i])
			continue
		}
		switch v[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+6 <= len(v) {
				if n, err := strconv.ParseUint(v[i+2:i+6], 16, 32); err == nil {
					b.WriteRune(rune(n))
					i += 5
					continue
				}
			}
			b.WriteByte(v[i])
			continue
		default:
			b.WriteByte(v[i])
			continue
		}
		i++
	}
	return b.String()
}
