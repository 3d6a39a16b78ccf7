package favorites

import (
	"encoding/xml"
	"os"
	"strings"

	apperrors "vfsnav/internal/errors"
)

// bookmarksFile is the XML bookmarks format imported read-only:
//
//	<bookmarks>
//	  <entry name="logs" url="sftp://h/var/log"/>
//	</bookmarks>
type bookmarksFile struct {
	XMLName xml.Name        `xml:"bookmarks"`
	Entries []bookmarkEntry `xml:"entry"`
}

type bookmarkEntry struct {
	Name string `xml:"name,attr"`
	URL  string `xml:"url,attr"`
}

// LoadBookmarks reads imported bookmarks. A missing file yields no
// bookmarks and no error.
func LoadBookmarks(path string) ([]Favorite, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewFavoritesError("import", path, "cannot read bookmarks", err)
	}
	var doc bookmarksFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewFavoritesError("import", path, "cannot parse bookmarks", err)
	}
	var favs []Favorite
	for _, e := range doc.Entries {
		url := strings.TrimSpace(e.URL)
		if url == "" {
			continue
		}
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = url
		}
		favs = append(favs, Favorite{Name: name, URL: url, Type: TypeImported})
	}
	return favs, nil
}
