package fileinfo

import (
	"fmt"
	"strings"
	"time"

	"vfsnav/internal/constants"
)

// FileType classifies a VFS node.
type FileType int

const (
	TypeImaginary FileType = iota
	TypeFile
	TypeFolder
	// TypeFileOrFolder is a node that has content and can also be listed,
	// such as an archive file.
	TypeFileOrFolder
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "FILE"
	case TypeFolder:
		return "FOLDER"
	case TypeFileOrFolder:
		return "FILE_OR_FOLDER"
	default:
		return "IMAGINARY"
	}
}

// HasChildren reports whether nodes of this type can be listed.
func (t FileType) HasChildren() bool { return t == TypeFolder || t == TypeFileOrFolder }

// HasContent reports whether nodes of this type can be opened for reading.
func (t FileType) HasContent() bool { return t == TypeFile || t == TypeFileOrFolder }

// FileRef is an immutable handle to a node of the virtual filesystem.
type FileRef struct {
	URL         string // canonical, scheme-qualified
	FriendlyURL string // decoded, without user info
	BaseName    string
	ParentURL   string // empty at scheme roots
	Scheme      string
	Type        FileType
	Size        int64
	Modified    time.Time // zero when unknown
	Hidden      bool

	// Symlink and LinkTarget are filled by link probing.
	Symlink    bool
	LinkTarget string

	parent bool
}

// IsParent reports whether r is the synthetic ".." row.
func (r FileRef) IsParent() bool { return r.parent }

// HasParent reports whether r has a structural parent.
func (r FileRef) HasParent() bool { return r.ParentURL != "" }

// IsHiddenName reports the dot-file convention.
func IsHiddenName(name string) bool {
	return strings.HasPrefix(name, ".") && name != constants.ParentDirectoryName && name != "."
}

// NewParentRef builds the synthetic ".." row pointing at parent.
func NewParentRef(parent FileRef) FileRef {
	return FileRef{
		URL:         parent.URL,
		FriendlyURL: parent.FriendlyURL,
		BaseName:    constants.ParentDirectoryName,
		ParentURL:   parent.ParentURL,
		Scheme:      parent.Scheme,
		Type:        TypeFolder,
		Modified:    parent.Modified,
		parent:      true,
	}
}

// WithLink returns a copy of r marked as a symlink to target.
func (r FileRef) WithLink(target string) FileRef {
	r.Symlink = true
	r.LinkTarget = target
	return r
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = constants.FileSizeUnit
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), constants.FileSizeUnits[exp])
}
