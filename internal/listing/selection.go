package listing

import (
	"fmt"
	"strings"

	"vfsnav/internal/fileinfo"
)

// SelectionMode names the node types the approve action accepts.
type SelectionMode int

const (
	FilesOnly SelectionMode = iota
	DirsOnly
	DirsAndFiles
)

func (m SelectionMode) String() string {
	switch m {
	case DirsOnly:
		return "dirs_only"
	case DirsAndFiles:
		return "dirs_and_files"
	default:
		return "files_only"
	}
}

func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "files_only", "files":
		return FilesOnly, nil
	case "dirs_only", "dirs", "folders":
		return DirsOnly, nil
	case "dirs_and_files", "all":
		return DirsAndFiles, nil
	}
	return FilesOnly, fmt.Errorf("unknown selection mode %q", s)
}

func isFileLike(t fileinfo.FileType) bool {
	return t == fileinfo.TypeFile || t == fileinfo.TypeFileOrFolder
}

func isFolderLike(t fileinfo.FileType) bool {
	return t == fileinfo.TypeFolder || t == fileinfo.TypeFileOrFolder
}

// ApproveEnabled decides whether the current selection can be approved.
// The ".." row never counts.
func ApproveEnabled(mode SelectionMode, multi bool, selected []fileinfo.FileRef) bool {
	rows := make([]fileinfo.FileRef, 0, len(selected))
	for _, r := range selected {
		if !r.IsParent() {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return false
	}
	if !multi {
		if len(rows) != 1 {
			return false
		}
		t := rows[0].Type
		switch mode {
		case FilesOnly:
			return isFileLike(t)
		case DirsOnly:
			return isFolderLike(t)
		default:
			return true
		}
	}

	// FILE_OR_FOLDER rows (archives) satisfy either mode without counting
	// against it
	var files, folders, both int
	for _, r := range rows {
		switch r.Type {
		case fileinfo.TypeFile:
			files++
		case fileinfo.TypeFolder:
			folders++
		case fileinfo.TypeFileOrFolder:
			both++
		}
	}
	switch mode {
	case FilesOnly:
		return files+both > 0 && folders == 0
	case DirsOnly:
		return folders+both > 0 && files == 0
	default:
		return true
	}
}
