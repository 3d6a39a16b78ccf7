package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"vfsnav/internal/fileinfo"
)

const timeLayout = "2006-01-02 15:04"

// rowName is the first column of a listing row.
func rowName(r fileinfo.FileRef) string {
	name := r.BaseName
	if r.Type == fileinfo.TypeFolder && !r.IsParent() {
		name += "/"
	}
	if r.Symlink && r.LinkTarget != "" {
		name += " -> " + r.LinkTarget
	}
	return name
}

// rowDetail is the size and modification time column.
func rowDetail(r fileinfo.FileRef) string {
	if r.IsParent() {
		return ""
	}
	detail := ""
	if r.Type.HasContent() {
		detail = fileinfo.FormatFileSize(r.Size)
	}
	if !r.Modified.IsZero() {
		if detail != "" {
			detail += "  "
		}
		detail += r.Modified.Local().Format(timeLayout)
	}
	return detail
}

func rowIcon(r fileinfo.FileRef) fyne.Resource {
	switch {
	case r.IsParent():
		return theme.MoveUpIcon()
	case r.Type == fileinfo.TypeFileOrFolder:
		return theme.StorageIcon()
	case r.Type == fileinfo.TypeFolder:
		return theme.FolderIcon()
	case r.Type == fileinfo.TypeImaginary:
		return theme.QuestionIcon()
	default:
		return theme.FileIcon()
	}
}
