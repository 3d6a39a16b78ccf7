package ui

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"

	apperrors "vfsnav/internal/errors"
)

// ShowMessageDialog displays a simple OK dialog with a title and message.
// It returns immediately after showing.
func ShowMessageDialog(parent fyne.Window, title, message string) {
	dialog.NewInformation(title, message, parent).Show()
}

// ShowErrorDialog shows err with the user-facing message of its root cause.
func ShowErrorDialog(parent fyne.Window, err error) {
	ShowMessageDialog(parent, errorTitle(err), apperrors.DisplayMessage(err))
}

func errorTitle(err error) string {
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return "Error: " + ae.Type.String()
	}
	return "Error"
}
