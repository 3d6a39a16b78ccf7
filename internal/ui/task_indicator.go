package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"vfsnav/internal/task"
)

// TaskIndicator shows the progress of the background task of the current
// listing in the status bar. It never blocks interaction: the user keeps
// browsing while links are checked.
type TaskIndicator struct {
	bar     *widget.ProgressBar
	spinner *widget.ProgressBarInfinite
	label   *widget.Label
	stop    *widget.Button
	root    *fyne.Container
	visible bool
}

// NewTaskIndicator creates a hidden indicator. onStop is bound to its stop
// button.
func NewTaskIndicator(onStop func()) *TaskIndicator {
	bar := widget.NewProgressBar()
	spinner := widget.NewProgressBarInfinite()
	spinner.Hide()
	lbl := widget.NewLabel("")
	stop := widget.NewButton("Stop", onStop)

	root := container.NewBorder(nil, nil, lbl, stop, container.NewStack(bar, spinner))
	root.Hide()
	return &TaskIndicator{bar: bar, spinner: spinner, label: lbl, stop: stop, root: root}
}

func (ti *TaskIndicator) GetContainer() *fyne.Container { return ti.root }

// Update renders p, hiding the indicator once the task is stopped.
func (ti *TaskIndicator) Update(p task.Progress) {
	if p.Stopped {
		ti.Hide()
		return
	}
	ti.label.SetText(progressText(p))
	if p.Indeterminate {
		ti.bar.Hide()
		ti.spinner.Show()
		ti.spinner.Start()
	} else {
		ti.spinner.Stop()
		ti.spinner.Hide()
		ti.bar.Max = float64(p.Max)
		ti.bar.SetValue(float64(p.Current))
		ti.bar.Show()
	}
	if !ti.visible {
		ti.visible = true
		ti.root.Show()
	}
}

func (ti *TaskIndicator) Hide() {
	if !ti.visible {
		return
	}
	ti.visible = false
	ti.spinner.Stop()
	ti.root.Hide()
}

func progressText(p task.Progress) string {
	if p.Indeterminate || p.Max <= 0 {
		return p.Name
	}
	return fmt.Sprintf("%s %d/%d", p.Name, p.Current, p.Max)
}
