// Package navigator is the navigation engine of the browser: it resolves
// targets, enumerates folders off the presentation thread, probes SFTP
// links with progress and publishes listings back to the presentation.
package navigator

import (
	"context"

	"vfsnav/internal/auth"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/listing"
	"vfsnav/internal/task"
)

// VFS is the part of vfs.Manager the engine uses.
type VFS interface {
	Resolve(ctx context.Context, raw string) (fileinfo.FileRef, error)
	Stat(ctx context.Context, ref fileinfo.FileRef) (fileinfo.FileRef, error)
	Children(ctx context.Context, ref fileinfo.FileRef) ([]fileinfo.FileRef, error)
	Parent(ref fileinfo.FileRef) (fileinfo.FileRef, bool)
	Refresh(ref fileinfo.FileRef)
	CanNavigate(ctx context.Context, ref fileinfo.FileRef) bool
	ResolveLink(ctx context.Context, ref fileinfo.FileRef) (fileinfo.FileRef, error)
}

// Presentation is implemented by the UI. Every method except Post is
// called on the presentation thread, i.e. from a function handed to Post.
type Presentation interface {
	// Post schedules fn on the presentation thread. Functions run in the
	// order they were posted. Post must not block.
	Post(fn func())
	// PromptCredential asks the user to log in; see auth.Prompter.
	PromptCredential(req auth.Request) (cred auth.Credential, save bool, err error)
	ShowError(err error)
	UpdateStatus(text string)
	UpdateProgress(p task.Progress)
	// OnListingReady receives the filtered, sorted rows of a new listing.
	OnListingReady(rows []fileinfo.FileRef)
	OnLocationChanged(url string)
	SelectRow(i int)
	SetApproveEnabled(enabled bool)
}

// RowsUpdater is notified when the link probe refines rows of the
// published listing. The rows are the full view, as in OnListingReady.
type RowsUpdater interface {
	OnRowsUpdated(rows []fileinfo.FileRef)
}

// ChoiceHandler receives the outcome of a chooser. Presentations that are
// not choosers need not implement it.
type ChoiceHandler interface {
	OnApprove(rows []fileinfo.FileRef)
	OnCancel()
}

// Settings exposes presentation state the engine reads when it publishes.
type Settings interface {
	SelectionMode() listing.SelectionMode
	MultiSelect() bool
	ShowHidden() bool
	FilterText() string
	SkipLinkCheck() bool
}

// StaticSettings is a plain Settings value.
type StaticSettings struct {
	Mode      listing.SelectionMode
	Multi     bool
	Hidden    bool
	Filter    string
	SkipLinks bool
}

func (s StaticSettings) SelectionMode() listing.SelectionMode { return s.Mode }
func (s StaticSettings) MultiSelect() bool                    { return s.Multi }
func (s StaticSettings) ShowHidden() bool                     { return s.Hidden }
func (s StaticSettings) FilterText() string                   { return s.Filter }
func (s StaticSettings) SkipLinkCheck() bool                  { return s.SkipLinks }

// Executor runs blocking work off the presentation thread. jobs.Manager
// implements it.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// GoExecutor starts a goroutine per call.
var GoExecutor = ExecutorFunc(func(fn func()) { go fn() })

// Prompter builds the interactive step of an auth.Chain from p.
func Prompter(p Presentation) auth.PromptResolver {
	return auth.PromptResolver{Prompter: p, Post: p.Post}
}
