package ui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"vfsnav/internal/auth"
)

// LoginPrompter asks for credentials with a modal form. PromptCredential
// blocks until the form is closed, so it must be called from a worker
// goroutine, never from the fyne thread; Resolver arranges that.
type LoginPrompter struct {
	parent fyne.Window
}

func NewLoginPrompter(parent fyne.Window) *LoginPrompter {
	return &LoginPrompter{parent: parent}
}

// Resolver is the prompt step of an auth.Chain backed by this prompter.
func (p *LoginPrompter) Resolver() auth.PromptResolver {
	return auth.PromptResolver{Prompter: p, Post: func(fn func()) { go fn() }}
}

func (p *LoginPrompter) PromptCredential(req auth.Request) (auth.Credential, bool, error) {
	var mu sync.Mutex
	var cred auth.Credential
	var save bool
	retErr := auth.ErrPromptCancelled
	done := make(chan struct{})

	fyne.Do(func() {
		userEntry := widget.NewEntry()
		userEntry.SetText(req.User)
		userEntry.SetPlaceHolder("username")
		passEntry := widget.NewPasswordEntry()
		domainEntry := widget.NewEntry()
		domainEntry.SetPlaceHolder("domain (optional)")
		saveCheck := widget.NewCheck("Remember on this machine (keyring)", nil)

		var items []*widget.FormItem
		if req.Wants(auth.TypeDomain) || req.Scheme == "smb" {
			items = append(items, widget.NewFormItem("Domain", domainEntry))
		}
		items = append(items,
			widget.NewFormItem("Username", userEntry),
			widget.NewFormItem("Password", passEntry),
			widget.NewFormItem("", saveCheck),
		)

		form := dialog.NewForm(
			"Login: "+req.URL,
			"Login",
			"Cancel",
			items,
			func(ok bool) {
				defer close(done)
				if !ok {
					return
				}
				mu.Lock()
				cred = auth.Credential{
					User:   userEntry.Text,
					Secret: passEntry.Text,
					Domain: domainEntry.Text,
				}
				save = saveCheck.Checked
				retErr = nil
				mu.Unlock()
			},
			p.parent,
		)
		form.Resize(fyne.NewSize(420, 220))
		form.Show()
	})

	<-done
	mu.Lock()
	defer mu.Unlock()
	return cred, save, retErr
}

var _ auth.Prompter = (*LoginPrompter)(nil)

