package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"vfsnav/internal/auth"
	apperrors "vfsnav/internal/errors"
	"vfsnav/internal/fileinfo"
	"vfsnav/internal/navigator"
	"vfsnav/internal/task"
)

// console is the presentation of the one-shot CLI commands. Workers post
// into an unbounded queue; run drains it on the command goroutine, which
// plays the part of the presentation thread.
type console struct {
	navigator.StaticSettings

	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
	// password reads a secret without echo; nil falls back to in.
	password func() (string, error)

	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	rows     []fileinfo.FileRef
	location string
	status   string
	err      error
	listed   bool
	probed   bool
	progress bool

	debugPrint func(format string, args ...interface{})
}

var (
	_ navigator.Presentation = (*console)(nil)
	_ navigator.RowsUpdater  = (*console)(nil)
)

func newConsole(settings navigator.StaticSettings, debugPrint func(string, ...interface{})) *console {
	c := &console{
		StaticSettings: settings,
		out:            os.Stdout,
		errOut:         os.Stderr,
		in:             bufio.NewReader(os.Stdin),
		wake:           make(chan struct{}, 1),
		debugPrint:     debugPrint,
	}
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		c.password = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(c.errOut)
			return string(b), err
		}
		c.progress = term.IsTerminal(int(os.Stderr.Fd()))
	}
	return c
}

// Post queues fn without blocking.
func (c *console) Post(fn func()) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *console) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		fn := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		fn()
	}
}

// run executes posted functions until done reports true or ctx ends.
func (c *console) run(ctx context.Context, done func() bool) error {
	for {
		c.drain()
		if done() {
			return nil
		}
		select {
		case <-c.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// settled reports a finished navigation: an error, or a listing whose link
// probe has ended or was never started.
func (c *console) settled() bool {
	return c.err != nil || (c.listed && (c.probed || c.SkipLinks))
}

// PromptCredential reads the login from the terminal.
func (c *console) PromptCredential(req auth.Request) (auth.Credential, bool, error) {
	fmt.Fprintf(c.errOut, "Login required for %s\n", req.URL)
	var cred auth.Credential
	var err error

	if req.Wants(auth.TypeDomain) {
		if cred.Domain, err = c.readLine("Domain: "); err != nil {
			return auth.Credential{}, false, auth.ErrPromptCancelled
		}
	}
	prompt := "Username: "
	if req.User != "" {
		prompt = fmt.Sprintf("Username [%s]: ", req.User)
	}
	if cred.User, err = c.readLine(prompt); err != nil {
		return auth.Credential{}, false, auth.ErrPromptCancelled
	}
	if cred.User == "" {
		cred.User = req.User
	}
	fmt.Fprint(c.errOut, "Password: ")
	if c.password != nil {
		cred.Secret, err = c.password()
	} else {
		cred.Secret, err = c.readLine("")
	}
	if err != nil {
		return auth.Credential{}, false, auth.ErrPromptCancelled
	}
	answer, err := c.readLine("Remember this login? [y/N]: ")
	if err != nil {
		return auth.Credential{}, false, auth.ErrPromptCancelled
	}
	save := strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	return cred, save, nil
}

func (c *console) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.errOut, prompt)
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *console) ShowError(err error) {
	c.err = err
	c.debugPrint("console: %v", err)
}

func (c *console) UpdateStatus(text string) { c.status = text }

func (c *console) UpdateProgress(p task.Progress) {
	if p.Stopped {
		c.probed = true
		if c.progress {
			fmt.Fprint(c.errOut, "\r\033[K")
		}
		return
	}
	if c.progress && !p.Indeterminate {
		fmt.Fprintf(c.errOut, "\r%s %d/%d", p.Name, p.Current, p.Max)
	}
}

func (c *console) OnListingReady(rows []fileinfo.FileRef) {
	c.rows = rows
	c.listed = true
}

func (c *console) OnRowsUpdated(rows []fileinfo.FileRef) { c.rows = rows }

func (c *console) OnLocationChanged(url string) { c.location = url }

func (c *console) SelectRow(int) {}

func (c *console) SetApproveEnabled(bool) {}

// failure returns the navigation error in its user-facing form.
func (c *console) failure() error {
	if c.err == nil {
		return nil
	}
	return fmt.Errorf("%s", apperrors.DisplayMessage(c.err))
}
