package vfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
	"vfsnav/internal/fileinfo"
)

// HTTPBackend serves http:// and https:// URLs. Folders are directory index
// pages whose links are parsed into entries.
type HTTPBackend struct {
	client *retryablehttp.Client
	auth   Authenticator
	debug  func(format string, args ...interface{})

	mu    sync.Mutex
	creds map[string]auth.Credential
}

func NewHTTPBackend(a Authenticator, timeout time.Duration, debug func(string, ...interface{})) *HTTPBackend {
	if a == nil {
		a = noAuth{}
	}
	if debug == nil {
		debug = func(string, ...interface{}) {}
	}
	if timeout <= 0 {
		timeout = constants.DialTimeout
	}
	c := retryablehttp.NewClient()
	c.RetryMax = constants.HTTPRetryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return &HTTPBackend{client: c, auth: a, debug: debug, creds: make(map[string]auth.Credential)}
}

func (*HTTPBackend) Schemes() []string {
	return []string{fileinfo.SchemeHTTP, fileinfo.SchemeHTTPS}
}

// requestURL is the URL sent on the wire: no user info, escaped path.
func requestURL(u fileinfo.URLInfo, dir bool) string {
	u.User, u.Password, u.Domain = "", "", ""
	s := u.String()
	if dir && !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

// do sends method to u, answering 401 with credentials from the
// authenticator.
func (b *HTTPBackend) do(ctx context.Context, method string, u fileinfo.URLInfo, dir bool) (*http.Response, error) {
	target := requestURL(u, dir)
	hostKey := u.HostKey()
	for attempt := 0; ; attempt++ {
		req, err := retryablehttp.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		cred, haveCred := b.creds[hostKey]
		b.mu.Unlock()
		if haveCred {
			req.SetBasicAuth(cred.User, cred.Secret)
		}
		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, checkStatus(target, resp)
		}
		drain(resp)
		if haveCred {
			b.auth.Reject(cred)
			b.mu.Lock()
			delete(b.creds, hostKey)
			b.mu.Unlock()
		}
		if attempt >= maxAuthAttempts {
			return nil, &fs.PathError{Op: method, Path: target, Err: fs.ErrPermission}
		}
		next, err := b.auth.Authenticate(ctx, auth.RequestFor(u))
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.creds[hostKey] = next
		b.mu.Unlock()
	}
}

func checkStatus(target string, resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		drain(resp)
		return &fs.PathError{Op: "get", Path: target, Err: fs.ErrNotExist}
	case resp.StatusCode == http.StatusForbidden:
		drain(resp)
		return &fs.PathError{Op: "get", Path: target, Err: fs.ErrPermission}
	default:
		drain(resp)
		return fmt.Errorf("%s: unexpected status %s", target, resp.Status)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

func (b *HTTPBackend) Stat(ctx context.Context, u fileinfo.URLInfo) (Entry, error) {
	resp, err := b.do(ctx, http.MethodHead, u, false)
	if err != nil {
		return Entry{}, err
	}
	drain(resp)
	e := Entry{Name: u.BaseName(), Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			e.Modified = t
		}
	}
	e.Dir = looksLikeIndex(u, resp.Header.Get("Content-Type"))
	if e.Dir || e.Size < 0 {
		e.Size = 0
	}
	return e, nil
}

// looksLikeIndex treats HTML at an extension-less path as a folder.
func looksLikeIndex(u fileinfo.URLInfo, contentType string) bool {
	mt, _, _ := mime.ParseMediaType(contentType)
	if mt != "text/html" {
		return false
	}
	return u.IsRoot() || path.Ext(u.Path) == ""
}

func (b *HTTPBackend) List(ctx context.Context, u fileinfo.URLInfo) ([]Entry, error) {
	resp, err := b.do(ctx, http.MethodGet, u, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	base, err := url.Parse(requestURL(u, true))
	if err != nil {
		return nil, err
	}
	return parseIndex(resp.Body, base)
}

func (b *HTTPBackend) Open(ctx context.Context, u fileinfo.URLInfo) (io.ReadCloser, error) {
	resp, err := b.do(ctx, http.MethodGet, u, false)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// parseIndex extracts the direct children of base linked from an index
// page. Sort links, fragments, parents and foreign hosts are skipped.
func parseIndex(r io.Reader, base *url.URL) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var out []Entry
	seen := make(map[string]bool)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				if e, ok := indexEntry(base, a.Val); ok && !seen[e.Name] {
					seen[e.Name] = true
					out = append(out, e)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func indexEntry(base *url.URL, href string) (Entry, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return Entry{}, false
	}
	ref, err := url.Parse(href)
	if err != nil || ref.RawQuery != "" {
		return Entry{}, false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != base.Scheme || abs.Host != base.Host {
		return Entry{}, false
	}
	dir := strings.HasSuffix(abs.Path, "/")
	clean := strings.TrimSuffix(abs.Path, "/")
	if path.Dir(clean) != strings.TrimSuffix(base.Path, "/") && !(path.Dir(clean) == "/" && base.Path == "/") {
		return Entry{}, false
	}
	name := path.Base(clean)
	if name == "" || name == "/" || name == "." || name == ".." {
		return Entry{}, false
	}
	return Entry{Name: name, Dir: dir}, true
}
