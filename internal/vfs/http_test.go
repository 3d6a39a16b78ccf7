package vfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vfsnav/internal/auth"
	"vfsnav/internal/fileinfo"
)

const indexPage = `<html><body><h1>Index of /pub</h1>
<a href="?C=N;O=D">Name</a>
<a href="../">Parent Directory</a>
<a href="a.txt">a.txt</a>
<a href="sub/">sub/</a>
<a href="/pub/b.bin">b.bin</a>
<a href="http://elsewhere.example/x">x</a>
<a href="#top">top</a>
<a href="sub/deeper.txt">deeper</a>
<a href="a.txt">a.txt again</a>
</body></html>`

type stubAuth struct {
	cred     auth.Credential
	calls    atomic.Int32
	rejected atomic.Int32
}

func (s *stubAuth) Authenticate(_ context.Context, req auth.Request) (auth.Credential, error) {
	s.calls.Add(1)
	c := s.cred
	c.Scheme, c.Host = req.Scheme, req.Host
	return c, nil
}
func (s *stubAuth) Reject(auth.Credential) { s.rejected.Add(1) }
func (s *stubAuth) Seed(auth.Credential)   {}

func newHTTPServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/pub/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pub/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, indexPage)
		case "/pub/a.txt":
			w.Header().Set("Content-Type", "text/plain")
			w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
			w.Header().Set("Content-Length", "5")
			_, _ = io.WriteString(w, "alpha")
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/pub", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, indexPage)
	})
	mux.HandleFunc("/private/file.txt", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "secret")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func parse(t *testing.T, raw string) fileinfo.URLInfo {
	t.Helper()
	u, err := fileinfo.ParseURL(raw)
	require.NoError(t, err)
	return u
}

func TestHTTPListIndex(t *testing.T) {
	srv := newHTTPServer(t)
	b := NewHTTPBackend(nil, 0, t.Logf)

	entries, err := b.List(context.Background(), parse(t, srv.URL+"/pub"))
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		if e.Dir {
			got = append(got, e.Name+"/")
		} else {
			got = append(got, e.Name)
		}
	}
	assert.Equal(t, []string{"a.txt", "sub/", "b.bin"}, got)
}

func TestHTTPStat(t *testing.T) {
	srv := newHTTPServer(t)
	b := NewHTTPBackend(nil, 0, nil)
	ctx := context.Background()

	e, err := b.Stat(ctx, parse(t, srv.URL+"/pub/a.txt"))
	require.NoError(t, err)
	assert.False(t, e.Dir)
	assert.EqualValues(t, 5, e.Size)
	assert.Equal(t, 2006, e.Modified.Year())

	e, err = b.Stat(ctx, parse(t, srv.URL+"/pub"))
	require.NoError(t, err)
	assert.True(t, e.Dir)

	_, err = b.Stat(ctx, parse(t, srv.URL+"/pub/missing.txt"))
	assert.Equal(t, KindNotFound, classify(err))
}

func TestHTTPBasicAuth(t *testing.T) {
	srv := newHTTPServer(t)
	a := &stubAuth{cred: auth.Credential{User: "u", Secret: "pw"}}
	b := NewHTTPBackend(a, 0, nil)

	rc, err := b.Open(context.Background(), parse(t, srv.URL+"/private/file.txt"))
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "secret", string(data))
	assert.EqualValues(t, 1, a.calls.Load())

	// the credential is reused without asking again
	rc, err = b.Open(context.Background(), parse(t, srv.URL+"/private/file.txt"))
	require.NoError(t, err)
	_ = rc.Close()
	assert.EqualValues(t, 1, a.calls.Load())
}

func TestHTTPRejectsBadCredentials(t *testing.T) {
	srv := newHTTPServer(t)
	a := &stubAuth{cred: auth.Credential{User: "u", Secret: "wrong"}}
	b := NewHTTPBackend(a, 0, nil)

	_, err := b.Open(context.Background(), parse(t, srv.URL+"/private/file.txt"))
	require.Error(t, err)
	assert.Equal(t, KindNotAuthorized, classify(err))
	assert.Positive(t, a.rejected.Load())
}

func TestIndexEntryAtRoot(t *testing.T) {
	base, _ := url.Parse("http://h/")
	e, ok := indexEntry(base, "dir/")
	assert.True(t, ok)
	assert.Equal(t, Entry{Name: "dir", Dir: true}, e)

	_, ok = indexEntry(base, "dir/file")
	assert.False(t, ok)

	entries, err := parseIndex(strings.NewReader(`<a href="x.iso">x</a>`), base)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
