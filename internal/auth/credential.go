package auth

import (
	"strings"

	"vfsnav/internal/fileinfo"
)

// CredentialType names one piece of data a backend asks for.
type CredentialType int

const (
	TypeUsername CredentialType = iota
	TypePassword
	TypeDomain
)

func (t CredentialType) String() string {
	switch t {
	case TypeUsername:
		return "username"
	case TypePassword:
		return "password"
	case TypeDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// Credential authenticates one user against one (scheme, host).
type Credential struct {
	Scheme string
	Host   string
	User   string
	Secret string
	Domain string
	// Save asks for the credential to be written to the persistent store.
	Save bool
}

// Equal compares by (scheme, host, user).
func (c Credential) Equal(o Credential) bool {
	return c.Scheme == o.Scheme && strings.EqualFold(c.Host, o.Host) && c.User == o.User
}

func (c Credential) storeKey() string { return StoreKey(c.Scheme, c.Host) }

// StoreKey is the (scheme, host) bucket used by stores.
func StoreKey(scheme, host string) string {
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

// Request describes what a backend needs to authenticate a URL.
type Request struct {
	URL    string
	Scheme string
	Host   string
	Port   string
	User   string
	Path   string
	Types  []CredentialType
}

// NewRequest parses rawURL into a Request.
func NewRequest(rawURL string, types ...CredentialType) (Request, error) {
	u, err := fileinfo.ParseURL(rawURL)
	if err != nil {
		return Request{}, err
	}
	return RequestFor(u, types...), nil
}

// RequestFor builds a Request from an already parsed URL.
func RequestFor(u fileinfo.URLInfo, types ...CredentialType) Request {
	if len(types) == 0 {
		types = []CredentialType{TypeUsername, TypePassword}
	}
	return Request{
		URL:    u.Friendly(),
		Scheme: u.Scheme,
		Host:   u.Host,
		Port:   u.Port,
		User:   u.User,
		Path:   u.Path,
		Types:  types,
	}
}

// Wants reports whether t is among the requested types.
func (r Request) Wants(t CredentialType) bool {
	for _, x := range r.Types {
		if x == t {
			return true
		}
	}
	return false
}

// flightKey collapses concurrent requests for the same server.
func (r Request) flightKey() string {
	return StoreKey(r.Scheme, r.Host) + "\x00" + r.User
}
