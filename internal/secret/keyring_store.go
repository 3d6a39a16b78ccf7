// Package secret implements the persistent credential store on top of
// 99designs/keyring.
package secret

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/99designs/keyring"

	"vfsnav/internal/auth"
	"vfsnav/internal/constants"
)

// Options selects the keyring backend. With Dir set, the encrypted file
// backend is used there and Password supplies its passphrase; otherwise the
// OS keyring is opened.
type Options struct {
	Dir      string
	Password func(prompt string) (string, error)
}

type record struct {
	User   string `json:"user"`
	Secret string `json:"secret"`
	Domain string `json:"domain,omitempty"`
}

// KeyringStore is an auth.Store keeping one keyring item per (scheme, host),
// each holding the JSON list of credentials for that server.
type KeyringStore struct {
	ring keyring.Keyring

	mu     sync.RWMutex
	cache  map[string][]auth.Credential
	loaded map[string]bool

	debugPrint func(format string, args ...interface{})
}

var _ auth.Store = (*KeyringStore)(nil)

// NewKeyringStore opens the keyring. Callers fall back to a memory store
// when it fails.
func NewKeyringStore(opts Options, debugPrint func(string, ...interface{})) (*KeyringStore, error) {
	cfg := keyring.Config{ServiceName: constants.KeyringServiceName}
	if opts.Dir != "" {
		pw := opts.Password
		if pw == nil {
			pw = keyring.FixedStringPrompt(constants.KeyringServiceName)
		}
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = opts.Dir
		cfg.FilePasswordFunc = pw
	}
	r, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return newStore(r, debugPrint), nil
}

func newStore(r keyring.Keyring, debugPrint func(string, ...interface{})) *KeyringStore {
	if debugPrint == nil {
		debugPrint = func(string, ...interface{}) {}
	}
	return &KeyringStore{
		ring:       r,
		cache:      make(map[string][]auth.Credential),
		loaded:     make(map[string]bool),
		debugPrint: debugPrint,
	}
}

func (s *KeyringStore) Lookup(scheme, host string) []auth.Credential {
	key := auth.StoreKey(scheme, host)
	s.mu.RLock()
	if s.loaded[key] {
		out := append([]auth.Credential(nil), s.cache[key]...)
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(scheme, host)
	if err != nil {
		s.debugPrint("secret: load %s: %v", key, err)
		return nil
	}
	return append([]auth.Credential(nil), list...)
}

// load reads the item for key into the cache. Caller holds the write lock.
func (s *KeyringStore) load(scheme, host string) ([]auth.Credential, error) {
	key := auth.StoreKey(scheme, host)
	if s.loaded[key] {
		return s.cache[key], nil
	}
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		s.loaded[key] = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []record
	if err := json.Unmarshal(item.Data, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	list := make([]auth.Credential, 0, len(recs))
	for _, r := range recs {
		list = append(list, auth.Credential{
			Scheme: scheme, Host: host, User: r.User, Secret: r.Secret, Domain: r.Domain, Save: true,
		})
	}
	s.cache[key] = list
	s.loaded[key] = true
	return list, nil
}

// Add stores c, replacing an equal credential.
func (s *KeyringStore) Add(c auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(c.Scheme, c.Host)
	if err != nil {
		return err
	}
	c.Save = true
	next := append([]auth.Credential(nil), list...)
	replaced := false
	for i := range next {
		if next[i].Equal(c) {
			next[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, c)
	}
	return s.write(c.Scheme, c.Host, next)
}

func (s *KeyringStore) Remove(c auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(c.Scheme, c.Host)
	if err != nil {
		return err
	}
	next := make([]auth.Credential, 0, len(list))
	for _, x := range list {
		if !x.Equal(c) {
			next = append(next, x)
		}
	}
	if len(next) == len(list) {
		return nil
	}
	return s.write(c.Scheme, c.Host, next)
}

// write persists list for (scheme, host) and updates the cache on success.
func (s *KeyringStore) write(scheme, host string, list []auth.Credential) error {
	key := auth.StoreKey(scheme, host)
	if len(list) == 0 {
		if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		delete(s.cache, key)
		s.loaded[key] = true
		return nil
	}

	recs := make([]record, 0, len(list))
	for _, c := range list {
		recs = append(recs, record{User: c.User, Secret: c.Secret, Domain: c.Domain})
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	if err := s.ring.Set(keyring.Item{
		Key:         key,
		Data:        data,
		Label:       constants.KeyringServiceName,
		Description: fmt.Sprintf("%d credential(s) for %s", len(recs), key),
	}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	s.cache[key] = list
	s.loaded[key] = true
	s.debugPrint("secret: stored %d credential(s) for %s", len(list), key)
	return nil
}

// Keys lists the servers with stored credentials.
func (s *KeyringStore) Keys() ([]string, error) {
	return s.ring.Keys()
}
