package secret

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vfsnav/internal/auth"
)

func openTestStore(t *testing.T, dir string) *KeyringStore {
	t.Helper()
	s, err := NewKeyringStore(Options{Dir: dir, Password: keyring.FixedStringPrompt("test")}, t.Logf)
	require.NoError(t, err)
	return s
}

func TestKeyringStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)

	assert.Empty(t, s.Lookup("sftp", "h"))
	require.NoError(t, s.Add(auth.Credential{Scheme: "sftp", Host: "h", User: "a", Secret: "1"}))
	require.NoError(t, s.Add(auth.Credential{Scheme: "sftp", Host: "h", User: "b", Secret: "2"}))
	require.NoError(t, s.Add(auth.Credential{Scheme: "sftp", Host: "h", User: "a", Secret: "3"}))

	reopened := openTestStore(t, dir)
	got := reopened.Lookup("sftp", "h")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].User)
	assert.Equal(t, "3", got[0].Secret)
	assert.Equal(t, "b", got[1].User)
	assert.True(t, got[0].Save)
}

func TestKeyringStoreRemove(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	c := auth.Credential{Scheme: "smb", Host: "srv", User: "u", Secret: "p", Domain: "corp"}
	require.NoError(t, s.Add(c))
	require.NoError(t, s.Remove(c))
	assert.Empty(t, s.Lookup("smb", "srv"))

	keys, err := openTestStore(t, dir).Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	// removing something absent is not an error
	assert.NoError(t, s.Remove(c))
}

func TestKeyringStoreInChain(t *testing.T) {
	persistent := openTestStore(t, t.TempDir())
	require.NoError(t, persistent.Add(auth.Credential{Scheme: "ftp", Host: "h", User: "saved", Secret: "pw"}))

	chain := auth.NewChain(auth.NewMemoryStore(), persistent, nil, t.Logf)
	cred, err := chain.Authenticate(t.Context(), auth.Request{URL: "ftp://h/", Scheme: "ftp", Host: "h"})
	require.NoError(t, err)
	assert.Equal(t, "saved", cred.User)
	assert.Equal(t, "pw", cred.Secret)
}
