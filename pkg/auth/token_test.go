package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileStoreLoadMissing(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "tokens.json")}
	_, err := store.Load()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	store := FileStore{Path: path}

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	cache := &TokenCache{Tokens: map[string]StoredToken{
		"idp.example.com": {
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
	}}
	require.NoError(t, store.Save(cache))

	loaded, err := store.Load()
	require.NoError(t, err)
	token, ok := loaded.Tokens["idp.example.com"]
	require.True(t, ok)
	require.Equal(t, "access", token.AccessToken)
	require.Equal(t, "refresh", token.RefreshToken)
	require.True(t, expiry.Equal(token.Expiry))
}

func TestFileStorePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := FileStore{Path: path}
	require.NoError(t, store.Save(&TokenCache{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRejectsCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := FileStore{Path: path}
	_, err := store.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse token cache")
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := KeyringStore{Service: "shaarpecctl-test", User: "tokens"}

	_, err := store.Load()
	require.ErrorIs(t, err, os.ErrNotExist)

	cache := &TokenCache{Tokens: map[string]StoredToken{
		"idp": {AccessToken: "secret"},
	}}
	require.NoError(t, store.Save(cache))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "secret", loaded.Tokens["idp"].AccessToken)
}
