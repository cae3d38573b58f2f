package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

type StoredToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
}

// TokenCache maps provider keys to their cached tokens.
type TokenCache struct {
	Tokens map[string]StoredToken `json:"tokens"`
}

// Store persists the token cache. Load returns os.ErrNotExist when no cache
// has been written yet.
type Store interface {
	Load() (*TokenCache, error)
	Save(*TokenCache) error
}

// FileStore keeps the cache as a mode-0600 JSON file.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (*TokenCache, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return decodeCache(content)
}

func (s FileStore) Save(cache *TokenCache) error {
	if cache == nil {
		return errors.New("token cache is nil")
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]StoredToken{}
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	return os.WriteFile(s.Path, content, 0o600)
}

// KeyringStore keeps the cache in the OS keyring under a fixed service name.
type KeyringStore struct {
	Service string
	User    string
}

func (s KeyringStore) Load() (*TokenCache, error) {
	content, err := keyring.Get(s.Service, s.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return decodeCache([]byte(content))
}

func (s KeyringStore) Save(cache *TokenCache) error {
	if cache == nil {
		return errors.New("token cache is nil")
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]StoredToken{}
	}
	content, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal token cache: %w", err)
	}
	if err := keyring.Set(s.Service, s.User, string(content)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func decodeCache(content []byte) (*TokenCache, error) {
	var cache TokenCache
	if err := json.Unmarshal(content, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if cache.Tokens == nil {
		cache.Tokens = map[string]StoredToken{}
	}
	return &cache, nil
}
