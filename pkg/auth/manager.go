package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// TokenManager reads and writes cached tokens through a Store and refreshes
// them when they are close to expiry.
type TokenManager struct {
	Store Store
}

func (m *TokenManager) GetToken(providerKey string) (StoredToken, bool, error) {
	cache, err := m.Store.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StoredToken{}, false, nil
		}
		return StoredToken{}, false, err
	}
	token, ok := cache.Tokens[providerKey]
	return token, ok, nil
}

func (m *TokenManager) SaveToken(providerKey string, token StoredToken) error {
	cache, err := m.Store.Load()
	if err != nil {
		cache = &TokenCache{Tokens: map[string]StoredToken{}}
	}
	cache.Tokens[providerKey] = token
	return m.Store.Save(cache)
}

func (m *TokenManager) DeleteToken(providerKey string) error {
	cache, err := m.Store.Load()
	if err != nil {
		return err
	}
	delete(cache.Tokens, providerKey)
	return m.Store.Save(cache)
}

// RefreshIfNeeded refreshes the cached token when it expires within two
// minutes. The second return value reports whether a refresh happened.
func (m *TokenManager) RefreshIfNeeded(ctx context.Context, providerKey string, oauthCfg oauth2.Config) (StoredToken, bool, error) {
	token, ok, err := m.GetToken(providerKey)
	if err != nil || !ok {
		return token, false, err
	}
	if token.Expiry.IsZero() || time.Until(token.Expiry) > 2*time.Minute {
		return token, false, nil
	}
	if token.RefreshToken == "" {
		return token, false, errors.New("token expired and no refresh token available")
	}
	src := oauthCfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	})
	refreshed, err := src.Token()
	if err != nil {
		return token, false, fmt.Errorf("failed to refresh token: %w", err)
	}
	stored := StoredToken{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		TokenType:    refreshed.TokenType,
		Expiry:       refreshed.Expiry,
	}
	if idToken, ok := refreshed.Extra("id_token").(string); ok {
		stored.IDToken = idToken
	} else {
		stored.IDToken = token.IDToken
	}
	if err := m.SaveToken(providerKey, stored); err != nil {
		return stored, true, err
	}
	return stored, true, nil
}
