package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsLogin obtains a token with the client credentials grant.
// It is non-interactive and suitable for service-to-service use.
func ClientCredentialsLogin(ctx context.Context, cfg OIDCConfig) (*LoginResult, error) {
	result, err := BuildOAuthConfig(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, result.Client)

	params := make(map[string][]string, len(cfg.ExtraAuthParams))
	for k, v := range cfg.ExtraAuthParams {
		params[k] = []string{v}
	}
	cc := &clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       result.OAuthConfig.Endpoint.TokenURL,
		Scopes:         cfg.Scopes,
		EndpointParams: params,
	}
	token, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials token failed: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	return &LoginResult{Token: token, IDToken: idToken}, nil
}
