package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// DeviceCodeLogin runs the device authorization grant. The user is shown a
// verification URL and code; polling of the token endpoint (including
// authorization_pending and slow_down handling) is delegated to x/oauth2.
func DeviceCodeLogin(ctx context.Context, cfg OIDCConfig) (*LoginResult, error) {
	result, err := BuildOAuthConfig(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	if result.OAuthConfig.Endpoint.DeviceAuthURL == "" {
		return nil, errors.New("device authorization endpoint not advertised")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, result.Client)

	var authOpts []oauth2.AuthCodeOption
	for k, v := range cfg.ExtraAuthParams {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}

	deviceAuth, err := result.OAuthConfig.DeviceAuth(ctx, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("device authorization failed: %w", err)
	}

	verificationURL := deviceAuth.VerificationURIComplete
	if verificationURL == "" {
		verificationURL = deviceAuth.VerificationURI
	}
	fmt.Printf("Visit %s and enter code: %s\n", deviceAuth.VerificationURI, deviceAuth.UserCode)
	if verificationURL != "" && !strings.EqualFold(os.Getenv("SHAARPEC_NO_BROWSER"), "true") {
		_ = openBrowser(verificationURL)
	}

	token, err := result.OAuthConfig.DeviceAccessToken(ctx, deviceAuth, authOpts...)
	if err != nil {
		return nil, fmt.Errorf("device token request failed: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	return &LoginResult{Token: token, IDToken: idToken}, nil
}
