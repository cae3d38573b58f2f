// Package auth provides the credential capability consumed by the API
// client, backed by OIDC authorization code, device code, and client
// credentials grants with token caching via file or system keyring storage.
// The protocol flows themselves are delegated to go-oidc and x/oauth2.
package auth
