package auth

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// unsignedJWT builds a structurally valid JWT with an empty signature, enough
// for unverified claim extraction.
func unsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestUserFromToken(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   string
	}{
		{
			name:   "email preferred",
			claims: map[string]any{"email": "jo@example.com", "preferred_username": "jo", "sub": "u-1"},
			want:   "jo@example.com",
		},
		{
			name:   "preferred username fallback",
			claims: map[string]any{"preferred_username": "jo", "sub": "u-1"},
			want:   "jo",
		},
		{
			name:   "sub fallback",
			claims: map[string]any{"sub": "u-1"},
			want:   "u-1",
		},
		{
			name:   "no identity claims",
			claims: map[string]any{"iss": "https://idp.example.com"},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, UserFromToken(unsignedJWT(t, tt.claims)))
		})
	}
}

func TestUserFromTokenMalformed(t *testing.T) {
	require.Empty(t, UserFromToken(""))
	require.Empty(t, UserFromToken("not-a-jwt"))
	require.Empty(t, UserFromToken("a.b.c"))
}
