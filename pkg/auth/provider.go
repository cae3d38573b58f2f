package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Credentials is the access token material attached to API requests.
type Credentials struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// Provider is the capability the client queries on every request. A nil
// *Credentials with a nil error means the provider holds no credentials and
// the request goes out unauthenticated.
type Provider interface {
	Credentials(ctx context.Context) (*Credentials, error)
}

type noneProvider struct{}

func (noneProvider) Credentials(context.Context) (*Credentials, error) { return nil, nil }

// None returns the explicit "no auth" variant of the capability.
func None() Provider { return noneProvider{} }

type staticProvider struct {
	token string
}

func (p staticProvider) Credentials(context.Context) (*Credentials, error) {
	if p.token == "" {
		return nil, nil
	}
	return &Credentials{AccessToken: p.token, TokenType: "Bearer"}, nil
}

// Static returns a Provider that always presents the given token. An empty
// token behaves like None.
func Static(token string) Provider { return staticProvider{token: token} }

// ErrNotAuthenticated is returned by FlowProvider when no cached token
// exists and the configured grant cannot obtain one non-interactively.
var ErrNotAuthenticated = errors.New("not authenticated")

// FlowProvider serves credentials from the token cache for one provider key,
// refreshing expired tokens through the configured OIDC grant. For the
// client-credentials grant it logs in transparently when no token is cached.
type FlowProvider struct {
	Manager *TokenManager
	Key     string
	Config  OIDCConfig

	once     sync.Once
	oauthCfg oauth2.Config
	initErr  error
}

func (p *FlowProvider) init(ctx context.Context) error {
	p.once.Do(func() {
		result, err := BuildOAuthConfig(ctx, p.Config, "")
		if err != nil {
			p.initErr = err
			return
		}
		p.oauthCfg = result.OAuthConfig
	})
	return p.initErr
}

func (p *FlowProvider) Credentials(ctx context.Context) (*Credentials, error) {
	token, ok, err := p.Manager.GetToken(p.Key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.loginIfPossible(ctx)
	}
	// A token comfortably away from expiry needs no discovery round-trip.
	if token.Expiry.IsZero() || time.Until(token.Expiry) > 2*time.Minute {
		return &Credentials{AccessToken: token.AccessToken, TokenType: token.TokenType, Expiry: token.Expiry}, nil
	}
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	refreshed, didRefresh, err := p.Manager.RefreshIfNeeded(ctx, p.Key, p.oauthCfg)
	if err != nil {
		if p.Config.GrantType == GrantClientCredentials {
			return p.loginIfPossible(ctx)
		}
		return nil, err
	}
	if didRefresh {
		token = refreshed
	}
	return &Credentials{AccessToken: token.AccessToken, TokenType: token.TokenType, Expiry: token.Expiry}, nil
}

func (p *FlowProvider) loginIfPossible(ctx context.Context) (*Credentials, error) {
	if p.Config.GrantType != GrantClientCredentials {
		return nil, ErrNotAuthenticated
	}
	result, err := ClientCredentialsLogin(ctx, p.Config)
	if err != nil {
		return nil, err
	}
	stored := StoredToken{
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		TokenType:    result.Token.TokenType,
		Expiry:       result.Token.Expiry,
		IDToken:      result.IDToken,
	}
	if err := p.Manager.SaveToken(p.Key, stored); err != nil {
		return nil, err
	}
	return &Credentials{AccessToken: stored.AccessToken, TokenType: stored.TokenType, Expiry: stored.Expiry}, nil
}
