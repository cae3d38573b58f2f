package cli

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shaarpec/shaarpec-go/pkg/auth"
	"github.com/shaarpec/shaarpec-go/pkg/client"
	"github.com/shaarpec/shaarpec-go/pkg/config"
)

const keyringService = "shaarpecctl"

func buildClient(rt *runtimeState) (*client.Client, error) {
	// Server plus token bypasses config and context resolution entirely.
	if rt.serverOverride != "" && rt.tokenOverride != "" {
		options := []client.Option{
			client.WithAuth(auth.Static(rt.tokenOverride)),
			client.WithUserAgent("shaarpecctl"),
		}
		options = appendSharedOptions(rt, options)
		return client.New(rt.serverOverride, options...)
	}

	if err := rt.EnsureConfigLoaded(); err != nil {
		return nil, err
	}
	ctxCfg, err := rt.ResolveContext()
	if err != nil {
		return nil, err
	}
	server := rt.resolveServer(ctxCfg)
	if server == "" {
		return nil, errors.New("server is required")
	}

	options := []client.Option{
		client.WithUserAgent("shaarpecctl"),
		client.WithTLSConfig(resolveCAFile(ctxCfg, rt), ctxCfg.InsecureSkipTLSVerify),
	}
	if rt.tokenOverride != "" {
		options = append(options, client.WithAuth(auth.Static(rt.tokenOverride)))
	} else {
		provider, err := buildAuthProvider(rt, ctxCfg)
		if err != nil {
			return nil, err
		}
		options = append(options, client.WithAuth(provider))
	}
	if ctxCfg.AnonymousToken != "" {
		options = append(options, client.WithAnonymousToken(ctxCfg.AnonymousToken))
	}
	options = appendSharedOptions(rt, options)
	return client.New(server, options...)
}

func appendSharedOptions(rt *runtimeState, options []client.Option) []client.Option {
	if rt.cfg != nil && rt.cfg.Settings.Timeout != "" {
		if timeout, err := time.ParseDuration(rt.cfg.Settings.Timeout); err == nil {
			options = append(options, client.WithTimeout(timeout))
		}
	}
	if rt.verbose {
		if logger := newVerboseLogger(); logger != nil {
			options = append(options, client.WithLogger(logger))
		}
	}
	return options
}

// newVerboseLogger builds a console logger on stderr so JSON output on
// stdout stays clean.
func newVerboseLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil
	}
	return logger
}

func buildAuthProvider(rt *runtimeState, ctxCfg *config.Context) (auth.Provider, error) {
	resolved, err := rt.cfg.ResolveOIDC(ctxCfg)
	if err != nil {
		return nil, err
	}
	oidcCfg, err := oidcConfigFromResolved(resolved)
	if err != nil {
		return nil, err
	}
	return &auth.FlowProvider{
		Manager: tokenManager(rt),
		Key:     resolveProviderKey(ctxCfg, resolved),
		Config:  oidcCfg,
	}, nil
}

func tokenManager(rt *runtimeState) *auth.TokenManager {
	if rt.TokenStorage() == "keychain" {
		return &auth.TokenManager{Store: auth.KeyringStore{Service: keyringService, User: "tokens"}}
	}
	return &auth.TokenManager{Store: auth.FileStore{Path: config.DefaultTokenPath()}}
}

func oidcConfigFromResolved(resolved *config.ResolvedOIDC) (auth.OIDCConfig, error) {
	secret, err := auth.ResolveClientSecret(resolved.ClientSecret, resolved.ClientSecretEnv, resolved.ClientSecretFile)
	if err != nil {
		return auth.OIDCConfig{}, err
	}
	extra := resolved.ExtraAuthParams
	if resolved.Audience != "" {
		merged := map[string]string{"audience": resolved.Audience}
		for k, v := range extra {
			merged[k] = v
		}
		extra = merged
	}
	return auth.OIDCConfig{
		Authority:       resolved.Authority,
		ClientID:        resolved.ClientID,
		ClientSecret:    secret,
		Scopes:          resolved.Scopes,
		GrantType:       resolved.GrantType,
		CAFile:          resolved.CAFile,
		InsecureSkipTLS: resolved.InsecureSkipTLS,
		ExtraAuthParams: extra,
	}, nil
}

func resolveCAFile(ctxCfg *config.Context, rt *runtimeState) string {
	if ctxCfg == nil {
		return ""
	}
	if ctxCfg.CAFile != "" {
		return ctxCfg.CAFile
	}
	resolved, err := rt.cfg.ResolveOIDC(ctxCfg)
	if err == nil && resolved.CAFile != "" {
		return resolved.CAFile
	}
	return ""
}

func resolveProviderKey(ctxCfg *config.Context, resolved *config.ResolvedOIDC) string {
	if resolved != nil && resolved.ProviderName != "" {
		return resolved.ProviderName
	}
	if ctxCfg != nil {
		return "inline:" + ctxCfg.Name
	}
	return "default"
}
