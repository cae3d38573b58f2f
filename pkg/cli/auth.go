package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaarpec/shaarpec-go/pkg/auth"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with the Analytics API identity provider",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var fromEnv bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login via OIDC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			ctxCfg, err := rt.ResolveContext()
			if err != nil {
				return err
			}
			resolved, err := rt.cfg.ResolveOIDC(ctxCfg)
			if err != nil {
				return err
			}
			loginCfg, err := oidcConfigFromResolved(resolved)
			if err != nil {
				return err
			}
			if fromEnv {
				// Environment settings (SHAARPEC_AUTH_*, .env supported)
				// override the config file, matching hosted deployments.
				loginCfg = auth.LoadSettings().OIDCConfig()
			}
			result, err := auth.Login(context.Background(), loginCfg)
			if err != nil {
				return err
			}
			providerKey := resolveProviderKey(ctxCfg, resolved)
			manager := tokenManager(rt)
			stored := auth.StoredToken{
				AccessToken:  result.Token.AccessToken,
				RefreshToken: result.Token.RefreshToken,
				TokenType:    result.Token.TokenType,
				Expiry:       result.Token.Expiry,
				IDToken:      result.IDToken,
			}
			if err := manager.SaveToken(providerKey, stored); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Authenticated. Token expires at %s\n", stored.Expiry.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromEnv, "from-env", false, "Read auth settings from SHAARPEC_AUTH_* environment variables (.env supported)")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			ctxCfg, err := rt.ResolveContext()
			if err != nil {
				return err
			}
			resolved, err := rt.cfg.ResolveOIDC(ctxCfg)
			if err != nil {
				return err
			}
			providerKey := resolveProviderKey(ctxCfg, resolved)
			manager := tokenManager(rt)
			token, ok, err := manager.GetToken(providerKey)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(rt.Writer(), "Not authenticated")
				return nil
			}
			identity := auth.UserFromToken(token.IDToken)
			if identity == "" {
				identity = auth.UserFromToken(token.AccessToken)
			}
			if identity != "" {
				_, _ = fmt.Fprintf(rt.Writer(), "Authenticated as %s. Token expires at %s\n", identity, token.Expiry.UTC().Format(time.RFC3339))
				return nil
			}
			_, _ = fmt.Fprintf(rt.Writer(), "Authenticated. Token expires at %s\n", token.Expiry.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove cached token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.EnsureConfigLoaded(); err != nil {
				return err
			}
			ctxCfg, err := rt.ResolveContext()
			if err != nil {
				return err
			}
			resolved, err := rt.cfg.ResolveOIDC(ctxCfg)
			if err != nil {
				return err
			}
			providerKey := resolveProviderKey(ctxCfg, resolved)
			if err := tokenManager(rt).DeleteToken(providerKey); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out")
			return nil
		},
	}
}
