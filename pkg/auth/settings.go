package auth

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every authentication environment variable.
const EnvPrefix = "SHAARPEC_AUTH_"

// Settings holds authentication details read from the environment, matching
// the variables the hosted API deployments document: SHAARPEC_AUTH_HOST,
// SHAARPEC_AUTH_CLIENT_ID and so on. A .env file in the working directory
// (or any explicitly named env files) is loaded first.
type Settings struct {
	Host         string
	ClientID     string
	ClientSecret string
	Scope        string
	Audience     string
	GrantType    string
	CAFile       string
}

// LoadSettings reads Settings from the environment, after loading the given
// env files (default ".env"). A missing env file is not an error.
func LoadSettings(envFiles ...string) Settings {
	_ = godotenv.Load(envFiles...)
	return Settings{
		Host:         os.Getenv(EnvPrefix + "HOST"),
		ClientID:     os.Getenv(EnvPrefix + "CLIENT_ID"),
		ClientSecret: os.Getenv(EnvPrefix + "CLIENT_SECRET"),
		Scope:        os.Getenv(EnvPrefix + "SCOPE"),
		Audience:     os.Getenv(EnvPrefix + "AUDIENCE"),
		GrantType:    os.Getenv(EnvPrefix + "GRANT_TYPE"),
		CAFile:       os.Getenv(EnvPrefix + "CA_FILE"),
	}
}

// OIDCConfig converts the settings into a flow configuration. Scope is a
// space separated, case-sensitive list; audience is passed through as an
// extra authorization parameter.
func (s Settings) OIDCConfig() OIDCConfig {
	cfg := OIDCConfig{
		Authority:    s.Host,
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		GrantType:    s.GrantType,
		CAFile:       s.CAFile,
	}
	if s.Scope != "" {
		cfg.Scopes = strings.Fields(s.Scope)
	}
	if s.Audience != "" {
		cfg.ExtraAuthParams = map[string]string{"audience": s.Audience}
	}
	return cfg
}
