// Package auth verifies OpenID Connect bearer tokens for the HTTP API.
//
// The verifier discovers the provider's JWKS endpoint through the standard
// well-known configuration document and caches the signing keys with a TTL.
// Every request is checked for a valid RS256 signature plus audience and
// issuer claims.
// When no provider is configured, verification is disabled entirely so the
// server can run locally without an identity provider.
package auth

import (
	"context"
	"crypto/rsa"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maypok86/otter/v2"
)

// jwksTTL bounds how long provider signing keys are trusted before a refetch.
const jwksTTL = time.Hour

// Settings holds the OIDC resource-server configuration.
type Settings struct {
	// ProviderURL is the base URL of the OIDC provider. Empty disables
	// authentication.
	ProviderURL string
	// Audience is the expected aud claim.
	Audience string
	// Issuer is the expected iss claim. Empty defaults to ProviderURL
	// without trailing slashes.
	Issuer string
}

// SettingsFromEnv reads OIDC_PROVIDER_URL, OIDC_AUDIENCE and OIDC_ISSUER.
func SettingsFromEnv() Settings {
	return Settings{
		ProviderURL: os.Getenv("OIDC_PROVIDER_URL"),
		Audience:    os.Getenv("OIDC_AUDIENCE"),
		Issuer:      os.Getenv("OIDC_ISSUER"),
	}
}

// Verifier validates bearer tokens against a single OIDC provider.
type Verifier struct {
	settings Settings
	client   *http.Client
	logger   *slog.Logger
	keys     *otter.Cache[string, *rsa.PublicKey]
}

// New creates a Verifier. Settings with an empty ProviderURL produce a
// verifier whose Middleware passes every request through unchecked.
func New(settings Settings, logger *slog.Logger) *Verifier {
	if settings.Issuer == "" {
		settings.Issuer = strings.TrimRight(settings.ProviderURL, "/")
	}
	if settings.ProviderURL == "" {
		logger.Warn("OIDC_PROVIDER_URL is not set, API authentication is DISABLED")
	}

	keys := otter.Must(&otter.Options[string, *rsa.PublicKey]{
		MaximumSize:      64,
		ExpiryCalculator: otter.ExpiryWriting[string, *rsa.PublicKey](jwksTTL),
	})

	return &Verifier{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		keys:     keys,
	}
}

// Enabled reports whether a provider is configured.
func (v *Verifier) Enabled() bool {
	return v.settings.ProviderURL != ""
}

// Verify checks the raw token's signature, audience and issuer and returns
// its claims. Errors wrapping ErrProviderUnavailable mean the provider could
// not be consulted rather than that the token is bad.
func (v *Verifier) Verify(ctx context.Context, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errNoKeyID
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.settings.Audience),
		jwt.WithIssuer(v.settings.Issuer),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
