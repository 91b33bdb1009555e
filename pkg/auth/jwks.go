package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// ErrProviderUnavailable reports that the OIDC provider could not be reached
// or returned an unusable response. Callers map it to 503 rather than 401.
var ErrProviderUnavailable = errors.New("OIDC provider unavailable")

var errNoKeyID = errors.New("token header has no kid")

// jwk is the subset of RFC 7517 this package needs for RS256 verification.
type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

// publicKey resolves a signing key by kid, refreshing the cached JWKS on a
// miss so freshly rotated provider keys are picked up without a restart.
func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := v.keys.GetIfPresent(kid); ok {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}

	if key, ok := v.keys.GetIfPresent(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("provider JWKS has no key %q", kid)
}

// refreshKeys walks the well-known configuration to the JWKS document and
// caches every usable RSA key it finds.
func (v *Verifier) refreshKeys(ctx context.Context) error {
	wellKnown := strings.TrimRight(v.settings.ProviderURL, "/") + "/.well-known/openid-configuration"

	var discovery struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := v.fetchJSON(ctx, wellKnown, &discovery); err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if discovery.JWKSURI == "" {
		return fmt.Errorf("%w: no jwks_uri in %s", ErrProviderUnavailable, wellKnown)
	}

	var doc jwksDocument
	if err := v.fetchJSON(ctx, discovery.JWKSURI, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	loaded := 0
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		key, err := k.rsaPublicKey()
		if err != nil {
			v.logger.Warn("Skipping malformed JWKS key", "kid", k.Kid, "error", err)
			continue
		}
		v.keys.Set(k.Kid, key)
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("%w: JWKS at %s has no usable RSA keys", ErrProviderUnavailable, discovery.JWKSURI)
	}

	v.logger.Info("Refreshed provider signing keys", "count", loaded)
	return nil
}

// fetchJSON GETs a provider document with retry on transient failures.
func (v *Verifier) fetchJSON(ctx context.Context, url string, out any) error {
	retryCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(retryCtx, http.MethodGet, url, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("building request for %s: %w", url, err))
			}

			resp, err := v.client.Do(req)
			if err != nil {
				return fmt.Errorf("fetching %s: %w", url, err)
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					v.logger.Debug("Failed to close response body", "error", closeErr)
				}
			}()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
				if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
					return err
				}
				return retry.Unrecoverable(err)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decoding %s: %w", url, err)
			}
			return nil
		},
		retry.Context(retryCtx),
		retry.Attempts(4),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(200*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			v.logger.Info("Retrying OIDC fetch",
				"url", url,
				"attempt", n+1,
				"error", err.Error())
		}),
		retry.LastErrorOnly(true),
	)
}

// rsaPublicKey decodes the base64url modulus and exponent of an RSA JWK.
func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e <= 0 {
		return nil, errors.New("non-positive exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
