package token

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"auth-service/internal/metrics"
)

// JWK is a single RSA key in RFC 7517 form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

func NewJWK(kid string, pub *rsa.PublicKey) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func (k JWK) PublicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	if len(n) == 0 || len(e) == 0 {
		return nil, errors.New("empty modulus or exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// PublicKeySet renders the active key of keys as a JWKS document.
func PublicKeySet(keys KeySource) (JWKS, error) {
	key, err := keys.SigningKey()
	if err != nil {
		return JWKS{}, err
	}
	return JWKS{Keys: []JWK{NewJWK(key.ID, key.Public())}}, nil
}

// JWKSResolver resolves keys from a remote JWKS endpoint. Keys are cached
// for the configured TTL; an unknown kid forces a refetch, throttled by
// the minimum refresh interval. Fetches are retried a bounded number of
// times and a failed refresh never yields a key.
type JWKSResolver struct {
	uri           string
	client        *http.Client
	ttl           time.Duration
	minRefresh    time.Duration
	retries       uint64
	retryInterval time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	fetchMu sync.Mutex
}

var _ KeyResolver = (*JWKSResolver)(nil)

type JWKSOption func(*JWKSResolver)

func WithHTTPClient(c *http.Client) JWKSOption {
	return func(r *JWKSResolver) { r.client = c }
}

// WithCacheTTL sets how long fetched keys are trusted. Default: 5 minutes.
func WithCacheTTL(d time.Duration) JWKSOption {
	return func(r *JWKSResolver) { r.ttl = d }
}

// WithMinRefreshInterval throttles refetches triggered by unknown kids.
// Default: 10 seconds.
func WithMinRefreshInterval(d time.Duration) JWKSOption {
	return func(r *JWKSResolver) { r.minRefresh = d }
}

// WithRetries sets the retry budget and the initial backoff interval.
func WithRetries(n uint64, interval time.Duration) JWKSOption {
	return func(r *JWKSResolver) {
		r.retries = n
		r.retryInterval = interval
	}
}

func WithJWKSMetrics(m *metrics.Metrics) JWKSOption {
	return func(r *JWKSResolver) { r.metrics = m }
}

func WithJWKSClock(now func() time.Time) JWKSOption {
	return func(r *JWKSResolver) { r.now = now }
}

func NewJWKSResolver(uri string, opts ...JWKSOption) *JWKSResolver {
	r := &JWKSResolver{
		uri:           uri,
		client:        &http.Client{Timeout: 5 * time.Second},
		ttl:           5 * time.Minute,
		minRefresh:    10 * time.Second,
		retries:       3,
		retryInterval: 100 * time.Millisecond,
		now:           time.Now,
		keys:          make(map[string]*rsa.PublicKey),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *JWKSResolver) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := r.cached(kid, true); ok {
		return key, nil
	}

	if err := r.refresh(ctx); err != nil {
		return nil, err
	}

	if key, ok := r.cached(kid, false); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}

func (r *JWKSResolver) cached(kid string, requireFresh bool) (*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if requireFresh && (r.fetchedAt.IsZero() || r.now().Sub(r.fetchedAt) >= r.ttl) {
		return nil, false
	}

	if kid == "" {
		// Only unambiguous when the set holds a single key.
		if len(r.keys) == 1 {
			for _, k := range r.keys {
				return k, true
			}
		}
		return nil, false
	}

	key, ok := r.keys[kid]
	return key, ok
}

func (r *JWKSResolver) refresh(ctx context.Context) error {
	r.fetchMu.Lock()
	defer r.fetchMu.Unlock()

	r.mu.RLock()
	fetchedAt := r.fetchedAt
	r.mu.RUnlock()

	// Another caller refreshed moments ago; don't hammer the endpoint.
	if !fetchedAt.IsZero() && r.now().Sub(fetchedAt) < r.minRefresh {
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.retryInterval

	var set JWKS
	err := backoff.Retry(func() error {
		fetched, err := r.fetch(ctx)
		if err != nil {
			return err
		}
		set = fetched
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.retries), ctx))
	if err != nil {
		r.metrics.KeyFetch(false)
		return fmt.Errorf("fetch key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		pub, err := jwk.PublicKey()
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		r.metrics.KeyFetch(false)
		return errors.New("key set holds no usable RSA signing keys")
	}

	r.mu.Lock()
	r.keys = keys
	r.fetchedAt = r.now()
	r.mu.Unlock()

	r.metrics.KeyFetch(true)
	return nil
}

func (r *JWKSResolver) fetch(ctx context.Context) (JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		return JWKS{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return JWKS{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return JWKS{}, fmt.Errorf("key set endpoint returned status %d", resp.StatusCode)
	default:
		return JWKS{}, backoff.Permanent(fmt.Errorf("key set endpoint returned status %d", resp.StatusCode))
	}

	var set JWKS
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&set); err != nil {
		return JWKS{}, backoff.Permanent(fmt.Errorf("decode key set: %w", err))
	}
	return set, nil
}
