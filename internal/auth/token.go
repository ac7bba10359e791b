package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// fallbackTTL caches opaque (non-JWT) tokens for a short window.
	fallbackTTL = 30 * time.Second

	// expirySkew expires cached tokens slightly early so a token is never
	// handed out moments before the server stops accepting it.
	expirySkew = 5 * time.Second
)

// ResolveFunc obtains a fresh session token, typically by exchanging a
// refresh credential. A terminal failure (refresh credential revoked) must be
// reported by wrapping remote.ErrAuthExpired.
type ResolveFunc func(ctx context.Context) (string, error)

// TokenSource memoizes the session token for its validity window. Concurrent
// callers inside the window share one in-flight resolution instead of each
// hitting the auth endpoint.
type TokenSource struct {
	resolve ResolveFunc
	sfg     singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time
	now    func() time.Time
}

func NewTokenSource(resolve ResolveFunc) *TokenSource {
	return &TokenSource{resolve: resolve, now: time.Now}
}

// Token returns the cached token, resolving a new one when the cache is
// empty or expired.
func (t *TokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.token != "" && t.now().Before(t.expiry) {
		token := t.token
		t.mu.Unlock()
		return token, nil
	}
	t.mu.Unlock()

	v, err, _ := t.sfg.Do("token", func() (interface{}, error) {
		// Re-check under the flight: another caller may have just filled
		// the cache before we were scheduled.
		t.mu.Lock()
		if t.token != "" && t.now().Before(t.expiry) {
			token := t.token
			t.mu.Unlock()
			return token, nil
		}
		t.mu.Unlock()

		token, err := t.resolve(ctx)
		if err != nil {
			// Terminal or not, a failed resolution never populates the
			// cache; the next caller resolves again.
			return "", fmt.Errorf("resolve session token: %w", err)
		}

		t.mu.Lock()
		t.token = token
		t.expiry = t.tokenExpiry(token)
		t.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token eagerly, e.g. after the API answered 401
// mid-window.
func (t *TokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiry = time.Time{}
	t.mu.Unlock()
}

// tokenExpiry reads the exp claim when the token is a JWT. The signature is
// not checked here; the server remains the authority, the claim only sizes
// the cache window.
func (t *TokenSource) tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return t.now().Add(fallbackTTL)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return t.now().Add(fallbackTTL)
	}
	return exp.Time.Add(-expirySkew)
}
