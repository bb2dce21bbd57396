// Package identity provides anonymous per-device identity primitives.
// The wizard has no accounts; the anonymous ID exists so rate limits
// stick to a device rather than to whatever IP a NAT presents.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"
)

const (
	AnonCookieName   = "wizard_anon_id"
	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const clientKeyKey contextKey = iota

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// ClientKeyFromContext extracts the rate-limit key for the request's
// device. Falls back to empty when the middleware did not run.
func ClientKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientKeyKey).(string); ok {
		return v
	}
	return ""
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

func setAnonCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware injects the per-device client key into the request context,
// minting an anonymous cookie when the device has none. Cookie-less
// clients degrade to IP-keyed identity.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
				key = c.Value
				setAnonCookie(w, key, isDev) // refresh expiry
			} else if id, err := generateAnonID(); err == nil {
				key = id
				setAnonCookie(w, key, isDev)
			}
			if key == "" {
				key = "ip_" + IPFromRequest(r)
			}

			ctx := context.WithValue(r.Context(), clientKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for rate limiting and
// request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
