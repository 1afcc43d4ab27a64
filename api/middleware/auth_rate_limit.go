package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oselwa/storefront-backend/api/responses"
	pkgerrors "github.com/oselwa/storefront-backend/pkg/errors"
	"github.com/oselwa/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy throttles an auth surface (login, signup, refresh)
// with fixed-window counters per source IP and per submitted email.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy. A zero window or two zero limits
// disables the policy entirely.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) surface() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

// AuthRateLimit wraps an auth handler with the policy's counters. The IP
// check runs first so a flooded address never costs a body read; the email
// check buffers and restores the body so the handler can still decode it.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		limiter := authLimiter{policy: policy, store: store, logg: logg}
		return http.HandlerFunc(limiter.handle(next))
	}
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

func (l authLimiter) handle(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if l.policy.ipLimit > 0 {
			ip := remoteIP(r)
			if ip != "" {
				key := fmt.Sprintf("rl:ip:%s:%s", l.policy.surface(), ip)
				if !l.check(ctx, w, key, l.policy.ipLimit, "ip", map[string]any{"ip": ip}) {
					return
				}
			}
		}

		if l.policy.emailLimit > 0 {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			if email := emailFromBody(body); email != "" {
				hash := sha256Hex(email)
				key := fmt.Sprintf("rl:email:%s:%s", l.policy.surface(), hash)
				if !l.check(ctx, w, key, l.policy.emailLimit, "email", map[string]any{"email_hash": hash}) {
					return
				}
			}
		}

		next.ServeHTTP(w, r)
	}
}

// check bumps the counter behind key and writes the 429 (or a dependency
// error) itself when the request must not proceed. It reports whether the
// request is still allowed.
func (l authLimiter) check(ctx context.Context, w http.ResponseWriter, key string, limit int, scope string, fields map[string]any) bool {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if count <= int64(limit) {
		return true
	}

	if l.logg != nil {
		fields["scope"] = scope
		fields["policy"] = l.policy.surface()
		fields["attempts"] = count
		fields["limit"] = limit
		fields["window_seconds"] = int(l.policy.window.Seconds())
		l.logg.Warn(l.logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
	return false
}

// remoteIP resolves the client address, trusting proxy headers when set.
func remoteIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for _, part := range strings.Split(fwd, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// emailFromBody pulls the email field out of a JSON auth payload, folded to
// lower case so mixed-case variants share one counter.
func emailFromBody(payload []byte) string {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(req.Email))
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
