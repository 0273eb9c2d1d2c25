package rest

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/security"
	"github.com/google/uuid"
)

type AuthOptions struct {
	// If set (non-empty), enforce exact issuer match.
	ExpectedIssuer string
}

func AuthMiddleware(verifier security.AccessTokenVerifier, opt AuthOptions) func(next http.Handler) http.Handler {
	if verifier == nil {
		panic("AuthMiddleware: nil verifier")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := strings.TrimSpace(r.Header.Get("Authorization"))
			if h == "" {
				unauthorized(w, r)
				return
			}

			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, r)
				return
			}

			raw := strings.TrimSpace(parts[1])
			if raw == "" {
				unauthorized(w, r)
				return
			}

			claims, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				// expired and invalid both stay 401
				unauthorized(w, r)
				return
			}

			if opt.ExpectedIssuer != "" && claims.Issuer != opt.ExpectedIssuer {
				unauthorized(w, r)
				return
			}

			uid := strings.TrimSpace(claims.UserID)
			if uid == "" {
				unauthorized(w, r)
				return
			}
			if _, err := uuid.Parse(uid); err != nil {
				unauthorized(w, r)
				return
			}

			role := domain.Role(strings.TrimSpace(claims.Role))
			if !role.Valid() {
				role = domain.RoleClient
			}

			ctx := withAuth(r.Context(), AuthContext{UserID: uid, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusUnauthorized, string(domain.CodeUnauthorized), "unauthorized", nil)
}

// RateLimitMiddleware throttles per client IP through the shared Redis
// fixed window. Fail-open when the cache is unreachable.
func RateLimitMiddleware(cache domain.Cache, limit int, window time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, _ := cache.AllowRequest(r.Context(), ip, limit, window)
			if !allowed {
				fail(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keeps it simple: RemoteAddr host part. Trusting X-Forwarded-For
// blindly is a spoofing risk; middleware.RealIP handles the proxy case.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CSP for API: restrictive policy suitable for JSON-only endpoints
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		next.ServeHTTP(w, r)
	})
}
