package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"dscatalog/internal/metrics"
	"dscatalog/internal/model"
	"dscatalog/internal/security/access"
)

type tokenVerifier interface {
	Verify(raw string) (model.AccessClaims, error)
}

type contextKey string

const securityContextKey contextKey = "security_context"

const bearerRealm = `Bearer realm="dscatalog"`

// AuthMiddleware gates every request with the access policy. Requests to
// public routes pass without their Authorization header being read.
type AuthMiddleware struct {
	verifier tokenVerifier
	policy   *access.Policy
	metrics  *metrics.Metrics
}

func NewAuthMiddleware(verifier tokenVerifier, policy *access.Policy, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, policy: policy, metrics: m}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule := m.policy.Match(r.Method, requestPath(r))

		if rule.Public() {
			m.metrics.AccessDecision(metrics.DecisionPublic)
			next.ServeHTTP(w, r.WithContext(WithSecurityContext(r.Context(), model.Anonymous())))
			return
		}

		sc := model.Anonymous()
		if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
			raw, ok := bearerToken(header)
			if !ok {
				m.deny(w, r, model.ErrUnauthorized, `error="invalid_request"`, "authorization header must use the Bearer scheme")
				return
			}

			claims, err := m.verifier.Verify(raw)
			if err != nil {
				slog.Warn("bearer token rejected", "reason", tokenFailureKind(err), "path", r.URL.Path)
				m.deny(w, r, model.ErrUnauthorized, `error="invalid_token"`, "invalid or expired token")
				return
			}
			sc = model.ContextFromClaims(claims)
		}

		if err := m.policy.Authorize(rule, sc); err != nil {
			m.deny(w, r, err, "", "")
			return
		}

		m.metrics.AccessDecision(metrics.DecisionAllowed)
		next.ServeHTTP(w, r.WithContext(WithSecurityContext(r.Context(), sc)))
	})
}

func (m *AuthMiddleware) deny(w http.ResponseWriter, r *http.Request, err error, challenge string, message string) {
	if errors.Is(err, model.ErrForbidden) {
		m.metrics.AccessDecision(metrics.DecisionForbidden)
		slog.Warn("access denied", "method", r.Method, "path", r.URL.Path)
		writeErrorEnvelope(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
		return
	}

	m.metrics.AccessDecision(metrics.DecisionUnauthorized)
	value := bearerRealm
	if challenge != "" {
		value += ", " + challenge
	}
	if message == "" {
		message = "authentication required"
	}
	w.Header().Set("WWW-Authenticate", value)
	writeErrorEnvelope(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func WithSecurityContext(ctx context.Context, sc model.SecurityContext) context.Context {
	return context.WithValue(ctx, securityContextKey, sc)
}

// SecurityContextFrom returns the caller of the current request. ok is false
// outside the auth middleware.
func SecurityContextFrom(ctx context.Context) (model.SecurityContext, bool) {
	sc, ok := ctx.Value(securityContextKey).(model.SecurityContext)
	return sc, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requestPath is the path the router dispatches on.
func requestPath(r *http.Request) string {
	if r.URL.RawPath != "" {
		return r.URL.RawPath
	}
	return r.URL.Path
}

func tokenFailureKind(err error) string {
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		return "expired"
	case errors.Is(err, model.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, model.ErrMalformedToken):
		return "malformed"
	default:
		return "unknown"
	}
}
