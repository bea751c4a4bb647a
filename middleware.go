package duoauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
)

type userContextKey struct{}

// Middleware resolves the logged-in user for a request. Resolution
// order: request context, session, then the access_token cookie or
// Authorization header verified through VerifyToken.
type Middleware struct {
	AuthTokenHeaderName string
	AuthTokenCookieName string

	// Optional session manager checked before falling back to tokens.
	Session *scs.SessionManager

	// VerifyToken validates a bearer token and returns its user claims.
	// Usually TokenIssuer.Verify.
	VerifyToken func(tokenString string) (*TokenClaims, error)
}

// EnsureDefaults fills unset config fields.
func (m *Middleware) EnsureDefaults() {
	if m.AuthTokenHeaderName == "" {
		m.AuthTokenHeaderName = "Authorization"
	}
	if m.AuthTokenCookieName == "" {
		m.AuthTokenCookieName = AccessTokenCookie
	}
}

// CurrentUser returns the claims of the authenticated user, or nil.
func (m *Middleware) CurrentUser(r *http.Request) *TokenClaims {
	m.EnsureDefaults()

	if claims := UserFromContext(r.Context()); claims != nil {
		return claims
	}

	if m.Session != nil {
		if userID := m.Session.GetString(r.Context(), SessionKeyUserID); userID != "" {
			return &TokenClaims{
				UserID:      userID,
				DisplayName: m.Session.GetString(r.Context(), SessionKeyDisplayName),
			}
		}
	}

	if m.VerifyToken == nil {
		slog.Warn("no auth token verifier configured")
		return nil
	}

	for _, token := range m.candidateTokens(r) {
		claims, err := m.VerifyToken(token)
		if err == nil && claims != nil {
			return claims
		}
	}
	return nil
}

// candidateTokens collects bearer tokens from the auth header and the
// access token cookie.
func (m *Middleware) candidateTokens(r *http.Request) []string {
	var tokens []string
	for _, header := range r.Header.Values(m.AuthTokenHeaderName) {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	for _, cookie := range r.CookiesNamed(m.AuthTokenCookieName) {
		if cookie.Value != "" {
			tokens = append(tokens, cookie.Value)
		}
	}
	return tokens
}

// WithUser loads the authenticated user, if any, into the request
// context for downstream handlers. It never rejects a request.
func (m *Middleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.CurrentUser(r); claims != nil {
			r = r.WithContext(ContextWithUser(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser enforces an authenticated user, responding 401 otherwise.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := m.CurrentUser(r)
		if claims == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), claims)))
	})
}

// ContextWithUser returns a context carrying the user claims.
func ContextWithUser(ctx context.Context, claims *TokenClaims) context.Context {
	return context.WithValue(ctx, userContextKey{}, claims)
}

// UserFromContext returns the authenticated user's claims, or nil.
func UserFromContext(ctx context.Context) *TokenClaims {
	claims, _ := ctx.Value(userContextKey{}).(*TokenClaims)
	return claims
}
