package duoauth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token expiry durations.
const (
	TokenExpiryAccess  = 3 * time.Hour
	TokenExpiryRefresh = 24 * time.Hour
)

// Cookie names for the token pair. Both are set on every successful
// register or login, overwriting prior values.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// TokenPair holds the two independently signed bearer tokens issued on
// successful authentication. Tokens are opaque to the server after
// issuance; nothing is persisted.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the user payload embedded in both tokens.
type TokenClaims struct {
	UserID      string
	DisplayName string
}

// TokenIssuer signs and verifies the HS256 access/refresh JWTs.
type TokenIssuer struct {
	// Secret key for signing. Falls back to DUOAUTH_JWT_SECRET_KEY.
	SecretKey string

	// Issuer claim. Defaults to "duoauth".
	Issuer string
}

// EnsureDefaults fills unset fields from the environment or defaults.
func (t *TokenIssuer) EnsureDefaults() *TokenIssuer {
	if t.SecretKey == "" {
		t.SecretKey = strings.TrimSpace(os.Getenv("DUOAUTH_JWT_SECRET_KEY"))
	}
	if t.Issuer == "" {
		t.Issuer = "duoauth"
	}
	return t
}

// IssuePair signs a fresh access/refresh token pair carrying the user's
// id and display name.
func (t *TokenIssuer) IssuePair(userID, displayName string) (*TokenPair, error) {
	t.EnsureDefaults()

	access, err := t.sign(userID, displayName, "access", TokenExpiryAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := t.sign(userID, displayName, "refresh", TokenExpiryRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) sign(userID, displayName, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         userID,
		"displayName": displayName,
		"type":        tokenType,
		"iss":         t.Issuer,
		"iat":         now.Unix(),
		"exp":         now.Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(t.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// Verify validates an access token and returns its user claims.
func (t *TokenIssuer) Verify(tokenString string) (*TokenClaims, error) {
	return t.verify(tokenString, "access")
}

// VerifyRefresh validates a refresh token and returns its user claims.
func (t *TokenIssuer) VerifyRefresh(tokenString string) (*TokenClaims, error) {
	return t.verify(tokenString, "refresh")
}

func (t *TokenIssuer) verify(tokenString, wantType string) (*TokenClaims, error) {
	t.EnsureDefaults()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	if tokenType, ok := claims["type"].(string); !ok || tokenType != wantType {
		return nil, fmt.Errorf("invalid token type")
	}
	if t.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != t.Issuer {
			return nil, fmt.Errorf("invalid issuer")
		}
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing subject")
	}
	displayName, _ := claims["displayName"].(string)
	return &TokenClaims{UserID: sub, DisplayName: displayName}, nil
}

// authCookie builds one token cookie as a value; callers write it once.
func authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(maxAge),
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetAuthCookies writes the access_token and refresh_token cookies with
// expiries matching the embedded tokens.
func SetAuthCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, authCookie(AccessTokenCookie, pair.AccessToken, TokenExpiryAccess))
	http.SetCookie(w, authCookie(RefreshTokenCookie, pair.RefreshToken, TokenExpiryRefresh))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Now(),
		})
	}
}
