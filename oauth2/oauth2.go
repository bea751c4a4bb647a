// Package oauth2 holds the social login adapters. The service's own
// responsibility stops at registering the provider routes and
// acknowledging the callback; the handshake, token exchange and account
// linking all belong to the provider flow.
package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HandleUserFunc is called after a successful provider handshake with
// the exchanged token and the provider's user info.
type HandleUserFunc func(authtype string, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// generateStateCookie writes the anti-CSRF state cookie and returns the
// state value to embed in the provider redirect.
func generateStateCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Println("Error generating rand: ", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:    "oauthstate",
		Value:   state,
		Path:    "/",
		Expires: time.Now().Add(time.Hour),
	})
	return state
}

// Redirector returns the handler that starts the provider handshake by
// redirecting to the provider's consent page.
func Redirector(config *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateStateCookie(w)
		http.Redirect(w, r, config.AuthCodeURL(state), http.StatusFound)
	}
}
