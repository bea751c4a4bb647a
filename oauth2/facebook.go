package oauth2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
)

const facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email&access_token="

// FacebookOAuth2 delegates authentication to Facebook's OAuth flow.
type FacebookOAuth2 struct {
	HandleUser HandleUserFunc

	oauthConfig oauth2.Config
}

// NewFacebookOAuth2 configures the Facebook provider. Empty arguments
// fall back to the OAUTH2_FACEBOOK_* environment variables.
func NewFacebookOAuth2(clientId, clientSecret, callbackUrl string, handleUser HandleUserFunc) *FacebookOAuth2 {
	if clientId == "" {
		clientId = os.Getenv("OAUTH2_FACEBOOK_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("OAUTH2_FACEBOOK_CLIENT_SECRET")
	}
	if callbackUrl == "" {
		callbackUrl = os.Getenv("OAUTH2_FACEBOOK_CALLBACK_URL")
	}

	return &FacebookOAuth2{
		HandleUser: handleUser,
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
	}
}

// HandleRedirect starts the handshake.
func (f *FacebookOAuth2) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	Redirector(&f.oauthConfig)(w, r)
}

// HandleCallback completes the handshake: state check, code exchange,
// user info fetch, then hand off to HandleUser.
func (f *FacebookOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	oauthState, _ := r.Cookie("oauthstate")
	if oauthState == nil {
		http.Error(w, "OauthState is nil", http.StatusBadRequest)
		return
	}
	if r.FormValue("state") != oauthState.Value {
		http.SetCookie(w, &http.Cookie{Name: "oauthstate", MaxAge: -1})
		http.Error(w, "invalid oauth facebook state", http.StatusBadRequest)
		return
	}

	token, err := f.oauthConfig.Exchange(context.Background(), r.FormValue("code"))
	if err != nil {
		log.Println("code exchange wrong: ", err)
		http.Error(w, "oauth exchange failed", http.StatusBadGateway)
		return
	}

	userInfo, err := fetchFacebookUserInfo(token)
	if err != nil {
		log.Println("error fetching facebook user info: ", err)
		http.Error(w, "oauth userinfo failed", http.StatusBadGateway)
		return
	}

	f.HandleUser("oauth", "facebook", token, userInfo, w, r)
}

func fetchFacebookUserInfo(token *oauth2.Token) (map[string]any, error) {
	response, err := http.Get(facebookUserInfoURL + url.QueryEscape(token.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed read response: %w", err)
	}

	var userInfo map[string]any
	if err := json.Unmarshal(contents, &userInfo); err != nil {
		return nil, err
	}
	return userInfo, nil
}

// AckHandleUser is the default post-handshake handler: the adapter only
// acknowledges the flow with an empty JSON object.
func AckHandleUser(authtype string, provider string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte("{}\n"))
}
