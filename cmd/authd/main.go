// Command authd runs the standalone auth server: local email/password
// signup and login, Facebook OAuth2, and the current-user endpoint.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"

	"github.com/jmkang/duoauth"
	"github.com/jmkang/duoauth/oauth2"
	"github.com/jmkang/duoauth/stores"
)

type config struct {
	Addr        string `env:"DUOAUTH_ADDR" envDefault:":8080"`
	StoragePath string `env:"DUOAUTH_STORAGE_PATH" envDefault:"./data"`
	JWTSecret   string `env:"DUOAUTH_JWT_SECRET_KEY"`

	FacebookClientID     string `env:"OAUTH2_FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"OAUTH2_FACEBOOK_CLIENT_SECRET"`
	FacebookCallbackURL  string `env:"OAUTH2_FACEBOOK_CALLBACK_URL"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	session := scs.New()
	session.Lifetime = duoauth.TokenExpiryRefresh
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode

	tokens := &duoauth.TokenIssuer{SecretKey: cfg.JWTSecret}
	tokens.EnsureDefaults()

	auth := &duoauth.LocalAuth{
		Users:   stores.NewFSUserStore(cfg.StoragePath),
		Tokens:  tokens,
		Session: session,
		Logger:  logger,
	}

	mw := &duoauth.Middleware{
		Session:     session,
		VerifyToken: tokens.Verify,
	}
	mw.EnsureDefaults()

	router := mux.NewRouter()
	auth.Routes(router, mw)

	facebook := oauth2.NewFacebookOAuth2(
		cfg.FacebookClientID,
		cfg.FacebookClientSecret,
		cfg.FacebookCallbackURL,
		oauth2.AckHandleUser,
	)
	router.HandleFunc("/facebook", facebook.HandleRedirect).Methods("GET")
	router.HandleFunc("/facebook/callback", facebook.HandleCallback).Methods("GET")

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      session.LoadAndSave(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("auth server listening", "addr", cfg.Addr, "storage", cfg.StoragePath)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
