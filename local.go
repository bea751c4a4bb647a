package duoauth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
)

// Session keys used when a session manager is configured.
const (
	SessionKeyUserID      = "loggedInUserId"
	SessionKeyDisplayName = "displayName"
)

// UserData is the public projection of a user returned by the auth
// endpoints and embedded in the token claims. The password hash is
// never part of it.
type UserData struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// LocalAuth serves email/password authentication: register, login and
// the current-user projection. Handlers hold no state between requests;
// everything durable lives in Users.
type LocalAuth struct {
	// Users persists accounts and enforces email uniqueness.
	Users UserStore

	// Tokens signs the access/refresh pair set on success.
	Tokens *TokenIssuer

	// Optional session manager. When set, successful auth also records
	// the user in the session, mirroring the cookies.
	Session *scs.SessionManager

	// Logger for unexpected store/crypto failures. Defaults to slog.Default.
	Logger *slog.Logger
}

func (a *LocalAuth) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// HandleRegister processes POST /register.
func (a *LocalAuth) HandleRegister(w http.ResponseWriter, r *http.Request) {
	creds, authErr := parseCredentials(r)
	if authErr == nil {
		authErr = ValidateRegister(creds)
	}
	if authErr != nil {
		a.writeError(w, authErr)
		return
	}

	user, authErr := a.register(creds)
	if authErr != nil {
		a.writeError(w, authErr)
		return
	}

	if !a.issueTokens(w, r, user) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]any{"user": user},
	})
}

// HandleLogin processes POST /login.
func (a *LocalAuth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	creds, authErr := parseCredentials(r)
	if authErr == nil {
		authErr = ValidateLogin(creds)
	}
	if authErr != nil {
		a.writeError(w, authErr)
		return
	}

	user, authErr := a.login(creds)
	if authErr != nil {
		a.writeError(w, authErr)
		return
	}

	if !a.issueTokens(w, r, user) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "success local login",
	})
}

// HandleCurrentUser processes GET /. It is a pure projection of the
// authentication state resolved upstream by Middleware: no store access.
func (a *LocalAuth) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := UserFromContext(r.Context())
	if claims == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"user": UserData{ID: claims.UserID, DisplayName: claims.DisplayName},
		},
	})
}

// HandleLogout clears the token cookies and the session, if any.
func (a *LocalAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ClearAuthCookies(w)
	if a.Session != nil {
		if err := a.Session.Clear(r.Context()); err != nil {
			a.logger().Warn("error clearing session", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out",
	})
}

// register creates the account. Validation has already passed.
func (a *LocalAuth) register(creds *Credentials) (*UserData, *AuthError) {
	email := NormalizeEmail(creds.Email)

	// Advisory pre-check. The store's uniqueness constraint is the
	// authoritative guard against a concurrent duplicate.
	if _, err := a.Users.GetUserByEmail(email); err == nil {
		return nil, NewAuthError(ErrCodeEmailExists, "Email is already exists", "email")
	} else if !errors.Is(err, ErrUserNotFound) {
		a.logger().Error("error looking up email", "err", err)
		return nil, internalError()
	}

	hash, err := HashPassword(creds.Password)
	if err != nil {
		a.logger().Error("error hashing password", "err", err)
		return nil, internalError()
	}

	now := time.Now()
	user := &User{
		ID:           NewUserID(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  creds.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Users.CreateUser(user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, NewAuthError(ErrCodeEmailExists, "Email is already exists", "email")
		}
		a.logger().Error("error creating user", "err", err)
		return nil, internalError()
	}

	return &UserData{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// login verifies the credentials. Unknown email and wrong password are
// deliberately indistinguishable to the caller.
func (a *LocalAuth) login(creds *Credentials) (*UserData, *AuthError) {
	user, err := a.Users.GetUserByEmail(NormalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, incorrectUserError()
		}
		a.logger().Error("error looking up user", "err", err)
		return nil, internalError()
	}

	if !ComparePassword(creds.Password, user.PasswordHash) {
		return nil, incorrectUserError()
	}

	return &UserData{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// issueTokens signs the pair, sets both cookies and mirrors the user
// into the session. Reports false after writing a 500.
func (a *LocalAuth) issueTokens(w http.ResponseWriter, r *http.Request, user *UserData) bool {
	pair, err := a.Tokens.IssuePair(user.ID, user.DisplayName)
	if err != nil {
		a.logger().Error("error signing token pair", "err", err)
		a.writeError(w, internalError())
		return false
	}
	SetAuthCookies(w, pair)

	if a.Session != nil {
		a.Session.Put(r.Context(), SessionKeyUserID, user.ID)
		a.Session.Put(r.Context(), SessionKeyDisplayName, user.DisplayName)
	}
	return true
}

func internalError() *AuthError {
	return NewAuthError(ErrCodeInternal, "internal server error", "")
}

func incorrectUserError() *AuthError {
	return NewAuthError(ErrCodeInvalidCreds, "user is incorrect!", "")
}

// writeError translates an AuthError into the response envelope.
// Conflicts (validation, duplicate email, bad credentials) are 409 to
// stay compatible with the original API contract; everything else 500.
func (a *LocalAuth) writeError(w http.ResponseWriter, authErr *AuthError) {
	status := http.StatusInternalServerError
	if authErr.IsConflict() {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": authErr.Message,
	})
}

// parseCredentials decodes the request body, accepting JSON or form
// encoding.
func parseCredentials(r *http.Request) (*Credentials, *AuthError) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, NewAuthError(ErrCodeMissingField, "Error parsing form", "")
		}
		return &Credentials{
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			DisplayName: r.FormValue("displayName"),
		}, nil
	}

	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return nil, NewAuthError(ErrCodeMissingField, "Invalid post body", "")
	}
	return &creds, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
