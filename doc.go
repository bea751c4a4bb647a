// Package duoauth implements local (email/password) and social (OAuth)
// authentication for web applications, issuing a dual access/refresh
// token pair on every successful register or login.
//
// # Architecture
//
// LocalAuth: HTTP handlers for register, login and the current-user
// projection. Each operation is a linear validate -> lookup -> hash/compare
// -> issue-tokens sequence with no state kept between requests.
//
// UserStore: persistence for user accounts, keyed by id and by email.
// Email uniqueness is enforced by the store itself, so the register
// flow's check-then-create pre-check is advisory only. Backends are
// provided for the filesystem, GORM, Redis and Google Cloud Datastore.
//
// TokenIssuer: signs the access (3 hour) and refresh (1 day) JWTs
// carrying the user's id and display name, and writes them as the
// access_token and refresh_token cookies.
//
// # Basic Usage
//
// Wire the pieces together and mount the routes:
//
//	users := stores.NewFSUserStore("/path/to/storage")
//	issuer := &duoauth.TokenIssuer{SecretKey: "..."}
//	local := &duoauth.LocalAuth{Users: users, Tokens: issuer}
//	mw := &duoauth.Middleware{VerifyToken: issuer.Verify}
//
//	router := mux.NewRouter()
//	local.Routes(router, mw)
//
// Social login is delegated entirely to the oauth2 subpackage; the
// service registers the provider routes and acknowledges the callback.
//
// # Security
//
// Passwords are hashed with bcrypt at default cost and never stored or
// echoed in plaintext. Login failures do not distinguish an unknown
// email from a wrong password. Tokens are not persisted server side;
// there is no revocation list.
package duoauth
