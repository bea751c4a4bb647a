package duoauth

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes mounts the local auth HTTP surface on the router:
//
//	GET  /          current user (projection of middleware auth state)
//	POST /register  create account, issue token pair
//	POST /login     verify credentials, issue token pair
//	GET  /logout    clear cookies and session
func (a *LocalAuth) Routes(r *mux.Router, mw *Middleware) {
	r.Handle("/", mw.WithUser(http.HandlerFunc(a.HandleCurrentUser))).Methods(http.MethodGet)
	r.HandleFunc("/register", a.HandleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", a.HandleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", a.HandleLogout).Methods(http.MethodGet)
}
