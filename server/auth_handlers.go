package server

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/guildscript/webapi/auth"
)

// LoginHandler starts the login flow: a fresh CSRF token is embedded in the
// provider authorization URL and the caller is redirected there.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.auth.StartLogin(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Location", authURL)
		w.WriteHeader(http.StatusSeeOther)
	}
}

// ConfirmLoginHandler handles the provider callback carrying code and state.
func (s *Server) ConfirmLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "missing code or state")
			return
		}

		session, err := s.auth.ConfirmLogin(r.Context(), code, state)
		if errors.Is(err, auth.BadCSRFTokenErr) {
			writeError(w, http.StatusBadRequest, "bad csrf token, please restart the login flow")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>Login successful! Token: %s</body></html>", session.Token)
	}
}

// LogoutHandler deletes the caller's session.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())

		if err := s.auth.Logout(r.Context(), session.Token); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>Logout successful! %s</body></html>", session.User.Username)
	}
}

// CurrentUserHandler returns the identity behind the caller's session.
func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, session.User)
	}
}
