package http

import (
	"net/http"

	"bilancio/internal/auth"
	applog "bilancio/internal/log"
)

type sessionJSON struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

func (s *Server) startSession(w http.ResponseWriter, status int, sess auth.Session) {
	auth.SetSessionCookie(w, sess.Token, s.auth.Tokens().TTL(), s.secure)
	writeJSON(w, status, sessionJSON{
		User:  userJSON{ID: sess.User.ID, Username: sess.User.Username},
		Token: sess.Token,
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.auth.Signup(r.Context(), p.Get("username"), p.Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.startSession(w, http.StatusCreated, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.auth.Login(r.Context(), p.Get("username"), p.Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		applog.FieldComponent, applog.ComponentAuth,
		applog.FieldUserID, sess.User.ID,
		applog.FieldOperation, applog.OpLogin)
	s.startSession(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, s.secure)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	writeJSON(w, http.StatusOK, userJSON{ID: u.ID, Username: u.Username})
}
