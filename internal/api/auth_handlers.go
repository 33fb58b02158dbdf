package api

import (
	"net/http"
	"time"

	"github.com/terra-clan/aptitude-engine/internal/app"
	"github.com/terra-clan/aptitude-engine/internal/auth"
	"github.com/terra-clan/aptitude-engine/internal/models"
)

type authResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Identity  *models.Identity    `json:"identity"`
	Profile   *models.Profile     `json:"profile"`
	Scores    []models.ScoreEntry `json:"scores"`
}

func newAuthResponse(st app.State, session *auth.Session) authResponse {
	return authResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Identity:  st.Identity(),
		Profile:   st.Profile(),
		Scores:    st.Scores(),
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, session, err := s.app.SignUp(r.Context(), app.State{}, req)
	if err != nil {
		respondServiceError(w, err, "sign up")
		return
	}

	respondJSON(w, http.StatusCreated, newAuthResponse(st, session))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, session, err := s.app.Login(r.Context(), app.State{}, req)
	if err != nil {
		respondServiceError(w, err, "sign in")
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse(st, session))
}

func (s *Server) handleSendPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req models.PhoneCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.app.SendPhoneCode(r.Context(), req.Phone); err != nil {
		respondServiceError(w, err, "send code")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "code sent",
	})
}

func (s *Server) handleVerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPhoneCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	st, session, err := s.app.VerifyPhoneCode(r.Context(), app.State{}, req)
	if err != nil {
		respondServiceError(w, err, "verify code")
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse(st, session))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.app.Logout(r.Context(), app.State{}, TokenFromContext(r.Context())); err != nil {
		respondServiceError(w, err, "sign out")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "signed out",
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	st, session, err := s.app.Restore(r.Context(), TokenFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, err, "get session")
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse(st, session))
}
