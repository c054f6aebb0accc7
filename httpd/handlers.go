package httpd

import (
	"encoding/json"
	"net/http"

	"github.com/halcyondev/authgate"
	"github.com/halcyondev/authgate/httpapi"
)

func (s *Server) handleSendCode(w http.ResponseWriter, r *http.Request) {
	var req httpapi.SendCodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.SendActivationCode(r.Context(), req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.OKResponse{OK: true})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req httpapi.RegisterRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.engine.Register(r.Context(), authgate.RegisterRequest{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Code:            req.Code,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.UserResponse{User: publicUser(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req httpapi.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.LoginResponse{Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		s.writeError(w, authgate.ErrTokenMalformed)
		return
	}

	if err := s.engine.Logout(r.Context(), token); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.OKResponse{OK: true})
}

func (s *Server) handleForgotSendCode(w http.ResponseWriter, r *http.Request) {
	var req httpapi.SendCodeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.OKResponse{OK: true})
}

func (s *Server) handleForgotReset(w http.ResponseWriter, r *http.Request) {
	var req httpapi.ResetRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.engine.ConfirmPasswordReset(r.Context(), authgate.ResetRequest{
		Email:           req.Email,
		Code:            req.Code,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.OKResponse{OK: true})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		s.writeError(w, authgate.ErrTokenMalformed)
		return
	}

	user, err := s.engine.CurrentUser(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, httpapi.UserResponse{User: publicUser(user)})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, httpapi.ErrorResponse{Error: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, httpapi.OKResponse{OK: true})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.ReadBodyLimit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, httpapi.ErrorResponse{Error: "invalid_json"})
		return false
	}
	return true
}

func publicUser(u *authgate.UserInfo) httpapi.PublicUser {
	return httpapi.PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
