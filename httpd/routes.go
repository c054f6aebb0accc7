package httpd

import (
	"net/http"
	"time"
)

func (s *Server) mountRoutes() {
	s.handle(http.MethodPost, "/user/send-code", s.handleSendCode)
	s.handle(http.MethodPost, "/user/register", s.handleRegister)
	s.handle(http.MethodPost, "/user/login", s.handleLogin)
	s.handle(http.MethodPost, "/user/logout", s.handleLogout)
	s.handle(http.MethodPost, "/user/forgot-password/send-code", s.handleForgotSendCode)
	s.handle(http.MethodPost, "/user/forgot-password/reset", s.handleForgotReset)
	s.handle(http.MethodGet, "/user/info", s.handleUserInfo)

	s.handle(http.MethodGet, "/healthz", s.handleHealthz)
	if s.metrics != nil {
		s.handle(http.MethodGet, "/metrics", s.metrics.ServeHTTP)
	}
}

// handle binds a method-guarded route with request logging.
func (s *Server) handle(method, path string, h http.HandlerFunc) {
	s.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.logRequest(r, rec.status, start)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
