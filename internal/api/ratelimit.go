package api

import "net/http"

// rateLimitLogin throttles /login and /gconnect per client IP.
func (s *Server) rateLimitLogin(next http.Handler) http.Handler {
	if s.loginLimiter == nil {
		return next
	}
	return s.loginLimiter.Middleware(func(r *http.Request, key string) {
		s.logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
	})(next)
}
