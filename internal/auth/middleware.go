package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	loggedInContextKey     = "auth_logged_in"
	sessionTokenContextKey = "auth_session_token"
)

// Middleware resolves the caller's session and records the logged-in flag in
// the gin context. It never aborts; use RequireLogin or RequirePage for that.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.extractToken(c)
		loggedIn := false
		if token != "" {
			if err := s.ValidateSession(c.Request.Context(), token); err == nil {
				loggedIn = true
				c.Set(sessionTokenContextKey, token)
			}
		}
		c.Set(loggedInContextKey, loggedIn)
		c.Next()
	}
}

// RequireLogin rejects API calls without a valid session.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Authorized(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequirePage redirects browsers without a valid session to loginPath.
func RequirePage(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Authorized(c) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Authorized reports the logged-in flag set by Middleware.
func Authorized(c *gin.Context) bool {
	return c.GetBool(loggedInContextKey)
}

// SessionTokenFromContext retrieves the session token captured by the middleware.
func SessionTokenFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(sessionTokenContextKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

func (s *Service) extractToken(c *gin.Context) string {
	if token := s.bearerToken(c); token != "" {
		return token
	}
	if token, err := c.Cookie(s.cookieName); err == nil && token != "" {
		return token
	}
	return ""
}

// bearerToken returns the token of an "Authorization: Bearer" header, if any.
func (s *Service) bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(s.headerName)
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}
