package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const msgInvalidCSRF = "invalid csrf token"

// CSRFMiddleware requires the X-CSRF-Token header to echo the csrf_token
// cookie on state-changing requests. Bearer-authenticated calls skip it.
func (s *Service) CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if safeMethod(c.Request.Method) || s.bearerToken(c) != "" {
			c.Next()
			return
		}
		cookie, _ := c.Cookie(s.csrfCookieName)
		if !tokensMatch(cookie, c.GetHeader(s.csrfHeaderName)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "error", "message": msgInvalidCSRF})
			return
		}
		c.Next()
	}
}

func safeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func tokensMatch(cookie, header string) bool {
	if cookie == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) == 1
}
