package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinMiddleware rewrites the original TokenRefreshMiddleware.__call__
// as explicit Go rather than framework magic: a valid access cookie
// passes straight through; a missing/near-expiry access cookie with a
// still-good refresh cookie gets silently rotated and both cookies
// rewritten before the handler runs; anything else falls through
// unauthenticated and lets the handler's own check reject it.
func (s *Service) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, accessErr := c.Cookie(AccessCookieName)
		if accessErr == nil && !s.NeedsRefresh(access) {
			userID, err := s.ValidateAccess(access)
			if err == nil {
				c.Set("user_id", userID)
				c.Next()
				return
			}
		}

		refresh, refreshErr := c.Cookie(RefreshCookieName)
		if refreshErr != nil {
			c.Next()
			return
		}

		pair, err := s.Rotate(c.Request.Context(), refresh)
		if err != nil {
			s.ClearCookies(c.Writer)
			c.Next()
			return
		}

		s.SetCookies(c.Writer, pair)
		userID, err := s.ValidateAccess(pair.Access)
		if err == nil {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

// RequireAuth aborts with 401 if no user_id was set earlier in the
// chain — used on the authorized route group and by the WS gate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get("user_id"); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
