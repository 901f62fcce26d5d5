package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
)

// SessionContextKey is the key used to store the session in the gin context
const SessionContextKey = "session"

var (
	ErrSessionNotFound = errors.New("session not found in context")
	ErrInvalidSession  = errors.New("invalid session type")
)

// SessionCookie carries the signed session handle between requests
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
	TTL    time.Duration
}

// Read returns the handle sent by the client, or ""
func (sc SessionCookie) Read(c *gin.Context) string {
	handle, err := c.Cookie(sc.Name)
	if err != nil {
		return ""
	}
	return handle
}

// Set stores handle in the session cookie
func (sc SessionCookie) Set(c *gin.Context, handle string) {
	c.SetSameSite(sc.sameSite())
	c.SetCookie(sc.Name, handle, int(sc.TTL.Seconds()), "/", sc.Domain, sc.Secure, true)
}

// Clear expires the session cookie
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(sc.sameSite())
	c.SetCookie(sc.Name, "", -1, "/", sc.Domain, sc.Secure, true)
}

// The portal frontend is served from another site, so secure cookies must be
// SameSite=None to be sent on its credentialed requests
func (sc SessionCookie) sameSite() http.SameSite {
	if sc.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SessionResolver returns the live session behind a handle, or nil
type SessionResolver interface {
	Session(ctx context.Context, handle string) (*models.Session, error)
}

// RequireRoleMiddleware admits only requests carrying a live session of the given role
func RequireRoleMiddleware(resolver SessionResolver, cookie SessionCookie, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := resolver.Session(c.Request.Context(), cookie.Read(c))
		if err != nil {
			_ = c.Error(fmt.Errorf("session lookup failed: %w", err)) //nolint:errcheck
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "storage_error", "message": "Could not verify session"},
			})
			return
		}

		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "not_logged_in", "message": "You are not logged in"},
			})
			return
		}

		if session.Role != role {
			_ = c.Error(fmt.Errorf("role %s cannot access %s", session.Role, c.FullPath())) //nolint:errcheck
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"code": "forbidden", "message": "Insufficient permissions"},
			})
			return
		}

		c.Set(SessionContextKey, session)
		c.Next()
	}
}

// GetSession extracts the session stored by RequireRoleMiddleware
func GetSession(c *gin.Context) (*models.Session, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*models.Session)
	if !ok {
		return nil, ErrInvalidSession
	}

	return session, nil
}
