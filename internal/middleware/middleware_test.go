package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rendezvous-csd/rendezvous-api/internal/models"
	"github.com/rendezvous-csd/rendezvous-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)

	if err := logger.Initialize(logger.Config{Level: "debug", Environment: "development"}); err != nil {
		panic(err)
	}
}

var testCookie = SessionCookie{Name: "rendezvous.sid", TTL: time.Hour}

// stubResolver resolves one known handle
type stubResolver struct {
	handle  string
	session *models.Session
	err     error
}

func (r stubResolver) Session(_ context.Context, handle string) (*models.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	if handle != "" && handle == r.handle {
		return r.session, nil
	}
	return nil, nil
}

func guardedRouter(resolver SessionResolver, handlerCalled *bool) *gin.Engine {
	router := gin.New()
	router.POST("/admin", RequireRoleMiddleware(resolver, testCookie, models.RoleAdministrator), func(c *gin.Context) {
		*handlerCalled = true
		session, err := GetSession(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, session.Email)
	})
	return router
}

func TestRequireRoleMiddleware(t *testing.T) {
	admin := &models.Session{ID: "a", Email: "admin@uni.gr", Role: models.RoleAdministrator}
	student := &models.Session{ID: "s", Email: "csd1@uni.gr", Role: models.RoleStudent}

	tests := []struct {
		name       string
		resolver   stubResolver
		cookie     string
		wantStatus int
		wantCalled bool
	}{
		{"administrator session", stubResolver{handle: "h", session: admin}, "h", http.StatusOK, true},
		{"no cookie", stubResolver{handle: "h", session: admin}, "", http.StatusUnauthorized, false},
		{"unknown handle", stubResolver{handle: "h", session: admin}, "other", http.StatusUnauthorized, false},
		{"wrong role", stubResolver{handle: "h", session: student}, "h", http.StatusForbidden, false},
		{"store failure", stubResolver{err: errors.New("db down")}, "h", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			router := guardedRouter(tt.resolver, &called)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCookie.Name, Value: tt.cookie})
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, "admin@uni.gr", w.Body.String())
			}
		})
	}
}

func TestSessionCookie_SetAndClear(t *testing.T) {
	router := gin.New()
	router.GET("/set", func(c *gin.Context) { testCookie.Set(c, "signed-handle") })
	router.GET("/clear", func(c *gin.Context) { testCookie.Clear(c) })
	router.GET("/read", func(c *gin.Context) { c.String(http.StatusOK, testCookie.Read(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set", http.NoBody))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "rendezvous.sid", cookies[0].Name)
	assert.Equal(t, "signed-handle", cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/clear", http.NoBody))
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/read", http.NoBody)
	req.AddCookie(&http.Cookie{Name: "rendezvous.sid", Value: "abc"})
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
}

func TestSessionCookie_SecureUsesSameSiteNone(t *testing.T) {
	secure := SessionCookie{Name: "rendezvous.sid", Secure: true, TTL: time.Hour}
	router := gin.New()
	router.GET("/set", func(c *gin.Context) { secure.Set(c, "h") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set", http.NoBody))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
}

func TestGetSession_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetSession(c)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	c.Set(SessionContextKey, "not a session")
	_, err = GetSession(c)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimitMiddleware(8))
	router.POST("/upload", func(c *gin.Context) {
		buf := make([]byte, 64)
		n, _ := c.Request.Body.Read(buf)
		c.String(http.StatusOK, string(buf[:n]))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("far too large a body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "file_too_large")
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestObservabilityMiddleware_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?email=x@uni.gr", http.NoBody))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
