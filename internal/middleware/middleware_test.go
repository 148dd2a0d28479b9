package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *utils.TokenIssuer {
	t.Helper()
	issuer, err := utils.NewTokenIssuer("middleware-test-secret")
	require.NoError(t, err)
	return issuer
}

// setupRouter exposes the resolved identity so tests can check it
func setupRouter(verifier TokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(verifier)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		role, _ := CurrentRole(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "role": role})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestAuthMiddleware_AcceptsCookie(t *testing.T) {
	issuer := newIssuer(t)
	userID := uuid.New()
	token, _, err := issuer.Issue(userID, models.RoleOwner)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	setupRouter(issuer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), `"role":"owner"`)
}

func TestAuthMiddleware_AcceptsBearerHeader(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(uuid.New(), models.RoleAdopter)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	setupRouter(issuer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	issuer := newIssuer(t)
	expired, _, err := issuer.WithClock(func() time.Time {
		return time.Now().Add(-48 * time.Hour)
	}).Issue(uuid.New(), models.RoleOwner)
	require.NoError(t, err)

	testCases := []struct {
		name     string
		cookie   string
		header   string
		expected int
	}{
		{name: "missing", expected: http.StatusUnauthorized},
		{name: "wrong_scheme", header: "Basic abc", expected: http.StatusUnauthorized},
		{name: "expired", cookie: expired, expected: http.StatusUnauthorized},
		{name: "malformed", cookie: "not-a-token", expected: http.StatusBadRequest},
		{name: "tampered", cookie: expired[:len(expired)-4] + "AAAA", expected: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			setupRouter(issuer).ServeHTTP(rec, req)

			assert.Equal(t, tc.expected, rec.Code)
			assert.NotContains(t, rec.Body.String(), "user_id")
		})
	}
}

func TestRequireRole(t *testing.T) {
	issuer := newIssuer(t)
	router := setupRouter(issuer, RequireRole(models.RoleOwner))

	for role, expected := range map[models.Role]int{
		models.RoleOwner:   http.StatusOK,
		models.RoleAdopter: http.StatusForbidden,
	} {
		t.Run(string(role), func(t *testing.T) {
			token, _, err := issuer.Issue(uuid.New(), role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, expected, rec.Code)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), HSTSMiddleware(true))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHSTS_DisabledOutsideProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HSTSMiddleware(false))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
