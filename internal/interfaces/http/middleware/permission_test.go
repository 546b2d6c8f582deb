package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestClaims(role identity.OperatorRole) *auth.Claims {
	return &auth.Claims{
		OperatorID: "operator-123",
		Username:   "testoperator",
		Role:       role,
	}
}

// withClaims returns a middleware that injects claims as the auth
// middleware would after successful token validation.
func withClaims(claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTOperatorIDKey, claims.OperatorID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Set(JWTRoleKey, claims.Role)
		c.Next()
	}
}

func newRoleTestRouter(claims *auth.Claims, guard gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	if claims != nil {
		router.Use(withClaims(claims))
	}
	router.Use(guard)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRequireRole_AllowedRole(t *testing.T) {
	router := newRoleTestRouter(newTestClaims(identity.RoleOperator), RequireRole(identity.RoleOperator))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_AnyOfMultipleRoles(t *testing.T) {
	router := newRoleTestRouter(
		newTestClaims(identity.RoleViewer),
		RequireRole(identity.RoleAdmin, identity.RoleViewer),
	)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_DeniedRole(t *testing.T) {
	router := newRoleTestRouter(newTestClaims(identity.RoleViewer), RequireRole(identity.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_FORBIDDEN")
}

func TestRequireRole_NoClaims(t *testing.T) {
	router := newRoleTestRouter(nil, RequireRole(identity.RoleOperator))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithConfig_OnDenied(t *testing.T) {
	deniedCalled := false
	var deniedRoles []identity.OperatorRole

	cfg := RoleConfig{
		OnDenied: func(c *gin.Context, requiredRoles []identity.OperatorRole) {
			deniedCalled = true
			deniedRoles = requiredRoles
			c.AbortWithStatusJSON(http.StatusTeapot, gin.H{"custom": "denied"})
		},
	}

	router := newRoleTestRouter(
		newTestClaims(identity.RoleViewer),
		RequireRoleWithConfig(cfg, identity.RoleAdmin),
	)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.True(t, deniedCalled)
	assert.Equal(t, []identity.OperatorRole{identity.RoleAdmin}, deniedRoles)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		role     identity.OperatorRole
		wantCode int
	}{
		{"admin allowed", identity.RoleAdmin, http.StatusOK},
		{"operator denied", identity.RoleOperator, http.StatusForbidden},
		{"viewer denied", identity.RoleViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRoleTestRouter(newTestClaims(tt.role), RequireAdmin())

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireCurator(t *testing.T) {
	tests := []struct {
		name     string
		role     identity.OperatorRole
		wantCode int
	}{
		{"admin allowed", identity.RoleAdmin, http.StatusOK},
		{"operator allowed", identity.RoleOperator, http.StatusOK},
		{"viewer denied", identity.RoleViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRoleTestRouter(newTestClaims(tt.role), RequireCurator())

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHasRole(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(JWTClaimsKey, newTestClaims(identity.RoleAdmin))

	assert.True(t, HasRole(c, identity.RoleAdmin))
	assert.False(t, HasRole(c, identity.RoleViewer))
}

func TestHasRole_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, HasRole(c, identity.RoleAdmin))
}

func TestCanCurate(t *testing.T) {
	tests := []struct {
		role identity.OperatorRole
		want bool
	}{
		{identity.RoleAdmin, true},
		{identity.RoleOperator, true},
		{identity.RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Set(JWTClaimsKey, newTestClaims(tt.role))

			assert.Equal(t, tt.want, CanCurate(c))
		})
	}
}

func TestCanCurate_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.False(t, CanCurate(c))
}

func TestRequireCustomCheck_Allowed(t *testing.T) {
	guard := RequireCustomCheck(func(claims *auth.Claims, c *gin.Context) bool {
		return claims.Username == "testoperator"
	})
	router := newRoleTestRouter(newTestClaims(identity.RoleViewer), guard)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCustomCheck_Denied(t *testing.T) {
	guard := RequireCustomCheck(func(claims *auth.Claims, c *gin.Context) bool {
		return false
	})
	router := newRoleTestRouter(newTestClaims(identity.RoleAdmin), guard)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireCustomCheck_NoClaims(t *testing.T) {
	guard := RequireCustomCheck(func(claims *auth.Claims, c *gin.Context) bool {
		return true
	})
	router := newRoleTestRouter(nil, guard)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
