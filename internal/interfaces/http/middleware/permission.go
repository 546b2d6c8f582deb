package middleware

import (
	"net/http"

	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []identity.OperatorRole)
}

// RequireRole creates middleware that requires any of the specified roles.
// The operator must hold at least one of the listed roles to proceed.
func RequireRole(roles ...identity.OperatorRole) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...identity.OperatorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			handleRoleDenied(c, cfg, roles, "Operator lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("operator_id", claims.OperatorID),
				zap.String("role", string(claims.Role)),
			)
		}

		c.Next()
	}
}

// RequireAdmin creates middleware that restricts a route to admins.
// Used for operator management and engine configuration changes.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin)
}

// RequireCurator creates middleware for routes that mutate patterns or
// resolve suggestions. Viewers are read-only.
func RequireCurator() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin, identity.RoleOperator)
}

// handleRoleDenied handles role denied scenarios
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []identity.OperatorRole, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		operatorID := ""
		role := ""
		if claims != nil {
			operatorID = claims.OperatorID
			role = string(claims.Role)
		}

		required := make([]string, 0, len(requiredRoles))
		for _, r := range requiredRoles {
			required = append(required, string(r))
		}

		cfg.Logger.Warn("Role check denied",
			zap.String("reason", reason),
			zap.String("operator_id", operatorID),
			zap.String("role", role),
			zap.Strings("required_roles", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}

// HasRole reports whether the authenticated operator holds the given role
func HasRole(c *gin.Context, role identity.OperatorRole) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.Role == role
}

// CanCurate reports whether the authenticated operator may mutate patterns
// or resolve suggestions
func CanCurate(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.Role.CanCurate()
}

// CheckRoleFunc is a function type for custom access checks
type CheckRoleFunc func(claims *auth.Claims, c *gin.Context) bool

// RequireCustomCheck creates middleware with a custom access check function.
// Useful when access depends on more than the role, e.g. self-service routes.
func RequireCustomCheck(checkFunc CheckRoleFunc) gin.HandlerFunc {
	return RequireCustomCheckWithConfig(checkFunc, RoleConfig{})
}

// RequireCustomCheckWithConfig creates custom access middleware with config
func RequireCustomCheckWithConfig(checkFunc CheckRoleFunc, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, nil, "No authentication claims found")
			return
		}

		if !checkFunc(claims, c) {
			handleRoleDenied(c, cfg, nil, "Custom access check failed")
			return
		}

		c.Next()
	}
}
