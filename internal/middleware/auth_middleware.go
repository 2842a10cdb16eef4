package middleware

import (
	"net/http"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
	UserRoleKey = "userRole"
)

func unauthorized(c *gin.Context, message, details string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, message, details))
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthMiddleware validates the bearer token and stores the caller's id, username and role on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required", "")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			unauthorized(c, "Invalid authorization header format. Use Bearer <token>", "")
			return
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			utils.LogDebug("token rejected", map[string]interface{}{"error": err.Error(), "request_id": c.GetString(RequestIDKey)})
			unauthorized(c, "Invalid or expired token", err.Error())
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UsernameKey, claims.Username)
		c.Set(UserRoleKey, claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the user role (from JWT claims) is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	names := make([]string, len(allowedRoles))
	for i, r := range allowedRoles {
		names[i] = string(r)
	}
	required := strings.Join(names, ", ")

	return func(c *gin.Context) {
		roleStr := c.GetString(UserRoleKey)
		if roleStr == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found in token claims.", ""))
			return
		}

		for _, r := range names {
			if strings.EqualFold(roleStr, r) {
				c.Next()
				return
			}
		}

		utils.LogWarn("role denied", map[string]interface{}{"role": roleStr, "required": required, "path": c.FullPath()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+required, ""))
	}
}
