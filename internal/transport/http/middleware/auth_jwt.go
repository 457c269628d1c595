package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/authz"
	"taskhub/internal/core/auth"
	"taskhub/internal/domain"
	resp "taskhub/internal/transport/http/response"
)

const (
	KeyUserID   = "userId"
	KeyUserRole = "userRole"
)

// AuthJWT 校验 Bearer token，把 uid/role 放进上下文。
// requireRole 非空时整组路由要求该全局角色（如 admin 端）。
func AuthJWT(j *auth.JWTer, requireRole domain.GlobalRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "missing token"))
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		if requireRole != "" && claims.Role != requireRole {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyUserRole, string(claims.Role))
		c.Next()
	}
}

// CurrentPrincipal 从上下文还原请求主体；未认证时 UserID 为 0（匿名）。
func CurrentPrincipal(c *gin.Context) authz.Principal {
	return authz.Principal{
		UserID: c.GetUint(KeyUserID),
		Role:   domain.GlobalRole(c.GetString(KeyUserRole)),
	}
}
