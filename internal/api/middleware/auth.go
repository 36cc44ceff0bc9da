package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"infoex/backend/internal/model"
	"infoex/backend/pkg/jwt"
	"infoex/backend/pkg/response"
)

// Context keys set by JWTAuth
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxUnitID   = "unit_id"
	CtxTokenJTI = "token_jti"
	CtxTokenExp = "token_exp"
)

// Blacklist revoked access tokens keyed by JTI
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the access token from Authorization: Bearer <token>.
// blacklist may be nil, in which case revocation is not checked.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "falta la cabecera de autenticación")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "formato de cabecera de autenticación inválido")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token inválido o caducado")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "tipo de token inválido")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis errors degrade open
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "la sesión ha sido cerrada")
				c.Abort()
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxUnitID, claims.UnitID)
		c.Set(CtxTokenJTI, claims.ID)
		var exp time.Time
		if claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		c.Set(CtxTokenExp, exp)

		c.Next()
	}
}

// RoleAuth lets the request through only for one of the given roles
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, 10002, "no autenticado")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == string(r) {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "no tienes permiso para esta operación")
		c.Abort()
	}
}
