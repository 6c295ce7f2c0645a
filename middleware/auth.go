package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/apperr"
	"food-marketplace-api/auth"
	"food-marketplace-api/models"
)

const (
	ctxUserID = "userID"
	ctxEmail  = "email"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// TokenParser is the part of auth.TokenManager the middleware needs.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RevocationChecker reports logged-out tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func abort(c *gin.Context, status int, kind apperr.Kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}

// AuthRequired validates the JWT and injects claims into context
func AuthRequired(tokens TokenParser, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, apperr.KindAuth, "Authorization header required (Bearer <token>)")
			return
		}
		claims, err := tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			abort(c, http.StatusUnauthorized, apperr.KindAuth, "Invalid or expired token")
			return
		}
		if revoked != nil {
			gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				abort(c, http.StatusInternalServerError, "", "could not verify session")
				return
			}
			if gone {
				abort(c, http.StatusUnauthorized, apperr.KindAuth, "Token has been revoked")
				return
			}
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, string(claims.Role))
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ctxRole); !exists {
			abort(c, http.StatusForbidden, apperr.KindAuth, "Role not found in context")
			return
		}
		callerRole := GetRole(c)
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, apperr.KindAuth, "Access denied. Required role(s): "+rolesString(roles))
	}
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}

// GetClaims returns the parsed token, nil outside AuthRequired.
func GetClaims(c *gin.Context) *auth.Claims {
	val, ok := c.Get(ctxClaims)
	if !ok {
		return nil
	}
	claims, _ := val.(*auth.Claims)
	return claims
}
