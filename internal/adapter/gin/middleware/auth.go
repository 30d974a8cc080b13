package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	domain "portunus/internal/domain/user"
	apperrors "portunus/pkg/errors"
	"portunus/pkg/logger"
	"portunus/pkg/security"
)

const claimsKey = "auth.claims"

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Auth requires a valid "Authorization: Bearer <jwt>" header and stores the claims on the context.
// When users is non-nil the account must still exist, and its stored admin flag replaces the token's.
func Auth(tokens *security.TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "missing bearer token",
			})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			return
		}

		if users != nil {
			u, err := users.GetByID(c.Request.Context(), claims.UserID)
			if err != nil {
				var notFound *apperrors.NotFoundError
				if errors.As(err, &notFound) {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"error":   "unauthorized",
						"message": "account no longer exists",
					})
					return
				}
				c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
					"error":   apperrors.Code(err),
					"message": "failed to load account",
				})
				return
			}
			current := *claims
			current.IsAdmin = u.IsAdmin
			claims = &current
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), strconv.FormatInt(claims.UserID, 10)))
		c.Next()
	}
}

// AdminOnly rejects authenticated callers without the admin flag. It must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok || !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "administrator access required",
			})
			return
		}
		c.Next()
	}
}

// Claims returns the token claims stored by Auth.
func Claims(c *gin.Context) (*security.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}
