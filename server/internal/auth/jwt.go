package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Gin context keys set by JWT.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims is the JWT payload accepted by the REST API.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// GenerateToken signs an HS256 token for userID and role valid for ttl.
func GenerateToken(secret, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tableside",
		},
		UserID: userID,
		Role:   role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// JWT returns gin middleware that validates a bearer token when mode is "jwt".
// On success the token's user_id and role are stored in the context.
func JWT(mode, secret string) gin.HandlerFunc {
	if mode != "jwt" {
		return func(c *gin.Context) { c.Next() }
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole returns gin middleware that rejects callers whose token role is
// not role. It must run after JWT. Outside "jwt" mode it allows everything.
func RequireRole(mode, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode != "jwt" {
			c.Next()
			return
		}
		if Role(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient role"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when JWT did not run.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Role returns the authenticated role, or "" when JWT did not run.
func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}
