package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vitalvision/backend/internal/audit"
	"github.com/vitalvision/backend/pkg/model"
)

const (
	// UserIDKey is the gin context key holding the authenticated user ID
	UserIDKey = "user_id"
	// RoleKey is the gin context key holding the authenticated user's role
	RoleKey = "role"
	// EmailKey is the gin context key holding the authenticated user's email
	EmailKey = "email"
)

// Claims are the JWT claims issued to patients and caregivers
type Claims struct {
	jwt.RegisteredClaims
	Role  model.Role `json:"role"`
	Email string     `json:"email,omitempty"`
}

// AuthConfig configures token verification
type AuthConfig struct {
	Secret []byte
	Issuer string
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}

// JWTMiddleware verifies the HS256 bearer token and stores the subject, role
// and email in the gin context. The request context carries the audit actor.
func JWTMiddleware(cfg AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "invalid authorization format")
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(*jwt.Token) (any, error) {
			return cfg.Secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			unauthorized(c, "invalid token")
			return
		}

		role := claims.Role
		if role != model.RoleCaregiver {
			role = model.RolePatient
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(RoleKey, role)
		c.Set(EmailKey, claims.Email)

		ctx := audit.WithActor(c.Request.Context(), audit.Actor{
			UserID:    claims.Subject,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RoleFrom returns the authenticated role, defaulting to patient
func RoleFrom(c *gin.Context) model.Role {
	if role, ok := c.Get(RoleKey); ok {
		if r, ok := role.(model.Role); ok {
			return r
		}
	}
	return model.RolePatient
}

// RequireRole rejects requests whose role is not one of roles
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := RoleFrom(c)
		for _, r := range roles {
			if r == current {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code":    "FORBIDDEN",
			"message": "this operation requires the " + string(roles[0]) + " role",
		})
	}
}
